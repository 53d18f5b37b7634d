package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/service"
	"github.com/pribylovaa/homeserve-admin/internal/storage"
)

func TestLoginUser_OK_SetsCookiesAndBody(t *testing.T) {
	t.Parallel()

	h, st, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	user := testCustomer()
	user.PasswordHash = mustBcrypt(t, "Abcdef1!")

	st.EXPECT().UserByEmail(gomock.Any(), user.Email).Return(user, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	req := jsonReq(t, http.MethodPost, "/auth/login", `{"email":"user@example.com","password":"Abcdef1!"}`)
	rec := httptest.NewRecorder()

	h.LoginUser(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool `json:"success"`
		User    struct {
			ID    uuid.UUID `json:"id"`
			Email string    `json:"email"`
			Role  string    `json:"role"`
		} `json:"user"`
		AccessToken      string `json:"access_token"`
		AccessExpiresIn  int64  `json:"access_expires_in"`
		RefreshExpiresIn int64  `json:"refresh_expires_in"`
	}
	decodeBody(t, rec, &resp)

	require.True(t, resp.Success)
	require.Equal(t, user.ID, resp.User.ID)
	require.Equal(t, "customer", resp.User.Role)
	require.NotEmpty(t, resp.AccessToken)
	require.Positive(t, resp.AccessExpiresIn)
	require.Positive(t, resp.RefreshExpiresIn)

	cookies := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.Contains(t, cookies, session.AccessCookie)
	require.Contains(t, cookies, session.RefreshCookie)
	require.True(t, cookies[session.AccessCookie].HttpOnly)
	require.Equal(t, resp.AccessToken, cookies[session.AccessCookie].Value)
}

func TestLoginUser_BadCredentials_Unauthorized(t *testing.T) {
	t.Parallel()

	h, st, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	st.EXPECT().UserByEmail(gomock.Any(), "user@example.com").
		Return(nil, storage.ErrNotFound)

	req := jsonReq(t, http.MethodPost, "/auth/login", `{"email":"user@example.com","password":"Abcdef1!"}`)
	rec := httptest.NewRecorder()

	h.LoginUser(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "unauthenticated", errCode(t, rec))
	require.Empty(t, rec.Result().Cookies())
}

func TestRegisterUser_UnknownField_BadRequest(t *testing.T) {
	t.Parallel()

	h, _, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	req := jsonReq(t, http.MethodPost, "/auth/register", `{"email":"u@e.com","password":"Abcdef1!","surprise":true}`)
	rec := httptest.NewRecorder()

	h.RegisterUser(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_argument", errCode(t, rec))
}

func TestRegisterUser_BadCompanyID_BadRequest(t *testing.T) {
	t.Parallel()

	h, _, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	req := jsonReq(t, http.MethodPost, "/auth/register",
		`{"email":"u@e.com","password":"Abcdef1!","role":"company_admin","company_id":"not-a-uuid"}`)
	rec := httptest.NewRecorder()

	h.RegisterUser(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefreshToken_FromCookie_RotatesPair(t *testing.T) {
	t.Parallel()

	h, st, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	user := testCustomer()

	st.EXPECT().RefreshTokenByHash(gomock.Any(), gomock.Any()).Return(&models.RefreshToken{
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil)
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)
	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), gomock.Any()).Return(true, nil)
	st.EXPECT().SaveRefreshToken(gomock.Any(), gomock.Any()).Return(nil)

	req := jsonReq(t, http.MethodPost, "/auth/refresh-token", "")
	req.AddCookie(&http.Cookie{Name: session.RefreshCookie, Value: "old-refresh"})
	rec := httptest.NewRecorder()

	h.RefreshToken(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	cookies := make(map[string]*http.Cookie)
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c
	}
	require.NotEmpty(t, cookies[session.AccessCookie].Value)
	require.NotEmpty(t, cookies[session.RefreshCookie].Value)
	require.NotEqual(t, "old-refresh", cookies[session.RefreshCookie].Value)
}

func TestRefreshToken_NoTokenAnywhere_Unauthorized(t *testing.T) {
	t.Parallel()

	h, _, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	req := jsonReq(t, http.MethodPost, "/auth/refresh-token", `{}`)
	rec := httptest.NewRecorder()

	h.RefreshToken(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshToken_Revoked_ClearsCookies(t *testing.T) {
	t.Parallel()

	h, st, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	st.EXPECT().RefreshTokenByHash(gomock.Any(), gomock.Any()).Return(&models.RefreshToken{
		UserID:    uuid.New(),
		ExpiresAt: time.Now().Add(time.Hour),
		Revoked:   true,
	}, nil)

	req := jsonReq(t, http.MethodPost, "/auth/refresh-token", "")
	req.AddCookie(&http.Cookie{Name: session.RefreshCookie, Value: "stolen"})
	rec := httptest.NewRecorder()

	h.RefreshToken(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	for _, c := range rec.Result().Cookies() {
		require.Equal(t, -1, c.MaxAge)
		require.Empty(t, c.Value)
	}
}

func TestLogout_WithoutCookie_StillSucceeds(t *testing.T) {
	t.Parallel()

	h, _, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	req := jsonReq(t, http.MethodPost, "/auth/logout", "")
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp successResponse
	decodeBody(t, rec, &resp)
	require.True(t, resp.Success)

	// Оба cookie стёрты.
	require.Len(t, rec.Result().Cookies(), 2)
	for _, c := range rec.Result().Cookies() {
		require.Equal(t, -1, c.MaxAge)
	}
}

func TestLogout_AlreadyRevoked_IsIdempotent(t *testing.T) {
	t.Parallel()

	h, st, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	st.EXPECT().RevokeRefreshTokenIfActive(gomock.Any(), gomock.Any()).
		Return(false, nil)

	req := jsonReq(t, http.MethodPost, "/auth/logout", "")
	req.AddCookie(&http.Cookie{Name: session.RefreshCookie, Value: "already-revoked"})
	rec := httptest.NewRecorder()

	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestProfile_OK(t *testing.T) {
	t.Parallel()

	h, st, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	user := testCustomer()
	st.EXPECT().UserByID(gomock.Any(), user.ID).Return(user, nil)

	req := asPrincipal(jsonReq(t, http.MethodGet, "/auth/profile", ""), service.Principal{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	rec := httptest.NewRecorder()

	h.Profile(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var view struct {
		ID    uuid.UUID `json:"id"`
		Email string    `json:"email"`
		Name  string    `json:"name"`
	}
	decodeBody(t, rec, &view)
	require.Equal(t, user.ID, view.ID)
	require.Equal(t, user.Name, view.Name)
}

func TestProfile_WithoutPrincipal_Unauthorized(t *testing.T) {
	t.Parallel()

	h, _, _, ctrl := newTestHandlers(t)
	defer ctrl.Finish()

	req := jsonReq(t, http.MethodGet, "/auth/profile", "")
	rec := httptest.NewRecorder()

	h.Profile(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
