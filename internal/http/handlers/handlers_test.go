package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pribylovaa/homeserve-admin/internal/config"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/service"
	"github.com/pribylovaa/homeserve-admin/mocks"
)

func newTestHandlers(t *testing.T) (*Handlers, *mocks.MockStorage, *mocks.MockChatStorage, *gomock.Controller) {
	t.Helper()

	ctrl := gomock.NewController(t)
	st := mocks.NewMockStorage(ctrl)
	chats := mocks.NewMockChatStorage(ctrl)

	svc := service.New(st, chats, config.AuthConfig{
		JWTSecret:       "unit-secret",
		AccessTokenTTL:  30 * time.Second,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "admin-api",
		Audience:        []string{"admin-dashboard"},
	}, config.ChatConfig{
		PageSizeDefault: 50,
		PageSizeMax:     200,
		MaxMessageLen:   4000,
	})

	return New(svc, nil, session.CookieOptions{}), st, chats, ctrl
}

func mustBcrypt(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func jsonReq(t *testing.T, method, target, body string) *http.Request {
	t.Helper()

	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// asPrincipal имитирует прохождение session.Auth: кладёт субъекта в контекст.
func asPrincipal(req *http.Request, p service.Principal) *http.Request {
	return req.WithContext(session.WithPrincipal(req.Context(), p))
}

// withRouteID подставляет chi URL-параметр id, как это сделал бы роутер.
func withRouteID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func errCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, rec, &body)
	return body.Error.Code
}

func testCustomer() *models.User {
	return &models.User{
		ID:    uuid.New(),
		Email: "user@example.com",
		Name:  "Jamie",
		Role:  models.RoleCustomer,
	}
}
