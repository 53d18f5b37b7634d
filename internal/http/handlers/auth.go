package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/homeserve-admin/internal/errors"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	logctx "github.com/pribylovaa/homeserve-admin/internal/pkg/log"
	"github.com/pribylovaa/homeserve-admin/internal/pkg/redact"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CompanyID string `json:"company_id,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type userView struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CompanyID string    `json:"company_id,omitempty"`
}

// authResponse — тело ответа login/register/refresh. Токены дублируются
// в HttpOnly cookie; access_token в теле нужен не-браузерным клиентам.
type authResponse struct {
	Success          bool     `json:"success"`
	User             userView `json:"user"`
	AccessToken      string   `json:"access_token"`
	AccessExpiresIn  int64    `json:"access_expires_in"`
	RefreshExpiresIn int64    `json:"refresh_expires_in"`
}

// newAuthResponse считает оставшиеся секунды жизни обоих токенов.
func newAuthResponse(user *models.User, pair *models.TokenPair) authResponse {
	return authResponse{
		Success:          true,
		User:             toUserView(user),
		AccessToken:      pair.AccessToken,
		AccessExpiresIn:  int64(time.Until(pair.AccessExpiresAt).Seconds()),
		RefreshExpiresIn: int64(time.Until(pair.RefreshExpiresAt).Seconds()),
	}
}

type successResponse struct {
	Success bool `json:"success"`
}

func toUserView(u *models.User) userView {
	v := userView{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  string(u.Role),
	}

	if u.CompanyID != uuid.Nil {
		v.CompanyID = u.CompanyID.String()
	}

	return v
}

func (h *Handlers) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var in registerRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	companyID := uuid.Nil
	if in.CompanyID != "" {
		parsed, err := uuid.Parse(in.CompanyID)
		if err != nil {
			apierrors.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
		companyID = parsed
	}

	pair, user, err := h.Service.RegisterUser(r.Context(), in.Email, in.Password, in.Name, models.Role(in.Role), companyID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	session.SetAuthCookies(w, h.Cookies, pair)

	logctx.From(r.Context()).Info("user_registered",
		slog.String("user_id", user.ID.String()),
		slog.String("email", redact.Email(user.Email)),
	)

	writeJSON(w, http.StatusOK, newAuthResponse(user, pair))
}

func (h *Handlers) LoginUser(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	pair, user, err := h.Service.LoginUser(r.Context(), in.Email, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	session.SetAuthCookies(w, h.Cookies, pair)

	writeJSON(w, http.StatusOK, newAuthResponse(user, pair))
}

// RefreshToken — явная ротация пары по refresh-токену
// (cookie, для не-браузерных клиентов — поле тела).
func (h *Handlers) RefreshToken(w http.ResponseWriter, r *http.Request) {
	refreshToken, ok := session.RefreshTokenFrom(r)
	if !ok {
		var in refreshRequest
		if err := decodeStrict(r, &in); err != nil || in.RefreshToken == "" {
			apierrors.WriteError(w, r, service.ErrInvalidToken)
			return
		}
		refreshToken = in.RefreshToken
	}

	pair, user, err := h.Service.RefreshToken(r.Context(), refreshToken)
	if err != nil {
		session.ClearAuthCookies(w, h.Cookies)
		apierrors.WriteError(w, r, err)
		return
	}

	session.SetAuthCookies(w, h.Cookies, pair)

	writeJSON(w, http.StatusOK, newAuthResponse(user, pair))
}

// Logout отзывает refresh-токен и стирает cookie.
// Повторный logout (токен уже отозван/неизвестен) — тоже успех.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if refreshToken, ok := session.RefreshTokenFrom(r); ok {
		if err := h.Service.RevokeToken(r.Context(), refreshToken); err != nil {
			if !errors.Is(err, service.ErrInvalidToken) && !errors.Is(err, service.ErrTokenRevoked) {
				apierrors.WriteError(w, r, err)
				return
			}

			logctx.From(r.Context()).Warn("logout_revoke_noop",
				slog.String("err", err.Error()),
			)
		}
	}

	session.ClearAuthCookies(w, h.Cookies)
	writeJSON(w, http.StatusOK, successResponse{Success: true})
}

// Profile возвращает учётную запись текущего пользователя.
func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	user, err := h.Service.Profile(r.Context(), p.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserView(user))
}
