package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/homeserve-admin/internal/errors"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

type addNotificationRequest struct {
	ID    string `json:"id,omitempty"`
	Title string `json:"title"`
	Body  string `json:"body,omitempty"`
	// UserID — адресат; доступен только superadmin, остальные шлют себе.
	UserID string `json:"user_id,omitempty"`
}

type notificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
}

type addNotificationResponse struct {
	Success bool `json:"success"`
	// Added=false — дубликат по ID, лента не изменилась.
	Added bool `json:"added"`
}

// Notifications возвращает ленту текущего пользователя, новые первыми.
func (h *Handlers) Notifications(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	items, err := h.Service.Notifications(r.Context(), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if items == nil {
		items = []models.Notification{}
	}

	writeJSON(w, http.StatusOK, notificationsResponse{Notifications: items})
}

// AddNotification кладёт уведомление в ленту (повторная доставка с тем же
// ID дедуплицируется).
func (h *Handlers) AddNotification(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in addNotificationRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	target := p.UserID
	if in.UserID != "" {
		parsed, err := uuid.Parse(in.UserID)
		if err != nil {
			apierrors.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
		if parsed != p.UserID && p.Role != models.RoleSuperadmin {
			apierrors.WriteError(w, r, service.ErrPermissionDenied)
			return
		}
		target = parsed
	}

	added, err := h.Service.AddNotification(r.Context(), target, models.Notification{
		ID:        in.ID,
		Title:     in.Title,
		Body:      in.Body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, addNotificationResponse{Success: true, Added: added})
}

// ClearNotifications очищает ленту текущего пользователя.
func (h *Handlers) ClearNotifications(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	if err := h.Service.ClearNotifications(r.Context(), p); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
