package handlers

import (
	"net/http"
	"time"

	apierrors "github.com/pribylovaa/homeserve-admin/internal/errors"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

type registerDeviceRequest struct {
	DeviceID  string `json:"device_id"`
	PushToken string `json:"push_token"`
	Platform  string `json:"platform,omitempty"`
}

type registerDeviceResponse struct {
	Success bool `json:"success"`
	// Changed=false — push-токен не изменился, запись не трогали.
	Changed bool `json:"changed"`
}

type deviceView struct {
	DeviceID  string    `json:"device_id"`
	Platform  string    `json:"platform,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type devicesResponse struct {
	Devices []deviceView `json:"devices"`
}

// RegisterDevice регистрирует устройство для push-уведомлений.
func (h *Handlers) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in registerDeviceRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	changed, err := h.Service.RegisterDevice(r.Context(), p, in.DeviceID, in.PushToken, in.Platform)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, registerDeviceResponse{Success: true, Changed: changed})
}

// Devices возвращает устройства текущего пользователя.
// Push-токены наружу не отдаются.
func (h *Handlers) Devices(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	devices, err := h.Service.Devices(r.Context(), p)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := devicesResponse{Devices: make([]deviceView, 0, len(devices))}
	for _, d := range devices {
		out.Devices = append(out.Devices, deviceView{
			DeviceID:  d.DeviceID,
			Platform:  d.Platform,
			UpdatedAt: d.UpdatedAt,
		})
	}

	writeJSON(w, http.StatusOK, out)
}
