package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/pribylovaa/homeserve-admin/internal/errors"
	"github.com/pribylovaa/homeserve-admin/internal/http/session"
	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/service"
)

type createRoomRequest struct {
	CompanyID string `json:"company_id"`
	BookingID string `json:"booking_id,omitempty"`
}

type sendMessageRequest struct {
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type typingRequest struct {
	IsTyping bool `json:"is_typing"`
}

type roomsResponse struct {
	Rooms []service.RoomView `json:"rooms"`
}

type roomResponse struct {
	Room service.RoomView `json:"room"`
}

type messageResponse struct {
	Message service.MessageView `json:"message"`
}

// messagesResponse — страница истории: has_more сообщает о наличии более
// старых сообщений независимо от размера страницы.
type messagesResponse struct {
	Messages      []service.MessageView `json:"messages"`
	NextPageToken string                `json:"next_page_token,omitempty"`
	HasMore       bool                  `json:"has_more"`
}

type markReadResponse struct {
	Success bool  `json:"success"`
	Count   int64 `json:"count"`
}

// ListRooms возвращает диалоги текущего пользователя.
// superadmin обязан передать ?company_id=.
func (h *Handlers) ListRooms(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	companyID := uuid.Nil
	if raw := r.URL.Query().Get("company_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			apierrors.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
		companyID = parsed
	}

	rooms, err := h.Service.Rooms(r.Context(), p, companyID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := roomsResponse{Rooms: make([]service.RoomView, 0, len(rooms))}
	for i := range rooms {
		out.Rooms = append(out.Rooms, service.RoomToView(&rooms[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) CreateRoom(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in createRoomRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	companyID, err := uuid.Parse(in.CompanyID)
	if err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	room, err := h.Service.CreateRoom(r.Context(), p, companyID, in.BookingID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, roomResponse{Room: service.RoomToView(room)})
}

// History отдаёт страницу истории диалога (от новых к старым).
func (h *Handlers) History(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	params := models.ListParams{
		PageToken: r.URL.Query().Get("page_token"),
	}

	if raw := r.URL.Query().Get("page_size"); raw != "" {
		size, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || size < 0 {
			apierrors.WriteError(w, r, service.ErrInvalidArgument)
			return
		}
		params.PageSize = int32(size)
	}

	page, err := h.Service.History(r.Context(), p, chi.URLParam(r, "id"), params)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	out := messagesResponse{
		Messages:      make([]service.MessageView, 0, len(page.Items)),
		NextPageToken: page.NextPageToken,
		HasMore:       page.HasMore,
	}
	for i := range page.Items {
		out.Messages = append(out.Messages, service.MessageToView(&page.Items[i]))
	}

	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) SendMessage(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in sendMessageRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	msg, err := h.Service.SendMessage(r.Context(), p, chi.URLParam(r, "id"), in.Content, in.ContentType)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: service.MessageToView(msg)})
}

func (h *Handlers) MarkRead(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	count, err := h.Service.MarkRead(r.Context(), p, chi.URLParam(r, "id"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, markReadResponse{Success: true, Count: count})
}

func (h *Handlers) Typing(w http.ResponseWriter, r *http.Request) {
	p, ok := session.Principal(r.Context())
	if !ok {
		apierrors.WriteError(w, r, service.ErrInvalidToken)
		return
	}

	var in typingRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, service.ErrInvalidArgument)
		return
	}

	if err := h.Service.Typing(r.Context(), p, chi.URLParam(r, "id"), in.IsTyping); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true})
}
