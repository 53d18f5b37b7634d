package service

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/realtime"
	"github.com/pribylovaa/homeserve-admin/internal/storage"
)

// sinkCall — одна публикация, записанная recordingSink.
type sinkCall struct {
	event   string
	users   []uuid.UUID
	company uuid.UUID
}

// recordingSink — EventSink для тестов: копит вызовы вместо доставки.
type recordingSink struct {
	mu    sync.Mutex
	calls []sinkCall
}

func (r *recordingSink) Publish(event string, data any, users ...uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sinkCall{event: event, users: users})
}

func (r *recordingSink) PublishCompany(event string, data any, companyID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, sinkCall{event: event, company: companyID})
}

func (r *recordingSink) byEvent(event string) []sinkCall {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []sinkCall
	for _, c := range r.calls {
		if c.event == event {
			out = append(out, c)
		}
	}
	return out
}

func customerPrincipal(userID uuid.UUID) Principal {
	return Principal{UserID: userID, Role: models.RoleCustomer}
}

func adminPrincipal(userID, companyID uuid.UUID) Principal {
	return Principal{UserID: userID, Role: models.RoleCompanyAdmin, CompanyID: companyID}
}

func testRoom(customerID, companyID uuid.UUID) *models.ChatRoom {
	return &models.ChatRoom{
		ID:         "64b0c8f1a2d3e4f5a6b7c8d9",
		CustomerID: customerID,
		CompanyID:  companyID,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestRooms_RoleScoping(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	ctx := context.Background()
	customerID := uuid.New()
	companyID := uuid.New()

	chats.EXPECT().RoomsByCustomer(gomock.Any(), customerID).
		Return([]models.ChatRoom{*testRoom(customerID, companyID)}, nil)

	rooms, err := svc.Rooms(ctx, customerPrincipal(customerID), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, rooms, 1)

	chats.EXPECT().RoomsByCompany(gomock.Any(), companyID).
		Return([]models.ChatRoom{*testRoom(customerID, companyID)}, nil)

	rooms, err = svc.Rooms(ctx, adminPrincipal(uuid.New(), companyID), uuid.Nil)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
}

func TestRooms_Superadmin_RequiresCompanyID(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	sa := Principal{UserID: uuid.New(), Role: models.RoleSuperadmin}

	_, err := svc.Rooms(context.Background(), sa, uuid.Nil)
	require.ErrorIs(t, err, ErrInvalidArgument)

	companyID := uuid.New()
	chats.EXPECT().RoomsByCompany(gomock.Any(), companyID).
		Return(nil, nil)

	_, err = svc.Rooms(context.Background(), sa, companyID)
	require.NoError(t, err)
}

func TestCreateRoom_CustomerOnly(t *testing.T) {
	t.Parallel()

	svc, _, _, ctrl := newSvc(t)
	defer ctrl.Finish()

	_, err := svc.CreateRoom(context.Background(), adminPrincipal(uuid.New(), uuid.New()), uuid.New(), "")
	require.ErrorIs(t, err, ErrRoomAccessDenied)

	_, err = svc.CreateRoom(context.Background(), customerPrincipal(uuid.New()), uuid.Nil, "")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCreateRoom_OK_NotifiesBothSides(t *testing.T) {
	t.Parallel()

	svc, st, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	sink := &recordingSink{}
	svc.SetEvents(sink)

	customerID := uuid.New()
	companyID := uuid.New()

	st.EXPECT().UserByID(gomock.Any(), customerID).
		Return(&models.User{ID: customerID, Name: "Jamie"}, nil)

	chats.EXPECT().CreateRoom(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, room models.ChatRoom) (*models.ChatRoom, error) {
			require.Equal(t, customerID, room.CustomerID)
			require.Equal(t, "Jamie", room.CustomerName)
			require.Equal(t, companyID, room.CompanyID)
			room.ID = "64b0c8f1a2d3e4f5a6b7c8d9"
			return &room, nil
		})

	room, err := svc.CreateRoom(context.Background(), customerPrincipal(customerID), companyID, "booking-42")
	require.NoError(t, err)
	require.Equal(t, "64b0c8f1a2d3e4f5a6b7c8d9", room.ID)

	created := sink.byEvent(realtime.EventChatRoomCreated)
	require.Len(t, created, 2)
	require.Equal(t, []uuid.UUID{customerID}, created[0].users)
	require.Equal(t, companyID, created[1].company)
}

func TestHistory_ClampsPageSize(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	customerID := uuid.New()
	room := testRoom(customerID, uuid.New())

	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil).Times(2)

	// Нулевой размер → дефолт.
	chats.EXPECT().ListMessages(gomock.Any(), room.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, params models.ListParams) (*models.MessagePage, error) {
			require.Equal(t, svc.chatCfg.PageSizeDefault, params.PageSize)
			return &models.MessagePage{}, nil
		})

	_, err := svc.History(context.Background(), customerPrincipal(customerID), room.ID, models.ListParams{})
	require.NoError(t, err)

	// Слишком большой → максимум.
	chats.EXPECT().ListMessages(gomock.Any(), room.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, params models.ListParams) (*models.MessagePage, error) {
			require.Equal(t, svc.chatCfg.PageSizeMax, params.PageSize)
			return &models.MessagePage{}, nil
		})

	_, err = svc.History(context.Background(), customerPrincipal(customerID), room.ID, models.ListParams{PageSize: 10_000})
	require.NoError(t, err)
}

func TestHistory_BadCursor_MapsToInvalidArgument(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	customerID := uuid.New()
	room := testRoom(customerID, uuid.New())

	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	chats.EXPECT().ListMessages(gomock.Any(), room.ID, gomock.Any()).
		Return(nil, storage.ErrInvalidCursor)

	_, err := svc.History(context.Background(), customerPrincipal(customerID), room.ID, models.ListParams{PageToken: "garbage"})
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSendMessage_Validation(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	customerID := uuid.New()
	room := testRoom(customerID, uuid.New())
	p := customerPrincipal(customerID)

	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil).Times(3)

	_, err := svc.SendMessage(context.Background(), p, room.ID, "   ", "")
	require.ErrorIs(t, err, ErrEmptyContent)

	long := strings.Repeat("я", svc.chatCfg.MaxMessageLen+1)
	_, err = svc.SendMessage(context.Background(), p, room.ID, long, "")
	require.ErrorIs(t, err, ErrContentTooLong)

	_, err = svc.SendMessage(context.Background(), p, room.ID, "hello", "image")
	require.ErrorIs(t, err, ErrUnsupportedContentType)
}

func TestSendMessage_OK_FanoutBothSides(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	sink := &recordingSink{}
	svc.SetEvents(sink)

	customerID := uuid.New()
	companyID := uuid.New()
	room := testRoom(customerID, companyID)
	p := customerPrincipal(customerID)

	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)

	chats.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
			require.Equal(t, room.ID, msg.ChatRoomID)
			require.Equal(t, customerID, msg.SenderID)
			require.Equal(t, models.SenderCustomer, msg.SenderType)
			require.Equal(t, "hello", msg.Content)
			require.Equal(t, models.ContentTypeText, msg.ContentType)
			msg.ID = "msg-1"
			return &msg, nil
		})

	// Пересчёт счётчиков после записи перечитывает комнату.
	fresh := *room
	fresh.UnreadCountCompany = 1
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(&fresh, nil)

	msg, err := svc.SendMessage(context.Background(), p, room.ID, "  hello  ", "")
	require.NoError(t, err)
	require.Equal(t, "msg-1", msg.ID)
	require.Equal(t, "hello", msg.Content)

	newMsg := sink.byEvent(realtime.EventNewMessage)
	require.Len(t, newMsg, 2)
	require.Equal(t, []uuid.UUID{customerID}, newMsg[0].users)
	require.Equal(t, companyID, newMsg[1].company)

	unread := sink.byEvent(realtime.EventUnreadCounts)
	require.Len(t, unread, 2)
}

func TestMarkRead_OK(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	sink := &recordingSink{}
	svc.SetEvents(sink)

	customerID := uuid.New()
	companyID := uuid.New()
	room := testRoom(customerID, companyID)
	admin := adminPrincipal(uuid.New(), companyID)

	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	chats.EXPECT().MarkRead(gomock.Any(), room.ID, models.SenderCompanyAdmin, gomock.Any()).
		Return(int64(3), nil)
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)

	count, err := svc.MarkRead(context.Background(), admin, room.ID)
	require.NoError(t, err)
	require.Equal(t, int64(3), count)

	read := sink.byEvent(realtime.EventMessagesRead)
	require.Len(t, read, 2)
}

func TestTyping_OnlyCounterpartySees(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	sink := &recordingSink{}
	svc.SetEvents(sink)

	customerID := uuid.New()
	companyID := uuid.New()
	room := testRoom(customerID, companyID)

	// Клиент печатает — видит компания.
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	require.NoError(t, svc.Typing(context.Background(), customerPrincipal(customerID), room.ID, true))

	typing := sink.byEvent(realtime.EventUserTyping)
	require.Len(t, typing, 1)
	require.Equal(t, companyID, typing[0].company)
	require.Empty(t, typing[0].users)

	// Администратор печатает — видит клиент.
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	require.NoError(t, svc.Typing(context.Background(), adminPrincipal(uuid.New(), companyID), room.ID, false))

	typing = sink.byEvent(realtime.EventUserTyping)
	require.Len(t, typing, 2)
	require.Equal(t, []uuid.UUID{customerID}, typing[1].users)
}

func TestRoomForPrincipal_AccessDenied(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	room := testRoom(uuid.New(), uuid.New())

	// Чужой клиент.
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	_, _, err := svc.roomForPrincipal(context.Background(), customerPrincipal(uuid.New()), room.ID)
	require.ErrorIs(t, err, ErrRoomAccessDenied)

	// Администратор другой компании.
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	_, _, err = svc.roomForPrincipal(context.Background(), adminPrincipal(uuid.New(), uuid.New()), room.ID)
	require.ErrorIs(t, err, ErrRoomAccessDenied)

	// Superadmin действует от компании.
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	_, senderType, err := svc.roomForPrincipal(context.Background(), Principal{UserID: uuid.New(), Role: models.RoleSuperadmin}, room.ID)
	require.NoError(t, err)
	require.Equal(t, models.SenderCompanyAdmin, senderType)

	// Неизвестная комната.
	chats.EXPECT().RoomByID(gomock.Any(), "missing").Return(nil, storage.ErrNotFound)
	_, _, err = svc.roomForPrincipal(context.Background(), customerPrincipal(uuid.New()), "missing")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestHandleEvent_Dispatch(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	customerID := uuid.New()
	companyID := uuid.New()
	room := testRoom(customerID, companyID)

	from := realtime.Identity{
		UserID: customerID,
		Role:   string(models.RoleCustomer),
	}

	// typing_status → Typing.
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)

	data, err := json.Marshal(realtime.TypingStatusPayload{ChatRoomID: room.ID, IsTyping: true})
	require.NoError(t, err)

	svc.HandleEvent(context.Background(), from, realtime.Envelope{
		Event: realtime.EventTypingStatus,
		Data:  data,
	})

	// mark_read → MarkRead (+ пересчёт счётчиков).
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil).Times(2)
	chats.EXPECT().MarkRead(gomock.Any(), room.ID, models.SenderCustomer, gomock.Any()).
		Return(int64(1), nil)

	data, err = json.Marshal(realtime.MarkReadPayload{ChatRoomID: room.ID})
	require.NoError(t, err)

	svc.HandleEvent(context.Background(), from, realtime.Envelope{
		Event: realtime.EventMarkRead,
		Data:  data,
	})

	// Неизвестная роль — событие отбрасывается без похода в хранилище.
	svc.HandleEvent(context.Background(), realtime.Identity{UserID: uuid.New(), Role: "ghost"}, realtime.Envelope{
		Event: realtime.EventTypingStatus,
		Data:  data,
	})

	// Неизвестное событие — тоже.
	svc.HandleEvent(context.Background(), from, realtime.Envelope{Event: "unknown_event"})
}

func TestHandleEvent_SendMessage(t *testing.T) {
	t.Parallel()

	svc, _, chats, ctrl := newSvc(t)
	defer ctrl.Finish()

	customerID := uuid.New()
	room := testRoom(customerID, uuid.New())

	from := realtime.Identity{UserID: customerID, Role: string(models.RoleCustomer)}

	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)
	chats.EXPECT().SaveMessage(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
			msg.ID = "msg-ws"
			return &msg, nil
		})
	chats.EXPECT().RoomByID(gomock.Any(), room.ID).Return(room, nil)

	data, err := json.Marshal(realtime.SendMessagePayload{ChatRoomID: room.ID, Content: "via websocket"})
	require.NoError(t, err)

	svc.HandleEvent(context.Background(), from, realtime.Envelope{
		Event: realtime.EventSendMessage,
		Data:  data,
	})
}
