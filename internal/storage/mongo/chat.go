package mongo

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/pribylovaa/homeserve-admin/internal/models"
	"github.com/pribylovaa/homeserve-admin/internal/storage"
)

// roomDoc — представление диалога в MongoDB.
type roomDoc struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty"`
	CustomerID          string             `bson:"customer_id"`
	CustomerName        string             `bson:"customer_name"`
	CompanyID           string             `bson:"company_id"`
	BookingID           string             `bson:"booking_id,omitempty"`
	LastMessage         string             `bson:"last_message"`
	LastMessageAt       time.Time          `bson:"last_message_at"`
	LastMessageSenderID string             `bson:"last_message_sender_id"`
	UnreadCountCompany  int64              `bson:"unread_count_company"`
	UnreadCountCustomer int64              `bson:"unread_count_customer"`
	CreatedAt           time.Time          `bson:"created_at"`
}

// messageDoc — представление сообщения в MongoDB.
type messageDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	ChatRoomID  primitive.ObjectID `bson:"chat_room_id"`
	SenderID    string             `bson:"sender_id"`
	SenderType  string             `bson:"sender_type"`
	Content     string             `bson:"content"`
	ContentType string             `bson:"content_type"`
	CreatedAt   time.Time          `bson:"created_at"`
	IsRead      bool               `bson:"is_read"`
}

// encodeCursor кодирует пару (created_at, _id) в непрозрачный токен для клиента.
func encodeCursor(t time.Time, id primitive.ObjectID) string {
	raw := fmt.Sprintf("%d|%s", t.UTC().UnixNano(), id.Hex())

	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// decodeCursor декодирует токен обратно в пару ключей.
func decodeCursor(token string) (time.Time, primitive.ObjectID, error) {
	res, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	parts := strings.SplitN(string(res), "|", 2)
	if len(parts) != 2 {
		return time.Time{}, primitive.NilObjectID, fmt.Errorf("bad parts")
	}

	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	oid, err := primitive.ObjectIDFromHex(parts[1])
	if err != nil {
		return time.Time{}, primitive.NilObjectID, err
	}

	return time.Unix(0, nanos).UTC(), oid, nil
}

// toMS — MongoDB DateTime хранит миллисекунды.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

// CreateRoom создаёт диалог клиента с компанией.
func (m *Mongo) CreateRoom(ctx context.Context, room models.ChatRoom) (*models.ChatRoom, error) {
	const op = "storage/mongo/CreateRoom"

	now := toMS(time.Now())
	doc := roomDoc{
		CustomerID:    room.CustomerID.String(),
		CustomerName:  room.CustomerName,
		CompanyID:     room.CompanyID.String(),
		BookingID:     room.BookingID,
		LastMessageAt: now,
		CreatedAt:     now,
	}

	res, err := m.rooms.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}

	doc.ID = res.InsertedID.(primitive.ObjectID)

	out := roomFromDoc(doc)
	return &out, nil
}

// RoomByID находит диалог по ID. Битый hex — storage.ErrNotFound.
func (m *Mongo) RoomByID(ctx context.Context, id string) (*models.ChatRoom, error) {
	const op = "storage/mongo/RoomByID"

	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	var doc roomDoc
	if err := m.rooms.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: find: %w", op, err)
	}

	out := roomFromDoc(doc)
	return &out, nil
}

// RoomsByCompany возвращает диалоги компании, свежая активность первой.
func (m *Mongo) RoomsByCompany(ctx context.Context, companyID uuid.UUID) ([]models.ChatRoom, error) {
	const op = "storage/mongo/RoomsByCompany"

	return m.listRooms(ctx, op, bson.D{{Key: "company_id", Value: companyID.String()}})
}

// RoomsByCustomer возвращает диалоги клиента, свежая активность первой.
func (m *Mongo) RoomsByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.ChatRoom, error) {
	const op = "storage/mongo/RoomsByCustomer"

	return m.listRooms(ctx, op, bson.D{{Key: "customer_id", Value: customerID.String()}})
}

func (m *Mongo) listRooms(ctx context.Context, op string, filter bson.D) ([]models.ChatRoom, error) {
	findOpts := options.Find().
		SetSort(bson.D{{Key: "last_message_at", Value: -1}, {Key: "_id", Value: -1}})

	cur, err := m.rooms.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var items []models.ChatRoom
	for cur.Next(ctx) {
		var doc roomDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		items = append(items, roomFromDoc(doc))
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	return items, nil
}

// SaveMessage сохраняет сообщение и обновляет на комнате «хвост» и счётчик
// непрочитанного получателя.
func (m *Mongo) SaveMessage(ctx context.Context, msg models.ChatMessage) (*models.ChatMessage, error) {
	const op = "storage/mongo/SaveMessage"

	roomOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(msg.ChatRoomID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	now := toMS(time.Now())
	doc := messageDoc{
		ChatRoomID:  roomOID,
		SenderID:    msg.SenderID.String(),
		SenderType:  string(msg.SenderType),
		Content:     msg.Content,
		ContentType: msg.ContentType,
		CreatedAt:   now,
		IsRead:      false,
	}

	res, err := m.messages.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s: insert: %w", op, err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)

	// Непрочитанное инкрементируется у противоположной стороны.
	unreadField := "unread_count_customer"
	if msg.SenderType == models.SenderCustomer {
		unreadField = "unread_count_company"
	}

	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "last_message", Value: msg.Content},
			{Key: "last_message_at", Value: now},
			{Key: "last_message_sender_id", Value: msg.SenderID.String()},
		}},
		{Key: "$inc", Value: bson.D{{Key: unreadField, Value: int64(1)}}},
	}

	upd, err := m.rooms.UpdateByID(ctx, roomOID, update)
	if err != nil {
		return nil, fmt.Errorf("%s: update room: %w", op, err)
	}

	if upd.MatchedCount == 0 {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	out := messageFromDoc(doc)
	return &out, nil
}

// ListMessages отдаёт страницу истории: created_at DESC, _id DESC с keyset-курсором.
// Выбирается limit+1 документов, лишний отбрасывается и превращается в HasMore —
// признак «есть ещё» не зависит от того, сколько документов попало в страницу.
func (m *Mongo) ListMessages(ctx context.Context, roomID string, params models.ListParams) (*models.MessagePage, error) {
	const op = "storage/mongo/ListMessages"

	roomOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(roomID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	limit := int64(params.PageSize)
	if limit <= 0 {
		limit = 50
	}

	filter := bson.D{{Key: "chat_room_id", Value: roomOID}}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit + 1)

	// Курсор «меньше» для DESC-сортировки.
	if strings.TrimSpace(params.PageToken) != "" {
		t, oid, decErr := decodeCursor(params.PageToken)
		if decErr != nil {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrInvalidCursor)
		}

		filter = append(filter, bson.E{Key: "$or", Value: bson.A{
			bson.D{{Key: "created_at", Value: bson.D{{Key: "$lt", Value: t}}}},
			bson.D{
				{Key: "created_at", Value: t},
				{Key: "_id", Value: bson.D{{Key: "$lt", Value: oid}}},
			},
		}})
	}

	cur, err := m.messages.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	var docs []messageDoc
	for cur.Next(ctx) {
		var doc messageDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%s: decode: %w", op, err)
		}

		docs = append(docs, doc)
	}

	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("%s: cursor: %w", op, err)
	}

	hasMore := int64(len(docs)) > limit
	if hasMore {
		docs = docs[:limit]
	}

	items := make([]models.ChatMessage, 0, len(docs))
	for _, doc := range docs {
		items = append(items, messageFromDoc(doc))
	}

	var next string
	if n := len(docs); n > 0 && hasMore {
		last := docs[n-1]
		next = encodeCursor(last.CreatedAt, last.ID)
	}

	return &models.MessagePage{
		Items:         items,
		NextPageToken: next,
		HasMore:       hasMore,
	}, nil
}

// MarkRead помечает прочитанными сообщения собеседника до момента at включительно
// и обнуляет счётчик непрочитанного читателя. Возвращает число затронутых сообщений.
func (m *Mongo) MarkRead(ctx context.Context, roomID string, reader models.SenderType, at time.Time) (int64, error) {
	const op = "storage/mongo/MarkRead"

	roomOID, err := primitive.ObjectIDFromHex(strings.TrimSpace(roomID))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	// Читаются сообщения противоположной стороны.
	other := models.SenderCustomer
	if reader == models.SenderCustomer {
		other = models.SenderCompanyAdmin
	}

	filter := bson.D{
		{Key: "chat_room_id", Value: roomOID},
		{Key: "sender_type", Value: string(other)},
		{Key: "is_read", Value: false},
		{Key: "created_at", Value: bson.D{{Key: "$lte", Value: toMS(at)}}},
	}

	res, err := m.messages.UpdateMany(ctx, filter, bson.D{
		{Key: "$set", Value: bson.D{{Key: "is_read", Value: true}}},
	})
	if err != nil {
		return 0, fmt.Errorf("%s: update messages: %w", op, err)
	}

	unreadField := "unread_count_customer"
	if reader == models.SenderCompanyAdmin {
		unreadField = "unread_count_company"
	}

	upd, err := m.rooms.UpdateByID(ctx, roomOID, bson.D{
		{Key: "$set", Value: bson.D{{Key: unreadField, Value: int64(0)}}},
	})
	if err != nil {
		return 0, fmt.Errorf("%s: update room: %w", op, err)
	}

	if upd.MatchedCount == 0 {
		return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return res.ModifiedCount, nil
}

func roomFromDoc(doc roomDoc) models.ChatRoom {
	customerID, _ := uuid.Parse(doc.CustomerID)
	companyID, _ := uuid.Parse(doc.CompanyID)
	senderID, _ := uuid.Parse(doc.LastMessageSenderID)

	return models.ChatRoom{
		ID:                  doc.ID.Hex(),
		CustomerID:          customerID,
		CustomerName:        doc.CustomerName,
		CompanyID:           companyID,
		BookingID:           doc.BookingID,
		LastMessage:         doc.LastMessage,
		LastMessageAt:       doc.LastMessageAt.UTC(),
		LastMessageSenderID: senderID,
		UnreadCountCompany:  doc.UnreadCountCompany,
		UnreadCountCustomer: doc.UnreadCountCustomer,
		CreatedAt:           doc.CreatedAt.UTC(),
	}
}

func messageFromDoc(doc messageDoc) models.ChatMessage {
	senderID, _ := uuid.Parse(doc.SenderID)

	return models.ChatMessage{
		ID:          doc.ID.Hex(),
		ChatRoomID:  doc.ChatRoomID.Hex(),
		SenderID:    senderID,
		SenderType:  models.SenderType(doc.SenderType),
		Content:     doc.Content,
		ContentType: doc.ContentType,
		CreatedAt:   doc.CreatedAt.UTC(),
		IsRead:      doc.IsRead,
	}
}
