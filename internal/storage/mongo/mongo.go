// mongo — хранилище чатов (диалоги и сообщения) поверх MongoDB.
package mongo

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pribylovaa/homeserve-admin/internal/storage"
)

const (
	roomsCollection    = "chat_rooms"
	messagesCollection = "chat_messages"
	defaultDBName      = "chat"
)

// Mongo — тонкий адаптер для подключения и коллекций MongoDB.
type Mongo struct {
	client   *mongodriver.Client
	db       *mongodriver.Database
	rooms    *mongodriver.Collection
	messages *mongodriver.Collection
}

// New подключается к MongoDB, проверяет соединение и обеспечивает индексацию.
func New(ctx context.Context, mongoURL string) (*Mongo, error) {
	if mongoURL == "" {
		return nil, fmt.Errorf("mongo: empty url")
	}

	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	dbName := databaseFromURI(mongoURL)
	db := cli.Database(dbName)

	m := &Mongo{
		client:   cli,
		db:       db,
		rooms:    db.Collection(roomsCollection),
		messages: db.Collection(messagesCollection),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		_ = m.Close(ctx)
		return nil, err
	}

	return m, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes создаёт индексы, необходимые чат-хранилищу:
//   - история диалога: chat_room_id + created_at(desc) — keyset-пагинация;
//   - отметка прочтения: chat_room_id + sender_type + is_read;
//   - списки диалогов: company_id + last_message_at(desc) и
//     customer_id + last_message_at(desc).
func (m *Mongo) ensureIndexes(ctx context.Context) error {
	msgModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "chat_room_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("room_created_desc"),
		},
		{
			Keys:    bson.D{{Key: "chat_room_id", Value: 1}, {Key: "sender_type", Value: 1}, {Key: "is_read", Value: 1}},
			Options: options.Index().SetName("room_sender_read"),
		},
	}

	if _, err := m.messages.Indexes().CreateMany(ctx, msgModels); err != nil {
		return fmt.Errorf("mongo ensure message indexes: %w", err)
	}

	roomModels := []mongodriver.IndexModel{
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "last_message_at", Value: -1}},
			Options: options.Index().SetName("company_activity_desc"),
		},
		{
			Keys:    bson.D{{Key: "customer_id", Value: 1}, {Key: "last_message_at", Value: -1}},
			Options: options.Index().SetName("customer_activity_desc"),
		},
	}

	if _, err := m.rooms.Indexes().CreateMany(ctx, roomModels); err != nil {
		return fmt.Errorf("mongo ensure room indexes: %w", err)
	}

	return nil
}

// databaseFromURI достаёт имя БД из URI; по умолчанию — defaultDBName.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDBName
	}

	name := strings.Trim(u.Path, "/")
	if name == "" {
		return defaultDBName
	}

	return name
}

// Проверка на соответствие интерфейсу ChatStorage.
var _ storage.ChatStorage = (*Mongo)(nil)
