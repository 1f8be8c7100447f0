package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"ywbilling/entity"
	"ywbilling/internal/config"
	"ywbilling/internal/invoice"
	"ywbilling/lib/clock"
	"ywbilling/lib/sl"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collectionUsers    = "users"
	collectionInvoices = "invoices"
	collectionCounters = "counters"
)

type MongoDB struct {
	clientOptions *options.ClientOptions
	database      string
	log           *slog.Logger
}

func NewMongoClient(conf *config.Config, log *slog.Logger) *MongoDB {
	if !conf.Mongo.Enabled {
		return nil
	}
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Mongo.Host, conf.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Mongo.User,
			Password:   conf.Mongo.Password,
			AuthSource: conf.Mongo.Database,
		})
	}
	return &MongoDB{
		clientOptions: clientOptions,
		database:      conf.Mongo.Database,
		log:           log.With(sl.Module("database.mongo")),
	}
}

func (m *MongoDB) connect(ctx context.Context) (*mongo.Client, error) {
	connection, err := mongo.Connect(ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoDB) disconnect(ctx context.Context, connection *mongo.Client) {
	_ = connection.Disconnect(ctx)
}

func (m *MongoDB) findError(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return fmt.Errorf("mongodb find: %w", err)
}

func (m *MongoDB) GetUser(token string) (*entity.User, error) {
	ctx := context.Background()
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "token", Value: token}}
	var user entity.User
	if err = collection.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, m.findError(err)
	}
	return &user, nil
}

func (m *MongoDB) GetAllTelegramUsers() ([]*entity.User, error) {
	ctx := context.Background()
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: bson.D{{Key: "$gt", Value: 0}}}}
	cursor, err := collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*entity.User
	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (m *MongoDB) SetTelegramTopics(id int64, topics []string) error {
	ctx := context.Background()
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: id}}
	var update bson.D
	if len(topics) == 0 {
		update = bson.D{{Key: "$unset", Value: bson.D{{Key: "topics", Value: ""}}}}
	} else {
		update = bson.D{{Key: "$set", Value: bson.D{{Key: "topics", Value: topics}}}}
	}
	_, err = collection.UpdateOne(ctx, filter, update)
	return err
}

// SetTelegramEnabled creates the subscriber on first contact
func (m *MongoDB) SetTelegramEnabled(id int64, username string, isActive bool, logLevel int) error {
	ctx := context.Background()
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionUsers)
	filter := bson.D{{Key: "telegram_id", Value: id}}
	update := bson.D{
		{Key: "$set", Value: bson.D{
			{Key: "telegram_enabled", Value: isActive},
			{Key: "log_level", Value: logLevel},
			{Key: "telegram_username", Value: username},
		}},
		{Key: "$setOnInsert", Value: bson.D{
			{Key: "username", Value: fmt.Sprintf("tg%d", id)},
			{Key: "role", Value: entity.RoleAdmin},
		}},
	}
	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// NextSequence atomically reserves the next invoice number of a series
func (m *MongoDB) NextSequence(ctx context.Context, series string) (int, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return 0, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionCounters)
	filter := bson.D{{Key: "_id", Value: series}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: "seq", Value: 1}}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var counter struct {
		Seq int `bson:"seq"`
	}
	if err = collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
		return 0, fmt.Errorf("next sequence %s: %w", series, err)
	}
	return counter.Seq, nil
}

func (m *MongoDB) SaveInvoice(ctx context.Context, inv *entity.Invoice) error {
	connection, err := m.connect(ctx)
	if err != nil {
		return err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	filter := bson.D{{Key: "id", Value: inv.Id}}
	update := bson.D{{Key: "$set", Value: bson.M(invoice.ToRecord(inv))}}
	_, err = collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// GetInvoice looks up by id or invoice number; nil when absent
func (m *MongoDB) GetInvoice(ctx context.Context, id string) (*entity.Invoice, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "id", Value: id}},
		bson.D{{Key: "invoice_number", Value: id}},
	}}}
	var doc bson.M
	if err = collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, m.findError(err)
	}
	return toInvoice(doc)
}

func (m *MongoDB) InvoiceByOrder(ctx context.Context, orderId string) (*entity.Invoice, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	filter := bson.D{{Key: "order_id", Value: orderId}}
	var doc bson.M
	if err = collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, m.findError(err)
	}
	return toInvoice(doc)
}

// InvoicesDue lists issued invoices whose due date is before the given day
func (m *MongoDB) InvoicesDue(ctx context.Context, before time.Time) ([]*entity.Invoice, error) {
	filter := bson.D{
		{Key: "status", Value: string(entity.InvoiceIssued)},
		{Key: "due_date", Value: bson.D{{Key: "$lt", Value: clock.FormatDate(before)}}},
	}
	return m.findInvoices(ctx, filter, nil)
}

func (m *MongoDB) InvoicesByEmail(ctx context.Context, email string) ([]*entity.Invoice, error) {
	filter, opts := byEmailQuery(email)
	return m.findInvoices(ctx, filter, opts)
}

// byEmailQuery matches the buyer email ignoring case, newest first
func byEmailQuery(email string) (bson.D, *options.FindOptions) {
	filter := bson.D{{Key: "buyer_email", Value: strings.TrimSpace(email)}}
	opts := options.Find().
		SetCollation(&options.Collation{Locale: "en", Strength: 2}).
		SetSort(bson.D{{Key: "issued_at", Value: -1}})
	return filter, opts
}

func (m *MongoDB) findInvoices(ctx context.Context, filter bson.D, opts *options.FindOptions) ([]*entity.Invoice, error) {
	connection, err := m.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer m.disconnect(ctx, connection)

	collection := connection.Database(m.database).Collection(collectionInvoices)
	var cursor *mongo.Cursor
	if opts != nil {
		cursor, err = collection.Find(ctx, filter, opts)
	} else {
		cursor, err = collection.Find(ctx, filter)
	}
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.M
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return m.decodeInvoices(docs), nil
}

// decodeInvoices skips documents that do not convert; one broken record
// must not hide the rest of a listing
func (m *MongoDB) decodeInvoices(docs []bson.M) []*entity.Invoice {
	invoices := make([]*entity.Invoice, 0, len(docs))
	for _, doc := range docs {
		inv, err := toInvoice(doc)
		if err != nil {
			m.log.With(
				slog.Any("id", doc["id"]),
				slog.Any("invoice_number", doc["invoice_number"]),
				sl.Err(err),
				sl.Topic(entity.TopicError),
			).Error("skipping malformed invoice document")
			continue
		}
		invoices = append(invoices, inv)
	}
	return invoices
}
