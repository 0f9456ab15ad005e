package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/log"
)

const messageCollection = "chat_messages"

// MongoMessageRepository implements MessageRepository using MongoDB.
type MongoMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository creates a new MongoDB-based message repository.
func NewMongoMessageRepository(db *mongo.Database) *MongoMessageRepository {
	return &MongoMessageRepository{coll: db.Collection(messageCollection)}
}

// EnsureIndexes creates the indexes used by history and read-receipt queries.
func (r *MongoMessageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "conversationId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}

// Create inserts a message, assigning its id when empty.
func (r *MongoMessageRepository) Create(ctx context.Context, msg *domain.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		l := log.Ctx(ctx)
		l.Error().Err(err).Str("message_id", msg.ID).Msg("failed to insert message")
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *MongoMessageRepository) ListGroup(ctx context.Context, organizationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	filter := bson.D{
		{Key: "userId", Value: organizationID},
		{Key: "type", Value: domain.MessageTypeGroup},
	}
	return r.list(ctx, filter, q)
}

func (r *MongoMessageRepository) ListDM(ctx context.Context, organizationID, conversationID string, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	filter := bson.D{
		{Key: "userId", Value: organizationID},
		{Key: "type", Value: domain.MessageTypeDM},
		{Key: "conversationId", Value: conversationID},
	}
	return r.list(ctx, filter, q)
}

func (r *MongoMessageRepository) list(ctx context.Context, filter bson.D, q domain.HistoryQuery) ([]*domain.ChatMessage, error) {
	q = q.Normalize()
	if q.Before != nil {
		filter = append(filter, bson.E{Key: "createdAt", Value: bson.M{"$lt": *q.Before}})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(q.Limit))

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*domain.ChatMessage, 0, q.Limit)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}
	return messages, nil
}

// MarkReadFilter selects the dm messages a read receipt applies to.
func MarkReadFilter(receipt domain.ReadReceipt) bson.D {
	return bson.D{
		{Key: "userId", Value: receipt.OrganizationID},
		{Key: "type", Value: domain.MessageTypeDM},
		{Key: "conversationId", Value: domain.DMKey(receipt.ReaderMemberID, receipt.PeerMemberID)},
		{Key: "fromMemberId", Value: receipt.PeerMemberID},
		{Key: "toMemberId", Value: receipt.ReaderMemberID},
		{Key: "createdAt", Value: bson.M{"$lte": receipt.Until}},
	}
}

func (r *MongoMessageRepository) MarkRead(ctx context.Context, receipt domain.ReadReceipt) (int64, error) {
	update := bson.M{"$addToSet": bson.M{"readBy": receipt.ReaderMemberID}}
	res, err := r.coll.UpdateMany(ctx, MarkReadFilter(receipt), update)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return res.ModifiedCount, nil
}
