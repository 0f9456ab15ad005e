package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

const snapshotCollection = "snapshots"

// MongoSnapshotRepository implements SnapshotRepository using MongoDB.
type MongoSnapshotRepository struct {
	coll *mongo.Collection
}

func NewMongoSnapshotRepository(db *mongo.Database) *MongoSnapshotRepository {
	return &MongoSnapshotRepository{coll: db.Collection(snapshotCollection)}
}

func (r *MongoSnapshotRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "websiteId", Value: 1}, {Key: "userId", Value: 1}, {Key: "capturedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create snapshot indexes: %w", err)
	}
	return nil
}

func (r *MongoSnapshotRepository) Create(ctx context.Context, snapshot *domain.Snapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.New().String()
	}
	if _, err := r.coll.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (r *MongoSnapshotRepository) ListByWebsite(ctx context.Context, organizationID, websiteID string, limit int) ([]*domain.Snapshot, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "capturedAt", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.coll.Find(ctx, bson.D{
		{Key: "websiteId", Value: websiteID},
		{Key: "userId", Value: organizationID},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("find snapshots: %w", err)
	}
	defer cursor.Close(ctx)

	snapshots := make([]*domain.Snapshot, 0, limit)
	if err := cursor.All(ctx, &snapshots); err != nil {
		return nil, fmt.Errorf("decode snapshots: %w", err)
	}
	return snapshots, nil
}

func (r *MongoSnapshotRepository) FindLatest(ctx context.Context, organizationID, websiteID string) (*domain.Snapshot, error) {
	return r.findOne(ctx, bson.D{
		{Key: "websiteId", Value: websiteID},
		{Key: "userId", Value: organizationID},
	})
}

func (r *MongoSnapshotRepository) FindLatestAnalyzed(ctx context.Context, organizationID, websiteID string) (*domain.Snapshot, error) {
	return r.findOne(ctx, bson.D{
		{Key: "websiteId", Value: websiteID},
		{Key: "userId", Value: organizationID},
		{Key: "analyzedAt", Value: bson.M{"$exists": true, "$ne": nil}},
	})
}

func (r *MongoSnapshotRepository) findOne(ctx context.Context, filter bson.D) (*domain.Snapshot, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "capturedAt", Value: -1}})

	var snapshot domain.Snapshot
	if err := r.coll.FindOne(ctx, filter, opts).Decode(&snapshot); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *MongoSnapshotRepository) SetAnalyzedAt(ctx context.Context, snapshotID string, at time.Time) error {
	res, err := r.coll.UpdateByID(ctx, snapshotID, bson.M{"$set": bson.M{"analyzedAt": at}})
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
