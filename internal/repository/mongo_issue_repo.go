package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

const issueCollection = "accessibility_issues"

// MongoIssueRepository implements IssueRepository using MongoDB.
type MongoIssueRepository struct {
	coll *mongo.Collection
}

func NewMongoIssueRepository(db *mongo.Database) *MongoIssueRepository {
	return &MongoIssueRepository{coll: db.Collection(issueCollection)}
}

func (r *MongoIssueRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "snapshotId", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create issue indexes: %w", err)
	}
	return nil
}

func (r *MongoIssueRepository) InsertMany(ctx context.Context, issues []*domain.AccessibilityIssue) error {
	if len(issues) == 0 {
		return nil
	}
	docs := make([]interface{}, len(issues))
	for i, issue := range issues {
		if issue.ID == "" {
			issue.ID = uuid.New().String()
		}
		docs[i] = issue
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert issues: %w", err)
	}
	return nil
}

func (r *MongoIssueRepository) DeleteBySnapshot(ctx context.Context, snapshotID string) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.D{{Key: "snapshotId", Value: snapshotID}})
	if err != nil {
		return 0, fmt.Errorf("delete issues: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *MongoIssueRepository) ListBySnapshot(ctx context.Context, snapshotID string) ([]*domain.AccessibilityIssue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "snapshotId", Value: snapshotID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := make([]*domain.AccessibilityIssue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("decode issues: %w", err)
	}
	return issues, nil
}
