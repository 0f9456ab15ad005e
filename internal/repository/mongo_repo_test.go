package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
)

func TestMarkReadFilter(t *testing.T) {
	until := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	filter := MarkReadFilter(domain.ReadReceipt{
		OrganizationID: "org-x",
		ReaderMemberID: "b",
		PeerMemberID:   "a",
		Until:          until,
	})

	m := filter.Map()
	assert.Equal(t, "org-x", m["userId"])
	assert.Equal(t, domain.MessageTypeDM, m["type"])
	assert.Equal(t, "a:b", m["conversationId"])
	assert.Equal(t, "a", m["fromMemberId"])
	assert.Equal(t, "b", m["toMemberId"])
	assert.Equal(t, bson.M{"$lte": until}, m["createdAt"])
}

func TestMongoMessageRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create assigns id", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		msg := &domain.ChatMessage{UserID: "org-x", Type: domain.MessageTypeGroup, FromMemberID: "a", Content: "hi"}
		require.NoError(t, repo.Create(context.Background(), msg))
		assert.NotEmpty(t, msg.ID)
		assert.NotNil(t, msg.ReadBy)
	})

	mt.Run("list group decodes", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		ns := mt.DB.Name() + "." + messageCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "msg-1"},
			{Key: "userId", Value: "org-x"},
			{Key: "type", Value: "group"},
			{Key: "fromMemberId", Value: "a"},
			{Key: "content", Value: "hi"},
			{Key: "createdAt", Value: created},
			{Key: "readBy", Value: bson.A{}},
		}))

		msgs, err := repo.ListGroup(context.Background(), "org-x", domain.HistoryQuery{})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "msg-1", msgs[0].ID)
		assert.Equal(t, domain.MessageTypeGroup, msgs[0].Type)
		assert.True(t, created.Equal(msgs[0].CreatedAt))
	})

	mt.Run("mark read reports modified count", func(mt *mtest.T) {
		repo := NewMongoMessageRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 2},
			bson.E{Key: "nModified", Value: 2},
		))

		n, err := repo.MarkRead(context.Background(), domain.ReadReceipt{
			OrganizationID: "org-x", ReaderMemberID: "b", PeerMemberID: "a", Until: time.Now(),
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)
	})
}

func TestMongoSnapshotRepositoryNotFound(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("find latest empty", func(mt *mtest.T) {
		repo := NewMongoSnapshotRepository(mt.DB)
		ns := mt.DB.Name() + "." + snapshotCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.FindLatest(context.Background(), "org-x", "site-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestMongoIssueRepositoryInsertEmpty(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("no issues is a no-op", func(mt *mtest.T) {
		repo := NewMongoIssueRepository(mt.DB)
		require.NoError(t, repo.InsertMany(context.Background(), nil))
	})
}
