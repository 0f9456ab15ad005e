package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/talhadevelopes/a11yguard-sub001/internal/cache"
	"github.com/talhadevelopes/a11yguard-sub001/internal/codec"
	"github.com/talhadevelopes/a11yguard-sub001/internal/config"
	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/internal/kafka"
	"github.com/talhadevelopes/a11yguard-sub001/internal/mocks"
	"github.com/talhadevelopes/a11yguard-sub001/internal/repository"
)

var testCacheConfig = config.CacheConfig{
	Prefix:       "test",
	WebsitesTTL:  time.Minute,
	SnapshotsTTL: time.Minute,
	ResultsTTL:   time.Minute,
}

type snapshotFixture struct {
	mr        *miniredis.Miniredis
	snapshots *mocks.SnapshotRepositoryMock
	issues    *mocks.IssueRepositoryMock
	websites  *mocks.WebsiteRepositoryMock
	producer  *mocks.SnapshotProducerMock
	svc       SnapshotService
}

func newSnapshotFixture(t *testing.T) *snapshotFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	accessor := cache.NewAccessor(cache.NewRedisStore(client), cache.Options{Name: "test"})
	f := &snapshotFixture{
		mr:        mr,
		snapshots: new(mocks.SnapshotRepositoryMock),
		issues:    new(mocks.IssueRepositoryMock),
		websites:  new(mocks.WebsiteRepositoryMock),
		producer:  new(mocks.SnapshotProducerMock),
	}
	f.websites.On("GetByID", mock.Anything, "orgX", "w1").Return(&domain.Website{ID: "w1", UserID: "orgX", Name: "Docs"}, nil)
	f.websites.On("GetByID", mock.Anything, "orgY", "w1").Return(nil, repository.ErrNotFound)
	f.producer.On("PublishSnapshotCaptured", mock.Anything, mock.Anything).Return(nil)

	websites := NewWebsiteService(f.websites, accessor, testCacheConfig)
	f.svc = NewSnapshotService(f.snapshots, f.issues, websites, f.producer, accessor, testCacheConfig)
	return f
}

func TestSnapshotListWithCorruptMetadata(t *testing.T) {
	f := newSnapshotFixture(t)

	content := strings.Repeat("<p>accessible</p>", 10000/17+1)[:10000]
	payload, err := codec.Encode(content, map[string]interface{}{"lang": "en"})
	require.NoError(t, err)
	payload.MetadataCompressed = []byte("definitely not gzip")

	row := &domain.Snapshot{ID: "s1", WebsiteID: "w1", UserID: "orgX", CapturedAt: time.Now().UTC(), EncodedPayload: payload}
	f.snapshots.On("ListByWebsite", mock.Anything, "orgX", "w1", domain.DefaultSnapshotLimit).
		Return([]*domain.Snapshot{row}, nil).Once()

	for i := 0; i < 2; i++ { // miss, then cached hit
		views, err := f.svc.List(context.Background(), "orgX", "w1", 0)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, content, views[0].Content)
		assert.Nil(t, views[0].Metadata)
		assert.Equal(t, 10000, views[0].ContentSize)
	}
	f.snapshots.AssertExpectations(t)
	assert.True(t, f.mr.Exists("test:snapshots:orgX:w1:20"))
}

func TestSnapshotListCapsLimit(t *testing.T) {
	f := newSnapshotFixture(t)
	f.snapshots.On("ListByWebsite", mock.Anything, "orgX", "w1", domain.MaxSnapshotLimit).Return([]*domain.Snapshot{}, nil)

	views, err := f.svc.List(context.Background(), "orgX", "w1", 5000)
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestSnapshotCreateEncodesAndInvalidates(t *testing.T) {
	f := newSnapshotFixture(t)
	f.mr.Set("test:snapshots:orgX:w1:20", "[]")
	f.mr.Set("test:results:orgX:w1", "{}")

	f.snapshots.On("Create", mock.Anything, mock.AnythingOfType("*domain.Snapshot")).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Snapshot).ID = "s1" }).
		Return(nil)
	f.issues.On("InsertMany", mock.Anything, mock.Anything).Return(nil)

	view, err := f.svc.Create(context.Background(), "orgX", &domain.CreateSnapshotRequest{
		WebsiteID: "w1",
		Content:   "<html>hello</html>",
		Metadata:  map[string]interface{}{"title": "Home"},
		Issues:    []domain.IssueInput{{Type: "error", Message: "missing alt"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "s1", view.ID)
	assert.Equal(t, "<html>hello</html>", view.Content)

	stored := f.snapshots.Calls[0].Arguments.Get(1).(*domain.Snapshot)
	assert.Equal(t, domain.EncodingGzip, stored.ContentEncoding)
	assert.Equal(t, len("<html>hello</html>"), stored.ContentSize)
	decoded := codec.DecodePayload(stored.EncodedPayload)
	assert.Equal(t, "Home", decoded.Metadata["title"])

	issues := f.issues.Calls[0].Arguments.Get(1).([]*domain.AccessibilityIssue)
	require.Len(t, issues, 1)
	assert.Equal(t, "s1", issues[0].SnapshotID)
	assert.Equal(t, "orgX", issues[0].UserID)

	assert.False(t, f.mr.Exists("test:snapshots:orgX:w1:20"))
	assert.False(t, f.mr.Exists("test:results:orgX:w1"))
	f.producer.AssertCalled(t, "PublishSnapshotCaptured", mock.Anything, mock.Anything)
	published := f.producer.Calls[0].Arguments.Get(1).(*kafka.SnapshotCaptured)
	assert.Equal(t, "s1", published.SnapshotID)
	assert.Equal(t, 1, published.IssueCount)
}

func TestSnapshotCreateForeignWebsite(t *testing.T) {
	f := newSnapshotFixture(t)
	_, err := f.svc.Create(context.Background(), "orgY", &domain.CreateSnapshotRequest{WebsiteID: "w1"})
	assert.ErrorIs(t, err, ErrWebsiteNotFound)
	f.snapshots.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSaveAnalysisReplacesIssuesOfLatestSnapshot(t *testing.T) {
	f := newSnapshotFixture(t)
	f.mr.Set("test:results:orgX:w1", "{}")

	latest := &domain.Snapshot{ID: "s9", WebsiteID: "w1", UserID: "orgX", CapturedAt: time.Now().UTC()}
	f.snapshots.On("FindLatest", mock.Anything, "orgX", "w1").Return(latest, nil)
	f.snapshots.On("SetAnalyzedAt", mock.Anything, "s9", mock.Anything).Return(nil)
	f.issues.On("DeleteBySnapshot", mock.Anything, "s9").Return(int64(3), nil)
	f.issues.On("InsertMany", mock.Anything, mock.Anything).Return(nil)

	res, err := f.svc.SaveAnalysis(context.Background(), "orgX", "w1", &domain.SaveAnalysisRequest{
		Issues: []domain.IssueInput{
			{Type: "error", Message: "a"},
			{Type: "error", Message: "b"},
			{Type: "warning", Message: "c"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "s9", res.SnapshotID)
	assert.Equal(t, 3, res.Total)
	assert.Equal(t, map[string]int{"error": 2, "warning": 1}, res.Counts)
	require.NotNil(t, res.AnalyzedAt)

	f.snapshots.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	f.issues.AssertExpectations(t)
	assert.False(t, f.mr.Exists("test:results:orgX:w1"))

	// Delete runs before insert.
	var order []string
	for _, c := range f.issues.Calls {
		order = append(order, c.Method)
	}
	assert.Equal(t, []string{"DeleteBySnapshot", "InsertMany"}, order)
}

func TestSaveAnalysisCreatesSnapshotWhenNoneExists(t *testing.T) {
	f := newSnapshotFixture(t)

	f.snapshots.On("FindLatest", mock.Anything, "orgX", "w1").Return(nil, repository.ErrNotFound)
	f.snapshots.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Snapshot).ID = "new" }).
		Return(nil)
	f.issues.On("DeleteBySnapshot", mock.Anything, "new").Return(int64(0), nil)

	res, err := f.svc.SaveAnalysis(context.Background(), "orgX", "w1", &domain.SaveAnalysisRequest{Content: "<html/>"})
	require.NoError(t, err)
	assert.Equal(t, "new", res.SnapshotID)
	assert.Equal(t, 0, res.Total)
	assert.Empty(t, res.Issues)

	created := f.snapshots.Calls[1].Arguments.Get(1).(*domain.Snapshot)
	assert.NotNil(t, created.AnalyzedAt)
	f.snapshots.AssertNotCalled(t, "SetAnalyzedAt", mock.Anything, mock.Anything, mock.Anything)
	f.issues.AssertNotCalled(t, "InsertMany", mock.Anything, mock.Anything)
}

func TestResultsReadThroughCache(t *testing.T) {
	f := newSnapshotFixture(t)
	analyzed := time.Now().UTC()
	f.snapshots.On("FindLatestAnalyzed", mock.Anything, "orgX", "w1").
		Return(&domain.Snapshot{ID: "s1", WebsiteID: "w1", AnalyzedAt: &analyzed}, nil).Once()
	f.issues.On("ListBySnapshot", mock.Anything, "s1").
		Return([]*domain.AccessibilityIssue{{ID: "i1", Type: "error"}}, nil).Once()

	for i := 0; i < 2; i++ {
		res, err := f.svc.Results(context.Background(), "orgX", "w1")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Total)
		assert.Equal(t, 1, res.Counts["error"])
	}
	f.snapshots.AssertExpectations(t)
	f.issues.AssertExpectations(t)
}

func TestResultsWithoutAnalysisAreEmpty(t *testing.T) {
	f := newSnapshotFixture(t)
	f.snapshots.On("FindLatestAnalyzed", mock.Anything, "orgX", "w1").Return(nil, repository.ErrNotFound)

	res, err := f.svc.Results(context.Background(), "orgX", "w1")
	require.NoError(t, err)
	assert.Equal(t, "w1", res.WebsiteID)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.SnapshotID)
}

func TestResultsFallBackWhenCacheUnavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 50 * time.Millisecond})
	t.Cleanup(func() { client.Close() })
	accessor := cache.NewAccessor(cache.NewRedisStore(client), cache.Options{Name: "down"})

	snapshots := new(mocks.SnapshotRepositoryMock)
	issues := new(mocks.IssueRepositoryMock)
	snapshots.On("FindLatestAnalyzed", mock.Anything, "orgX", "w1").Return(&domain.Snapshot{ID: "s1"}, nil)
	issues.On("ListBySnapshot", mock.Anything, "s1").Return([]*domain.AccessibilityIssue{{Type: "notice"}}, nil)

	svc := NewSnapshotService(snapshots, issues, nil, nil, accessor, testCacheConfig)
	res, err := svc.Results(context.Background(), "orgX", "w1")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Counts["notice"])
}
