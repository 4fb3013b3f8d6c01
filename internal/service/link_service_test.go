package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shortlink/internal/config"
	"shortlink/internal/domain"
	"shortlink/pkg/logger"
)

// MockLinkRepository is a mock implementation of LinkRepository
type MockLinkRepository struct {
	mock.Mock
}

func (m *MockLinkRepository) Create(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) FindByCodeAndAdminKey(ctx context.Context, code, adminKey string) (*domain.Link, error) {
	args := m.Called(ctx, code, adminKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Link), args.Error(1)
}

func (m *MockLinkRepository) IncrementClicks(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockLinkRepository) Delete(ctx context.Context, link *domain.Link) error {
	args := m.Called(ctx, link)
	return args.Error(0)
}

func (m *MockLinkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

// MockClickRepository is a mock implementation of ClickRepository
type MockClickRepository struct {
	mock.Mock
}

func (m *MockClickRepository) Create(ctx context.Context, record *domain.ClickRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockClickRepository) ListByLink(ctx context.Context, linkID uint) ([]domain.ClickRecord, error) {
	args := m.Called(ctx, linkID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ClickRecord), args.Error(1)
}

// MockCache is a mock implementation of Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

// stubRecorder captures Record invocations, which the service fires on a
// detached goroutine; done signals each call for synchronization
type stubRecorder struct {
	mu      sync.Mutex
	linkIDs []uint
	done    chan struct{}
}

func newStubRecorder() *stubRecorder {
	return &stubRecorder{done: make(chan struct{}, 8)}
}

func (r *stubRecorder) Record(ctx context.Context, linkID uint, visit domain.Visit) {
	r.mu.Lock()
	r.linkIDs = append(r.linkIDs, linkID)
	r.mu.Unlock()
	r.done <- struct{}{}
}

func (r *stubRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.linkIDs)
}

func (r *stubRecorder) waitForCall(t *testing.T) {
	t.Helper()
	select {
	case <-r.done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for click capture")
	}
}

type linkServiceFixture struct {
	links    *MockLinkRepository
	clicks   *MockClickRepository
	cache    *MockCache
	recorder *stubRecorder
	service  LinkService
}

func newFixture(t *testing.T, withCache bool) *linkServiceFixture {
	t.Helper()

	links := new(MockLinkRepository)
	clicks := new(MockClickRepository)
	recorder := newStubRecorder()

	cfg := &config.Config{
		BaseURL:           "https://sho.rt",
		ShortCodeLength:   6,
		CacheTTL:          time.Hour,
		DefaultExpiryDays: 30,
		MaxExpiryDays:     365,
	}

	var mockCache *MockCache
	if withCache {
		mockCache = new(MockCache)
	}

	f := &linkServiceFixture{
		links:    links,
		clicks:   clicks,
		cache:    mockCache,
		recorder: recorder,
	}

	if withCache {
		f.service = NewLinkService(links, clicks, recorder, mockCache, cfg, logger.NewLogger())
	} else {
		f.service = NewLinkService(links, clicks, recorder, nil, cfg, logger.NewLogger())
	}

	return f
}

func activeLink(code string) *domain.Link {
	return &domain.Link{
		ID:          1,
		ShortCode:   code,
		OriginalURL: "https://example.com/target",
		AdminKey:    "key-abc",
		CreatedAt:   time.Now().Add(-time.Hour),
		ExpiresAt:   time.Now().AddDate(0, 0, 10),
		IsActive:    true,
	}
}

func TestShorten_Success(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	var created *domain.Link
	f.links.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	f.links.On("Create", mock.Anything, mock.AnythingOfType("*domain.Link")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*domain.Link)
		}).
		Return(nil)

	resp, err := f.service.Shorten(ctx, &domain.CreateLinkRequest{URL: "https://example.com/long/path"})

	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Len(t, created.ShortCode, 6)
	assert.NotEmpty(t, created.AdminKey)
	assert.True(t, created.IsActive)
	assert.Equal(t, int64(0), created.ClickCount)

	assert.Equal(t, created.ShortCode, resp.ShortCode)
	assert.Equal(t, created.AdminKey, resp.AdminKey)
	assert.Equal(t, "https://sho.rt/"+created.ShortCode, resp.ShortURL)
	assert.Contains(t, resp.StatsURL, "/api/urls/stats/?code=")
	assert.Contains(t, resp.StatsURL, "admin_key=")
	assert.Equal(t, 30, resp.ExpiresIn)

	f.links.AssertExpectations(t)
}

func TestShorten_ExplicitExpiry(t *testing.T) {
	f := newFixture(t, false)

	f.links.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	f.links.On("Create", mock.Anything, mock.AnythingOfType("*domain.Link")).Return(nil)

	resp, err := f.service.Shorten(context.Background(), &domain.CreateLinkRequest{
		URL:       "https://example.com",
		ExpiresIn: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, resp.ExpiresIn)

	// Immediately after creation a 5-day link has 5 whole days left
	link := &domain.Link{ExpiresAt: resp.ExpiresAt}
	assert.Equal(t, 5, link.DaysRemaining(time.Now()))
}

func TestShorten_InvalidURL(t *testing.T) {
	f := newFixture(t, false)

	tests := []string{
		"",
		"not-a-url",
		"/relative/path",
		"ftp://example.com/file",
		"javascript:alert(1)",
		"https://example.com/" + strings.Repeat("a", 2000),
	}

	for _, raw := range tests {
		_, err := f.service.Shorten(context.Background(), &domain.CreateLinkRequest{URL: raw})

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr, "url %q should be rejected", raw)
		assert.Equal(t, 400, appErr.StatusCode)
	}

	f.links.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestShorten_ExpiryOutOfRange(t *testing.T) {
	f := newFixture(t, false)

	for _, days := range []int{-1, 366, 1000} {
		_, err := f.service.Shorten(context.Background(), &domain.CreateLinkRequest{
			URL:       "https://example.com",
			ExpiresIn: days,
		})

		var appErr *domain.AppError
		require.ErrorAs(t, err, &appErr, "expires_in %d should be rejected", days)
		assert.Equal(t, 400, appErr.StatusCode)
	}

	f.links.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestShorten_CodeCollisionRetries(t *testing.T) {
	f := newFixture(t, false)

	// First draw collides, second is free
	f.links.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(true, nil).Once()
	f.links.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(false, nil).Once()
	f.links.On("Create", mock.Anything, mock.AnythingOfType("*domain.Link")).Return(nil)

	resp, err := f.service.Shorten(context.Background(), &domain.CreateLinkRequest{URL: "https://example.com"})

	require.NoError(t, err)
	assert.Len(t, resp.ShortCode, 6)
	f.links.AssertExpectations(t)
}

func TestShorten_CreateRaceRetries(t *testing.T) {
	f := newFixture(t, false)

	f.links.On("ExistsByCode", mock.Anything, mock.AnythingOfType("string")).Return(false, nil)
	// Insert loses a unique-constraint race once, then succeeds with
	// freshly minted values
	f.links.On("Create", mock.Anything, mock.AnythingOfType("*domain.Link")).Return(domain.ErrCodeExhausted).Once()
	f.links.On("Create", mock.Anything, mock.AnythingOfType("*domain.Link")).Return(nil).Once()

	_, err := f.service.Shorten(context.Background(), &domain.CreateLinkRequest{URL: "https://example.com"})

	require.NoError(t, err)
	f.links.AssertExpectations(t)
}

func TestResolve_ActiveIncrementsAndRedirects(t *testing.T) {
	f := newFixture(t, false)
	link := activeLink("abc123")

	f.links.On("FindByCode", mock.Anything, "abc123").Return(link, nil)
	f.links.On("IncrementClicks", mock.Anything, "abc123").Return(nil)

	res, err := f.service.Resolve(context.Background(), "abc123", domain.Visit{
		UserAgent: "Mozilla/5.0 Chrome/120.0",
		IPAddress: "203.0.113.7",
	})

	require.NoError(t, err)
	assert.False(t, res.Expired)
	assert.Equal(t, "https://example.com/target", res.OriginalURL)

	f.recorder.waitForCall(t)
	assert.Equal(t, []uint{1}, f.recorder.linkIDs)

	f.links.AssertCalled(t, "IncrementClicks", mock.Anything, "abc123")
}

func TestResolve_ExpiredLink(t *testing.T) {
	f := newFixture(t, false)

	link := activeLink("dead01")
	link.ExpiresAt = time.Now().AddDate(0, 0, -1)

	f.links.On("FindByCode", mock.Anything, "dead01").Return(link, nil)

	res, err := f.service.Resolve(context.Background(), "dead01", domain.Visit{})

	require.NoError(t, err)
	assert.True(t, res.Expired)
	assert.Equal(t, link.OriginalURL, res.OriginalURL)
	assert.Equal(t, link.ExpiresAt, res.ExpiresAt)

	// A dead link never increments the counter or records a click
	f.links.AssertNotCalled(t, "IncrementClicks", mock.Anything, mock.Anything)
	assert.Equal(t, 0, f.recorder.count())
}

func TestResolve_InactiveLink(t *testing.T) {
	f := newFixture(t, false)

	link := activeLink("off001")
	link.IsActive = false

	f.links.On("FindByCode", mock.Anything, "off001").Return(link, nil)

	res, err := f.service.Resolve(context.Background(), "off001", domain.Visit{})

	require.NoError(t, err)
	assert.True(t, res.Expired)
	f.links.AssertNotCalled(t, "IncrementClicks", mock.Anything, mock.Anything)
}

func TestResolve_NotFound(t *testing.T) {
	f := newFixture(t, false)

	f.links.On("FindByCode", mock.Anything, "nosuch").Return(nil, domain.ErrLinkNotFound)

	_, err := f.service.Resolve(context.Background(), "nosuch", domain.Visit{})

	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	assert.Equal(t, 0, f.recorder.count())
}

func TestResolve_IncrementFailurePropagates(t *testing.T) {
	f := newFixture(t, false)
	link := activeLink("abc123")

	f.links.On("FindByCode", mock.Anything, "abc123").Return(link, nil)
	f.links.On("IncrementClicks", mock.Anything, "abc123").Return(errors.New("connection lost"))

	// The increment must commit before the redirect, so its failure fails
	// the request rather than undercounting
	_, err := f.service.Resolve(context.Background(), "abc123", domain.Visit{})
	assert.Error(t, err)
}

func TestResolve_CacheHit(t *testing.T) {
	f := newFixture(t, true)

	f.cache.On("Get", mock.Anything, "hot001").Return(`{"id":7,"url":"https://example.com/cached"}`, nil)
	f.links.On("IncrementClicks", mock.Anything, "hot001").Return(nil)

	res, err := f.service.Resolve(context.Background(), "hot001", domain.Visit{UserAgent: "Firefox"})

	require.NoError(t, err)
	assert.False(t, res.Expired)
	assert.Equal(t, "https://example.com/cached", res.OriginalURL)

	f.recorder.waitForCall(t)
	assert.Equal(t, []uint{7}, f.recorder.linkIDs)

	f.links.AssertNotCalled(t, "FindByCode", mock.Anything, mock.Anything)
}

func TestResolve_StaleCacheEntryFallsThrough(t *testing.T) {
	f := newFixture(t, true)

	// Cached entry for a link deleted in the meantime: the increment
	// misses, the entry is dropped, and the store has the final word
	f.cache.On("Get", mock.Anything, "gone01").Return(`{"id":9,"url":"https://example.com/gone"}`, nil)
	f.links.On("IncrementClicks", mock.Anything, "gone01").Return(domain.ErrLinkNotFound)
	f.cache.On("Delete", mock.Anything, "gone01").Return(nil)
	f.links.On("FindByCode", mock.Anything, "gone01").Return(nil, domain.ErrLinkNotFound)

	_, err := f.service.Resolve(context.Background(), "gone01", domain.Visit{})

	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	f.cache.AssertCalled(t, "Delete", mock.Anything, "gone01")
}

func TestStats_AggregatesClicks(t *testing.T) {
	f := newFixture(t, false)

	link := activeLink("abc123")
	link.ClickCount = 3

	now := time.Now()
	records := []domain.ClickRecord{
		{LinkID: 1, ClickedAt: now, DeviceType: "mobile", Browser: "Chrome"},
		{LinkID: 1, ClickedAt: now.Add(-time.Hour), DeviceType: "desktop", Browser: "Chrome"},
		{LinkID: 1, ClickedAt: now.Add(-2 * time.Hour), DeviceType: "", Browser: ""},
	}

	f.links.On("FindByCodeAndAdminKey", mock.Anything, "abc123", "key-abc").Return(link, nil)
	f.clicks.On("ListByLink", mock.Anything, uint(1)).Return(records, nil)

	stats, err := f.service.Stats(context.Background(), "abc123", "key-abc")

	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalClicks)
	assert.LessOrEqual(t, len(stats.RecentClicks), 20)
	assert.Len(t, stats.RecentClicks, 3)

	assert.Len(t, stats.ClicksByDay, 7)
	assert.Equal(t, int64(1), stats.DeviceDistribution["mobile"])
	assert.Equal(t, int64(1), stats.DeviceDistribution["desktop"])
	assert.Equal(t, int64(1), stats.DeviceDistribution["Unknown"])
	assert.Equal(t, int64(2), stats.BrowserDistribution["Chrome"])
	assert.Equal(t, int64(1), stats.BrowserDistribution["Unknown"])

	require.NotNil(t, stats.URLInfo)
	assert.Equal(t, "abc123", stats.URLInfo.ShortCode)
	assert.Equal(t, "https://sho.rt/abc123", stats.URLInfo.ShortURL)
}

func TestStats_WrongAdminKey(t *testing.T) {
	f := newFixture(t, false)

	f.links.On("FindByCodeAndAdminKey", mock.Anything, "abc123", "wrong").
		Return(nil, domain.ErrLinkNotFound)

	_, err := f.service.Stats(context.Background(), "abc123", "wrong")

	// Indistinguishable from an unknown code
	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	f.clicks.AssertNotCalled(t, "ListByLink", mock.Anything, mock.Anything)
}

func TestDelete_Success(t *testing.T) {
	f := newFixture(t, true)
	link := activeLink("abc123")

	f.links.On("FindByCodeAndAdminKey", mock.Anything, "abc123", "key-abc").Return(link, nil)
	f.links.On("Delete", mock.Anything, link).Return(nil)
	f.cache.On("Delete", mock.Anything, "abc123").Return(nil)

	resp, err := f.service.Delete(context.Background(), "abc123", "key-abc")

	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "URL deleted successfully", resp.Message)
	assert.Equal(t, "abc123", resp.DeletedURL.ShortCode)
	assert.Equal(t, link.OriginalURL, resp.DeletedURL.OriginalURL)
	assert.WithinDuration(t, time.Now(), resp.DeletedURL.DeletedAt, time.Minute)

	f.links.AssertExpectations(t)
	f.cache.AssertCalled(t, "Delete", mock.Anything, "abc123")
}

func TestDelete_WrongAdminKey(t *testing.T) {
	f := newFixture(t, false)

	f.links.On("FindByCodeAndAdminKey", mock.Anything, "abc123", "wrong").
		Return(nil, domain.ErrLinkNotFound)

	_, err := f.service.Delete(context.Background(), "abc123", "wrong")

	assert.ErrorIs(t, err, domain.ErrLinkNotFound)
	f.links.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
