package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"shortlink/internal/cache"
	"shortlink/internal/config"
	"shortlink/internal/domain"
	"shortlink/internal/repository"
	"shortlink/internal/shortener"
	"shortlink/pkg/logger"
	"shortlink/pkg/validator"
)

// maxMintAttempts bounds the retry-until-unique loops for code allocation
// and for the practically unreachable admin-key collision.
const maxMintAttempts = 5

// linkService implements the LinkService interface
type linkService struct {
	links     repository.LinkRepository
	clicks    repository.ClickRepository
	recorder  ClickRecorder
	cache     cache.Cache
	cfg       *config.Config
	logger    *logger.Logger
	generator *shortener.CodeGenerator
}

// NewLinkService creates a new link service with dependencies injected
func NewLinkService(
	links repository.LinkRepository,
	clicks repository.ClickRepository,
	recorder ClickRecorder,
	cache cache.Cache,
	cfg *config.Config,
	logger *logger.Logger,
) LinkService {
	return &linkService{
		links:     links,
		clicks:    clicks,
		recorder:  recorder,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
		generator: shortener.NewCodeGenerator(cfg.ShortCodeLength),
	}
}

// cachedTarget is the compact value stored in the cache for Active links
type cachedTarget struct {
	LinkID      uint   `json:"id"`
	OriginalURL string `json:"url"`
}

// Shorten validates the target, allocates a unique code and admin key,
// and persists the link.
func (s *linkService) Shorten(ctx context.Context, req *domain.CreateLinkRequest) (*domain.CreateLinkResponse, error) {
	if err := validator.ValidateURL(req.URL); err != nil {
		s.logger.Warn("Invalid URL provided", "url", req.URL, "error", err)
		return nil, domain.NewValidationError(err.Error())
	}

	if err := validator.ValidateExpiryDays(req.ExpiresIn, s.cfg.MaxExpiryDays); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	expiresIn := req.ExpiresIn
	if expiresIn == 0 {
		expiresIn = s.cfg.DefaultExpiryDays
	}
	expiresAt := time.Now().AddDate(0, 0, expiresIn)

	var link *domain.Link
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		code, err := s.generateUniqueCode(ctx)
		if err != nil {
			return nil, err
		}

		adminKey, err := s.generator.AdminKey()
		if err != nil {
			return nil, domain.NewInternalError(err)
		}

		candidate := &domain.Link{
			ShortCode:   code,
			OriginalURL: req.URL,
			AdminKey:    adminKey,
			ExpiresAt:   expiresAt,
			IsActive:    true,
			ClickCount:  0,
		}

		err = s.links.Create(ctx, candidate)
		if err == nil {
			link = candidate
			break
		}

		// A duplicate code or admin key lost a race with a concurrent
		// create; both values are freshly random, so mint again.
		if errors.Is(err, domain.ErrCodeExhausted) {
			s.logger.Warn("Unique constraint race on create, retrying", "attempt", attempt+1)
			continue
		}

		s.logger.Error("Failed to create link", "error", err, "short_code", code)
		return nil, err
	}

	if link == nil {
		s.logger.Error("Exhausted mint attempts for new link")
		return nil, domain.NewInternalError(domain.ErrCodeExhausted)
	}

	s.logger.Info("Link shortened successfully",
		"short_code", link.ShortCode,
		"expires_in", expiresIn,
	)

	return &domain.CreateLinkResponse{
		ShortURL:  s.shortURL(link.ShortCode),
		StatsURL:  s.statsURL(link.ShortCode, link.AdminKey),
		AdminKey:  link.AdminKey,
		ExpiresIn: expiresIn,
		ExpiresAt: link.ExpiresAt,
		ShortCode: link.ShortCode,
	}, nil
}

// Resolve drives the redirect state machine: NotFound, Expired, or Active.
// For an Active link the counter increment is committed before the
// resolution is returned; click capture happens on a detached goroutine.
func (s *linkService) Resolve(ctx context.Context, code string, visit domain.Visit) (*domain.Resolution, error) {
	now := time.Now()

	// Fast path: resolved Active targets are cached with a TTL clamped to
	// the link's remaining lifetime, so a hit can never serve a dead link.
	if s.cache != nil {
		if target, ok := s.cachedLookup(ctx, code); ok {
			if err := s.links.IncrementClicks(ctx, code); err != nil {
				if errors.Is(err, domain.ErrLinkNotFound) {
					// Link deleted since it was cached; drop the stale
					// entry and fall through to the store.
					s.invalidate(ctx, code)
				} else {
					return nil, err
				}
			} else {
				go s.recorder.Record(context.Background(), target.LinkID, visit)
				return &domain.Resolution{OriginalURL: target.OriginalURL}, nil
			}
		}
	}

	link, err := s.links.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if link.IsExpired(now) || !link.IsActive {
		s.logger.Info("Attempted to access dead link", "short_code", code)
		return &domain.Resolution{
			OriginalURL: link.OriginalURL,
			Expired:     true,
			ExpiresAt:   link.ExpiresAt,
		}, nil
	}

	if err := s.links.IncrementClicks(ctx, code); err != nil {
		return nil, err
	}

	s.cacheTarget(ctx, link, now)

	go s.recorder.Record(context.Background(), link.ID, visit)

	return &domain.Resolution{OriginalURL: link.OriginalURL}, nil
}

// Stats authenticates the owner and aggregates the link's click analytics.
// Total clicks come from the counter, not the record set, so the total stays
// honest even when a best-effort click insert was dropped.
func (s *linkService) Stats(ctx context.Context, code, adminKey string) (*domain.LinkStats, error) {
	link, err := s.links.FindByCodeAndAdminKey(ctx, code, adminKey)
	if err != nil {
		return nil, err
	}

	records, err := s.clicks.ListByLink(ctx, link.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	agg := aggregateClicks(records, now)

	return &domain.LinkStats{
		URLInfo:             s.buildLinkInfo(link, now),
		TotalClicks:         link.ClickCount,
		ClicksByDay:         agg.ClicksByDay,
		DeviceDistribution:  agg.Devices,
		BrowserDistribution: agg.Browsers,
		RecentClicks:        agg.RecentClicks,
	}, nil
}

// Delete removes an owner's link; the repository cascades the click records.
func (s *linkService) Delete(ctx context.Context, code, adminKey string) (*domain.DeleteLinkResponse, error) {
	link, err := s.links.FindByCodeAndAdminKey(ctx, code, adminKey)
	if err != nil {
		return nil, err
	}

	deleted := domain.DeletedLink{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		DeletedAt:   time.Now(),
	}

	if err := s.links.Delete(ctx, link); err != nil {
		s.logger.Error("Failed to delete link", "error", err, "short_code", code)
		return nil, err
	}

	s.invalidate(ctx, code)

	s.logger.Info("Link deleted", "short_code", code)

	return &domain.DeleteLinkResponse{
		Success:    true,
		Message:    "URL deleted successfully",
		DeletedURL: deleted,
	}, nil
}

// generateUniqueCode allocates a short code by sampling the generator and
// checking the store, bounded to maxMintAttempts tries. Expected attempts
// stay near one at any realistic link volume.
func (s *linkService) generateUniqueCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxMintAttempts; attempt++ {
		code, err := s.generator.Generate()
		if err != nil {
			return "", domain.NewInternalError(err)
		}

		exists, err := s.links.ExistsByCode(ctx, code)
		if err != nil {
			return "", err
		}

		if !exists {
			return code, nil
		}

		s.logger.Warn("Short code collision detected, retrying",
			"short_code", code,
			"attempt", attempt+1,
		)
	}

	return "", domain.NewInternalError(domain.ErrCodeExhausted)
}

// cachedLookup returns the cached Active target for a code, if any
func (s *linkService) cachedLookup(ctx context.Context, code string) (*cachedTarget, bool) {
	raw, err := s.cache.Get(ctx, code)
	if err != nil || raw == "" {
		return nil, false
	}

	var target cachedTarget
	if err := json.Unmarshal([]byte(raw), &target); err != nil {
		return nil, false
	}

	return &target, true
}

// cacheTarget stores an Active resolution, clamping the TTL to the link's
// remaining lifetime so the cache can never outlive the expiry check.
func (s *linkService) cacheTarget(ctx context.Context, link *domain.Link, now time.Time) {
	if s.cache == nil {
		return
	}

	ttl := s.cfg.CacheTTL
	if remaining := link.ExpiresAt.Sub(now); remaining < ttl {
		ttl = remaining
	}
	if ttl <= 0 {
		return
	}

	raw, err := json.Marshal(cachedTarget{LinkID: link.ID, OriginalURL: link.OriginalURL})
	if err != nil {
		return
	}

	if err := s.cache.Set(ctx, link.ShortCode, string(raw), ttl); err != nil {
		// Cache failures never affect the redirect
		s.logger.Warn("Failed to cache link", "error", err, "short_code", link.ShortCode)
	}
}

// invalidate drops a code from the cache
func (s *linkService) invalidate(ctx context.Context, code string) {
	if s.cache == nil {
		return
	}

	if err := s.cache.Delete(ctx, code); err != nil {
		s.logger.Warn("Failed to invalidate cache", "error", err, "short_code", code)
	}
}

// buildLinkInfo constructs the owner-facing view embedded in stats responses
func (s *linkService) buildLinkInfo(link *domain.Link, now time.Time) *domain.LinkInfo {
	return &domain.LinkInfo{
		ID:            link.ID,
		ShortCode:     link.ShortCode,
		OriginalURL:   link.OriginalURL,
		ShortURL:      s.shortURL(link.ShortCode),
		StatsURL:      s.statsURL(link.ShortCode, link.AdminKey),
		CreatedAt:     link.CreatedAt,
		ExpiresAt:     link.ExpiresAt,
		DaysRemaining: link.DaysRemaining(now),
		ClickCount:    link.ClickCount,
		IsActive:      link.IsActive,
	}
}

func (s *linkService) shortURL(code string) string {
	return fmt.Sprintf("%s/%s", s.cfg.BaseURL, code)
}

func (s *linkService) statsURL(code, adminKey string) string {
	return fmt.Sprintf("%s/api/urls/stats/?code=%s&admin_key=%s",
		s.cfg.BaseURL, url.QueryEscape(code), url.QueryEscape(adminKey))
}
