package service

import (
	"context"

	"shortlink/internal/analytics"
	"shortlink/internal/domain"
	"shortlink/internal/repository"
	"shortlink/pkg/logger"
)

// ClickRecorder captures per-click analytics. Recording is best-effort and
// must never surface a failure to the redirect path: every internal error
// is logged and swallowed here.
type ClickRecorder interface {
	Record(ctx context.Context, linkID uint, visit domain.Visit)
}

type clickRecorder struct {
	clicks repository.ClickRepository
	geo    analytics.GeoResolver
	logger *logger.Logger
}

// NewClickRecorder creates a click recorder with dependencies injected
func NewClickRecorder(
	clicks repository.ClickRepository,
	geo analytics.GeoResolver,
	logger *logger.Logger,
) ClickRecorder {
	return &clickRecorder{
		clicks: clicks,
		geo:    geo,
		logger: logger,
	}
}

// Record classifies the visit and appends a click record.
// Runs inside its own error boundary; panics and insert failures stay here.
func (r *clickRecorder) Record(ctx context.Context, linkID uint, visit domain.Visit) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Click recording panicked", "link_id", linkID, "panic", rec)
		}
	}()

	c := analytics.Classify(visit.UserAgent)
	country, city := r.geo.Resolve(visit.IPAddress)

	record := &domain.ClickRecord{
		LinkID:          linkID,
		IPAddress:       visit.IPAddress,
		UserAgent:       analytics.Truncate(visit.UserAgent, analytics.MaxFieldLength),
		Referrer:        analytics.Truncate(visit.Referrer, analytics.MaxFieldLength),
		Country:         country,
		City:            city,
		DeviceType:      c.Device,
		Browser:         c.Browser,
		OperatingSystem: c.OS,
	}

	if err := r.clicks.Create(ctx, record); err != nil {
		r.logger.Error("Failed to record click", "link_id", linkID, "error", err)
	}
}
