package postgres

import (
	"context"

	"gorm.io/gorm"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
)

// clickRepository implements the ClickRepository interface for PostgreSQL
type clickRepository struct {
	db *gorm.DB
}

// NewClickRepository creates a new PostgreSQL click repository
func NewClickRepository(db *gorm.DB) repository.ClickRepository {
	return &clickRepository{db: db}
}

// Create appends a click record
func (r *clickRepository) Create(ctx context.Context, record *domain.ClickRecord) error {
	result := r.db.WithContext(ctx).Create(record)
	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// ListByLink returns every click record for a link ordered newest first.
// Volumes are per-link and bounded in practice; a pre-aggregated table would
// be needed before this scales to very hot links.
func (r *clickRepository) ListByLink(ctx context.Context, linkID uint) ([]domain.ClickRecord, error) {
	var records []domain.ClickRecord

	result := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("clicked_at DESC").
		Find(&records)

	if result.Error != nil {
		return nil, domain.NewInternalError(result.Error)
	}

	return records, nil
}
