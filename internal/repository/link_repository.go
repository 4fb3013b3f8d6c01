package repository

import (
	"context"

	"shortlink/internal/domain"
)

// LinkRepository defines the contract for link data access.
// The store is the sole shared mutable resource; all mutations must be
// atomic at the row level so concurrent redirects never lose a click.
type LinkRepository interface {
	// Create stores a new link. A duplicate short code or admin key
	// surfaces as domain.ErrCodeExhausted so the caller can retry
	// with fresh random values.
	Create(ctx context.Context, link *domain.Link) error

	// FindByCode retrieves a link by its short code
	FindByCode(ctx context.Context, code string) (*domain.Link, error)

	// FindByCodeAndAdminKey retrieves a link only when both the code and the
	// admin key match. A key mismatch returns domain.ErrLinkNotFound, exactly
	// like a missing code.
	FindByCodeAndAdminKey(ctx context.Context, code, adminKey string) (*domain.Link, error)

	// IncrementClicks atomically increments the click counter.
	// This prevents race conditions with concurrent requests.
	IncrementClicks(ctx context.Context, code string) error

	// Delete removes a link and cascades to its click records
	Delete(ctx context.Context, link *domain.Link) error

	// ExistsByCode checks if a short code exists without fetching data
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// ClickRepository defines the contract for click record access
type ClickRepository interface {
	// Create appends a click record; records are immutable once inserted
	Create(ctx context.Context, record *domain.ClickRecord) error

	// ListByLink returns all click records for a link, newest first
	ListByLink(ctx context.Context, linkID uint) ([]domain.ClickRecord, error)
}
