package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"shortlink/internal/domain"
	"shortlink/internal/repository"
)

// linkRepository implements the LinkRepository interface for PostgreSQL
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new PostgreSQL link repository
func NewLinkRepository(db *gorm.DB) repository.LinkRepository {
	return &linkRepository{db: db}
}

// Create inserts a new link record into the database.
// A unique violation on either the short code or the admin key is mapped to
// ErrCodeExhausted; both are freshly random, so the caller simply retries.
func (r *linkRepository) Create(ctx context.Context, link *domain.Link) error {
	result := r.db.WithContext(ctx).Create(link)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrCodeExhausted
		}
		return domain.NewInternalError(result.Error)
	}
	return nil
}

// FindByCode retrieves a link by its short code.
// Returns ErrLinkNotFound if the code doesn't exist.
func (r *linkRepository) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link

	result := r.db.WithContext(ctx).
		Where("short_code = ?", code).
		First(&link)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &link, nil
}

// FindByCodeAndAdminKey retrieves a link only when both identifiers match.
// A wrong admin key is indistinguishable from an unknown code.
func (r *linkRepository) FindByCodeAndAdminKey(ctx context.Context, code, adminKey string) (*domain.Link, error) {
	var link domain.Link

	result := r.db.WithContext(ctx).
		Where("short_code = ? AND admin_key = ?", code, adminKey).
		First(&link)

	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, domain.NewInternalError(result.Error)
	}

	return &link, nil
}

// IncrementClicks atomically increments the click counter.
// Uses a SQL UPDATE expression so concurrent redirects never lose a click;
// ordering across concurrent increments is not guaranteed, only the total.
func (r *linkRepository) IncrementClicks(ctx context.Context, code string) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Link{}).
		Where("short_code = ?", code).
		Update("click_count", gorm.Expr("click_count + ?", 1))

	if result.Error != nil {
		return domain.NewInternalError(result.Error)
	}

	if result.RowsAffected == 0 {
		return domain.ErrLinkNotFound
	}

	return nil
}

// Delete removes a link and all of its click records in one transaction.
// The explicit click delete keeps the cascade independent of whether the
// foreign key constraint made it into the schema.
func (r *linkRepository) Delete(ctx context.Context, link *domain.Link) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", link.ID).Delete(&domain.ClickRecord{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&domain.Link{}, link.ID)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrLinkNotFound
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, domain.ErrLinkNotFound) {
			return err
		}
		return domain.NewInternalError(err)
	}

	return nil
}

// ExistsByCode checks if a short code exists without loading the full record.
// More efficient than FindByCode when you only need an existence check.
func (r *linkRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64

	result := r.db.WithContext(ctx).
		Model(&domain.Link{}).
		Where("short_code = ?", code).
		Count(&count)

	if result.Error != nil {
		return false, domain.NewInternalError(result.Error)
	}

	return count > 0, nil
}
