package service

import (
	"context"

	"shortlink/internal/domain"
)

// LinkService defines the business logic interface for link operations
// This layer orchestrates between repositories, cache, and the click recorder
type LinkService interface {
	// Shorten creates a new short link and mints its admin key
	Shorten(ctx context.Context, req *domain.CreateLinkRequest) (*domain.CreateLinkResponse, error)

	// Resolve looks up a short code for redirect. An Active link has its
	// counter incremented before the resolution is returned; click capture
	// is detached and best-effort.
	Resolve(ctx context.Context, code string, visit domain.Visit) (*domain.Resolution, error)

	// Stats aggregates click analytics for the link's owner
	Stats(ctx context.Context, code, adminKey string) (*domain.LinkStats, error)

	// Delete removes a link and its click records on behalf of the owner
	Delete(ctx context.Context, code, adminKey string) (*domain.DeleteLinkResponse, error)
}
