package storage

import (
	"context"

	"housing-explorer/models"
)

// ListingWriter is the interface any storage backend must satisfy.
type ListingWriter interface {
	Write(ctx context.Context, listings []*models.Listing) error
	Close() error
}

// ListingReader returns previously stored listings.
type ListingReader interface {
	FetchAll(ctx context.Context) ([]*models.Listing, error)
	Close() error
}
