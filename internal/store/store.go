package store

import (
	"context"

	"github.com/elbart/pecunia/internal/model"
)

// Store persists price observations.
type Store interface {
	// UpsertPrices writes one row per observation for the given symbol.
	// A row that already exists for the same (time, ticker) pair is left
	// untouched, so re-ingesting an overlapping period is side-effect-free.
	UpsertPrices(ctx context.Context, symbol string, observations []model.PriceObservation) error
	Close() error
}

// NoopStore is a no-op implementation used when no database is configured.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (n *NoopStore) UpsertPrices(_ context.Context, _ string, _ []model.PriceObservation) error {
	return nil
}
func (n *NoopStore) Close() error { return nil }
