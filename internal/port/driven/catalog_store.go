package driven

import (
	"context"

	"github.com/alorle/catalog-ingest/internal/catalog"
)

// CatalogStore persists the normalized outcome of provider syncs.
// A sync replaces the stored snapshot of its provider; nothing is merged.
type CatalogStore interface {
	// Replace stores snapshot as the current catalog of snapshot.Provider.
	Replace(ctx context.Context, snapshot catalog.Snapshot) error

	// FindByProvider returns the current snapshot of a provider.
	// Returns catalog.ErrSnapshotNotFound if the provider was never synced.
	FindByProvider(ctx context.Context, provider string) (catalog.Snapshot, error)

	// FindAll returns every stored snapshot ordered by provider name.
	FindAll(ctx context.Context) ([]catalog.Snapshot, error)

	// Delete removes the snapshot of a provider.
	// Returns catalog.ErrSnapshotNotFound if there is nothing to delete.
	Delete(ctx context.Context, provider string) error

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error
}
