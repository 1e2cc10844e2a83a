package store

import (
	"context"
	"time"

	"github.com/pantrylab/pantry-service/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite,
// spanner, memory).
//
// Contract every backend must honor:
//   - Every operation is scoped by owner id; no call crosses owners.
//   - Point writes have overwrite semantics; conditional writes are not
//     required. Reads may be eventually consistent or stronger.
//   - Lookups for absent rows return model.ErrNotFound, never a bare driver
//     error.
//   - ByLocation, ByName and ByExpiry are secondary-index reads keyed first
//     by owner id; List is a full scan of one owner's partition. Result
//     order is not significant.
//   - The store performs no cross-entity cascades; the service layer owns
//     the delete-tags-then-item sequence.
type Store interface {
	Items() Items
	Locations() Locations
	Tags() Tags
}

// Items owns item rows and their four access paths.
type Items interface {
	// Create assigns ItemID (when empty), derives NormalizedName from Name
	// and persists the row. The derived Tags field is never written.
	Create(ctx context.Context, it *model.Item) (*model.Item, error)
	Get(ctx context.Context, ownerID, itemID string) (*model.Item, error)
	List(ctx context.Context, ownerID string) ([]*model.Item, error)
	ByLocation(ctx context.Context, ownerID, locationID string) ([]*model.Item, error)
	// ByName matches the precomputed normalized name; callers pass a
	// lowercased name.
	ByName(ctx context.Context, ownerID, normalizedName string) ([]*model.Item, error)
	// ByExpiry returns items whose use-by date is set and at or before
	// cutoff. An empty locationID widens the read to the whole owner
	// partition.
	ByExpiry(ctx context.Context, ownerID, locationID string, cutoff time.Time) ([]*model.Item, error)
	// Update applies only the non-nil fields of req and bumps UpdateTime.
	// A name change re-derives NormalizedName. Validation of measurement
	// sets happens above the store, before this call.
	Update(ctx context.Context, ownerID, itemID string, req model.UpdateItemRequest) (*model.Item, error)
	Delete(ctx context.Context, ownerID, itemID string) error
}

// Locations owns location rows.
type Locations interface {
	Create(ctx context.Context, l *model.Location) (*model.Location, error)
	Get(ctx context.Context, ownerID, locationID string) (*model.Location, error)
	List(ctx context.Context, ownerID string) ([]*model.Location, error)
	Update(ctx context.Context, ownerID, locationID string, req model.UpdateLocationRequest) (*model.Location, error)
	Delete(ctx context.Context, ownerID, locationID string) error
}

// Tags owns the item<->tag relation. Implementations lowercase tag names on
// every write and lookup, and key associations by the composite identity
// model.TagKey (owner-scoped), which makes Add idempotent and Remove of a
// missing association a no-op.
type Tags interface {
	Add(ctx context.Context, ownerID, itemID string, tags []string) error
	Remove(ctx context.Context, ownerID, itemID string, tags []string) error
	ForItem(ctx context.Context, ownerID, itemID string) ([]string, error)
	ItemsForTag(ctx context.Context, ownerID, tag string) ([]string, error)
}
