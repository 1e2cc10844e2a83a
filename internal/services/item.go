package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pantrylab/pantry-service/internal/aggregate"
	"github.com/pantrylab/pantry-service/internal/measure"
	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/store"
)

// ItemService orchestrates item use cases over the store: validation before
// any write, tag diffing, the delete cascade and search/aggregation
// composition.
type ItemService struct {
	store store.Store
	agg   *aggregate.Engine
	log   zerolog.Logger

	// expiring window applied when a caller does not pass one
	defaultExpiryDays int
}

func NewItemService(s store.Store, agg *aggregate.Engine, log zerolog.Logger, defaultExpiryDays int) *ItemService {
	return &ItemService{store: s, agg: agg, log: log, defaultExpiryDays: defaultExpiryDays}
}

// CreateItem validates and persists a new item, then writes its tag
// associations. The two writes are not one transaction; a tag failure
// surfaces as an error after the item row already exists.
func (s *ItemService) CreateItem(ctx context.Context, it *model.Item) (*model.Item, error) {
	if strings.TrimSpace(it.Name) == "" {
		return nil, model.NewValidationError("name", "name is required")
	}
	if err := measure.ValidateSet(it.Measurements); err != nil {
		return nil, err
	}

	tags := normalizeTags(it.Tags)
	created, err := s.store.Items().Create(ctx, it)
	if err != nil {
		return nil, err
	}
	if len(tags) > 0 {
		if err := s.store.Tags().Add(ctx, created.OwnerID, created.ItemID, tags); err != nil {
			return nil, fmt.Errorf("item %s created but tag write failed: %w", created.ItemID, err)
		}
	}
	created.Tags = tags
	return created, nil
}

func (s *ItemService) GetItem(ctx context.Context, ownerID, itemID string) (*model.Item, error) {
	it, err := s.store.Items().Get(ctx, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *ItemService) ListItems(ctx context.Context, ownerID string) ([]*model.Item, error) {
	items, err := s.store.Items().List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *ItemService) ItemsByLocation(ctx context.Context, ownerID, locationID string) ([]*model.Item, error) {
	items, err := s.store.Items().ByLocation(ctx, ownerID, locationID)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemsByName matches on the normalized form of name, so lookups are
// case-insensitive.
func (s *ItemService) ItemsByName(ctx context.Context, ownerID, name string) ([]*model.Item, error) {
	items, err := s.store.Items().ByName(ctx, ownerID, model.NormalizeName(name))
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}

// ItemsByTag resolves the tag index and loads each member item.
func (s *ItemService) ItemsByTag(ctx context.Context, ownerID, tag string) ([]*model.Item, error) {
	items, err := s.itemsForTag(ctx, ownerID, tag)
	if err != nil {
		return nil, err
	}
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}

// UpdateItem applies a partial update. A supplied measurement set is
// re-validated before the write; a supplied tag list is diffed against the
// current associations and only the difference is written. The item write and
// the tag writes are separate steps, not one transaction.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID string, req model.UpdateItemRequest) (*model.Item, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, model.NewValidationError("name", "name must not be empty")
	}
	if req.Measurements != nil {
		if err := measure.ValidateSet(*req.Measurements); err != nil {
			return nil, err
		}
	}

	updated, err := s.store.Items().Update(ctx, ownerID, itemID, req)
	if err != nil {
		return nil, err
	}

	if req.Tags != nil {
		if err := s.syncTags(ctx, ownerID, itemID, *req.Tags); err != nil {
			return nil, err
		}
	}
	if err := s.attachTags(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteItem removes the item's tag associations, then the item row. The
// sequence is best-effort two-phase: tag cleanup failures are logged and do
// not block the item delete, so a partial failure can leave orphaned
// associations behind. Retrying the delete is safe; the second call returns
// not-found.
func (s *ItemService) DeleteItem(ctx context.Context, ownerID, itemID string) error {
	tags, err := s.store.Tags().ForItem(ctx, ownerID, itemID)
	if err != nil {
		s.log.Warn().Err(err).Str("itemId", itemID).Msg("tag lookup failed during delete, continuing")
	} else if len(tags) > 0 {
		if err := s.store.Tags().Remove(ctx, ownerID, itemID, tags); err != nil {
			s.log.Warn().Err(err).Str("itemId", itemID).Msg("tag cleanup failed during delete, continuing")
		}
	}
	return s.store.Items().Delete(ctx, ownerID, itemID)
}

// ExpiringItems lists items whose use-by date falls on or before today plus
// days, soonest first. Days below zero apply the service default window; zero
// means due today. An empty locationID widens the report to all locations.
func (s *ItemService) ExpiringItems(ctx context.Context, ownerID, locationID string, days int) ([]*model.Item, error) {
	if days < 0 {
		days = s.defaultExpiryDays
	}
	now := time.Now().UTC()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)

	items, err := s.store.Items().ByExpiry(ctx, ownerID, locationID, cutoff)
	if err != nil {
		return nil, err
	}
	// ByExpiry only returns dated items, so UseByDate is never nil here.
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.UseByDate.Equal(*b.UseByDate) {
			return a.ItemID < b.ItemID
		}
		return a.UseByDate.Before(*b.UseByDate)
	})
	if err := s.attachTags(ctx, items...); err != nil {
		return nil, err
	}
	return items, nil
}

// SearchItems resolves the most selective index for the base set (name, then
// location, then a full scan) and applies the remaining filters in memory.
// Date bounds are inclusive on both ends; items without a use-by date never
// match a date-bounded query. Multiple tags all have to be present.
func (s *ItemService) SearchItems(ctx context.Context, q model.SearchQuery) ([]*model.Item, error) {
	if q.UseByAfter != nil && q.UseByBefore != nil && q.UseByAfter.After(*q.UseByBefore) {
		return nil, model.NewValidationError("useByAfter", "useByAfter must not be later than useByBefore")
	}

	var (
		base []*model.Item
		err  error
	)
	switch {
	case q.Name != "":
		base, err = s.store.Items().ByName(ctx, q.OwnerID, model.NormalizeName(q.Name))
	case q.LocationID != "":
		base, err = s.store.Items().ByLocation(ctx, q.OwnerID, q.LocationID)
	default:
		base, err = s.store.Items().List(ctx, q.OwnerID)
	}
	if err != nil {
		return nil, err
	}

	tagged, err := s.tagFilter(ctx, q.OwnerID, q.Tags)
	if err != nil {
		return nil, err
	}

	var out []*model.Item
	for _, it := range base {
		if q.LocationID != "" && it.LocationID != q.LocationID {
			continue
		}
		if tagged != nil && !tagged[it.ItemID] {
			continue
		}
		if q.UseByAfter != nil || q.UseByBefore != nil {
			if it.UseByDate == nil {
				continue
			}
			if q.UseByAfter != nil && it.UseByDate.Before(*q.UseByAfter) {
				continue
			}
			if q.UseByBefore != nil && it.UseByDate.After(*q.UseByBefore) {
				continue
			}
		}
		out = append(out, it)
	}
	if err := s.attachTags(ctx, out...); err != nil {
		return nil, err
	}
	return out, nil
}

// Aggregate computes summary statistics over the owner's items, optionally
// narrowed to one location and/or one tag.
func (s *ItemService) Aggregate(ctx context.Context, q model.AggregateQuery) (*model.AggregateSummary, error) {
	var (
		items []*model.Item
		err   error
	)
	switch {
	case q.Tag != "":
		items, err = s.itemsForTag(ctx, q.OwnerID, q.Tag)
	case q.LocationID != "":
		items, err = s.store.Items().ByLocation(ctx, q.OwnerID, q.LocationID)
	default:
		items, err = s.store.Items().List(ctx, q.OwnerID)
	}
	if err != nil {
		return nil, err
	}

	if q.Tag != "" && q.LocationID != "" {
		var filtered []*model.Item
		for _, it := range items {
			if it.LocationID == q.LocationID {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}
	return s.agg.Compute(items, q.RequestedUnits)
}

// syncTags reconciles the stored associations with the desired tag list by
// writing only the symmetric difference.
func (s *ItemService) syncTags(ctx context.Context, ownerID, itemID string, desired []string) error {
	want := normalizeTags(desired)
	current, err := s.store.Tags().ForItem(ctx, ownerID, itemID)
	if err != nil {
		return fmt.Errorf("load tags for item %s: %w", itemID, err)
	}

	have := make(map[string]bool, len(current))
	for _, t := range current {
		have[t] = true
	}
	wanted := make(map[string]bool, len(want))
	for _, t := range want {
		wanted[t] = true
	}

	var adds []string
	for _, t := range want {
		if !have[t] {
			adds = append(adds, t)
		}
	}
	var removes []string
	for _, t := range current {
		if !wanted[t] {
			removes = append(removes, t)
		}
	}
	sort.Strings(removes)

	if len(adds) > 0 {
		if err := s.store.Tags().Add(ctx, ownerID, itemID, adds); err != nil {
			return fmt.Errorf("add tags for item %s: %w", itemID, err)
		}
	}
	if len(removes) > 0 {
		if err := s.store.Tags().Remove(ctx, ownerID, itemID, removes); err != nil {
			return fmt.Errorf("remove tags for item %s: %w", itemID, err)
		}
	}
	return nil
}

// itemsForTag loads the member items of one tag without attaching tag lists.
// Associations pointing at an item deleted mid-sequence are skipped.
func (s *ItemService) itemsForTag(ctx context.Context, ownerID, tag string) ([]*model.Item, error) {
	ids, err := s.store.Tags().ItemsForTag(ctx, ownerID, tag)
	if err != nil {
		return nil, err
	}
	items := make([]*model.Item, 0, len(ids))
	for _, id := range ids {
		it, err := s.store.Items().Get(ctx, ownerID, id)
		if errors.Is(err, model.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, nil
}

// tagFilter returns the ids carrying every requested tag, or nil when the
// query has no tag filter.
func (s *ItemService) tagFilter(ctx context.Context, ownerID string, tags []string) (map[string]bool, error) {
	clean := normalizeTags(tags)
	if len(clean) == 0 {
		return nil, nil
	}
	var members map[string]bool
	for _, tag := range clean {
		ids, err := s.store.Tags().ItemsForTag(ctx, ownerID, tag)
		if err != nil {
			return nil, err
		}
		next := make(map[string]bool, len(ids))
		for _, id := range ids {
			if members == nil || members[id] {
				next[id] = true
			}
		}
		members = next
	}
	return members, nil
}

// attachTags fills the derived Tags field from the tag index.
func (s *ItemService) attachTags(ctx context.Context, items ...*model.Item) error {
	for _, it := range items {
		tags, err := s.store.Tags().ForItem(ctx, it.OwnerID, it.ItemID)
		if err != nil {
			return fmt.Errorf("load tags for item %s: %w", it.ItemID, err)
		}
		it.Tags = tags
	}
	return nil
}

// normalizeTags lowercases, trims and dedupes a caller-supplied tag list.
func normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	var out []string
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
