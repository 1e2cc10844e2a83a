// Package memory provides an in-process store.Store used by unit tests and
// the "memory" driver for ephemeral dev runs. State lives in maps behind one
// RWMutex; rows are deep-copied at the boundary so callers never alias
// internal state.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/store"
)

// New returns an empty in-memory store.
func New() store.Store {
	return &memStore{
		items:     make(map[string]map[string]*model.Item),
		locations: make(map[string]map[string]*model.Location),
		tags:      make(map[string]map[string]model.TagAssociation),
	}
}

type memStore struct {
	mu        sync.RWMutex
	items     map[string]map[string]*model.Item
	locations map[string]map[string]*model.Location
	tags      map[string]map[string]model.TagAssociation // owner -> composite key -> association
}

func (s *memStore) Items() store.Items         { return &items{s: s} }
func (s *memStore) Locations() store.Locations { return &locations{s: s} }
func (s *memStore) Tags() store.Tags           { return &tags{s: s} }

// HealthPing implements health.HealthPinger; a map store is up whenever the
// process is.
func (s *memStore) HealthPing(ctx context.Context) error { return ctx.Err() }

// --- Items ---

type items struct{ s *memStore }

func (i *items) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	out := cloneItem(it)
	if out.ItemID == "" {
		out.ItemID = uuid.New().String()
	}
	out.NormalizedName = model.NormalizeName(out.Name)
	out.Tags = nil // derived field, never persisted
	now := time.Now().UTC()
	out.CreationTime = now
	out.UpdateTime = now

	if i.s.items[out.OwnerID] == nil {
		i.s.items[out.OwnerID] = make(map[string]*model.Item)
	}
	i.s.items[out.OwnerID][out.ItemID] = out
	return cloneItem(out), nil
}

func (i *items) Get(ctx context.Context, ownerID, itemID string) (*model.Item, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()

	it, ok := i.s.items[ownerID][itemID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneItem(it), nil
}

func (i *items) List(ctx context.Context, ownerID string) ([]*model.Item, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	return i.collect(ownerID, func(*model.Item) bool { return true }), nil
}

func (i *items) ByLocation(ctx context.Context, ownerID, locationID string) ([]*model.Item, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	return i.collect(ownerID, func(it *model.Item) bool { return it.LocationID == locationID }), nil
}

func (i *items) ByName(ctx context.Context, ownerID, normalizedName string) ([]*model.Item, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	return i.collect(ownerID, func(it *model.Item) bool { return it.NormalizedName == normalizedName }), nil
}

func (i *items) ByExpiry(ctx context.Context, ownerID, locationID string, cutoff time.Time) ([]*model.Item, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	return i.collect(ownerID, func(it *model.Item) bool {
		if it.UseByDate == nil || it.UseByDate.After(cutoff) {
			return false
		}
		return locationID == "" || it.LocationID == locationID
	}), nil
}

func (i *items) Update(ctx context.Context, ownerID, itemID string, req model.UpdateItemRequest) (*model.Item, error) {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	it, ok := i.s.items[ownerID][itemID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if req.Name != nil {
		it.Name = *req.Name
		it.NormalizedName = model.NormalizeName(*req.Name)
	}
	if req.LocationID != nil {
		it.LocationID = *req.LocationID
	}
	if req.Quantity != nil {
		it.Quantity = *req.Quantity
	}
	if req.Unit != nil {
		it.Unit = *req.Unit
	}
	if req.Measurements != nil {
		it.Measurements = append([]model.MeasurementValue(nil), (*req.Measurements)...)
	}
	if req.UseByDate != nil {
		d := *req.UseByDate
		it.UseByDate = &d
	}
	if req.Notes != nil {
		n := *req.Notes
		it.Notes = &n
	}
	it.UpdateTime = time.Now().UTC()
	return cloneItem(it), nil
}

func (i *items) Delete(ctx context.Context, ownerID, itemID string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()

	if _, ok := i.s.items[ownerID][itemID]; !ok {
		return model.ErrNotFound
	}
	delete(i.s.items[ownerID], itemID)
	return nil
}

// collect filters one owner partition; callers hold at least a read lock.
func (i *items) collect(ownerID string, keep func(*model.Item) bool) []*model.Item {
	var out []*model.Item
	for _, it := range i.s.items[ownerID] {
		if keep(it) {
			out = append(out, cloneItem(it))
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreationTime.Equal(out[b].CreationTime) {
			return out[a].CreationTime.After(out[b].CreationTime)
		}
		return out[a].ItemID < out[b].ItemID
	})
	return out
}

// --- Locations ---

type locations struct{ s *memStore }

func (l *locations) Create(ctx context.Context, loc *model.Location) (*model.Location, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	out := cloneLocation(loc)
	if out.LocationID == "" {
		out.LocationID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.CreationTime = now
	out.UpdateTime = now

	if l.s.locations[out.OwnerID] == nil {
		l.s.locations[out.OwnerID] = make(map[string]*model.Location)
	}
	l.s.locations[out.OwnerID][out.LocationID] = out
	return cloneLocation(out), nil
}

func (l *locations) Get(ctx context.Context, ownerID, locationID string) (*model.Location, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	loc, ok := l.s.locations[ownerID][locationID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return cloneLocation(loc), nil
}

func (l *locations) List(ctx context.Context, ownerID string) ([]*model.Location, error) {
	l.s.mu.RLock()
	defer l.s.mu.RUnlock()

	var out []*model.Location
	for _, loc := range l.s.locations[ownerID] {
		out = append(out, cloneLocation(loc))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreationTime.Equal(out[b].CreationTime) {
			return out[a].CreationTime.After(out[b].CreationTime)
		}
		return out[a].LocationID < out[b].LocationID
	})
	return out, nil
}

func (l *locations) Update(ctx context.Context, ownerID, locationID string, req model.UpdateLocationRequest) (*model.Location, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	loc, ok := l.s.locations[ownerID][locationID]
	if !ok {
		return nil, model.ErrNotFound
	}
	if req.Name != nil {
		loc.Name = *req.Name
	}
	if req.Description != nil {
		d := *req.Description
		loc.Description = &d
	}
	loc.UpdateTime = time.Now().UTC()
	return cloneLocation(loc), nil
}

func (l *locations) Delete(ctx context.Context, ownerID, locationID string) error {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()

	if _, ok := l.s.locations[ownerID][locationID]; !ok {
		return model.ErrNotFound
	}
	delete(l.s.locations[ownerID], locationID)
	return nil
}

// --- Tags ---

type tags struct{ s *memStore }

func (t *tags) Add(ctx context.Context, ownerID, itemID string, names []string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.s.tags[ownerID] == nil {
		t.s.tags[ownerID] = make(map[string]model.TagAssociation)
	}
	now := time.Now().UTC()
	for _, name := range names {
		tag := strings.ToLower(name)
		t.s.tags[ownerID][model.TagKey(tag, itemID)] = model.TagAssociation{
			OwnerID:      ownerID,
			TagName:      tag,
			ItemID:       itemID,
			CreationTime: now,
		}
	}
	return nil
}

func (t *tags) Remove(ctx context.Context, ownerID, itemID string, names []string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for _, name := range names {
		delete(t.s.tags[ownerID], model.TagKey(strings.ToLower(name), itemID))
	}
	return nil
}

func (t *tags) ForItem(ctx context.Context, ownerID, itemID string) ([]string, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var out []string
	for _, assoc := range t.s.tags[ownerID] {
		if assoc.ItemID == itemID {
			out = append(out, assoc.TagName)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (t *tags) ItemsForTag(ctx context.Context, ownerID, tag string) ([]string, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	want := strings.ToLower(tag)
	var out []string
	for _, assoc := range t.s.tags[ownerID] {
		if assoc.TagName == want {
			out = append(out, assoc.ItemID)
		}
	}
	sort.Strings(out)
	return out, nil
}

// --- clone helpers ---

func cloneItem(in *model.Item) *model.Item {
	out := *in
	if in.Measurements != nil {
		out.Measurements = append([]model.MeasurementValue(nil), in.Measurements...)
	}
	if in.UseByDate != nil {
		d := *in.UseByDate
		out.UseByDate = &d
	}
	if in.Notes != nil {
		n := *in.Notes
		out.Notes = &n
	}
	if in.Tags != nil {
		out.Tags = append([]string(nil), in.Tags...)
	}
	return &out
}

func cloneLocation(in *model.Location) *model.Location {
	out := *in
	if in.Description != nil {
		d := *in.Description
		out.Description = &d
	}
	return &out
}
