// Package storetest exercises a backend-agnostic compliance suite against a
// store.Store implementation. Each adapter's tests call Run with a factory
// that returns a clean store.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/store"
)

// Run executes the compliance suite. Subtests use unique owner IDs so the
// suite can run repeatedly against a shared database.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Run("LocationLifecycle", func(t *testing.T) { testLocationLifecycle(t, makeStore(t)) })
	t.Run("LocationNotFound", func(t *testing.T) { testLocationNotFound(t, makeStore(t)) })
	t.Run("ItemCreateAndGet", func(t *testing.T) { testItemCreateAndGet(t, makeStore(t)) })
	t.Run("ItemOwnerScoping", func(t *testing.T) { testItemOwnerScoping(t, makeStore(t)) })
	t.Run("ItemByLocation", func(t *testing.T) { testItemByLocation(t, makeStore(t)) })
	t.Run("ItemByName", func(t *testing.T) { testItemByName(t, makeStore(t)) })
	t.Run("ItemByExpiry", func(t *testing.T) { testItemByExpiry(t, makeStore(t)) })
	t.Run("ItemPartialUpdate", func(t *testing.T) { testItemPartialUpdate(t, makeStore(t)) })
	t.Run("ItemDelete", func(t *testing.T) { testItemDelete(t, makeStore(t)) })
	t.Run("ItemNotFound", func(t *testing.T) { testItemNotFound(t, makeStore(t)) })
	t.Run("TagRoundTrip", func(t *testing.T) { testTagRoundTrip(t, makeStore(t)) })
	t.Run("TagIdempotentAdd", func(t *testing.T) { testTagIdempotentAdd(t, makeStore(t)) })
	t.Run("TagLowercasing", func(t *testing.T) { testTagLowercasing(t, makeStore(t)) })
	t.Run("TagRemoveMissing", func(t *testing.T) { testTagRemoveMissing(t, makeStore(t)) })
	t.Run("TagOwnerScoping", func(t *testing.T) { testTagOwnerScoping(t, makeStore(t)) })
}

func newOwnerID() string { return "o-" + uuid.New().String() }

func mustCreateLocation(t *testing.T, s store.Store, ownerID, name string) *model.Location {
	t.Helper()
	loc, err := s.Locations().Create(context.Background(), &model.Location{OwnerID: ownerID, Name: name})
	if err != nil {
		t.Fatalf("create location %q: %v", name, err)
	}
	return loc
}

func mustCreateItem(t *testing.T, s store.Store, it *model.Item) *model.Item {
	t.Helper()
	created, err := s.Items().Create(context.Background(), it)
	if err != nil {
		t.Fatalf("create item %q: %v", it.Name, err)
	}
	return created
}

func testLocationLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()

	loc := mustCreateLocation(t, s, owner, "Garage Fridge")
	if loc.LocationID == "" {
		t.Fatal("expected location ID to be assigned")
	}
	if loc.CreationTime.IsZero() || loc.UpdateTime.IsZero() {
		t.Fatal("expected creation and update times to be set")
	}

	got, err := s.Locations().Get(ctx, owner, loc.LocationID)
	if err != nil {
		t.Fatalf("get location: %v", err)
	}
	if got.Name != "Garage Fridge" {
		t.Fatalf("got name %q, want %q", got.Name, "Garage Fridge")
	}

	desc := "chest freezer in the garage"
	updated, err := s.Locations().Update(ctx, owner, loc.LocationID, model.UpdateLocationRequest{Description: &desc})
	if err != nil {
		t.Fatalf("update location: %v", err)
	}
	if updated.Name != "Garage Fridge" {
		t.Fatalf("update clobbered name: got %q", updated.Name)
	}
	if updated.Description == nil || *updated.Description != desc {
		t.Fatalf("description not applied: %+v", updated.Description)
	}

	list, err := s.Locations().List(ctx, owner)
	if err != nil {
		t.Fatalf("list locations: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d locations, want 1", len(list))
	}

	if err := s.Locations().Delete(ctx, owner, loc.LocationID); err != nil {
		t.Fatalf("delete location: %v", err)
	}
	if _, err := s.Locations().Get(ctx, owner, loc.LocationID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
}

func testLocationNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()

	if _, err := s.Locations().Get(ctx, owner, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("get missing: got %v, want ErrNotFound", err)
	}
	name := "Pantry"
	if _, err := s.Locations().Update(ctx, owner, "missing", model.UpdateLocationRequest{Name: &name}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("update missing: got %v, want ErrNotFound", err)
	}
	if err := s.Locations().Delete(ctx, owner, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("delete missing: got %v, want ErrNotFound", err)
	}
}

func testItemCreateAndGet(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")

	use := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	notes := "back shelf"
	created := mustCreateItem(t, s, &model.Item{
		OwnerID:    owner,
		Name:       "  Whole Wheat Flour ",
		LocationID: loc.LocationID,
		Quantity:   decimal.NewFromInt(2),
		Unit:       "bags",
		Measurements: []model.MeasurementValue{
			{Type: model.Weight, Value: decimal.RequireFromString("2.5"), Unit: "lb"},
		},
		UseByDate: &use,
		Notes:     &notes,
		Tags:      []string{"baking"}, // must not be persisted by the store
	})

	if created.ItemID == "" {
		t.Fatal("expected item ID to be assigned")
	}
	if created.NormalizedName != "whole wheat flour" {
		t.Fatalf("got normalized name %q, want %q", created.NormalizedName, "whole wheat flour")
	}
	if created.CreationTime.IsZero() {
		t.Fatal("expected creation time to be set")
	}

	got, err := s.Items().Get(ctx, owner, created.ItemID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if got.Name != "  Whole Wheat Flour " {
		t.Fatalf("got name %q, want original spelling preserved", got.Name)
	}
	if !got.Quantity.Equal(decimal.NewFromInt(2)) || got.Unit != "bags" {
		t.Fatalf("quantity round trip: got %s %s", got.Quantity, got.Unit)
	}
	if len(got.Measurements) != 1 || got.Measurements[0].Unit != "lb" {
		t.Fatalf("measurements round trip: %+v", got.Measurements)
	}
	if !got.Measurements[0].Value.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("measurement value round trip: got %s", got.Measurements[0].Value)
	}
	if got.UseByDate == nil || !got.UseByDate.Equal(use) {
		t.Fatalf("use-by round trip: %v", got.UseByDate)
	}
	if got.Notes == nil || *got.Notes != notes {
		t.Fatalf("notes round trip: %+v", got.Notes)
	}
	if len(got.Tags) != 0 {
		t.Fatalf("store persisted tags on the item row: %v", got.Tags)
	}
}

func testItemOwnerScoping(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	other := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")

	created := mustCreateItem(t, s, &model.Item{
		OwnerID:    owner,
		Name:       "Rice",
		LocationID: loc.LocationID,
		Quantity:   decimal.NewFromInt(1),
		Unit:       "bag",
	})

	if _, err := s.Items().Get(ctx, other, created.ItemID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("cross-owner get: got %v, want ErrNotFound", err)
	}
	list, err := s.Items().List(ctx, other)
	if err != nil {
		t.Fatalf("list for other owner: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("other owner sees %d items, want 0", len(list))
	}
	if err := s.Items().Delete(ctx, other, created.ItemID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("cross-owner delete: got %v, want ErrNotFound", err)
	}
	if _, err := s.Items().Get(ctx, owner, created.ItemID); err != nil {
		t.Fatalf("item should survive cross-owner delete attempt: %v", err)
	}
}

func testItemByLocation(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	pantry := mustCreateLocation(t, s, owner, "Pantry")
	fridge := mustCreateLocation(t, s, owner, "Fridge")

	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Pasta", LocationID: pantry.LocationID, Quantity: decimal.NewFromInt(3), Unit: "boxes"})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Beans", LocationID: pantry.LocationID, Quantity: decimal.NewFromInt(4), Unit: "cans"})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Milk", LocationID: fridge.LocationID, Quantity: decimal.NewFromInt(1), Unit: "carton"})

	got, err := s.Items().ByLocation(ctx, owner, pantry.LocationID)
	if err != nil {
		t.Fatalf("by location: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d pantry items, want 2", len(got))
	}
	for _, it := range got {
		if it.LocationID != pantry.LocationID {
			t.Fatalf("item %q leaked from location %q", it.Name, it.LocationID)
		}
	}

	empty, err := s.Items().ByLocation(ctx, owner, "no-such-location")
	if err != nil {
		t.Fatalf("by unknown location: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("unknown location returned %d items", len(empty))
	}
}

func testItemByName(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")

	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Olive Oil", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "bottle"})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "OLIVE OIL", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(2), Unit: "bottles"})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Canola Oil", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "bottle"})

	got, err := s.Items().ByName(ctx, owner, "olive oil")
	if err != nil {
		t.Fatalf("by name: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d olive oil items, want 2 (case-folded match)", len(got))
	}
}

func testItemByExpiry(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	pantry := mustCreateLocation(t, s, owner, "Pantry")
	fridge := mustCreateLocation(t, s, owner, "Fridge")

	soon := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	later := time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC)

	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Yogurt", LocationID: fridge.LocationID, Quantity: decimal.NewFromInt(4), Unit: "cups", UseByDate: &soon})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Bread", LocationID: pantry.LocationID, Quantity: decimal.NewFromInt(1), Unit: "loaf", UseByDate: &soon})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Honey", LocationID: pantry.LocationID, Quantity: decimal.NewFromInt(1), Unit: "jar", UseByDate: &later})
	mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Salt", LocationID: pantry.LocationID, Quantity: decimal.NewFromInt(1), Unit: "box"})

	cutoff := time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC)

	all, err := s.Items().ByExpiry(ctx, owner, "", cutoff)
	if err != nil {
		t.Fatalf("by expiry: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d expiring items, want 2 (undated and far-out items excluded)", len(all))
	}

	pantryOnly, err := s.Items().ByExpiry(ctx, owner, pantry.LocationID, cutoff)
	if err != nil {
		t.Fatalf("by expiry in location: %v", err)
	}
	if len(pantryOnly) != 1 || pantryOnly[0].Name != "Bread" {
		t.Fatalf("location-scoped expiry: %v", names(pantryOnly))
	}

	boundary, err := s.Items().ByExpiry(ctx, owner, "", soon)
	if err != nil {
		t.Fatalf("by expiry at boundary: %v", err)
	}
	if len(boundary) != 2 {
		t.Fatalf("cutoff is inclusive: got %d items, want 2", len(boundary))
	}
}

func testItemPartialUpdate(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	pantry := mustCreateLocation(t, s, owner, "Pantry")
	fridge := mustCreateLocation(t, s, owner, "Fridge")

	created := mustCreateItem(t, s, &model.Item{
		OwnerID:    owner,
		Name:       "Butter",
		LocationID: pantry.LocationID,
		Quantity:   decimal.NewFromInt(2),
		Unit:       "sticks",
		Measurements: []model.MeasurementValue{
			{Type: model.Weight, Value: decimal.NewFromInt(8), Unit: "oz"},
		},
	})

	name := "Salted Butter"
	updated, err := s.Items().Update(ctx, owner, created.ItemID, model.UpdateItemRequest{Name: &name})
	if err != nil {
		t.Fatalf("update name: %v", err)
	}
	if updated.Name != "Salted Butter" || updated.NormalizedName != "salted butter" {
		t.Fatalf("name update: got %q / %q", updated.Name, updated.NormalizedName)
	}
	if updated.LocationID != pantry.LocationID || !updated.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Fatal("unrelated fields changed by partial update")
	}
	if len(updated.Measurements) != 1 {
		t.Fatalf("measurements changed by unrelated update: %+v", updated.Measurements)
	}

	qty := decimal.RequireFromString("3.5")
	meas := []model.MeasurementValue{
		{Type: model.Weight, Value: decimal.NewFromInt(1), Unit: "lb"},
		{Type: model.Count, Value: decimal.NewFromInt(4), Unit: "units"},
	}
	updated, err = s.Items().Update(ctx, owner, created.ItemID, model.UpdateItemRequest{
		LocationID:   &fridge.LocationID,
		Quantity:     &qty,
		Measurements: &meas,
	})
	if err != nil {
		t.Fatalf("update several fields: %v", err)
	}
	if updated.LocationID != fridge.LocationID {
		t.Fatalf("location not applied: %q", updated.LocationID)
	}
	if !updated.Quantity.Equal(qty) {
		t.Fatalf("quantity not applied: %s", updated.Quantity)
	}
	if len(updated.Measurements) != 2 {
		t.Fatalf("measurement set not replaced: %+v", updated.Measurements)
	}

	got, err := s.Items().Get(ctx, owner, created.ItemID)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if got.Name != "Salted Butter" || got.LocationID != fridge.LocationID {
		t.Fatal("updates did not persist")
	}
}

func testItemDelete(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")
	created := mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Cereal", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "box"})

	if err := s.Items().Delete(ctx, owner, created.ItemID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if _, err := s.Items().Get(ctx, owner, created.ItemID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("get after delete: got %v, want ErrNotFound", err)
	}
	if err := s.Items().Delete(ctx, owner, created.ItemID); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("second delete: got %v, want ErrNotFound", err)
	}
}

func testItemNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()

	if _, err := s.Items().Get(ctx, owner, "missing"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("get missing: got %v, want ErrNotFound", err)
	}
	qty := decimal.NewFromInt(1)
	if _, err := s.Items().Update(ctx, owner, "missing", model.UpdateItemRequest{Quantity: &qty}); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("update missing: got %v, want ErrNotFound", err)
	}
}

func testTagRoundTrip(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")
	a := mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Lentils", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "bag"})
	b := mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Chickpeas", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(2), Unit: "cans"})

	if err := s.Tags().Add(ctx, owner, a.ItemID, []string{"legume", "dry-goods"}); err != nil {
		t.Fatalf("add tags: %v", err)
	}
	if err := s.Tags().Add(ctx, owner, b.ItemID, []string{"legume"}); err != nil {
		t.Fatalf("add tags: %v", err)
	}

	forA, err := s.Tags().ForItem(ctx, owner, a.ItemID)
	if err != nil {
		t.Fatalf("tags for item: %v", err)
	}
	if len(forA) != 2 || forA[0] != "dry-goods" || forA[1] != "legume" {
		t.Fatalf("tags for item: got %v", forA)
	}

	ids, err := s.Tags().ItemsForTag(ctx, owner, "legume")
	if err != nil {
		t.Fatalf("items for tag: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("items for tag: got %d, want 2", len(ids))
	}

	if err := s.Tags().Remove(ctx, owner, a.ItemID, []string{"legume"}); err != nil {
		t.Fatalf("remove tag: %v", err)
	}
	ids, err = s.Tags().ItemsForTag(ctx, owner, "legume")
	if err != nil {
		t.Fatalf("items for tag after remove: %v", err)
	}
	if len(ids) != 1 || ids[0] != b.ItemID {
		t.Fatalf("items for tag after remove: got %v", ids)
	}
}

func testTagIdempotentAdd(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")
	it := mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Coffee", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "bag"})

	for i := 0; i < 3; i++ {
		if err := s.Tags().Add(ctx, owner, it.ItemID, []string{"breakfast"}); err != nil {
			t.Fatalf("add round %d: %v", i, err)
		}
	}
	tags, err := s.Tags().ForItem(ctx, owner, it.ItemID)
	if err != nil {
		t.Fatalf("tags for item: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("repeated add duplicated the association: %v", tags)
	}
}

func testTagLowercasing(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")
	it := mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Tea", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "tin"})

	if err := s.Tags().Add(ctx, owner, it.ItemID, []string{"Breakfast"}); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	tags, err := s.Tags().ForItem(ctx, owner, it.ItemID)
	if err != nil {
		t.Fatalf("tags for item: %v", err)
	}
	if len(tags) != 1 || tags[0] != "breakfast" {
		t.Fatalf("tag not lowercased on write: %v", tags)
	}

	ids, err := s.Tags().ItemsForTag(ctx, owner, "BREAKFAST")
	if err != nil {
		t.Fatalf("items for tag: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("uppercase lookup missed lowercased row: %v", ids)
	}
}

func testTagRemoveMissing(t *testing.T, s store.Store) {
	ctx := context.Background()

	if err := s.Tags().Remove(ctx, newOwnerID(), "no-such-item", []string{"ghost"}); err != nil {
		t.Fatalf("remove of absent association should be a no-op, got %v", err)
	}
}

func testTagOwnerScoping(t *testing.T, s store.Store) {
	ctx := context.Background()
	owner := newOwnerID()
	other := newOwnerID()
	loc := mustCreateLocation(t, s, owner, "Pantry")
	it := mustCreateItem(t, s, &model.Item{OwnerID: owner, Name: "Jam", LocationID: loc.LocationID, Quantity: decimal.NewFromInt(1), Unit: "jar"})

	if err := s.Tags().Add(ctx, owner, it.ItemID, []string{"sweet"}); err != nil {
		t.Fatalf("add tag: %v", err)
	}
	ids, err := s.Tags().ItemsForTag(ctx, other, "sweet")
	if err != nil {
		t.Fatalf("items for tag: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("cross-owner tag lookup returned %v", ids)
	}
}

func names(items []*model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
