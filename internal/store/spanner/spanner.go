// Package spanner implements store.Store on Google Cloud Spanner. Writes go
// through mutations with server-assigned commit timestamps; reads use
// single-use read-only transactions. Quantity and the measurement set are
// stored as text so decimal values round trip without precision loss.
package spanner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"cloud.google.com/go/spanner"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/store"
	"github.com/shopspring/decimal"
)

// DatabasePath assembles the fully qualified database name the client wants.
func DatabasePath(project, instance, database string) string {
	return fmt.Sprintf("projects/%s/instances/%s/databases/%s", project, instance, database)
}

// New connects to the given database and returns a store backed by it.
func New(ctx context.Context, databasePath string) (store.Store, error) {
	client, err := spanner.NewClient(ctx, databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create spanner client: %w", err)
	}
	return NewWithClient(client), nil
}

// NewWithClient constructs a store around an existing Spanner client.
func NewWithClient(client *spanner.Client) store.Store {
	return &spStore{client: client}
}

type spStore struct{ client *spanner.Client }

func (s *spStore) Items() store.Items         { return &items{client: s.client} }
func (s *spStore) Locations() store.Locations { return &locations{client: s.client} }
func (s *spStore) Tags() store.Tags           { return &tags{client: s.client} }

// HealthPing implements health.HealthPinger with a trivial query.
func (s *spStore) HealthPing(ctx context.Context) error {
	iter := s.client.Single().Query(ctx, spanner.Statement{SQL: "SELECT 1"})
	defer iter.Stop()
	_, err := iter.Next()
	if err == iterator.Done {
		return nil
	}
	return err
}

var itemColumns = []string{
	"OwnerId", "ItemId", "Name", "NormalizedName", "LocationId",
	"Quantity", "Unit", "Measurements", "UseByDate", "Notes",
	"CreationTime", "UpdateTime",
}

const itemSelect = `SELECT OwnerId, ItemId, Name, NormalizedName, LocationId,
       Quantity, Unit, Measurements, UseByDate, Notes, CreationTime, UpdateTime
    FROM Items`

// --- Items ---
type items struct{ client *spanner.Client }

func (i *items) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	out := *it
	if out.ItemID == "" {
		out.ItemID = uuid.New().String()
	}
	out.NormalizedName = model.NormalizeName(out.Name)
	out.Tags = nil

	meas, err := marshalMeasurements(out.Measurements)
	if err != nil {
		return nil, err
	}
	mutation := spanner.Insert("Items", itemColumns, []interface{}{
		out.OwnerID, out.ItemID, out.Name, out.NormalizedName, out.LocationID,
		out.Quantity.String(), out.Unit, meas, toNullDate(out.UseByDate), toNullString(out.Notes),
		spanner.CommitTimestamp, spanner.CommitTimestamp,
	})
	if _, err := i.client.Apply(ctx, []*spanner.Mutation{mutation}); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	now := time.Now().UTC() // approximate; the server assigns the commit timestamp
	out.CreationTime = now
	out.UpdateTime = now
	return &out, nil
}

func (i *items) Get(ctx context.Context, ownerID, itemID string) (*model.Item, error) {
	stmt := spanner.Statement{
		SQL: itemSelect + ` WHERE OwnerId = @ownerId AND ItemId = @itemId`,
		Params: map[string]interface{}{
			"ownerId": ownerID,
			"itemId":  itemID,
		},
	}
	iter := i.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return itemFromRow(row)
}

func (i *items) List(ctx context.Context, ownerID string) ([]*model.Item, error) {
	return i.query(ctx, spanner.Statement{
		SQL: itemSelect + ` WHERE OwnerId = @ownerId ORDER BY CreationTime DESC, ItemId`,
		Params: map[string]interface{}{
			"ownerId": ownerID,
		},
	})
}

func (i *items) ByLocation(ctx context.Context, ownerID, locationID string) ([]*model.Item, error) {
	return i.query(ctx, spanner.Statement{
		SQL: itemSelect + ` WHERE OwnerId = @ownerId AND LocationId = @locationId ORDER BY CreationTime DESC, ItemId`,
		Params: map[string]interface{}{
			"ownerId":    ownerID,
			"locationId": locationID,
		},
	})
}

func (i *items) ByName(ctx context.Context, ownerID, normalizedName string) ([]*model.Item, error) {
	return i.query(ctx, spanner.Statement{
		SQL: itemSelect + ` WHERE OwnerId = @ownerId AND NormalizedName = @name ORDER BY CreationTime DESC, ItemId`,
		Params: map[string]interface{}{
			"ownerId": ownerID,
			"name":    normalizedName,
		},
	})
}

func (i *items) ByExpiry(ctx context.Context, ownerID, locationID string, cutoff time.Time) ([]*model.Item, error) {
	sql := itemSelect + ` WHERE OwnerId = @ownerId AND UseByDate IS NOT NULL AND UseByDate <= @cutoff`
	params := map[string]interface{}{
		"ownerId": ownerID,
		"cutoff":  civil.DateOf(cutoff.UTC()),
	}
	if locationID != "" {
		sql += ` AND LocationId = @locationId`
		params["locationId"] = locationID
	}
	sql += ` ORDER BY UseByDate, ItemId`
	return i.query(ctx, spanner.Statement{SQL: sql, Params: params})
}

func (i *items) Update(ctx context.Context, ownerID, itemID string, req model.UpdateItemRequest) (*model.Item, error) {
	var updated *model.Item
	_, err := i.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, "Items", spanner.Key{ownerID, itemID}, itemColumns)
		if err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return model.ErrNotFound
			}
			return err
		}
		cur, err := itemFromRow(row)
		if err != nil {
			return err
		}

		if req.Name != nil {
			cur.Name = *req.Name
			cur.NormalizedName = model.NormalizeName(*req.Name)
		}
		if req.LocationID != nil {
			cur.LocationID = *req.LocationID
		}
		if req.Quantity != nil {
			cur.Quantity = *req.Quantity
		}
		if req.Unit != nil {
			cur.Unit = *req.Unit
		}
		if req.Measurements != nil {
			cur.Measurements = append([]model.MeasurementValue(nil), (*req.Measurements)...)
		}
		if req.UseByDate != nil {
			d := *req.UseByDate
			cur.UseByDate = &d
		}
		if req.Notes != nil {
			n := *req.Notes
			cur.Notes = &n
		}

		meas, err := marshalMeasurements(cur.Measurements)
		if err != nil {
			return err
		}
		mutation := spanner.Update("Items", itemColumns, []interface{}{
			cur.OwnerID, cur.ItemID, cur.Name, cur.NormalizedName, cur.LocationID,
			cur.Quantity.String(), cur.Unit, meas, toNullDate(cur.UseByDate), toNullString(cur.Notes),
			cur.CreationTime, spanner.CommitTimestamp,
		})
		if err := txn.BufferWrite([]*spanner.Mutation{mutation}); err != nil {
			return err
		}
		cur.UpdateTime = time.Now().UTC() // approximate; the server assigns the commit timestamp
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (i *items) Delete(ctx context.Context, ownerID, itemID string) error {
	var count int64
	_, err := i.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		n, err := txn.Update(ctx, spanner.Statement{
			SQL: `DELETE FROM Items WHERE OwnerId = @ownerId AND ItemId = @itemId`,
			Params: map[string]interface{}{
				"ownerId": ownerID,
				"itemId":  itemID,
			},
		})
		count = n
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	if count == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (i *items) query(ctx context.Context, stmt spanner.Statement) ([]*model.Item, error) {
	iter := i.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var res []*model.Item
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate items: %w", err)
		}
		it, err := itemFromRow(row)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, nil
}

func itemFromRow(row *spanner.Row) (*model.Item, error) {
	var out model.Item
	var qty string
	var meas, notes spanner.NullString
	var useBy spanner.NullDate
	if err := row.Columns(&out.OwnerID, &out.ItemID, &out.Name, &out.NormalizedName, &out.LocationID,
		&qty, &out.Unit, &meas, &useBy, &notes, &out.CreationTime, &out.UpdateTime); err != nil {
		return nil, fmt.Errorf("failed to scan item: %w", err)
	}

	var err error
	out.Quantity, err = decimal.NewFromString(qty)
	if err != nil {
		return nil, fmt.Errorf("decode quantity for item %s: %w", out.ItemID, err)
	}
	if meas.Valid && meas.StringVal != "" {
		if err := json.Unmarshal([]byte(meas.StringVal), &out.Measurements); err != nil {
			return nil, fmt.Errorf("decode measurements for item %s: %w", out.ItemID, err)
		}
	}
	if useBy.Valid {
		d := useBy.Date.In(time.UTC)
		out.UseByDate = &d
	}
	if notes.Valid {
		n := notes.StringVal
		out.Notes = &n
	}
	return &out, nil
}

func marshalMeasurements(values []model.MeasurementValue) (spanner.NullString, error) {
	if len(values) == 0 {
		return spanner.NullString{}, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return spanner.NullString{}, err
	}
	return spanner.NullString{StringVal: string(b), Valid: true}, nil
}

func toNullString(s *string) spanner.NullString {
	if s == nil {
		return spanner.NullString{}
	}
	return spanner.NullString{StringVal: *s, Valid: true}
}

func toNullDate(t *time.Time) spanner.NullDate {
	if t == nil {
		return spanner.NullDate{}
	}
	return spanner.NullDate{Date: civil.DateOf(t.UTC()), Valid: true}
}

// --- Locations ---
type locations struct{ client *spanner.Client }

var locationColumns = []string{"OwnerId", "LocationId", "Name", "Description", "CreationTime", "UpdateTime"}

const locationSelect = `SELECT OwnerId, LocationId, Name, Description, CreationTime, UpdateTime FROM Locations`

func (l *locations) Create(ctx context.Context, loc *model.Location) (*model.Location, error) {
	out := *loc
	if out.LocationID == "" {
		out.LocationID = uuid.New().String()
	}
	mutation := spanner.Insert("Locations", locationColumns, []interface{}{
		out.OwnerID, out.LocationID, out.Name, toNullString(out.Description),
		spanner.CommitTimestamp, spanner.CommitTimestamp,
	})
	if _, err := l.client.Apply(ctx, []*spanner.Mutation{mutation}); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	now := time.Now().UTC() // approximate; the server assigns the commit timestamp
	out.CreationTime = now
	out.UpdateTime = now
	return &out, nil
}

func (l *locations) Get(ctx context.Context, ownerID, locationID string) (*model.Location, error) {
	stmt := spanner.Statement{
		SQL: locationSelect + ` WHERE OwnerId = @ownerId AND LocationId = @locationId`,
		Params: map[string]interface{}{
			"ownerId":    ownerID,
			"locationId": locationID,
		},
	}
	iter := l.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err == iterator.Done {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return locationFromRow(row)
}

func (l *locations) List(ctx context.Context, ownerID string) ([]*model.Location, error) {
	stmt := spanner.Statement{
		SQL: locationSelect + ` WHERE OwnerId = @ownerId ORDER BY CreationTime DESC, LocationId`,
		Params: map[string]interface{}{
			"ownerId": ownerID,
		},
	}
	iter := l.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var res []*model.Location
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate locations: %w", err)
		}
		loc, err := locationFromRow(row)
		if err != nil {
			return nil, err
		}
		res = append(res, loc)
	}
	return res, nil
}

func (l *locations) Update(ctx context.Context, ownerID, locationID string, req model.UpdateLocationRequest) (*model.Location, error) {
	var updated *model.Location
	_, err := l.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		row, err := txn.ReadRow(ctx, "Locations", spanner.Key{ownerID, locationID}, locationColumns)
		if err != nil {
			if spanner.ErrCode(err) == codes.NotFound {
				return model.ErrNotFound
			}
			return err
		}
		cur, err := locationFromRow(row)
		if err != nil {
			return err
		}

		if req.Name != nil {
			cur.Name = *req.Name
		}
		if req.Description != nil {
			d := *req.Description
			cur.Description = &d
		}

		mutation := spanner.Update("Locations", locationColumns, []interface{}{
			cur.OwnerID, cur.LocationID, cur.Name, toNullString(cur.Description),
			cur.CreationTime, spanner.CommitTimestamp,
		})
		if err := txn.BufferWrite([]*spanner.Mutation{mutation}); err != nil {
			return err
		}
		cur.UpdateTime = time.Now().UTC() // approximate; the server assigns the commit timestamp
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (l *locations) Delete(ctx context.Context, ownerID, locationID string) error {
	var count int64
	_, err := l.client.ReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		n, err := txn.Update(ctx, spanner.Statement{
			SQL: `DELETE FROM Locations WHERE OwnerId = @ownerId AND LocationId = @locationId`,
			Params: map[string]interface{}{
				"ownerId":    ownerID,
				"locationId": locationID,
			},
		})
		count = n
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	if count == 0 {
		return model.ErrNotFound
	}
	return nil
}

func locationFromRow(row *spanner.Row) (*model.Location, error) {
	var out model.Location
	var desc spanner.NullString
	if err := row.Columns(&out.OwnerID, &out.LocationID, &out.Name, &desc, &out.CreationTime, &out.UpdateTime); err != nil {
		return nil, fmt.Errorf("failed to scan location: %w", err)
	}
	if desc.Valid {
		d := desc.StringVal
		out.Description = &d
	}
	return &out, nil
}

// --- Tags ---
type tags struct{ client *spanner.Client }

func (t *tags) Add(ctx context.Context, ownerID, itemID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	muts := make([]*spanner.Mutation, 0, len(names))
	for _, name := range names {
		tag := strings.ToLower(name)
		muts = append(muts, spanner.InsertOrUpdate("ItemTags",
			[]string{"OwnerId", "TagKey", "TagName", "ItemId", "CreationTime"},
			[]interface{}{ownerID, model.TagKey(tag, itemID), tag, itemID, spanner.CommitTimestamp},
		))
	}
	if _, err := t.client.Apply(ctx, muts); err != nil {
		return fmt.Errorf("failed to add tags: %w", err)
	}
	return nil
}

func (t *tags) Remove(ctx context.Context, ownerID, itemID string, names []string) error {
	if len(names) == 0 {
		return nil
	}
	muts := make([]*spanner.Mutation, 0, len(names))
	for _, name := range names {
		key := model.TagKey(strings.ToLower(name), itemID)
		muts = append(muts, spanner.Delete("ItemTags", spanner.Key{ownerID, key}))
	}
	if _, err := t.client.Apply(ctx, muts); err != nil {
		return fmt.Errorf("failed to remove tags: %w", err)
	}
	return nil
}

func (t *tags) ForItem(ctx context.Context, ownerID, itemID string) ([]string, error) {
	stmt := spanner.Statement{
		SQL: `SELECT TagName FROM ItemTags WHERE OwnerId = @ownerId AND ItemId = @itemId ORDER BY TagName`,
		Params: map[string]interface{}{
			"ownerId": ownerID,
			"itemId":  itemID,
		},
	}
	return t.queryStrings(ctx, stmt)
}

func (t *tags) ItemsForTag(ctx context.Context, ownerID, tag string) ([]string, error) {
	stmt := spanner.Statement{
		SQL: `SELECT ItemId FROM ItemTags WHERE OwnerId = @ownerId AND TagName = @tagName ORDER BY ItemId`,
		Params: map[string]interface{}{
			"ownerId": ownerID,
			"tagName": strings.ToLower(tag),
		},
	}
	return t.queryStrings(ctx, stmt)
}

func (t *tags) queryStrings(ctx context.Context, stmt spanner.Statement) ([]string, error) {
	iter := t.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	var res []string
	for {
		row, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate tags: %w", err)
		}
		var v string
		if err := row.Columns(&v); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		res = append(res, v)
	}
	return res, nil
}
