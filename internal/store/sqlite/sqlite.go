// Package sqlite implements store.Store on an embedded SQLite database via
// the cgo-free modernc.org driver. It backs single-node installs where
// running Postgres is not worth the setup.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/store"
)

// Open opens (or creates) the database file and verifies connectivity.
// The DSN enables WAL and a busy timeout so concurrent writers queue
// instead of failing, and stores time.Time values in SQLite's own text
// format so date comparisons work lexically.
func Open(path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a SQLite store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &sqStore{db: db} }

// Bootstrap opens the database file, applies the schema and closes it again.
func Bootstrap(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	db, err := Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return EnsureSchema(ctx, db)
}

// EnsureSchema creates the pantry tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS locations (
            owner_id      TEXT NOT NULL,
            location_id   TEXT NOT NULL,
            name          TEXT NOT NULL,
            description   TEXT,
            creation_time TIMESTAMP NOT NULL,
            update_time   TIMESTAMP NOT NULL,
            PRIMARY KEY (owner_id, location_id)
        );`,
		`CREATE TABLE IF NOT EXISTS items (
            owner_id        TEXT NOT NULL,
            item_id         TEXT NOT NULL,
            name            TEXT NOT NULL,
            normalized_name TEXT NOT NULL,
            location_id     TEXT NOT NULL,
            quantity        TEXT NOT NULL DEFAULT '0',
            unit            TEXT NOT NULL DEFAULT '',
            measurements    TEXT,
            use_by_date     DATE,
            notes           TEXT,
            creation_time   TIMESTAMP NOT NULL,
            update_time     TIMESTAMP NOT NULL,
            PRIMARY KEY (owner_id, item_id)
        );`,
		`CREATE INDEX IF NOT EXISTS items_location_idx ON items (owner_id, location_id);`,
		`CREATE INDEX IF NOT EXISTS items_name_idx ON items (owner_id, normalized_name);`,
		`CREATE INDEX IF NOT EXISTS items_use_by_idx ON items (owner_id, location_id, use_by_date);`,
		`CREATE TABLE IF NOT EXISTS item_tags (
            owner_id      TEXT NOT NULL,
            tag_key       TEXT NOT NULL,
            tag_name      TEXT NOT NULL,
            item_id       TEXT NOT NULL,
            creation_time TIMESTAMP NOT NULL,
            PRIMARY KEY (owner_id, tag_key)
        );`,
		`CREATE INDEX IF NOT EXISTS item_tags_name_idx ON item_tags (owner_id, tag_name);`,
		`CREATE INDEX IF NOT EXISTS item_tags_item_idx ON item_tags (owner_id, item_id);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

type sqStore struct{ db *sql.DB }

func (s *sqStore) Items() store.Items         { return &items{db: s.db} }
func (s *sqStore) Locations() store.Locations { return &locations{db: s.db} }
func (s *sqStore) Tags() store.Tags           { return &tags{db: s.db} }

// HealthPing implements health.HealthPinger for the SQLite-backed store.
func (s *sqStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const itemColumns = `owner_id, item_id, name, normalized_name, location_id, quantity, unit, measurements, use_by_date, notes, creation_time, update_time`

// --- Items ---
type items struct{ db *sql.DB }

func (i *items) Create(ctx context.Context, it *model.Item) (*model.Item, error) {
	out := *it
	if out.ItemID == "" {
		out.ItemID = uuid.New().String()
	}
	out.NormalizedName = model.NormalizeName(out.Name)
	out.Tags = nil
	now := time.Now().UTC()
	out.CreationTime = now
	out.UpdateTime = now

	meas, err := marshalMeasurements(out.Measurements)
	if err != nil {
		return nil, err
	}
	if _, err := i.db.ExecContext(ctx, `
        INSERT INTO items (owner_id, item_id, name, normalized_name, location_id, quantity, unit, measurements, use_by_date, notes, creation_time, update_time)
        VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
    `, out.OwnerID, out.ItemID, out.Name, out.NormalizedName, out.LocationID, out.Quantity, out.Unit, meas, out.UseByDate, out.Notes, now, now); err != nil {
		return nil, err
	}
	return &out, nil
}

func (i *items) Get(ctx context.Context, ownerID, itemID string) (*model.Item, error) {
	row := i.db.QueryRowContext(ctx, `
        SELECT `+itemColumns+` FROM items WHERE owner_id=? AND item_id=?
    `, ownerID, itemID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return it, err
}

func (i *items) List(ctx context.Context, ownerID string) ([]*model.Item, error) {
	return i.query(ctx, `
        SELECT `+itemColumns+` FROM items WHERE owner_id=?
        ORDER BY creation_time DESC, item_id
    `, ownerID)
}

func (i *items) ByLocation(ctx context.Context, ownerID, locationID string) ([]*model.Item, error) {
	return i.query(ctx, `
        SELECT `+itemColumns+` FROM items WHERE owner_id=? AND location_id=?
        ORDER BY creation_time DESC, item_id
    `, ownerID, locationID)
}

func (i *items) ByName(ctx context.Context, ownerID, normalizedName string) ([]*model.Item, error) {
	return i.query(ctx, `
        SELECT `+itemColumns+` FROM items WHERE owner_id=? AND normalized_name=?
        ORDER BY creation_time DESC, item_id
    `, ownerID, normalizedName)
}

func (i *items) ByExpiry(ctx context.Context, ownerID, locationID string, cutoff time.Time) ([]*model.Item, error) {
	if locationID == "" {
		return i.query(ctx, `
            SELECT `+itemColumns+` FROM items
            WHERE owner_id=? AND use_by_date IS NOT NULL AND use_by_date <= ?
            ORDER BY use_by_date, item_id
        `, ownerID, cutoff)
	}
	return i.query(ctx, `
        SELECT `+itemColumns+` FROM items
        WHERE owner_id=? AND location_id=? AND use_by_date IS NOT NULL AND use_by_date <= ?
        ORDER BY use_by_date, item_id
    `, ownerID, locationID, cutoff)
}

func (i *items) Update(ctx context.Context, ownerID, itemID string, req model.UpdateItemRequest) (*model.Item, error) {
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 10)
	add := func(col string, v interface{}) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}

	if req.Name != nil {
		add("name", *req.Name)
		add("normalized_name", model.NormalizeName(*req.Name))
	}
	if req.LocationID != nil {
		add("location_id", *req.LocationID)
	}
	if req.Quantity != nil {
		add("quantity", *req.Quantity)
	}
	if req.Unit != nil {
		add("unit", *req.Unit)
	}
	if req.Measurements != nil {
		meas, err := marshalMeasurements(*req.Measurements)
		if err != nil {
			return nil, err
		}
		add("measurements", meas)
	}
	if req.UseByDate != nil {
		add("use_by_date", *req.UseByDate)
	}
	if req.Notes != nil {
		add("notes", *req.Notes)
	}
	add("update_time", time.Now().UTC())
	args = append(args, ownerID, itemID)

	q := fmt.Sprintf(`UPDATE items SET %s WHERE owner_id=? AND item_id=?`, strings.Join(sets, ", "))
	res, err := i.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.ErrNotFound
	}
	return i.Get(ctx, ownerID, itemID)
}

func (i *items) Delete(ctx context.Context, ownerID, itemID string) error {
	res, err := i.db.ExecContext(ctx, `DELETE FROM items WHERE owner_id=? AND item_id=?`, ownerID, itemID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (i *items) query(ctx context.Context, q string, args ...interface{}) ([]*model.Item, error) {
	rows, err := i.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, it)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(sc scanner) (*model.Item, error) {
	var out model.Item
	var meas []byte
	if err := sc.Scan(&out.OwnerID, &out.ItemID, &out.Name, &out.NormalizedName, &out.LocationID,
		&out.Quantity, &out.Unit, &meas, &out.UseByDate, &out.Notes, &out.CreationTime, &out.UpdateTime); err != nil {
		return nil, err
	}
	if len(meas) > 0 {
		if err := json.Unmarshal(meas, &out.Measurements); err != nil {
			return nil, fmt.Errorf("decode measurements for item %s: %w", out.ItemID, err)
		}
	}
	return &out, nil
}

func marshalMeasurements(values []model.MeasurementValue) ([]byte, error) {
	if len(values) == 0 {
		return nil, nil
	}
	return json.Marshal(values)
}

// --- Locations ---
type locations struct{ db *sql.DB }

func (l *locations) Create(ctx context.Context, loc *model.Location) (*model.Location, error) {
	out := *loc
	if out.LocationID == "" {
		out.LocationID = uuid.New().String()
	}
	now := time.Now().UTC()
	out.CreationTime = now
	out.UpdateTime = now

	if _, err := l.db.ExecContext(ctx, `
        INSERT INTO locations (owner_id, location_id, name, description, creation_time, update_time)
        VALUES (?,?,?,?,?,?)
    `, out.OwnerID, out.LocationID, out.Name, out.Description, now, now); err != nil {
		return nil, err
	}
	return &out, nil
}

func (l *locations) Get(ctx context.Context, ownerID, locationID string) (*model.Location, error) {
	var out model.Location
	row := l.db.QueryRowContext(ctx, `
        SELECT owner_id, location_id, name, description, creation_time, update_time
        FROM locations WHERE owner_id=? AND location_id=?
    `, ownerID, locationID)
	if err := row.Scan(&out.OwnerID, &out.LocationID, &out.Name, &out.Description, &out.CreationTime, &out.UpdateTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (l *locations) List(ctx context.Context, ownerID string) ([]*model.Location, error) {
	rows, err := l.db.QueryContext(ctx, `
        SELECT owner_id, location_id, name, description, creation_time, update_time
        FROM locations WHERE owner_id=? ORDER BY creation_time DESC, location_id
    `, ownerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Location
	for rows.Next() {
		var out model.Location
		if err := rows.Scan(&out.OwnerID, &out.LocationID, &out.Name, &out.Description, &out.CreationTime, &out.UpdateTime); err != nil {
			return nil, err
		}
		res = append(res, &out)
	}
	return res, rows.Err()
}

func (l *locations) Update(ctx context.Context, ownerID, locationID string, req model.UpdateLocationRequest) (*model.Location, error) {
	sets := make([]string, 0, 3)
	args := make([]interface{}, 0, 5)
	add := func(col string, v interface{}) {
		sets = append(sets, col+"=?")
		args = append(args, v)
	}
	if req.Name != nil {
		add("name", *req.Name)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	add("update_time", time.Now().UTC())
	args = append(args, ownerID, locationID)

	q := fmt.Sprintf(`UPDATE locations SET %s WHERE owner_id=? AND location_id=?`, strings.Join(sets, ", "))
	res, err := l.db.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, model.ErrNotFound
	}
	return l.Get(ctx, ownerID, locationID)
}

func (l *locations) Delete(ctx context.Context, ownerID, locationID string) error {
	res, err := l.db.ExecContext(ctx, `DELETE FROM locations WHERE owner_id=? AND location_id=?`, ownerID, locationID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// --- Tags ---
type tags struct{ db *sql.DB }

func (t *tags) Add(ctx context.Context, ownerID, itemID string, names []string) error {
	now := time.Now().UTC()
	for _, name := range names {
		tag := strings.ToLower(name)
		if _, err := t.db.ExecContext(ctx, `
            INSERT OR IGNORE INTO item_tags (owner_id, tag_key, tag_name, item_id, creation_time)
            VALUES (?,?,?,?,?)
        `, ownerID, model.TagKey(tag, itemID), tag, itemID, now); err != nil {
			return err
		}
	}
	return nil
}

func (t *tags) Remove(ctx context.Context, ownerID, itemID string, names []string) error {
	for _, name := range names {
		key := model.TagKey(strings.ToLower(name), itemID)
		if _, err := t.db.ExecContext(ctx, `DELETE FROM item_tags WHERE owner_id=? AND tag_key=?`, ownerID, key); err != nil {
			return err
		}
	}
	return nil
}

func (t *tags) ForItem(ctx context.Context, ownerID, itemID string) ([]string, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT tag_name FROM item_tags WHERE owner_id=? AND item_id=? ORDER BY tag_name
    `, ownerID, itemID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		res = append(res, name)
	}
	return res, rows.Err()
}

func (t *tags) ItemsForTag(ctx context.Context, ownerID, tag string) ([]string, error) {
	rows, err := t.db.QueryContext(ctx, `
        SELECT item_id FROM item_tags WHERE owner_id=? AND tag_name=? ORDER BY item_id
    `, ownerID, strings.ToLower(tag))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		res = append(res, id)
	}
	return res, rows.Err()
}
