package validate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	maxNameLen = 200
	maxTextLen = 1000
)

// Name validates a display name for items and locations: required after
// trimming, at most 200 bytes.
func Name(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if len(v) > maxNameLen {
		return fmt.Errorf("%s exceeds %d characters", field, maxNameLen)
	}
	return nil
}

// OptionalName validates a name supplied on a partial update. nil means
// "leave unchanged" and passes; a supplied value must satisfy Name.
func OptionalName(field string, v *string) error {
	if v == nil {
		return nil
	}
	return Name(field, *v)
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// Notes bounds free-text fields (item notes, location description).
func Notes(field string, v *string) error {
	return MaxLen(field, v, maxTextLen)
}

// Date parses a use-by date from request input. Accepts the date-only form
// (2006-01-02), which resolves to midnight UTC, or a full RFC 3339 timestamp.
func Date(field, v string) (*time.Time, error) {
	if d, err := time.Parse("2006-01-02", v); err == nil {
		return &d, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t, nil
	}
	return nil, fmt.Errorf("%s must be a date (2006-01-02) or RFC 3339 timestamp", field)
}

// OptionalDate parses a date query parameter; empty means "no bound".
func OptionalDate(field, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	return Date(field, v)
}

// Days parses the expiring-soon window parameter. Empty returns -1 so the
// caller falls back to the configured default window; 0 is a valid value
// meaning "due today".
func Days(v string) (int, error) {
	if v == "" {
		return -1, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("days must be a non-negative integer")
	}
	return n, nil
}

// TagList splits a comma-separated tags query parameter, dropping empty
// segments. Normalization (case, dedupe) is the service's job.
func TagList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// -------- Request specific helpers ----------

// CreateItem validates input for creating a new item.
func CreateItem(name string, notes *string) error {
	if err := Name("name", name); err != nil {
		return err
	}
	return Notes("notes", notes)
}

// UpdateItem validates the supplied fields of a partial item update.
func UpdateItem(name, notes *string) error {
	if err := OptionalName("name", name); err != nil {
		return err
	}
	return Notes("notes", notes)
}

// CreateLocation validates input for creating a storage location.
func CreateLocation(name string, description *string) error {
	if err := Name("name", name); err != nil {
		return err
	}
	return Notes("description", description)
}

// UpdateLocation validates the supplied fields of a partial location update.
func UpdateLocation(name, description *string) error {
	if err := OptionalName("name", name); err != nil {
		return err
	}
	return Notes("description", description)
}
