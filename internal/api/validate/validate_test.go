package validate

import (
	"strings"
	"testing"
	"time"
)

func TestCreateItem_BlankName(t *testing.T) {
	if err := CreateItem("   ", nil); err == nil {
		t.Fatalf("expected error for blank name")
	}
}

func TestUpdateLocation_NilFieldsPass(t *testing.T) {
	if err := UpdateLocation(nil, nil); err != nil {
		t.Fatalf("unexpected error for empty update: %v", err)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid name",
			value:       "Rolled Oats",
			expectError: false,
		},
		{
			name:        "empty name",
			value:       "",
			expectError: true,
			errorMsg:    "name is required",
		},
		{
			name:        "whitespace only",
			value:       "   ",
			expectError: true,
			errorMsg:    "name is required",
		},
		{
			name:        "name at max length",
			value:       strings.Repeat("a", 200),
			expectError: false,
		},
		{
			name:        "name too long",
			value:       strings.Repeat("a", 201),
			expectError: true,
			errorMsg:    "name exceeds 200 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Name("name", tt.value)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for name '%s'", tt.value)
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Fatalf("expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error for valid name '%s': %v", tt.value, err)
				}
			}
		})
	}
}

func TestMaxLen(t *testing.T) {
	tests := []struct {
		name        string
		field       string
		value       *string
		limit       int
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil value",
			field:       "notes",
			value:       nil,
			limit:       100,
			expectError: false,
		},
		{
			name:        "value within limit",
			field:       "notes",
			value:       stringPtr("short"),
			limit:       100,
			expectError: false,
		},
		{
			name:        "value at limit",
			field:       "notes",
			value:       stringPtr(strings.Repeat("a", 100)),
			limit:       100,
			expectError: false,
		},
		{
			name:        "value exceeds limit",
			field:       "notes",
			value:       stringPtr(strings.Repeat("a", 101)),
			limit:       100,
			expectError: true,
			errorMsg:    "notes exceeds 100 characters",
		},
		{
			name:        "empty string",
			field:       "notes",
			value:       stringPtr(""),
			limit:       100,
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := MaxLen(tt.field, tt.value, tt.limit)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for test case '%s'", tt.name)
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Fatalf("expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error for test case '%s': %v", tt.name, err)
				}
			}
		})
	}
}

func TestDate(t *testing.T) {
	got, err := Date("useByDate", "2026-03-01")
	if err != nil {
		t.Fatalf("date-only form rejected: %v", err)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date-only form: want %v, got %v", want, got)
	}

	got, err = Date("useByDate", "2026-03-01T10:30:00+02:00")
	if err != nil {
		t.Fatalf("RFC 3339 form rejected: %v", err)
	}
	want = time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("RFC 3339 form: want %v, got %v", want, got)
	}
	if got.Location() != time.UTC {
		t.Fatalf("parsed timestamp not normalized to UTC: %v", got.Location())
	}

	if _, err := Date("useByDate", "03/01/2026"); err == nil {
		t.Fatalf("expected error for unsupported date format")
	}
	if _, err := Date("useByDate", "next tuesday"); err == nil {
		t.Fatalf("expected error for free-text date")
	}
}

func TestOptionalDate(t *testing.T) {
	got, err := OptionalDate("useByBefore", "")
	if err != nil {
		t.Fatalf("empty bound should pass: %v", err)
	}
	if got != nil {
		t.Fatalf("empty bound should be nil, got %v", got)
	}

	got, err = OptionalDate("useByBefore", "2026-06-15")
	if err != nil {
		t.Fatalf("valid bound rejected: %v", err)
	}
	if got == nil || !got.Equal(time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("valid bound mismatch: %v", got)
	}
}

func TestDays(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		want        int
		expectError bool
	}{
		{
			name:  "empty applies default",
			value: "",
			want:  -1,
		},
		{
			name:  "zero means due today",
			value: "0",
			want:  0,
		},
		{
			name:  "positive window",
			value: "14",
			want:  14,
		},
		{
			name:        "negative rejected",
			value:       "-3",
			expectError: true,
		},
		{
			name:        "non-numeric rejected",
			value:       "soon",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Days(tt.value)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for days '%s'", tt.value)
				}
				if err.Error() != "days must be a non-negative integer" {
					t.Fatalf("unexpected error message: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for days '%s': %v", tt.value, err)
			}
			if got != tt.want {
				t.Fatalf("days '%s': want %d, got %d", tt.value, tt.want, got)
			}
		})
	}
}

func TestTagList(t *testing.T) {
	if got := TagList(""); got != nil {
		t.Fatalf("empty parameter should be nil, got %v", got)
	}
	got := TagList("dairy,breakfast")
	if len(got) != 2 || got[0] != "dairy" || got[1] != "breakfast" {
		t.Fatalf("simple split mismatch: %v", got)
	}
	got = TagList(" dairy , , breakfast ,")
	if len(got) != 2 || got[0] != "dairy" || got[1] != "breakfast" {
		t.Fatalf("empty segments should be dropped: %v", got)
	}
}

func TestCreateItemValidation(t *testing.T) {
	tests := []struct {
		name        string
		itemName    string
		notes       *string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid item",
			itemName:    "Basmati Rice",
			notes:       stringPtr("opened last week"),
			expectError: false,
		},
		{
			name:        "empty name",
			itemName:    "",
			notes:       nil,
			expectError: true,
			errorMsg:    "name is required",
		},
		{
			name:        "notes too long",
			itemName:    "Basmati Rice",
			notes:       stringPtr(strings.Repeat("a", 1001)),
			expectError: true,
			errorMsg:    "notes exceeds 1000 characters",
		},
		{
			name:        "notes at max length",
			itemName:    "Basmati Rice",
			notes:       stringPtr(strings.Repeat("a", 1000)),
			expectError: false,
		},
		{
			name:        "nil notes",
			itemName:    "Basmati Rice",
			notes:       nil,
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CreateItem(tt.itemName, tt.notes)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for test case '%s'", tt.name)
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Fatalf("expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Fatalf("unexpected error for test case '%s': %v", tt.name, err)
				}
			}
		})
	}
}

func TestUpdateItemValidation(t *testing.T) {
	if err := UpdateItem(nil, nil); err != nil {
		t.Fatalf("all-nil update should pass: %v", err)
	}
	if err := UpdateItem(stringPtr("New Name"), nil); err != nil {
		t.Fatalf("valid rename should pass: %v", err)
	}
	if err := UpdateItem(stringPtr("  "), nil); err == nil {
		t.Fatalf("expected error for blank supplied name")
	}
	if err := UpdateItem(nil, stringPtr(strings.Repeat("a", 1001))); err == nil {
		t.Fatalf("expected error for oversized notes")
	}
}

func TestCreateLocationValidation(t *testing.T) {
	if err := CreateLocation("Chest Freezer", stringPtr("garage")); err != nil {
		t.Fatalf("valid location rejected: %v", err)
	}
	if err := CreateLocation("", nil); err == nil {
		t.Fatalf("expected error for missing name")
	}
	if err := CreateLocation("Chest Freezer", stringPtr(strings.Repeat("a", 1001))); err == nil {
		t.Fatalf("expected error for oversized description")
	}
}

// Helper function to create string pointers
func stringPtr(s string) *string {
	return &s
}
