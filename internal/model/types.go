package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Quantities cross the wire as JSON numbers; exact decimals stay internal.
	decimal.MarshalJSONWithoutQuotes = true
}

// MeasurementType is the closed set of physical dimensions an item can carry.
type MeasurementType string

const (
	Count  MeasurementType = "count"
	Weight MeasurementType = "weight"
	Volume MeasurementType = "volume"
)

// MeasurementTypes lists all valid types in a stable order.
func MeasurementTypes() []MeasurementType {
	return []MeasurementType{Count, Weight, Volume}
}

// ParseMeasurementType parses a caller-supplied type string.
func ParseMeasurementType(s string) (MeasurementType, error) {
	switch t := MeasurementType(strings.ToLower(strings.TrimSpace(s))); t {
	case Count, Weight, Volume:
		return t, nil
	default:
		return "", NewValidationError("type", fmt.Sprintf("unknown measurement type %q; allowed: count, weight, volume", s))
	}
}

// MeasurementValue is one typed quantity on an item. Unit must belong to the
// unit set of Type; an item carries at most one value per type.
type MeasurementValue struct {
	Type  MeasurementType `json:"type"`
	Value decimal.Decimal `json:"value"`
	Unit  string          `json:"unit"`
}

// Item is a pantry inventory record owned by a single user. Quantity and Unit
// predate the typed measurement set and are kept for older records; new
// arithmetic goes through Measurements. Tags is derived from the tag index by
// the service layer and is never persisted on the item row itself.
type Item struct {
	ItemID         string             `json:"itemId"`
	OwnerID        string             `json:"ownerId"`
	Name           string             `json:"name"`
	NormalizedName string             `json:"normalizedName"`
	LocationID     string             `json:"locationId,omitempty"`
	Quantity       decimal.Decimal    `json:"quantity"`
	Unit           string             `json:"unit,omitempty"`
	Measurements   []MeasurementValue `json:"measurements,omitempty"`
	UseByDate      *time.Time         `json:"useByDate,omitempty"`
	Notes          *string            `json:"notes,omitempty"`
	Tags           []string           `json:"tags,omitempty"`
	CreationTime   time.Time          `json:"creationTime"`
	UpdateTime     time.Time          `json:"updateTime"`
}

// NormalizeName lowercases a display name into the secondary search key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Location is a user-owned storage place (pantry, freezer, cellar). Items
// reference it by id; deleting a location does not touch its items.
type Location struct {
	LocationID   string    `json:"locationId"`
	OwnerID      string    `json:"ownerId"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	CreationTime time.Time `json:"creationTime"`
	UpdateTime   time.Time `json:"updateTime"`
}

// TagAssociation joins one lowercased tag to one item.
type TagAssociation struct {
	OwnerID      string    `json:"ownerId"`
	TagName      string    `json:"tagName"`
	ItemID       string    `json:"itemId"`
	CreationTime time.Time `json:"creationTime"`
}

// TagKey derives the alternate unique key for an association.
func TagKey(tagName, itemID string) string {
	return "tag:" + tagName + "#item:" + itemID
}

// AggregateSummary is computed on demand from a filtered item set; it is never
// persisted. Measurements maps each type present in the input to one
// normalized total. QuantityByUnit flat-sums the legacy quantity field per raw
// unit string with no conversion. Warnings reports measurement entries skipped
// for data-quality reasons.
type AggregateSummary struct {
	TotalItemCount       int                                  `json:"totalItemCount"`
	TotalQuantity        decimal.Decimal                      `json:"totalQuantity"`
	ItemsWithExpiryCount int                                  `json:"itemsWithExpiryCount"`
	QuantityByUnit       map[string]decimal.Decimal           `json:"quantityByUnit,omitempty"`
	Measurements         map[MeasurementType]MeasurementValue `json:"measurements,omitempty"`
	Warnings             []string                             `json:"warnings,omitempty"`
}

// UpdateItemRequest carries a partial item update; nil fields are left
// unchanged. Measurements, when present, replaces the whole set and is
// re-validated from scratch. Tags, when present, is diffed against the item's
// current tags rather than blindly replacing associations.
type UpdateItemRequest struct {
	Name         *string             `json:"name,omitempty"`
	LocationID   *string             `json:"locationId,omitempty"`
	Quantity     *decimal.Decimal    `json:"quantity,omitempty"`
	Unit         *string             `json:"unit,omitempty"`
	Measurements *[]MeasurementValue `json:"measurements,omitempty"`
	UseByDate    *time.Time          `json:"useByDate,omitempty"`
	Notes        *string             `json:"notes,omitempty"`
	Tags         *[]string           `json:"tags,omitempty"`
}

// UpdateLocationRequest carries a partial location update.
type UpdateLocationRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

// SearchQuery captures the filters accepted by item search. Zero values mean
// "no filter". Date bounds are inclusive on both ends.
type SearchQuery struct {
	OwnerID     string
	Name        string
	LocationID  string
	Tags        []string
	UseByAfter  *time.Time
	UseByBefore *time.Time
}

// AggregateQuery selects the item set to aggregate and optional output units
// per measurement type.
type AggregateQuery struct {
	OwnerID        string
	LocationID     string
	Tag            string
	RequestedUnits map[MeasurementType]string
}
