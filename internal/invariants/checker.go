//
// 🔒 CRITICAL SYSTEM FILE - Invariant Contract Testing
// ⚠️  These tests ensure system invariants are never violated
// 🛡️  Uses customer-facing APIs only (blackbox testing)
// 📋  Never mutate invariants to get incremental changes working
//

package invariants

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// InvariantChecker tests system invariants using customer-facing APIs
// This is a blackbox test that treats the service as an external system
type InvariantChecker struct {
	baseURL string
	apiKey  string
	ownerID string
	client  *http.Client
}

// NewInvariantChecker creates a checker acting as the owner bound to apiKey
func NewInvariantChecker(baseURL, apiKey string) *InvariantChecker {
	return &InvariantChecker{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewImpersonatingChecker creates a checker that adds ownerId to every request.
// The key must carry the admin role or the service rejects every call with 403.
func NewImpersonatingChecker(baseURL, adminKey, ownerID string) *InvariantChecker {
	ic := NewInvariantChecker(baseURL, adminKey)
	ic.ownerID = ownerID
	return ic
}

// 🔒 INVARIANT: Tag associations never outlive their item
func (ic *InvariantChecker) TestTagLifecycleInvariant(t *testing.T) {
	// Step 1: Create a location and a tagged item
	locationID := ic.createTestLocation(t, "Invariant Fridge")
	tag := fmt.Sprintf("cascade-%d", time.Now().UnixNano())
	item := ic.createTestItem(t, ItemRequest{
		Name:       "Cascade Test Milk",
		LocationID: locationID,
		Quantity:   1,
		Tags:       []string{tag, "dairy"},
	})

	// Step 2: The tag must resolve the item while it exists
	t.Run("TagResolvesItemWhileAlive", func(t *testing.T) {
		ids := ic.itemsForTag(t, tag)
		assert.Contains(t, ids, item.ItemID, "tag query must return the tagged item")
	})

	// Step 3: Delete the item
	ic.deleteItem(t, item.ItemID, http.StatusNoContent)

	// 🔒 INVARIANT: Deleting an item removes its tag associations
	t.Run("TagAssociationsRemovedOnDelete", func(t *testing.T) {
		ids := ic.itemsForTag(t, tag)
		assert.NotContains(t, ids, item.ItemID, "deleted item must not be reachable via its tags")
	})

	// 🔒 INVARIANT: Delete is retry-safe; a repeat reports not-found
	t.Run("RepeatDeleteReturnsNotFound", func(t *testing.T) {
		ic.deleteItem(t, item.ItemID, http.StatusNotFound)
	})
}

// 🔒 INVARIANT: Invalid measurement sets are never persisted
func (ic *InvariantChecker) TestMeasurementIntegrityInvariant(t *testing.T) {
	before := len(ic.listItems(t))

	// 🔒 INVARIANT: At most one measurement per type
	t.Run("DuplicateMeasurementTypesRejected", func(t *testing.T) {
		resp := ic.makeRequest(t, "POST", "/v0/items", ItemRequest{
			Name:     "Duplicate Weight Probe",
			Quantity: 1,
			Measurements: []MeasurementPayload{
				{Type: "weight", Value: 1, Unit: "lb"},
				{Type: "weight", Value: 400, Unit: "g"},
			},
		}, http.StatusBadRequest)

		var errResp errorResponse
		require.NoError(t, json.Unmarshal(resp, &errResp))
		assert.Contains(t, errResp.Message, "duplicate", "error must name the duplicate type violation")
	})

	// 🔒 INVARIANT: Unknown units fail fast, they never default
	t.Run("UnknownUnitsRejected", func(t *testing.T) {
		resp := ic.makeRequest(t, "POST", "/v0/items", ItemRequest{
			Name:     "Unknown Unit Probe",
			Quantity: 1,
			Measurements: []MeasurementPayload{
				{Type: "weight", Value: 2, Unit: "stone"},
			},
		}, http.StatusBadRequest)

		var errResp errorResponse
		require.NoError(t, json.Unmarshal(resp, &errResp))
		assert.Contains(t, errResp.Message, "unknown", "error must name the unknown unit")
	})

	// 🔒 INVARIANT: A rejected write leaves no partial state behind
	t.Run("NothingPersistedOnRejection", func(t *testing.T) {
		after := len(ic.listItems(t))
		assert.Equal(t, before, after, "rejected creates must not change the item count")
	})
}

// 🔒 INVARIANT: Owner data isolation
// Call this on a checker holding a standard key; other must act for a
// different owner (an impersonating checker or a second static key).
func (ic *InvariantChecker) TestOwnerIsolationInvariant(t *testing.T, other *InvariantChecker) {
	// Step 1: Both owners create an item
	mine := ic.createTestItem(t, ItemRequest{Name: "Isolation Probe A", Quantity: 1})
	theirs := other.createTestItem(t, ItemRequest{Name: "Isolation Probe B", Quantity: 1})

	// 🔒 INVARIANT: Owners cannot read each other's items
	t.Run("CrossOwnerAccessForbidden", func(t *testing.T) {
		ic.makeRequest(t, "GET", "/v0/items/"+theirs.ItemID, nil, http.StatusNotFound)
		other.makeRequest(t, "GET", "/v0/items/"+mine.ItemID, nil, http.StatusNotFound)
	})

	// 🔒 INVARIANT: Owner lists only show own data
	t.Run("ListsShowOnlyOwnData", func(t *testing.T) {
		var myIDs []string
		for _, it := range ic.listItems(t) {
			myIDs = append(myIDs, it.ItemID)
		}
		assert.Contains(t, myIDs, mine.ItemID)
		assert.NotContains(t, myIDs, theirs.ItemID, "foreign items must never appear in an owner's list")
	})

	// 🔒 INVARIANT: Acting for another owner requires the admin role
	t.Run("ImpersonationRequiresAdminRole", func(t *testing.T) {
		ic.makeRequest(t, "GET", "/v0/items?ownerId=isolation-probe", nil, http.StatusForbidden)
	})
}

// 🔒 INVARIANT: Updates touch only the supplied fields
func (ic *InvariantChecker) TestPartialUpdateInvariant(t *testing.T) {
	tagA := fmt.Sprintf("partial-a-%d", time.Now().UnixNano())
	tagB := fmt.Sprintf("partial-b-%d", time.Now().UnixNano())
	tagC := fmt.Sprintf("partial-c-%d", time.Now().UnixNano())

	item := ic.createTestItem(t, ItemRequest{
		Name:     "Partial Update Probe",
		Quantity: 1,
		Tags:     []string{tagA, tagB},
	})

	// 🔒 INVARIANT: Fields absent from the request keep their value
	t.Run("UnsuppliedFieldsSurviveUpdate", func(t *testing.T) {
		ic.makeRequest(t, "PATCH", "/v0/items/"+item.ItemID,
			map[string]interface{}{"notes": "opened"}, http.StatusOK)

		updated := ic.getItem(t, item.ItemID)
		assert.Equal(t, item.Name, updated.Name, "name must survive a notes-only update")
		assert.ElementsMatch(t, []string{tagA, tagB}, updated.Tags, "tags must survive a notes-only update")
		require.NotNil(t, updated.Notes)
		assert.Equal(t, "opened", *updated.Notes)
	})

	// 🔒 INVARIANT: A supplied tag list fully replaces the previous set
	t.Run("SuppliedTagSetReplacesOldSet", func(t *testing.T) {
		ic.makeRequest(t, "PATCH", "/v0/items/"+item.ItemID,
			map[string]interface{}{"tags": []string{tagB, tagC}}, http.StatusOK)

		updated := ic.getItem(t, item.ItemID)
		assert.ElementsMatch(t, []string{tagB, tagC}, updated.Tags)

		ids := ic.itemsForTag(t, tagA)
		assert.NotContains(t, ids, item.ItemID, "removed tags must stop resolving the item")
	})

	// 🔒 INVARIANT: A rejected update leaves the previous state untouched
	t.Run("RejectedUpdateLeavesStateUntouched", func(t *testing.T) {
		ic.makeRequest(t, "PATCH", "/v0/items/"+item.ItemID,
			map[string]interface{}{
				"measurements": []MeasurementPayload{
					{Type: "volume", Value: 1, Unit: "cup"},
					{Type: "volume", Value: 2, Unit: "cup"},
				},
			}, http.StatusBadRequest)

		unchanged := ic.getItem(t, item.ItemID)
		assert.ElementsMatch(t, []string{tagB, tagC}, unchanged.Tags)
		require.NotNil(t, unchanged.Notes)
		assert.Equal(t, "opened", *unchanged.Notes)
		assert.Empty(t, unchanged.Measurements, "rejected measurement set must not be persisted")
	})
}

// Helper methods for API interactions

func (ic *InvariantChecker) createTestLocation(t *testing.T, name string) string {
	resp := ic.makeRequest(t, "POST", "/v0/locations",
		map[string]interface{}{"name": name}, http.StatusCreated)

	var location struct {
		LocationID string `json:"locationId"`
	}
	require.NoError(t, json.Unmarshal(resp, &location))
	return location.LocationID
}

func (ic *InvariantChecker) createTestItem(t *testing.T, req ItemRequest) *ItemResponse {
	resp := ic.makeRequest(t, "POST", "/v0/items", req, http.StatusCreated)

	var item ItemResponse
	require.NoError(t, json.Unmarshal(resp, &item))
	return &item
}

func (ic *InvariantChecker) getItem(t *testing.T, itemID string) *ItemResponse {
	resp := ic.makeRequest(t, "GET", "/v0/items/"+itemID, nil, http.StatusOK)

	var item ItemResponse
	require.NoError(t, json.Unmarshal(resp, &item))
	return &item
}

func (ic *InvariantChecker) deleteItem(t *testing.T, itemID string, expectedStatus int) {
	ic.makeRequest(t, "DELETE", "/v0/items/"+itemID, nil, expectedStatus)
}

func (ic *InvariantChecker) listItems(t *testing.T) []ItemResponse {
	resp := ic.makeRequest(t, "GET", "/v0/items", nil, http.StatusOK)

	var list itemListResponse
	require.NoError(t, json.Unmarshal(resp, &list))
	return list.Items
}

func (ic *InvariantChecker) itemsForTag(t *testing.T, tag string) []string {
	resp := ic.makeRequest(t, "GET", "/v0/items/by-tag/"+url.PathEscape(tag), nil, http.StatusOK)

	var list itemListResponse
	require.NoError(t, json.Unmarshal(resp, &list))

	var ids []string
	for _, item := range list.Items {
		ids = append(ids, item.ItemID)
	}
	return ids
}

func (ic *InvariantChecker) makeRequest(t *testing.T, method, path string, body interface{}, expectedStatus int) []byte {
	var reqBody []byte
	var err error

	if body != nil {
		reqBody, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, ic.requestURL(path), bytes.NewBuffer(reqBody))
	require.NoError(t, err)

	req.Header.Set("Authorization", "Bearer "+ic.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ic.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	// Verify expected status
	assert.Equal(t, expectedStatus, resp.StatusCode,
		"Expected status %d but got %d for %s %s", expectedStatus, resp.StatusCode, method, path)

	// Read the full response body
	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return respBody
}

// makeRequestNoAssert issues a request and returns the raw response, or nil
// when the service is unreachable. Callers own the body.
func (ic *InvariantChecker) makeRequestNoAssert(method, path string, body interface{}) *http.Response {
	var reqBody []byte
	if body != nil {
		var err error
		reqBody, err = json.Marshal(body)
		if err != nil {
			return nil
		}
	}

	req, err := http.NewRequest(method, ic.requestURL(path), bytes.NewBuffer(reqBody))
	if err != nil {
		return nil
	}
	req.Header.Set("Authorization", "Bearer "+ic.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := ic.client.Do(req)
	if err != nil {
		return nil
	}
	return resp
}

// requestURL appends the impersonated owner, when one is set, to any path.
func (ic *InvariantChecker) requestURL(path string) string {
	u := ic.baseURL + path
	if ic.ownerID == "" {
		return u
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return u + sep + "ownerId=" + url.QueryEscape(ic.ownerID)
}

// Request/Response models for API interactions

type MeasurementPayload struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type ItemRequest struct {
	Name         string               `json:"name"`
	LocationID   string               `json:"locationId,omitempty"`
	Quantity     float64              `json:"quantity,omitempty"`
	Unit         string               `json:"unit,omitempty"`
	Measurements []MeasurementPayload `json:"measurements,omitempty"`
	UseByDate    string               `json:"useByDate,omitempty"`
	Notes        *string              `json:"notes,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
}

type ItemResponse struct {
	ItemID         string               `json:"itemId"`
	OwnerID        string               `json:"ownerId"`
	Name           string               `json:"name"`
	NormalizedName string               `json:"normalizedName"`
	LocationID     string               `json:"locationId"`
	Quantity       float64              `json:"quantity"`
	Measurements   []MeasurementPayload `json:"measurements"`
	UseByDate      *time.Time           `json:"useByDate"`
	Notes          *string              `json:"notes"`
	Tags           []string             `json:"tags"`
}

type itemListResponse struct {
	Items []ItemResponse `json:"items"`
	Count int            `json:"count"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}
