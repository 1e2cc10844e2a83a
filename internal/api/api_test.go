package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantrylab/pantry-service/internal/aggregate"
	"github.com/pantrylab/pantry-service/internal/auth"
	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/services"
	"github.com/pantrylab/pantry-service/internal/store/memory"
)

var apiServer *httptest.Server

// TestMain builds an in-memory stack behind the real route table.
func TestMain(m *testing.M) {
	st := memory.New()
	log := zerolog.Nop()
	authorizer := auth.NewMockAuthorizer()

	itemSvc := services.NewItemService(st, aggregate.New(log), log, 7)
	locSvc := services.NewLocationService(st)

	itemHandler := NewItemHandler(itemSvc, authorizer)
	locHandler := NewLocationHandler(locSvc, authorizer)
	statsHandler := NewStatsHandler(itemSvc, authorizer)
	healthHandler := NewHealthHandler()

	root := mux.NewRouter()
	root.Use(Recover)

	root.HandleFunc("/v0/locations", locHandler.CreateLocation).Methods("POST")
	root.HandleFunc("/v0/locations", locHandler.ListLocations).Methods("GET")
	root.HandleFunc("/v0/locations/{locationId}", locHandler.GetLocation).Methods("GET")
	root.HandleFunc("/v0/locations/{locationId}", locHandler.UpdateLocation).Methods("PATCH")
	root.HandleFunc("/v0/locations/{locationId}", locHandler.DeleteLocation).Methods("DELETE")

	// Specific item routes must precede the {itemId} wildcard.
	root.HandleFunc("/v0/items/expiring", itemHandler.ExpiringItems).Methods("GET")
	root.HandleFunc("/v0/items/search", itemHandler.SearchItems).Methods("GET")
	root.HandleFunc("/v0/items/by-location/{locationId}", itemHandler.ItemsByLocation).Methods("GET")
	root.HandleFunc("/v0/items/by-tag/{tag}", itemHandler.ItemsByTag).Methods("GET")
	root.HandleFunc("/v0/items/by-name/{name}", itemHandler.ItemsByName).Methods("GET")
	root.HandleFunc("/v0/items", itemHandler.CreateItem).Methods("POST")
	root.HandleFunc("/v0/items", itemHandler.ListItems).Methods("GET")
	root.HandleFunc("/v0/items/{itemId}", itemHandler.GetItem).Methods("GET")
	root.HandleFunc("/v0/items/{itemId}", itemHandler.UpdateItem).Methods("PATCH")
	root.HandleFunc("/v0/items/{itemId}", itemHandler.DeleteItem).Methods("DELETE")

	root.HandleFunc("/v0/stats/aggregate", statsHandler.Aggregate).Methods("GET")
	root.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")

	apiServer = httptest.NewServer(root)
	code := m.Run()
	apiServer.Close()
	os.Exit(code)
}

// Test helper functions

func makeRequest(t *testing.T, method, path, apiKey string, body interface{}) *http.Response {
	t.Helper()
	var bodyReader *bytes.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err)
		bodyReader = bytes.NewReader(bodyBytes)
	} else {
		bodyReader = bytes.NewReader([]byte{})
	}

	req, err := http.NewRequest(method, apiServer.URL+path, bodyReader)
	require.NoError(t, err)

	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func parseResponse(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	err := json.NewDecoder(resp.Body).Decode(v)
	require.NoError(t, err)
}

type itemListResponse struct {
	Items []model.Item `json:"items"`
	Count int          `json:"count"`
}

// cleanupPantry wipes both owners the mock authorizer can reach.
func cleanupPantry(t *testing.T) {
	t.Helper()
	cleanupOwner(t, auth.LocalDevAPIKey, "")
	cleanupOwner(t, auth.LocalDevAdminAPIKey, "?ownerId=alice")
}

func cleanupOwner(t *testing.T, apiKey, ownerQuery string) {
	t.Helper()
	var items itemListResponse
	resp := makeRequest(t, "GET", "/v0/items"+ownerQuery, apiKey, nil)
	parseResponse(t, resp, &items)
	for _, it := range items.Items {
		resp := makeRequest(t, "DELETE", "/v0/items/"+it.ItemID+ownerQuery, apiKey, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()
	}

	var locs struct {
		Locations []model.Location `json:"locations"`
	}
	resp = makeRequest(t, "GET", "/v0/locations"+ownerQuery, apiKey, nil)
	parseResponse(t, resp, &locs)
	for _, l := range locs.Locations {
		resp := makeRequest(t, "DELETE", "/v0/locations/"+l.LocationID+ownerQuery, apiKey, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp.Body.Close()
	}
}

func due(t *testing.T, days int) string {
	t.Helper()
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

// API Integration Tests

func TestAPI_Health(t *testing.T) {
	resp := makeRequest(t, "GET", "/v0/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]interface{}
	parseResponse(t, resp, &result)
	assert.Contains(t, []interface{}{"healthy", "unhealthy"}, result["status"])
	assert.NotNil(t, result["timestamp"])
}

func TestAPI_Authorization(t *testing.T) {
	cleanupPantry(t)

	t.Run("Missing API Key", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Invalid API Key", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items", "sk_bogus", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Standard Key Cannot Impersonate", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items?ownerId=alice", auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("Standard Key May Name Itself", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items?ownerId=pantry-dev", auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Admin Key Impersonates", func(t *testing.T) {
		createReq := map[string]interface{}{"name": "Root Cellar"}
		resp := makeRequest(t, "POST", "/v0/locations?ownerId=alice", auth.LocalDevAdminAPIKey, createReq)
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var loc model.Location
		parseResponse(t, resp, &loc)
		assert.Equal(t, "alice", loc.OwnerID)

		// The standard key's pantry stays empty.
		var locs struct {
			Count int `json:"count"`
		}
		resp = makeRequest(t, "GET", "/v0/locations", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &locs)
		assert.Equal(t, 0, locs.Count)
	})
}

func TestAPI_LocationOperations(t *testing.T) {
	cleanupPantry(t)

	var created model.Location

	t.Run("Create Location", func(t *testing.T) {
		createReq := map[string]interface{}{
			"name":        "Chest Freezer",
			"description": "garage",
		}

		resp := makeRequest(t, "POST", "/v0/locations", auth.LocalDevAPIKey, createReq)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		parseResponse(t, resp, &created)
		assert.NotEmpty(t, created.LocationID)
		assert.Equal(t, "pantry-dev", created.OwnerID)
		assert.Equal(t, "Chest Freezer", created.Name)
		assert.Equal(t, "garage", *created.Description)
		assert.False(t, created.CreationTime.IsZero())
	})

	t.Run("Get Location", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/locations/"+created.LocationID, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var loc model.Location
		parseResponse(t, resp, &loc)
		assert.Equal(t, created.LocationID, loc.LocationID)
		assert.Equal(t, created.Name, loc.Name)
	})

	t.Run("List Locations", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/locations", auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result map[string]interface{}
		parseResponse(t, resp, &result)
		assert.Equal(t, float64(1), result["count"])
	})

	t.Run("Update Location", func(t *testing.T) {
		updateReq := map[string]interface{}{"description": "basement"}

		resp := makeRequest(t, "PATCH", "/v0/locations/"+created.LocationID, auth.LocalDevAPIKey, updateReq)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var loc model.Location
		parseResponse(t, resp, &loc)
		assert.Equal(t, "Chest Freezer", loc.Name)
		assert.Equal(t, "basement", *loc.Description)
	})

	t.Run("Create Location - Missing Name", func(t *testing.T) {
		resp := makeRequest(t, "POST", "/v0/locations", auth.LocalDevAPIKey, map[string]interface{}{"description": "nameless"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Create Location - Invalid JSON", func(t *testing.T) {
		req, _ := http.NewRequest("POST", apiServer.URL+"/v0/locations", strings.NewReader("invalid json"))
		req.Header.Set("Authorization", "Bearer "+auth.LocalDevAPIKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Delete Location", func(t *testing.T) {
		resp := makeRequest(t, "DELETE", "/v0/locations/"+created.LocationID, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = makeRequest(t, "GET", "/v0/locations/"+created.LocationID, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_ItemOperations(t *testing.T) {
	cleanupPantry(t)

	var created model.Item

	t.Run("Create Item", func(t *testing.T) {
		createReq := map[string]interface{}{
			"name":      "Whole Milk",
			"quantity":  2,
			"unit":      "bottle",
			"useByDate": "2026-09-01",
			"tags":      []string{"Dairy", " breakfast "},
			"measurements": []map[string]interface{}{
				{"type": "volume", "value": 2, "unit": "l"},
			},
		}

		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, createReq)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		parseResponse(t, resp, &created)
		assert.NotEmpty(t, created.ItemID)
		assert.Equal(t, "pantry-dev", created.OwnerID)
		assert.Equal(t, "Whole Milk", created.Name)
		assert.Equal(t, "whole milk", created.NormalizedName)
		assert.True(t, created.Quantity.Equal(decimal.NewFromInt(2)))
		assert.Equal(t, []string{"breakfast", "dairy"}, created.Tags)
		require.NotNil(t, created.UseByDate)
		assert.Equal(t, "2026-09-01", created.UseByDate.Format("2006-01-02"))
		require.Len(t, created.Measurements, 1)
		assert.Equal(t, model.Volume, created.Measurements[0].Type)
	})

	t.Run("Get Item", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items/"+created.ItemID, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var it model.Item
		parseResponse(t, resp, &it)
		assert.Equal(t, created.ItemID, it.ItemID)
		assert.Equal(t, []string{"breakfast", "dairy"}, it.Tags)
	})

	t.Run("List Items", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items", auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result itemListResponse
		parseResponse(t, resp, &result)
		assert.Equal(t, 1, result.Count)
		require.Len(t, result.Items, 1)
	})

	t.Run("Update Item", func(t *testing.T) {
		updateReq := map[string]interface{}{
			"notes": "second shelf",
			"tags":  []string{"dairy", "staple"},
			"measurements": []map[string]interface{}{
				{"type": "volume", "value": 1, "unit": "l"},
			},
		}

		resp := makeRequest(t, "PATCH", "/v0/items/"+created.ItemID, auth.LocalDevAPIKey, updateReq)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var it model.Item
		parseResponse(t, resp, &it)
		assert.Equal(t, "Whole Milk", it.Name)
		assert.Equal(t, "second shelf", *it.Notes)
		assert.Equal(t, []string{"dairy", "staple"}, it.Tags)
		require.Len(t, it.Measurements, 1)
		assert.True(t, it.Measurements[0].Value.Equal(decimal.NewFromInt(1)))
	})

	t.Run("Create Item - Missing Name", func(t *testing.T) {
		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, map[string]interface{}{"quantity": 1})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Create Item - Duplicate Measurement Type", func(t *testing.T) {
		createReq := map[string]interface{}{
			"name": "Flour",
			"measurements": []map[string]interface{}{
				{"type": "weight", "value": 1, "unit": "lb"},
				{"type": "weight", "value": 16, "unit": "oz"},
			},
		}

		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, createReq)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Create Item - Unknown Unit", func(t *testing.T) {
		createReq := map[string]interface{}{
			"name": "Flour",
			"measurements": []map[string]interface{}{
				{"type": "weight", "value": 1, "unit": "stone"},
			},
		}

		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, createReq)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Create Item - Bad Use-By Date", func(t *testing.T) {
		createReq := map[string]interface{}{
			"name":      "Yogurt",
			"useByDate": "next tuesday",
		}

		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, createReq)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Delete Item", func(t *testing.T) {
		resp := makeRequest(t, "DELETE", "/v0/items/"+created.ItemID, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = makeRequest(t, "GET", "/v0/items/"+created.ItemID, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestAPI_ItemQueries(t *testing.T) {
	cleanupPantry(t)

	// Two locations and three items with staggered dates.
	var fridge, pantry model.Location
	resp := makeRequest(t, "POST", "/v0/locations", auth.LocalDevAPIKey, map[string]interface{}{"name": "Fridge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	parseResponse(t, resp, &fridge)

	resp = makeRequest(t, "POST", "/v0/locations", auth.LocalDevAPIKey, map[string]interface{}{"name": "Pantry"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	parseResponse(t, resp, &pantry)

	seed := []map[string]interface{}{
		{"name": "Milk", "locationId": fridge.LocationID, "tags": []string{"dairy", "breakfast"}, "useByDate": due(t, 2)},
		{"name": "Cheddar", "locationId": fridge.LocationID, "tags": []string{"dairy"}, "useByDate": due(t, 10)},
		{"name": "Rice", "locationId": pantry.LocationID, "tags": []string{"grain"}},
	}
	for _, req := range seed {
		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, req)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	names := func(result itemListResponse) []string {
		out := make([]string, 0, len(result.Items))
		for _, it := range result.Items {
			out = append(out, it.Name)
		}
		return out
	}

	t.Run("Items By Location", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/by-location/"+fridge.LocationID, auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, 2, result.Count)
		assert.ElementsMatch(t, []string{"Milk", "Cheddar"}, names(result))
	})

	t.Run("Items By Tag", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/by-tag/dairy", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.ElementsMatch(t, []string{"Milk", "Cheddar"}, names(result))
	})

	t.Run("Items By Name Is Normalized", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/by-name/MILK", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, []string{"Milk"}, names(result))
	})

	t.Run("Expiring Default Window", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/expiring", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, []string{"Milk"}, names(result))
	})

	t.Run("Expiring Wide Window", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/expiring?days=30", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, []string{"Milk", "Cheddar"}, names(result))
	})

	t.Run("Expiring Due Today Only", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/expiring?days=0", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, 0, result.Count)
	})

	t.Run("Expiring Rejects Negative Days", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/items/expiring?days=-3", auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Search By Name", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/search?name=milk", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, []string{"Milk"}, names(result))
	})

	t.Run("Search Requires All Tags", func(t *testing.T) {
		var result itemListResponse
		resp := makeRequest(t, "GET", "/v0/items/search?tags=dairy,breakfast", auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, []string{"Milk"}, names(result))
	})

	t.Run("Search Date Range Excludes Undated", func(t *testing.T) {
		var result itemListResponse
		path := "/v0/items/search?useByAfter=" + due(t, 0) + "&useByBefore=" + due(t, 5)
		resp := makeRequest(t, "GET", path, auth.LocalDevAPIKey, nil)
		parseResponse(t, resp, &result)
		assert.Equal(t, []string{"Milk"}, names(result))
	})

	t.Run("Search Rejects Inverted Date Range", func(t *testing.T) {
		path := "/v0/items/search?useByAfter=" + due(t, 5) + "&useByBefore=" + due(t, 0)
		resp := makeRequest(t, "GET", path, auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAPI_StatsAggregate(t *testing.T) {
	cleanupPantry(t)

	var fridge model.Location
	resp := makeRequest(t, "POST", "/v0/locations", auth.LocalDevAPIKey, map[string]interface{}{"name": "Fridge"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	parseResponse(t, resp, &fridge)

	seed := []map[string]interface{}{
		{
			"name": "Butter", "locationId": fridge.LocationID, "tags": []string{"baking"},
			"useByDate":    due(t, 14),
			"measurements": []map[string]interface{}{{"type": "weight", "value": 1, "unit": "lb"}},
		},
		{
			"name": "Cream Cheese", "locationId": fridge.LocationID, "tags": []string{"baking"},
			"measurements": []map[string]interface{}{{"type": "weight", "value": 16, "unit": "oz"}},
		},
	}
	for _, req := range seed {
		resp := makeRequest(t, "POST", "/v0/items", auth.LocalDevAPIKey, req)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	t.Run("Aggregate All", func(t *testing.T) {
		var sum model.AggregateSummary
		resp := makeRequest(t, "GET", "/v0/stats/aggregate", auth.LocalDevAPIKey, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		parseResponse(t, resp, &sum)

		assert.Equal(t, 2, sum.TotalItemCount)
		assert.Equal(t, 1, sum.ItemsWithExpiryCount)
		weight, ok := sum.Measurements[model.Weight]
		require.True(t, ok)
		assert.Equal(t, "lb", weight.Unit)
		assert.True(t, weight.Value.Equal(decimal.NewFromInt(2)), "got %s", weight.Value)
	})

	t.Run("Aggregate In Grams", func(t *testing.T) {
		var sum model.AggregateSummary
		resp := makeRequest(t, "GET", "/v0/stats/aggregate?weightUnit=g", auth.LocalDevAPIKey, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		parseResponse(t, resp, &sum)

		weight, ok := sum.Measurements[model.Weight]
		require.True(t, ok)
		assert.Equal(t, "g", weight.Unit)
		assert.True(t, weight.Value.Equal(decimal.RequireFromString("907.18474")), "got %s", weight.Value)
	})

	t.Run("Aggregate By Tag", func(t *testing.T) {
		var sum model.AggregateSummary
		resp := makeRequest(t, "GET", "/v0/stats/aggregate?tag=baking&locationId="+fridge.LocationID, auth.LocalDevAPIKey, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		parseResponse(t, resp, &sum)
		assert.Equal(t, 2, sum.TotalItemCount)
	})

	t.Run("Aggregate Rejects Unknown Unit", func(t *testing.T) {
		resp := makeRequest(t, "GET", "/v0/stats/aggregate?weightUnit=stone", auth.LocalDevAPIKey, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
