package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	respond "github.com/pantrylab/pantry-service/internal/api/respond"
	"github.com/pantrylab/pantry-service/internal/api/validate"
	"github.com/pantrylab/pantry-service/internal/auth"
	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/services"
)

type ItemHandler struct {
	svc        *services.ItemService
	authorizer auth.Authorizer
}

func NewItemHandler(svc *services.ItemService, authorizer auth.Authorizer) *ItemHandler {
	return &ItemHandler{svc: svc, authorizer: authorizer}
}

// CreateItem POST /v0/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.create", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	var req struct {
		Name         string                   `json:"name"`
		LocationID   string                   `json:"locationId,omitempty"`
		Quantity     decimal.Decimal          `json:"quantity,omitempty"`
		Unit         string                   `json:"unit,omitempty"`
		Measurements []model.MeasurementValue `json:"measurements,omitempty"`
		UseByDate    *string                  `json:"useByDate,omitempty"`
		Notes        *string                  `json:"notes,omitempty"`
		Tags         []string                 `json:"tags,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.CreateItem(req.Name, req.Notes); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var useBy *time.Time
	if req.UseByDate != nil {
		useBy, err = validate.Date("useByDate", *req.UseByDate)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	it := &model.Item{
		OwnerID:      owner,
		Name:         req.Name,
		LocationID:   req.LocationID,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Measurements: req.Measurements,
		UseByDate:    useBy,
		Notes:        req.Notes,
		Tags:         req.Tags,
	}
	out, err := h.svc.CreateItem(r.Context(), it)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListItems GET /v0/items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	out, err := h.svc.ListItems(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeItemList(w, out)
}

// GetItem GET /v0/items/{itemId}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	v := mux.Vars(r)
	out, err := h.svc.GetItem(r.Context(), owner, v["itemId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateItem PATCH /v0/items/{itemId}
func (h *ItemHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.write", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	var req struct {
		Name         *string                   `json:"name,omitempty"`
		LocationID   *string                   `json:"locationId,omitempty"`
		Quantity     *decimal.Decimal          `json:"quantity,omitempty"`
		Unit         *string                   `json:"unit,omitempty"`
		Measurements *[]model.MeasurementValue `json:"measurements,omitempty"`
		UseByDate    *string                   `json:"useByDate,omitempty"`
		Notes        *string                   `json:"notes,omitempty"`
		Tags         *[]string                 `json:"tags,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.UpdateItem(req.Name, req.Notes); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	var useBy *time.Time
	if req.UseByDate != nil {
		useBy, err = validate.Date("useByDate", *req.UseByDate)
		if err != nil {
			respond.WriteBadRequest(w, err.Error())
			return
		}
	}
	upd := model.UpdateItemRequest{
		Name:         req.Name,
		LocationID:   req.LocationID,
		Quantity:     req.Quantity,
		Unit:         req.Unit,
		Measurements: req.Measurements,
		UseByDate:    useBy,
		Notes:        req.Notes,
		Tags:         req.Tags,
	}
	v := mux.Vars(r)
	out, err := h.svc.UpdateItem(r.Context(), owner, v["itemId"], upd)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteItem DELETE /v0/items/{itemId}
func (h *ItemHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.delete", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	v := mux.Vars(r)
	if err := h.svc.DeleteItem(r.Context(), owner, v["itemId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ItemsByLocation GET /v0/items/by-location/{locationId}
func (h *ItemHandler) ItemsByLocation(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	v := mux.Vars(r)
	out, err := h.svc.ItemsByLocation(r.Context(), owner, v["locationId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeItemList(w, out)
}

// ItemsByTag GET /v0/items/by-tag/{tag}
func (h *ItemHandler) ItemsByTag(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	v := mux.Vars(r)
	out, err := h.svc.ItemsByTag(r.Context(), owner, v["tag"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeItemList(w, out)
}

// ItemsByName GET /v0/items/by-name/{name}
func (h *ItemHandler) ItemsByName(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	v := mux.Vars(r)
	out, err := h.svc.ItemsByName(r.Context(), owner, v["name"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeItemList(w, out)
}

// ExpiringItems GET /v0/items/expiring?days=N&locationId=
func (h *ItemHandler) ExpiringItems(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	q := r.URL.Query()
	days, err := validate.Days(q.Get("days"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	out, err := h.svc.ExpiringItems(r.Context(), owner, q.Get("locationId"), days)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeItemList(w, out)
}

// SearchItems GET /v0/items/search?name=&locationId=&tags=a,b&useByAfter=&useByBefore=
func (h *ItemHandler) SearchItems(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "item.read", "default")
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Resolve the owner scope for this request
	owner, err := auth.EffectiveOwner(actorInfo, r.URL.Query().Get("ownerId"))
	if err != nil {
		respond.WriteForbidden(w, "Forbidden: "+err.Error())
		return
	}

	q := r.URL.Query()
	after, err := validate.OptionalDate("useByAfter", q.Get("useByAfter"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	before, err := validate.OptionalDate("useByBefore", q.Get("useByBefore"))
	if err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	sq := model.SearchQuery{
		OwnerID:     owner,
		Name:        q.Get("name"),
		LocationID:  q.Get("locationId"),
		Tags:        validate.TagList(q.Get("tags")),
		UseByAfter:  after,
		UseByBefore: before,
	}
	out, err := h.svc.SearchItems(r.Context(), sq)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeItemList(w, out)
}

// writeItemList writes the standard list envelope, never a JSON null.
func writeItemList(w http.ResponseWriter, items []*model.Item) {
	if items == nil {
		items = []*model.Item{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}
