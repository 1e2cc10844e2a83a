package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	respond "github.com/pantrylab/pantry-service/internal/api/respond"
	"github.com/pantrylab/pantry-service/internal/api/validate"
	"github.com/pantrylab/pantry-service/internal/auth"
	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/services"
)

type LocationHandler struct {
	svc        *services.LocationService
	authorizer auth.Authorizer
}

func NewLocationHandler(svc *services.LocationService, authorizer auth.Authorizer) *LocationHandler {
	return &LocationHandler{svc: svc, authorizer: authorizer}
}

// CreateLocation POST /v0/locations
func (h *LocationHandler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "location.create", "default")
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
		Name        string  `json:"name"`
		Description *string `json:"description,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.CreateLocation(req.Name, req.Description); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	l := &model.Location{OwnerID: owner, Name: req.Name, Description: req.Description}
	out, err := h.svc.CreateLocation(r.Context(), l)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, out)
}

// ListLocations GET /v0/locations
func (h *LocationHandler) ListLocations(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "location.read", "default")
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

	out, err := h.svc.ListLocations(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if out == nil {
		out = []*model.Location{}
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"locations": out, "count": len(out)})
}

// GetLocation GET /v0/locations/{locationId}
func (h *LocationHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "location.read", "default")
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
	out, err := h.svc.GetLocation(r.Context(), owner, v["locationId"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// UpdateLocation PATCH /v0/locations/{locationId}
func (h *LocationHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "location.write", "default")
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

	var req model.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := validate.UpdateLocation(req.Name, req.Description); err != nil {
		respond.WriteBadRequest(w, err.Error())
		return
	}
	v := mux.Vars(r)
	out, err := h.svc.UpdateLocation(r.Context(), owner, v["locationId"], req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}

// DeleteLocation DELETE /v0/locations/{locationId}
func (h *LocationHandler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "location.delete", "default")
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
	if err := h.svc.DeleteLocation(r.Context(), owner, v["locationId"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
