package api

import (
	"net/http"

	respond "github.com/pantrylab/pantry-service/internal/api/respond"
	"github.com/pantrylab/pantry-service/internal/auth"
	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/services"
)

type StatsHandler struct {
	svc        *services.ItemService
	authorizer auth.Authorizer
}

func NewStatsHandler(svc *services.ItemService, authorizer auth.Authorizer) *StatsHandler {
	return &StatsHandler{svc: svc, authorizer: authorizer}
}

// Aggregate GET /v0/stats/aggregate?locationId=&tag=&countUnit=&weightUnit=&volumeUnit=
func (h *StatsHandler) Aggregate(w http.ResponseWriter, r *http.Request) {
	// Extract API key from Authorization header
	apiKey, err := auth.ExtractAPIKey(r)
	if err != nil {
		respond.WriteUnauthorized(w, "Unauthorized: "+err.Error())
		return
	}

	// Authorize the request
	actorInfo, err := h.authorizer.Authorize(r.Context(), apiKey, "stats.read", "default")
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
	units := map[model.MeasurementType]string{}
	if s := q.Get("countUnit"); s != "" {
		units[model.Count] = s
	}
	if s := q.Get("weightUnit"); s != "" {
		units[model.Weight] = s
	}
	if s := q.Get("volumeUnit"); s != "" {
		units[model.Volume] = s
	}
	if len(units) == 0 {
		units = nil
	}
	aq := model.AggregateQuery{
		OwnerID:        owner,
		LocationID:     q.Get("locationId"),
		Tag:            q.Get("tag"),
		RequestedUnits: units,
	}
	out, err := h.svc.Aggregate(r.Context(), aq)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, out)
}
