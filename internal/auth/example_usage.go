package auth

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pantrylab/pantry-service/internal/config"
)

// ExampleUsage demonstrates how to set up simplified API key authorization
func ExampleUsage(cfg *config.Config) (*mux.Router, error) {
	// Create the appropriate authorizer based on configuration
	factory := NewAuthorizerFactory(cfg)
	authorizer, err := factory.CreateAuthorizer()
	if err != nil {
		return nil, err
	}

	// Set up router - no middleware needed!
	router := mux.NewRouter()

	// Example handler that does everything inline
	router.HandleFunc("/v0/items", func(w http.ResponseWriter, r *http.Request) {
		// Extract API key directly from request
		apiKey, err := ExtractAPIKey(r)
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		// Single call: validate API key + check item.create permission
		actorInfo, err := authorizer.Authorize(r.Context(), apiKey, "item.create", "default")
		if err != nil {
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		// Use actor info for pantry operations
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"message": "Authorized actor: ` + actorInfo.ActorID + `"}`))
	}).Methods("POST")

	return router, nil
}

// Configuration examples:
//
// Production Mode:
// - Set PANTRY_DEV_MODE=false (or leave unset)
// - Configure keys via PANTRY_API_KEYS="key=owner,opskey=ops:admin"
// - Client provides API key via "Authorization: Bearer <api_key>" header
// - Handlers call ExtractAPIKey(r) then authorizer.Authorize()
//
// Local Development Mode:
// - Set PANTRY_DEV_MODE=true
// - Client uses hardcoded API key: "sk_local_pantry_dev_key"
//   (or "sk_local_pantry_admin_key" for cross-owner operations)
// - Handlers call ExtractAPIKey(r) then authorizer.Authorize()
// - MockAuthorizer resolves to the "pantry-dev" actor
//
// Handler Pattern (No Middleware):
// apiKey, err := auth.ExtractAPIKey(r)
// actorInfo, err := authorizer.Authorize(ctx, apiKey, "operation", "resource")
// // Use actorInfo.ActorID for business logic
