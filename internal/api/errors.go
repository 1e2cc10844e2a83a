package api

import (
	"errors"
	"net/http"

	respond "github.com/pantrylab/pantry-service/internal/api/respond"
	"github.com/pantrylab/pantry-service/internal/auth"
	"github.com/pantrylab/pantry-service/internal/model"
)

// writeServiceError maps service-layer errors onto HTTP status codes in one
// place so every handler reports the same way:
//
//	ValidationError        -> 400
//	model.ErrNotFound      -> 404
//	missing or invalid key -> 401
//	permission denied      -> 403
//	anything else          -> 500
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case model.IsValidationError(err):
		respond.WriteBadRequest(w, err.Error())
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, auth.ErrMissingAPIKey), errors.Is(err, auth.ErrInvalidAPIKey):
		respond.WriteUnauthorized(w, err.Error())
	case errors.Is(err, auth.ErrPermissionDenied):
		respond.WriteForbidden(w, err.Error())
	default:
		respond.WriteInternalError(w, err.Error())
	}
}
