package auth

import "errors"

var (
	// ErrMissingAPIKey is returned when no API key can be extracted from the request
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidAPIKey is returned when the API key is not recognized
	ErrInvalidAPIKey = errors.New("invalid API key")

	// ErrPermissionDenied is returned when a valid key attempts an operation
	// outside its grant, such as a standard key acting on another owner's pantry
	ErrPermissionDenied = errors.New("permission denied")
)
