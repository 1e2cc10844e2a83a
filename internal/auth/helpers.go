package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ExtractAPIKey pulls the bearer credential out of the Authorization header.
// Only the "Bearer <api_key>" scheme is accepted.
func ExtractAPIKey(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAPIKey
	}

	key, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return "", errors.New("invalid Authorization header format, expected 'Bearer <api_key>'")
	}
	if key = strings.TrimSpace(key); key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}
