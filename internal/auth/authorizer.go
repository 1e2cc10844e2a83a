package auth

import (
	"context"
)

// ActorInfo contains information about an authenticated actor
type ActorInfo struct {
	ActorID     string   `json:"actor_id"`    // Owner partition the key is bound to
	KeyType     string   `json:"key_type"`    // 'standard', 'admin'
	KeyName     string   `json:"key_name"`    // Human-readable name
	Permissions []string `json:"permissions"` // Operation-level permissions
}

// IsAdmin reports whether the actor holds an admin key.
func (a *ActorInfo) IsAdmin() bool { return a != nil && a.KeyType == "admin" }

// Authorizer validates API keys and checks permissions in one call
type Authorizer interface {
	// Authorize validates API key and checks if actor can perform operation
	// Returns ActorInfo if authorized, error if authentication or authorization fails
	Authorize(ctx context.Context, apiKey, operation, resource string) (*ActorInfo, error)
}

// EffectiveOwner resolves which owner partition a request operates on.
// Standard keys always act on their own partition; admin keys may name any
// owner explicitly. A standard key naming a different owner is rejected
// with ErrPermissionDenied.
func EffectiveOwner(actor *ActorInfo, requestedOwner string) (string, error) {
	if requestedOwner == "" || requestedOwner == actor.ActorID {
		return actor.ActorID, nil
	}
	if actor.IsAdmin() {
		return requestedOwner, nil
	}
	return "", ErrPermissionDenied
}
