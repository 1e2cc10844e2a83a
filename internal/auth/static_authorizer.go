package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// staticKey is one parsed entry from the configured key spec
type staticKey struct {
	actorID string
	keyType string
}

// StaticAuthorizer resolves API keys from a fixed table parsed at startup.
// It backs deployments that manage keys through configuration rather than
// an external auth provider.
type StaticAuthorizer struct {
	keys map[string]staticKey
}

// NewStaticAuthorizer parses a comma-separated key spec of the form
// "key=owner" or "key=owner:admin" and returns an authorizer over it.
// A malformed entry or an empty spec is a configuration error.
func NewStaticAuthorizer(spec string) (*StaticAuthorizer, error) {
	keys := make(map[string]staticKey)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		key, grant, ok := strings.Cut(entry, "=")
		if !ok || key == "" || grant == "" {
			return nil, fmt.Errorf("malformed API key entry %q, expected key=owner or key=owner:admin", entry)
		}
		owner, role, hasRole := strings.Cut(grant, ":")
		if owner == "" {
			return nil, fmt.Errorf("malformed API key entry %q, expected key=owner or key=owner:admin", entry)
		}
		keyType := "standard"
		if hasRole {
			if role != "admin" {
				return nil, fmt.Errorf("unknown key type %q in API key entry %q", role, entry)
			}
			keyType = "admin"
		}
		keys[key] = staticKey{actorID: owner, keyType: keyType}
	}
	if len(keys) == 0 {
		return nil, errors.New("no API keys configured")
	}
	return &StaticAuthorizer{keys: keys}, nil
}

// Authorize resolves the key against the static table
func (s *StaticAuthorizer) Authorize(ctx context.Context, apiKey, operation, resource string) (*ActorInfo, error) {
	k, ok := s.keys[apiKey]
	if !ok {
		return nil, ErrInvalidAPIKey
	}
	return &ActorInfo{
		ActorID:     k.actorID,
		KeyType:     k.keyType,
		KeyName:     "Configured Key",
		Permissions: []string{"*"},
	}, nil
}
