package auth

import (
	"context"
)

const (
	// LocalDevAPIKey is the hardcoded API key for local development only
	LocalDevAPIKey = "sk_local_pantry_dev_key"

	// LocalDevAdminAPIKey is the hardcoded admin key for local development,
	// useful for exercising cross-owner operations without a real key store
	LocalDevAdminAPIKey = "sk_local_pantry_admin_key"
)

// MockAuthorizer provides a simple authorizer for local development.
// It recognizes the two hardcoded dev keys and resolves them to fixed actors.
type MockAuthorizer struct{}

// NewMockAuthorizer creates a new MockAuthorizer for local development
func NewMockAuthorizer() *MockAuthorizer {
	return &MockAuthorizer{}
}

// Authorize validates the hardcoded API keys and checks permissions in one call
func (m *MockAuthorizer) Authorize(ctx context.Context, apiKey, operation, resource string) (*ActorInfo, error) {
	switch apiKey {
	case LocalDevAPIKey:
		return &ActorInfo{
			ActorID:     "pantry-dev",
			KeyType:     "standard",
			KeyName:     "Local Development Key",
			Permissions: []string{"*"},
		}, nil
	case LocalDevAdminAPIKey:
		// Local dev admin can act on any owner's pantry
		return &ActorInfo{
			ActorID:     "pantry-admin",
			KeyType:     "admin",
			KeyName:     "Local Development Admin Key",
			Permissions: []string{"*"},
		}, nil
	default:
		return nil, ErrInvalidAPIKey
	}
}
