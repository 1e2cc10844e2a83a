package auth

import (
	"github.com/pantrylab/pantry-service/internal/config"
)

// AuthorizerFactory creates the appropriate Authorizer based on environment
type AuthorizerFactory struct {
	config *config.Config
}

// NewAuthorizerFactory creates a new AuthorizerFactory
func NewAuthorizerFactory(cfg *config.Config) *AuthorizerFactory {
	return &AuthorizerFactory{
		config: cfg,
	}
}

// CreateAuthorizer creates the appropriate Authorizer based on development mode
func (f *AuthorizerFactory) CreateAuthorizer() (Authorizer, error) {
	if f.config.IsDevMode() {
		// Development mode: use mock authorizer with hardcoded API keys
		return NewMockAuthorizer(), nil
	}

	// Production mode: keys come from configuration
	return NewStaticAuthorizer(f.config.APIKeys)
}

// IsDevMode returns true if development mode is enabled
func (f *AuthorizerFactory) IsDevMode() bool {
	return f.config.IsDevMode()
}
