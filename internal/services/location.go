package services

import (
	"context"
	"strings"

	"github.com/pantrylab/pantry-service/internal/model"
	"github.com/pantrylab/pantry-service/internal/store"
)

// LocationService manages storage locations. Deleting a location leaves items
// pointing at it untouched; the dangling reference is accepted.
type LocationService struct {
	store store.Store
}

func NewLocationService(s store.Store) *LocationService {
	return &LocationService{store: s}
}

func (s *LocationService) CreateLocation(ctx context.Context, l *model.Location) (*model.Location, error) {
	if strings.TrimSpace(l.Name) == "" {
		return nil, model.NewValidationError("name", "name is required")
	}
	return s.store.Locations().Create(ctx, l)
}
func (s *LocationService) GetLocation(ctx context.Context, ownerID, locationID string) (*model.Location, error) {
	return s.store.Locations().Get(ctx, ownerID, locationID)
}
func (s *LocationService) ListLocations(ctx context.Context, ownerID string) ([]*model.Location, error) {
	return s.store.Locations().List(ctx, ownerID)
}
func (s *LocationService) UpdateLocation(ctx context.Context, ownerID, locationID string, req model.UpdateLocationRequest) (*model.Location, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, model.NewValidationError("name", "name must not be empty")
	}
	return s.store.Locations().Update(ctx, ownerID, locationID, req)
}
func (s *LocationService) DeleteLocation(ctx context.Context, ownerID, locationID string) error {
	return s.store.Locations().Delete(ctx, ownerID, locationID)
}
