package database

import (
	"context"
	"errors"

	"github.com/travelmap/itinerary-backend/internal/models"
)

// ErrNotFound is returned when an addressed record does not exist
var ErrNotFound = errors.New("record not found")

// RouteField names a route attribute that can be matched by equality
type RouteField string

const (
	RouteFromID RouteField = "from_id"
	RouteToID   RouteField = "to_id"
)

// CityRepository persists cities
type CityRepository interface {
	// Create stores a new city and assigns its ID
	Create(ctx context.Context, city *models.City) error
	// Update rewrites the editable fields. Identity and coordinates are kept.
	Update(ctx context.Context, city *models.City) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.City, error)
	List(ctx context.Context) ([]models.City, error)
	FindByName(ctx context.Context, name string) ([]models.City, error)
	DeleteAll(ctx context.Context) (int64, error)
}

// RouteRepository persists routes
type RouteRepository interface {
	// Create stores a new route and assigns its ID
	Create(ctx context.Context, route *models.Route) error
	// Update rewrites transport, cost and note. Endpoints are kept.
	Update(ctx context.Context, route *models.Route) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Route, error)
	List(ctx context.Context) ([]models.Route, error)
	FindBy(ctx context.Context, field RouteField, value string) ([]models.Route, error)
	DeleteAll(ctx context.Context) (int64, error)
}
