package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/travelmap/itinerary-backend/internal/models"
)

// MemoryStore keeps cities and routes in process. It backs the memory
// store driver used for local runs and handler tests; nothing survives a
// restart.
type MemoryStore struct {
	mu     sync.RWMutex
	cities []models.City
	routes []models.Route
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Cities returns a city repository over the store
func (m *MemoryStore) Cities() *MemoryCityRepository {
	return &MemoryCityRepository{store: m}
}

// Routes returns a route repository over the store
func (m *MemoryStore) Routes() *MemoryRouteRepository {
	return &MemoryRouteRepository{store: m}
}

// MemoryCityRepository implements CityRepository on a MemoryStore
type MemoryCityRepository struct {
	store *MemoryStore
}

func copyCity(c models.City) models.City {
	c.Spent = append(models.Expenses{}, c.Spent...)
	return c
}

// Create stores a city under a new UUID
func (r *MemoryCityRepository) Create(_ context.Context, city *models.City) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	city.ID = uuid.NewString()
	city.Spent = city.Spent.OrEmpty()
	r.store.cities = append(r.store.cities, copyCity(*city))
	return nil
}

// Update rewrites name, stay dates and expenses
func (r *MemoryCityRepository) Update(_ context.Context, city *models.City) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.cities {
		if r.store.cities[i].ID == city.ID {
			stored := &r.store.cities[i]
			stored.City = city.City
			stored.StayIn = city.StayIn
			stored.StayOut = city.StayOut
			stored.Spent = append(models.Expenses{}, city.Spent...)
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes a city
func (r *MemoryCityRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.cities {
		if r.store.cities[i].ID == id {
			r.store.cities = append(r.store.cities[:i], r.store.cities[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Get retrieves a city by ID
func (r *MemoryCityRepository) Get(_ context.Context, id string) (*models.City, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, c := range r.store.cities {
		if c.ID == id {
			out := copyCity(c)
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// List returns every city in insertion order
func (r *MemoryCityRepository) List(_ context.Context) ([]models.City, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]models.City, 0, len(r.store.cities))
	for _, c := range r.store.cities {
		out = append(out, copyCity(c))
	}
	return out, nil
}

// FindByName returns cities with exactly this name
func (r *MemoryCityRepository) FindByName(_ context.Context, name string) ([]models.City, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.City
	for _, c := range r.store.cities {
		if c.City == name {
			out = append(out, copyCity(c))
		}
	}
	return out, nil
}

// DeleteAll removes every city
func (r *MemoryCityRepository) DeleteAll(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := int64(len(r.store.cities))
	r.store.cities = nil
	return n, nil
}

// MemoryRouteRepository implements RouteRepository on a MemoryStore
type MemoryRouteRepository struct {
	store *MemoryStore
}

// Create stores a route under a new UUID. Display names are not stored.
func (r *MemoryRouteRepository) Create(_ context.Context, route *models.Route) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	route.ID = uuid.NewString()
	stored := *route
	stored.From, stored.To = "", ""
	r.store.routes = append(r.store.routes, stored)
	return nil
}

// Update rewrites transport, cost and note
func (r *MemoryRouteRepository) Update(_ context.Context, route *models.Route) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.routes {
		if r.store.routes[i].ID == route.ID {
			stored := &r.store.routes[i]
			stored.Transport = route.Transport
			stored.Cost = route.Cost
			stored.Note = route.Note
			return nil
		}
	}
	return ErrNotFound
}

// Delete removes a route
func (r *MemoryRouteRepository) Delete(_ context.Context, id string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.routes {
		if r.store.routes[i].ID == id {
			r.store.routes = append(r.store.routes[:i], r.store.routes[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Get retrieves a route by ID
func (r *MemoryRouteRepository) Get(_ context.Context, id string) (*models.Route, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, rt := range r.store.routes {
		if rt.ID == id {
			out := rt
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

// List returns every route in insertion order
func (r *MemoryRouteRepository) List(_ context.Context) ([]models.Route, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	return append([]models.Route{}, r.store.routes...), nil
}

// FindBy returns routes whose endpoint field equals value
func (r *MemoryRouteRepository) FindBy(_ context.Context, field RouteField, value string) ([]models.Route, error) {
	var match func(models.Route) bool
	switch field {
	case RouteFromID:
		match = func(rt models.Route) bool { return rt.FromID == value }
	case RouteToID:
		match = func(rt models.Route) bool { return rt.ToID == value }
	default:
		return nil, fmt.Errorf("unsupported route field: %s", field)
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []models.Route
	for _, rt := range r.store.routes {
		if match(rt) {
			out = append(out, rt)
		}
	}
	return out, nil
}

// DeleteAll removes every route
func (r *MemoryRouteRepository) DeleteAll(_ context.Context) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	n := int64(len(r.store.routes))
	r.store.routes = nil
	return n, nil
}
