package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/cache"
	"github.com/travelmap/itinerary-backend/internal/database"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
)

// memStore backs both fake repositories. Operations named in fail return
// the mapped error instead of touching the data.
type memStore struct {
	mu     sync.Mutex
	nextID int
	cities []models.City
	routes []models.Route
	fail   map[string]error
	calls  map[string]int
}

func newMemStore() *memStore {
	return &memStore{fail: map[string]error{}, calls: map[string]int{}}
}

func (m *memStore) enter(op string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[op]++
	return m.fail[op]
}

func (m *memStore) failOn(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail[op] = err
}

func (m *memStore) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *memStore) newID(prefix string) string {
	m.nextID++
	return fmt.Sprintf("%s%d", prefix, m.nextID)
}

type fakeCityRepo struct{ *memStore }

func (r fakeCityRepo) Create(_ context.Context, city *models.City) error {
	if err := r.enter("city.create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	city.ID = r.newID("c")
	city.Spent = city.Spent.OrEmpty()
	r.cities = append(r.cities, cloneCity(*city))
	return nil
}

func (r fakeCityRepo) Update(_ context.Context, city *models.City) error {
	if err := r.enter("city.update"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cities {
		if r.cities[i].ID == city.ID {
			coords := r.cities[i].Coords
			r.cities[i] = cloneCity(*city)
			r.cities[i].Coords = coords
			return nil
		}
	}
	return database.ErrNotFound
}

func (r fakeCityRepo) Delete(_ context.Context, id string) error {
	if err := r.enter("city.delete"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.cities {
		if r.cities[i].ID == id {
			r.cities = append(r.cities[:i], r.cities[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (r fakeCityRepo) Get(_ context.Context, id string) (*models.City, error) {
	if err := r.enter("city.get"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.cities {
		if c.ID == id {
			out := cloneCity(c)
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r fakeCityRepo) List(_ context.Context) ([]models.City, error) {
	if err := r.enter("city.list"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneCities(r.cities), nil
}

func (r fakeCityRepo) FindByName(_ context.Context, name string) ([]models.City, error) {
	if err := r.enter("city.find"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.City
	for _, c := range r.cities {
		if c.City == name {
			out = append(out, cloneCity(c))
		}
	}
	return out, nil
}

func (r fakeCityRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.cities))
	r.cities = nil
	return n, nil
}

type fakeRouteRepo struct{ *memStore }

func (r fakeRouteRepo) Create(_ context.Context, route *models.Route) error {
	if err := r.enter("route.create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	route.ID = r.newID("r")
	stored := *route
	stored.From, stored.To = "", ""
	r.routes = append(r.routes, stored)
	return nil
}

func (r fakeRouteRepo) Update(_ context.Context, route *models.Route) error {
	if err := r.enter("route.update"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.routes {
		if r.routes[i].ID == route.ID {
			r.routes[i].Transport = route.Transport
			r.routes[i].Cost = route.Cost
			r.routes[i].Note = route.Note
			return nil
		}
	}
	return database.ErrNotFound
}

func (r fakeRouteRepo) Delete(_ context.Context, id string) error {
	if err := r.enter("route.delete"); err != nil {
		return err
	}
	if err := r.enter("route.delete." + id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.routes {
		if r.routes[i].ID == id {
			r.routes = append(r.routes[:i], r.routes[i+1:]...)
			return nil
		}
	}
	return database.ErrNotFound
}

func (r fakeRouteRepo) Get(_ context.Context, id string) (*models.Route, error) {
	if err := r.enter("route.get"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rt := range r.routes {
		if rt.ID == id {
			out := rt
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r fakeRouteRepo) List(_ context.Context) ([]models.Route, error) {
	if err := r.enter("route.list"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Route(nil), r.routes...), nil
}

func (r fakeRouteRepo) FindBy(_ context.Context, field database.RouteField, value string) ([]models.Route, error) {
	if err := r.enter("route.find." + string(field)); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Route
	for _, rt := range r.routes {
		switch field {
		case database.RouteFromID:
			if rt.FromID == value {
				out = append(out, rt)
			}
		case database.RouteToID:
			if rt.ToID == value {
				out = append(out, rt)
			}
		default:
			return nil, fmt.Errorf("unknown route field %q", field)
		}
	}
	return out, nil
}

func (r fakeRouteRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := int64(len(r.routes))
	r.routes = nil
	return n, nil
}

func (m *memStore) routeIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.routes))
	for _, r := range m.routes {
		ids = append(ids, r.ID)
	}
	return ids
}

func (m *memStore) cityIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.cities))
	for _, c := range m.cities {
		ids = append(ids, c.ID)
	}
	return ids
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testMetrics() *metrics.Metrics {
	return metrics.NewMetrics("test", prometheus.NewRegistry())
}

type fixture struct {
	store  *memStore
	locker *cache.MemoryStore
	svc    *ItineraryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	locker := cache.NewMemoryStore()
	svc := NewItineraryService(fakeCityRepo{store}, fakeRouteRepo{store}, locker, 10*time.Second, testMetrics(), quietLogger())
	return &fixture{store: store, locker: locker, svc: svc}
}

func cost(v int64) models.CostInput {
	return models.CostInput{NullDecimal: decimal.NewNullDecimal(decimal.NewFromInt(v))}
}

func cityReq(name, stayIn, stayOut string, costs ...int64) models.CreateCityRequest {
	req := models.CreateCityRequest{
		CityInput: models.CityInput{City: name, StayIn: stayIn, StayOut: stayOut},
		Lat:       ptr(10.0),
		Lng:       ptr(20.0),
	}
	for i, c := range costs {
		req.Spent = append(req.Spent, models.ExpenseInput{Title: fmt.Sprintf("item %d", i+1), Cost: cost(c)})
	}
	return req
}

func ptr[T any](v T) *T { return &v }

func routeReq(from, to string, transport models.Transport, c int64) models.CreateRouteRequest {
	return models.CreateRouteRequest{
		RouteInput: models.RouteInput{Transport: transport, Cost: cost(c)},
		FromID:     from,
		ToID:       to,
	}
}

func mustCity(t *testing.T, f *fixture, req models.CreateCityRequest) *models.City {
	t.Helper()
	c, err := f.svc.CreateCity(context.Background(), req)
	if err != nil {
		t.Fatalf("create city %s: %v", req.City, err)
	}
	return c
}

func mustRoute(t *testing.T, f *fixture, req models.CreateRouteRequest) *models.Route {
	t.Helper()
	r, err := f.svc.CreateRoute(context.Background(), req)
	if err != nil {
		t.Fatalf("create route %s->%s: %v", req.FromID, req.ToID, err)
	}
	return r
}
