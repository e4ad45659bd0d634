package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/cache"
	"github.com/travelmap/itinerary-backend/internal/database"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
	"github.com/travelmap/itinerary-backend/pkg/validator"
	"golang.org/x/sync/errgroup"
)

// ItineraryService owns the in-memory mirror of cities and routes. Every
// mutation is written to the store first and mirrored only after the store
// confirms it. Operations addressed to an id missing from the mirror are
// silent no-ops.
type ItineraryService struct {
	cities    database.CityRepository
	routes    database.RouteRepository
	cascade   *CascadeDeleter
	expenses  *ExpenseService
	locker    cache.Locker
	lockTTL   time.Duration
	validator *validator.ItineraryValidator
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	mu        sync.RWMutex
	cityList  []models.City
	routeList []models.Route
}

// NewItineraryService creates a new itinerary service. The mirror is empty
// until Load is called.
func NewItineraryService(
	cities database.CityRepository,
	routes database.RouteRepository,
	locker cache.Locker,
	lockTTL time.Duration,
	m *metrics.Metrics,
	logger *logrus.Logger,
) *ItineraryService {
	return &ItineraryService{
		cities:    cities,
		routes:    routes,
		cascade:   NewCascadeDeleter(cities, routes, m, logger),
		expenses:  NewExpenseService(cities, routes, m),
		locker:    locker,
		lockTTL:   lockTTL,
		validator: validator.NewItineraryValidator(),
		metrics:   m,
		logger:    logger,
	}
}

// Expenses exposes the stateless expense aggregator
func (s *ItineraryService) Expenses() *ExpenseService {
	return s.expenses
}

// Load replaces the mirror with the store's current contents
func (s *ItineraryService) Load(ctx context.Context) error {
	var cities []models.City
	var routes []models.Route

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cities, err = s.cities.List(gctx)
		return s.storeErr("list_cities", err)
	})
	g.Go(func() error {
		var err error
		routes, err = s.routes.List(gctx)
		return s.storeErr("list_routes", err)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	s.cityList = cities
	s.routeList = routes
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"cities": len(cities),
		"routes": len(routes),
	}).Info("Itinerary loaded from store")
	return nil
}

// Cities returns a copy of every city in store order
func (s *ItineraryService) Cities() []models.City {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCities(s.cityList)
}

// City returns one city from the mirror
func (s *ItineraryService) City(id string) (*models.City, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.cityIndex(id)
	if i < 0 {
		return nil, false
	}
	c := cloneCity(s.cityList[i])
	return &c, true
}

// Routes returns every route with display names resolved from the current
// cities. Routes with an unresolvable endpoint keep empty names.
func (s *ItineraryService) Routes() []models.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolvedRoutes(func(models.Route) bool { return true })
}

// Route returns one route with names resolved
func (s *ItineraryService) Route(id string) (*models.Route, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.routeIndex(id)
	if i < 0 {
		return nil, false
	}
	r := s.resolve(s.routeList[i])
	return &r, true
}

// RoutesForCity returns the routes starting or ending at the city
func (s *ItineraryService) RoutesForCity(cityID string) ([]models.Route, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cityIndex(cityID) < 0 {
		return nil, ErrCityNotFound
	}
	return s.resolvedRoutes(func(r models.Route) bool { return r.Touches(cityID) }), nil
}

// DateTimeline derives the date-ordered stays from the mirror
func (s *ItineraryService) DateTimeline() []models.TimelineEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildDateTimeline(s.cityList)
}

// RouteTimeline derives the route-following timeline from the mirror
func (s *ItineraryService) RouteTimeline() models.RouteTimeline {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return BuildRouteTimeline(s.cityList, s.routeList)
}

// MapView builds markers and route lines. A route whose endpoint cannot be
// resolved is left out without error.
func (s *ItineraryService) MapView() models.MapView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := models.MapView{
		Markers:    make([]models.MapMarker, 0, len(s.cityList)),
		Lines:      make([]models.MapLine, 0, len(s.routeList)),
		Presets:    models.MapPresets,
		LongPress:  models.DefaultLongPress,
		Transports: models.TransportLegend(),
	}
	for _, c := range s.cityList {
		view.Markers = append(view.Markers, models.MapMarker{ID: c.ID, City: c.City, Coords: c.Coords})
	}
	for _, r := range s.routeList {
		fi, ti := s.cityIndex(r.FromID), s.cityIndex(r.ToID)
		if fi < 0 || ti < 0 {
			s.logger.WithField("route_id", r.ID).Debug("Route endpoint not found, not drawn")
			continue
		}
		from, to := s.cityList[fi], s.cityList[ti]
		view.Lines = append(view.Lines, models.MapLine{
			ID:        r.ID,
			FromID:    r.FromID,
			ToID:      r.ToID,
			From:      from.City,
			To:        to.City,
			Path:      [2]models.Coords{from.Coords, to.Coords},
			Transport: r.Transport,
			Color:     r.Transport.Color(),
		})
	}
	return view
}

// Settle recomputes the derived views after a mutation: the total spent
// from the store and the timeline from the mirror. If the store cannot be
// read the total falls back to the mirror.
func (s *ItineraryService) Settle(ctx context.Context, result *models.MutationResult) {
	result.Timeline = s.DateTimeline()

	total, err := s.expenses.TotalSpent(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Total spent recompute failed, using mirror")
		s.mu.RLock()
		total = SumExpenses(s.cityList, s.routeList)
		s.mu.RUnlock()
	}
	result.TotalSpent = total.Total
}

// CreateCity stores a new city at the given point and mirrors it
func (s *ItineraryService) CreateCity(ctx context.Context, req models.CreateCityRequest) (*models.City, error) {
	if req.Lat == nil || req.Lng == nil {
		return nil, invalid("coords", validator.ErrMissingCoords)
	}
	if err := s.validator.Coords(*req.Lat, *req.Lng); err != nil {
		return nil, invalid("coords", err)
	}
	city, err := s.cityFromInput(req.CityInput)
	if err != nil {
		return nil, err
	}
	city.Coords = models.NewCoords(*req.Lat, *req.Lng)

	if err := s.storeErr("create_city", s.cities.Create(ctx, &city)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cityList = append(s.cityList, city)
	s.mu.Unlock()

	s.metrics.Mutations.WithLabelValues("city", "create").Inc()
	out := cloneCity(city)
	return &out, nil
}

// UpdateCity rewrites name, dates and expenses. It reports false without
// touching the store when id is not in the mirror.
func (s *ItineraryService) UpdateCity(ctx context.Context, id string, req models.UpdateCityRequest) (*models.City, bool, error) {
	current, ok := s.City(id)
	if !ok {
		s.logger.WithField("city_id", id).Debug("Update of unknown city ignored")
		return nil, false, nil
	}

	updated, err := s.cityFromInput(req.CityInput)
	if err != nil {
		return nil, false, err
	}
	updated.ID = current.ID
	updated.Coords = current.Coords

	if err := s.cities.Update(ctx, &updated); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.forgetCity(id)
			return nil, false, nil
		}
		return nil, false, s.storeErr("update_city", err)
	}

	s.mu.Lock()
	if i := s.cityIndex(id); i >= 0 {
		s.cityList[i] = updated
	}
	s.mu.Unlock()

	s.metrics.Mutations.WithLabelValues("city", "update").Inc()
	out := cloneCity(updated)
	return &out, true, nil
}

// DeleteCity cascades to every route touching the city, then removes the
// city. Routes already deleted leave the mirror even when the cascade
// fails part way.
func (s *ItineraryService) DeleteCity(ctx context.Context, id string) ([]string, bool, error) {
	if _, ok := s.City(id); !ok {
		s.logger.WithField("city_id", id).Debug("Delete of unknown city ignored")
		return nil, false, nil
	}

	deleted, err := s.cascade.DeleteCity(ctx, id)

	s.mu.Lock()
	s.dropRoutes(deleted)
	if err == nil {
		if i := s.cityIndex(id); i >= 0 {
			s.cityList = append(s.cityList[:i], s.cityList[i+1:]...)
		}
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.WithError(err).WithField("city_id", id).Error("City delete failed")
		return deleted, false, err
	}

	s.metrics.Mutations.WithLabelValues("city", "delete").Inc()
	return deleted, true, nil
}

// CreateRoute links two existing, distinct cities. Both endpoint cities are
// locked for the duration so neither can be deleted underneath the write.
func (s *ItineraryService) CreateRoute(ctx context.Context, req models.CreateRouteRequest) (*models.Route, error) {
	if req.FromID == req.ToID {
		return nil, ErrSameCity
	}
	route, err := s.routeFromInput(req.RouteInput)
	if err != nil {
		return nil, err
	}
	route.FromID = req.FromID
	route.ToID = req.ToID

	release, err := s.lockCities(ctx, req.FromID, req.ToID)
	if err != nil {
		return nil, err
	}
	defer release()

	if _, ok := s.City(req.FromID); !ok {
		return nil, ErrCityNotFound
	}
	if _, ok := s.City(req.ToID); !ok {
		return nil, ErrCityNotFound
	}

	if err := s.storeErr("create_route", s.routes.Create(ctx, &route)); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.routeList = append(s.routeList, route)
	resolved := s.resolve(route)
	s.mu.Unlock()

	s.metrics.Mutations.WithLabelValues("route", "create").Inc()
	return &resolved, nil
}

// UpdateRoute rewrites transport, cost and note. Endpoints never change.
func (s *ItineraryService) UpdateRoute(ctx context.Context, id string, req models.UpdateRouteRequest) (*models.Route, bool, error) {
	current, ok := s.Route(id)
	if !ok {
		s.logger.WithField("route_id", id).Debug("Update of unknown route ignored")
		return nil, false, nil
	}

	updated, err := s.routeFromInput(req.RouteInput)
	if err != nil {
		return nil, false, err
	}
	updated.ID = current.ID
	updated.FromID = current.FromID
	updated.ToID = current.ToID

	if err := s.routes.Update(ctx, &updated); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.mu.Lock()
			s.dropRoutes([]string{id})
			s.mu.Unlock()
			return nil, false, nil
		}
		return nil, false, s.storeErr("update_route", err)
	}

	s.mu.Lock()
	if i := s.routeIndex(id); i >= 0 {
		s.routeList[i] = updated
	}
	resolved := s.resolve(updated)
	s.mu.Unlock()

	s.metrics.Mutations.WithLabelValues("route", "update").Inc()
	return &resolved, true, nil
}

// DeleteRoute removes a route from the store and the mirror
func (s *ItineraryService) DeleteRoute(ctx context.Context, id string) (bool, error) {
	if _, ok := s.Route(id); !ok {
		s.logger.WithField("route_id", id).Debug("Delete of unknown route ignored")
		return false, nil
	}

	if err := s.routes.Delete(ctx, id); err != nil && !errors.Is(err, database.ErrNotFound) {
		return false, s.storeErr("delete_route", err)
	}

	s.mu.Lock()
	s.dropRoutes([]string{id})
	s.mu.Unlock()

	s.metrics.Mutations.WithLabelValues("route", "delete").Inc()
	return true, nil
}

func (s *ItineraryService) cityFromInput(in models.CityInput) (models.City, error) {
	name, err := s.validator.Name(in.City)
	if err != nil {
		return models.City{}, invalid("city", err)
	}
	if err := s.validator.Stay(in.StayIn, in.StayOut); err != nil {
		return models.City{}, invalid("stay", err)
	}
	for _, row := range in.Spent {
		if row.Cost.Valid {
			if err := s.validator.Cost(row.Cost.Decimal); err != nil {
				return models.City{}, invalid("spent", err)
			}
		}
	}
	return models.City{
		City:    name,
		StayIn:  in.StayIn,
		StayOut: in.StayOut,
		Spent:   in.Expenses(),
	}, nil
}

func (s *ItineraryService) routeFromInput(in models.RouteInput) (models.Route, error) {
	transport := models.ParseTransport(string(in.Transport))
	if !transport.Known() {
		return models.Route{}, invalid("transport", errors.New("unknown transport mode"))
	}
	if in.Cost.Valid {
		if err := s.validator.Cost(in.Cost.Decimal); err != nil {
			return models.Route{}, invalid("cost", err)
		}
	}
	return models.Route{
		Transport: transport,
		Cost:      in.Cost.Cost(),
		Note:      in.Note,
	}, nil
}

// lockCities takes the per-city mutation locks in a fixed order
func (s *ItineraryService) lockCities(ctx context.Context, ids ...string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	if len(ids) == 2 && ids[1] < ids[0] {
		ids = []string{ids[1], ids[0]}
	}

	type heldLock struct{ key, token string }
	var held []heldLock
	release := func() {
		for _, h := range held {
			if err := s.locker.Unlock(context.WithoutCancel(ctx), h.key, h.token); err != nil {
				s.logger.WithError(err).WithField("key", h.key).Warn("Failed to release mutation lock")
			}
		}
	}
	for _, id := range ids {
		key := LockKey("city", id)
		token, ok, err := s.locker.TryLock(ctx, key, s.lockTTL)
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			s.metrics.GuardConflicts.WithLabelValues("city").Inc()
			return nil, ErrOperationInProgress
		}
		held = append(held, heldLock{key: key, token: token})
	}
	return release, nil
}

// LockKey is the mutation lock key for an entity
func LockKey(entity, id string) string {
	return cache.Key(entity, id)
}

func (s *ItineraryService) storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	s.metrics.StoreErrors.WithLabelValues(op).Inc()
	s.logger.WithError(err).WithField("operation", op).Error("Store operation failed")
	return &StoreError{Op: op, Err: err}
}

func (s *ItineraryService) forgetCity(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.cityIndex(id); i >= 0 {
		s.cityList = append(s.cityList[:i], s.cityList[i+1:]...)
	}
	s.logger.WithField("city_id", id).Warn("City missing from store, dropped from mirror")
}

// The helpers below expect mu to be held by the caller.

func (s *ItineraryService) cityIndex(id string) int {
	for i := range s.cityList {
		if s.cityList[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ItineraryService) routeIndex(id string) int {
	for i := range s.routeList {
		if s.routeList[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *ItineraryService) resolve(r models.Route) models.Route {
	r.From, r.To = "", ""
	if i := s.cityIndex(r.FromID); i >= 0 {
		r.From = s.cityList[i].City
	}
	if i := s.cityIndex(r.ToID); i >= 0 {
		r.To = s.cityList[i].City
	}
	return r
}

func (s *ItineraryService) resolvedRoutes(keep func(models.Route) bool) []models.Route {
	out := []models.Route{}
	for _, r := range s.routeList {
		if keep(r) {
			out = append(out, s.resolve(r))
		}
	}
	return out
}

func (s *ItineraryService) dropRoutes(ids []string) {
	if len(ids) == 0 {
		return
	}
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}
	kept := s.routeList[:0]
	for _, r := range s.routeList {
		if !gone[r.ID] {
			kept = append(kept, r)
		}
	}
	s.routeList = kept
}

func cloneCity(c models.City) models.City {
	c.Spent = append(models.Expenses{}, c.Spent...)
	return c
}

func cloneCities(in []models.City) []models.City {
	out := make([]models.City, len(in))
	for i, c := range in {
		out[i] = cloneCity(c)
	}
	return out
}
