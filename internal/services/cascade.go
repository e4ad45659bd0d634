package services

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/database"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// maxParallelRouteDeletes bounds concurrent route deletes in one cascade
const maxParallelRouteDeletes = 4

// CascadeDeleter removes a city together with every route touching it
type CascadeDeleter struct {
	cities  database.CityRepository
	routes  database.RouteRepository
	metrics *metrics.Metrics
	logger  *logrus.Logger
}

// NewCascadeDeleter creates a new cascade deleter
func NewCascadeDeleter(cities database.CityRepository, routes database.RouteRepository, m *metrics.Metrics, logger *logrus.Logger) *CascadeDeleter {
	return &CascadeDeleter{cities: cities, routes: routes, metrics: m, logger: logger}
}

// DeleteCity finds routes leaving and entering the city with two separate
// queries, deletes them, and only then deletes the city. The ids of routes
// that are gone from the store are returned even when a later step fails,
// so callers can drop them from their mirror. If any route delete fails
// the city is kept.
func (d *CascadeDeleter) DeleteCity(ctx context.Context, cityID string) ([]string, error) {
	routeIDs, err := d.findTouchingRoutes(ctx, cityID)
	if err != nil {
		return nil, err
	}

	deleted, err := d.deleteRoutes(ctx, routeIDs)
	d.metrics.CascadedRoutes.Add(float64(len(deleted)))
	if err != nil {
		return deleted, err
	}

	if err := d.cities.Delete(ctx, cityID); err != nil && !errors.Is(err, database.ErrNotFound) {
		d.metrics.StoreErrors.WithLabelValues("delete_city").Inc()
		return deleted, &StoreError{Op: "delete city", Err: err}
	}

	d.logger.WithFields(logrus.Fields{
		"city_id":        cityID,
		"deleted_routes": len(deleted),
	}).Info("City deleted with its routes")

	return deleted, nil
}

// findTouchingRoutes runs the FromId and ToId lookups concurrently and
// returns the distinct route ids in lookup order
func (d *CascadeDeleter) findTouchingRoutes(ctx context.Context, cityID string) ([]string, error) {
	fields := []database.RouteField{database.RouteFromID, database.RouteToID}
	results := make([][]string, len(fields))

	g, gctx := errgroup.WithContext(ctx)
	for i, field := range fields {
		g.Go(func() error {
			routes, err := d.routes.FindBy(gctx, field, cityID)
			if err != nil {
				d.metrics.StoreErrors.WithLabelValues("find_routes").Inc()
				return &StoreError{Op: "find routes by " + string(field), Err: err}
			}
			for _, r := range routes {
				results[i] = append(results[i], r.ID)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var ids []string
	for _, batch := range results {
		for _, id := range batch {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

// deleteRoutes deletes every id and joins before returning. A route that
// is already missing counts as deleted.
func (d *CascadeDeleter) deleteRoutes(ctx context.Context, ids []string) ([]string, error) {
	var mu sync.Mutex
	deleted := make([]string, 0, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelRouteDeletes)
	for _, id := range ids {
		g.Go(func() error {
			if err := d.routes.Delete(gctx, id); err != nil && !errors.Is(err, database.ErrNotFound) {
				d.metrics.StoreErrors.WithLabelValues("delete_route").Inc()
				return &StoreError{Op: "delete route " + id, Err: err}
			}
			mu.Lock()
			deleted = append(deleted, id)
			mu.Unlock()
			return nil
		})
	}
	err := g.Wait()
	return deleted, err
}
