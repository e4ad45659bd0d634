package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/travelmap/itinerary-backend/internal/database"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// SumExpenses adds every city expense and every route cost
func SumExpenses(cities []models.City, routes []models.Route) models.ExpenseTotal {
	citySum := decimal.Zero
	for _, c := range cities {
		for _, e := range c.Spent {
			citySum = citySum.Add(e.Cost.Decimal())
		}
	}

	routeSum := decimal.Zero
	for _, r := range routes {
		routeSum = routeSum.Add(r.Cost.Decimal())
	}

	return models.ExpenseTotal{
		Total:  citySum.Add(routeSum).InexactFloat64(),
		Cities: citySum.InexactFloat64(),
		Routes: routeSum.InexactFloat64(),
	}
}

// ExpenseService recomputes the total spent from the store on every call,
// so it never depends on the in-memory mirror being right
type ExpenseService struct {
	cities  database.CityRepository
	routes  database.RouteRepository
	metrics *metrics.Metrics
}

// NewExpenseService creates a new expense service
func NewExpenseService(cities database.CityRepository, routes database.RouteRepository, m *metrics.Metrics) *ExpenseService {
	return &ExpenseService{cities: cities, routes: routes, metrics: m}
}

// TotalSpent fetches all cities and routes and sums their costs
func (s *ExpenseService) TotalSpent(ctx context.Context) (models.ExpenseTotal, error) {
	start := time.Now()
	defer func() {
		s.metrics.RecomputeTime.Observe(time.Since(start).Seconds())
	}()

	var cities []models.City
	var routes []models.Route

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if cities, err = s.cities.List(gctx); err != nil {
			s.metrics.StoreErrors.WithLabelValues("list_cities").Inc()
			return &StoreError{Op: "list cities", Err: err}
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if routes, err = s.routes.List(gctx); err != nil {
			s.metrics.StoreErrors.WithLabelValues("list_routes").Inc()
			return &StoreError{Op: "list routes", Err: err}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return models.ExpenseTotal{}, err
	}

	return SumExpenses(cities, routes), nil
}
