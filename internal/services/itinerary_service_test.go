package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelmap/itinerary-backend/internal/models"
	"github.com/travelmap/itinerary-backend/pkg/validator"
)

func TestItineraryService_CreateCityRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created := mustCity(t, f, cityReq("Lima", "2025-02-01", "2025-02-04", 30, 12))
	bare := mustCity(t, f, cityReq("Cusco", "", ""))

	stored, err := fakeCityRepo{f.store}.List(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	assert.Equal(t, *created, stored[0])
	assert.Equal(t, *bare, stored[1])
	assert.Equal(t, models.NewCoords(10, 20), stored[0].Coords)
	assert.NotNil(t, stored[1].Spent)
	assert.Empty(t, stored[1].Spent)
}

func TestItineraryService_CreateCityValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   models.CreateCityRequest
		field string
		err   error
	}{
		{"blank name", cityReq("  ", "", ""), "city", validator.ErrEmptyName},
		{"bad date", cityReq("A", "10/03/2025", ""), "stay", validator.ErrInvalidDate},
		{"stay order", cityReq("A", "2025-03-10", "2025-03-01"), "stay", validator.ErrStayOrder},
		{"negative cost", cityReq("A", "", "", -5), "spent", validator.ErrNegativeCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateCity(ctx, tt.req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.field, vErr.Field)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	req := cityReq("A", "", "")
	req.Lat = ptr(91.0)
	_, err := f.svc.CreateCity(ctx, req)
	assert.ErrorIs(t, err, validator.ErrLatitudeRange)

	req = cityReq("A", "", "")
	req.Lng = nil
	_, err = f.svc.CreateCity(ctx, req)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "coords", vErr.Field)
	assert.ErrorIs(t, err, validator.ErrMissingCoords)

	assert.Zero(t, f.store.callCount("city.create"))
	assert.Empty(t, f.svc.Cities())
}

func TestItineraryService_CreateCityAtOrigin(t *testing.T) {
	f := newFixture(t)

	req := cityReq("Null Island", "", "")
	req.Lat, req.Lng = ptr(0.0), ptr(0.0)
	c := mustCity(t, f, req)

	assert.Equal(t, models.NewCoords(0, 0), c.Coords)
}

func TestItineraryService_CreateCityDropsBlankExpenseRows(t *testing.T) {
	f := newFixture(t)

	req := cityReq("A", "", "", 40)
	req.Spent = append(req.Spent, models.ExpenseInput{})
	c := mustCity(t, f, req)

	assert.Len(t, c.Spent, 1)
}

func TestItineraryService_StoreFailureLeavesMirror(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))

	f.store.failOn("city.create", errors.New("unavailable"))
	_, err := f.svc.CreateCity(ctx, cityReq("B", "", ""))
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "create_city", storeErr.Op)
	assert.Len(t, f.svc.Cities(), 1)

	f.store.failOn("city.update", errors.New("unavailable"))
	_, applied, err := f.svc.UpdateCity(ctx, a.ID, models.UpdateCityRequest{CityInput: models.CityInput{City: "Renamed"}})
	require.Error(t, err)
	assert.False(t, applied)
	got, _ := f.svc.City(a.ID)
	assert.Equal(t, "A", got.City)
}

func TestItineraryService_UpdateCity(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "2025-01-01", "2025-01-02", 10))

	update := models.UpdateCityRequest{CityInput: models.CityInput{
		City:    "Arequipa",
		StayIn:  "2025-01-03",
		StayOut: "2025-01-06",
		Spent:   []models.ExpenseInput{{Title: "canyon tour", Cost: cost(80)}},
	}}

	updated, applied, err := f.svc.UpdateCity(ctx, a.ID, update)
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, a.ID, updated.ID)
	assert.Equal(t, a.Coords, updated.Coords)
	assert.Equal(t, "Arequipa", updated.City)

	once, err := fakeCityRepo{f.store}.List(ctx)
	require.NoError(t, err)

	_, applied, err = f.svc.UpdateCity(ctx, a.ID, update)
	require.NoError(t, err)
	require.True(t, applied)

	twice, err := fakeCityRepo{f.store}.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestItineraryService_StaleIDsAreNoOps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, applied, err := f.svc.UpdateCity(ctx, "gone", models.UpdateCityRequest{CityInput: models.CityInput{City: "X"}})
	assert.NoError(t, err)
	assert.False(t, applied)

	deleted, applied, err := f.svc.DeleteCity(ctx, "gone")
	assert.NoError(t, err)
	assert.False(t, applied)
	assert.Empty(t, deleted)

	_, applied, err = f.svc.UpdateRoute(ctx, "gone", models.UpdateRouteRequest{RouteInput: models.RouteInput{Transport: models.TransportBus}})
	assert.NoError(t, err)
	assert.False(t, applied)

	applied, err = f.svc.DeleteRoute(ctx, "gone")
	assert.NoError(t, err)
	assert.False(t, applied)

	assert.Zero(t, f.store.callCount("city.update"))
	assert.Zero(t, f.store.callCount("city.delete"))
	assert.Zero(t, f.store.callCount("route.update"))
	assert.Zero(t, f.store.callCount("route.delete"))
}

func TestItineraryService_UpdateCityMissingFromStore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))

	// Removed behind the service's back
	f.store.cities = nil

	_, applied, err := f.svc.UpdateCity(ctx, a.ID, models.UpdateCityRequest{CityInput: models.CityInput{City: "B"}})
	require.NoError(t, err)
	assert.False(t, applied)
	_, ok := f.svc.City(a.ID)
	assert.False(t, ok)
}

func TestItineraryService_DeleteCityCascades(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))
	c := mustCity(t, f, cityReq("C", "", ""))
	ab := mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 10))
	bc := mustRoute(t, f, routeReq(b.ID, c.ID, models.TransportTrain, 20))
	ca := mustRoute(t, f, routeReq(c.ID, a.ID, models.TransportFlight, 30))

	deleted, applied, err := f.svc.DeleteCity(ctx, a.ID)
	require.NoError(t, err)
	require.True(t, applied)
	assert.ElementsMatch(t, []string{ab.ID, ca.ID}, deleted)

	assert.Equal(t, []string{b.ID, c.ID}, f.store.cityIDs())
	assert.Equal(t, []string{bc.ID}, f.store.routeIDs())

	routes := f.svc.Routes()
	require.Len(t, routes, 1)
	assert.Equal(t, bc.ID, routes[0].ID)
	_, ok := f.svc.City(a.ID)
	assert.False(t, ok)
}

func TestItineraryService_DeleteCityPartialFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))
	ab := mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 10))
	ba := mustRoute(t, f, routeReq(b.ID, a.ID, models.TransportBus, 10))

	f.store.failOn("route.delete."+ba.ID, errors.New("unavailable"))

	_, applied, err := f.svc.DeleteCity(ctx, a.ID)
	require.Error(t, err)
	assert.False(t, applied)

	_, ok := f.svc.City(a.ID)
	assert.True(t, ok, "city stays while a route still references it")
	_, ok = f.svc.Route(ba.ID)
	assert.True(t, ok)
	if _, ok := f.svc.Route(ab.ID); ok {
		assert.Contains(t, f.store.routeIDs(), ab.ID, "mirror keeps only routes still in the store")
	}
}

func TestItineraryService_CreateRoute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))

	r, err := f.svc.CreateRoute(ctx, routeReq(a.ID, b.ID, "비행기", 120))
	require.NoError(t, err)
	assert.Equal(t, models.TransportFlight, r.Transport)
	assert.Equal(t, "A", r.From)
	assert.Equal(t, "B", r.To)
	assert.Equal(t, models.Cost(120), r.Cost)

	_, err = f.svc.CreateRoute(ctx, routeReq(a.ID, a.ID, models.TransportBus, 0))
	assert.ErrorIs(t, err, ErrSameCity)

	_, err = f.svc.CreateRoute(ctx, routeReq(a.ID, "nowhere", models.TransportBus, 0))
	assert.ErrorIs(t, err, ErrCityNotFound)

	_, err = f.svc.CreateRoute(ctx, routeReq(a.ID, b.ID, "teleport", 0))
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "transport", vErr.Field)

	_, err = f.svc.CreateRoute(ctx, routeReq(a.ID, b.ID, models.TransportBus, -1))
	assert.ErrorIs(t, err, validator.ErrNegativeCost)

	assert.Equal(t, 1, f.store.callCount("route.create"))
}

func TestItineraryService_CreateRouteRespectsCityLock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))

	token, ok, err := f.locker.TryLock(ctx, LockKey("city", b.ID), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.CreateRoute(ctx, routeReq(a.ID, b.ID, models.TransportBus, 0))
	assert.ErrorIs(t, err, ErrOperationInProgress)
	assert.Zero(t, f.store.callCount("route.create"))

	require.NoError(t, f.locker.Unlock(ctx, LockKey("city", b.ID), token))
	mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 0))

	// Locks taken by a successful create are released
	_, ok, err = f.locker.TryLock(ctx, LockKey("city", a.ID), time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestItineraryService_UpdateRouteKeepsEndpoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))
	r := mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 10))

	updated, applied, err := f.svc.UpdateRoute(ctx, r.ID, models.UpdateRouteRequest{RouteInput: models.RouteInput{
		Transport: "night-bus",
		Cost:      cost(45),
		Note:      "overnight",
	}})
	require.NoError(t, err)
	require.True(t, applied)
	assert.Equal(t, a.ID, updated.FromID)
	assert.Equal(t, b.ID, updated.ToID)
	assert.Equal(t, models.TransportNightBus, updated.Transport)
	assert.Equal(t, "overnight", updated.Note)

	stored, err := fakeRouteRepo{f.store}.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.Cost(45), stored.Cost)
}

func TestItineraryService_RenameKeepsRoutesLinked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))
	r := mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 10))

	_, _, err := f.svc.UpdateCity(ctx, b.ID, models.UpdateCityRequest{CityInput: models.CityInput{City: "Bogotá"}})
	require.NoError(t, err)

	got, ok := f.svc.Route(r.ID)
	require.True(t, ok)
	assert.Equal(t, "Bogotá", got.To)

	view := f.svc.MapView()
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "Bogotá", view.Lines[0].To)
}

func TestItineraryService_DeleteRoute(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))
	r := mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 10))

	applied, err := f.svc.DeleteRoute(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Empty(t, f.svc.Routes())
	assert.Empty(t, f.store.routeIDs())
}

func TestItineraryService_RoutesForCity(t *testing.T) {
	f := newFixture(t)
	a := mustCity(t, f, cityReq("A", "", ""))
	b := mustCity(t, f, cityReq("B", "", ""))
	c := mustCity(t, f, cityReq("C", "", ""))
	ab := mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 0))
	ca := mustRoute(t, f, routeReq(c.ID, a.ID, models.TransportBus, 0))
	mustRoute(t, f, routeReq(b.ID, c.ID, models.TransportBus, 0))

	routes, err := f.svc.RoutesForCity(a.ID)
	require.NoError(t, err)
	var ids []string
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []string{ab.ID, ca.ID}, ids)

	_, err = f.svc.RoutesForCity("nowhere")
	assert.ErrorIs(t, err, ErrCityNotFound)
}

func TestItineraryService_MapViewSkipsUnresolvedRoutes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.cities = []models.City{{ID: "a", City: "A", Coords: models.NewCoords(-12, -77)}, {ID: "b", City: "B", Coords: models.NewCoords(-13, -72)}}
	f.store.routes = []models.Route{
		{ID: "ab", FromID: "a", ToID: "b", Transport: models.TransportTrain},
		{ID: "ax", FromID: "a", ToID: "x", Transport: models.TransportBus},
	}
	require.NoError(t, f.svc.Load(ctx))

	view := f.svc.MapView()

	assert.Len(t, view.Markers, 2)
	require.Len(t, view.Lines, 1)
	assert.Equal(t, "ab", view.Lines[0].ID)
	assert.Equal(t, "#000000", view.Lines[0].Color)
	assert.Equal(t, [2]models.Coords{models.NewCoords(-12, -77), models.NewCoords(-13, -72)}, view.Lines[0].Path)
	assert.Equal(t, models.MapPresets, view.Presets)
	assert.Equal(t, 2000, view.LongPress.MouseMS)
	assert.Equal(t, 1200, view.LongPress.TouchMS)
}

func TestItineraryService_Settle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustCity(t, f, cityReq("A", "2025-03-10", "2025-03-15", 100, 50))
	b := mustCity(t, f, cityReq("B", "2025-01-01", "2025-01-05", 200))
	mustCity(t, f, cityReq("C", "", ""))
	mustRoute(t, f, routeReq(a.ID, b.ID, models.TransportBus, 300))

	var result models.MutationResult
	f.svc.Settle(ctx, &result)

	assert.Equal(t, 650.0, result.TotalSpent)
	require.Len(t, result.Timeline, 2)
	assert.Equal(t, "B", result.Timeline[0].City)
	assert.Equal(t, "A", result.Timeline[1].City)
}

func TestItineraryService_SettleFallsBackToMirror(t *testing.T) {
	f := newFixture(t)
	mustCity(t, f, cityReq("A", "2025-03-10", "2025-03-15", 70))

	f.store.failOn("city.list", errors.New("unavailable"))
	var result models.MutationResult
	f.svc.Settle(context.Background(), &result)

	assert.Equal(t, 70.0, result.TotalSpent)
	assert.Len(t, result.Timeline, 1)
}

func TestItineraryService_LoadFailureKeepsMirror(t *testing.T) {
	f := newFixture(t)
	mustCity(t, f, cityReq("A", "", ""))

	f.store.failOn("route.list", errors.New("unavailable"))
	require.Error(t, f.svc.Load(context.Background()))
	assert.Len(t, f.svc.Cities(), 1)
}

func TestItineraryService_CitiesReturnsCopies(t *testing.T) {
	f := newFixture(t)
	mustCity(t, f, cityReq("A", "", "", 5))

	cities := f.svc.Cities()
	cities[0].City = "mutated"
	cities[0].Spent[0].Title = "mutated"

	again := f.svc.Cities()
	assert.Equal(t, "A", again[0].City)
	assert.Equal(t, "item 1", again[0].Spent[0].Title)
}
