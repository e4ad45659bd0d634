package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travelmap/itinerary-backend/internal/models"
)

func TestSumExpenses(t *testing.T) {
	cities := []models.City{
		{ID: "a", Spent: models.Expenses{{Title: "hostel", Cost: 100}, {Title: "food", Cost: 50}}},
		{ID: "b", Spent: models.Expenses{{Title: "tour", Cost: 200}}},
	}
	routes := []models.Route{{ID: "r", Cost: models.ParseCost("300")}}

	total := SumExpenses(cities, routes)

	assert.Equal(t, 650.0, total.Total)
	assert.Equal(t, 350.0, total.Cities)
	assert.Equal(t, 300.0, total.Routes)
}

func TestSumExpenses_NonNumericCountsAsZero(t *testing.T) {
	cities := []models.City{
		{ID: "a", Spent: models.Expenses{{Title: "?", Cost: models.ParseCost("lots")}, {Title: "ok", Cost: 10}}},
		{ID: "b"},
	}
	routes := []models.Route{{ID: "r", Cost: models.ParseCost(nil)}}

	assert.Equal(t, 10.0, SumExpenses(cities, routes).Total)
}

func TestSumExpenses_DecimalExact(t *testing.T) {
	cities := []models.City{
		{ID: "a", Spent: models.Expenses{{Cost: 0.1}, {Cost: 0.2}}},
	}

	assert.Equal(t, 0.3, SumExpenses(cities, nil).Total)
}

func TestExpenseService_TotalSpentReadsStore(t *testing.T) {
	store := newMemStore()
	store.cities = []models.City{
		{ID: "a", Spent: models.Expenses{{Cost: 100}, {Cost: 50}}},
		{ID: "b", Spent: models.Expenses{{Cost: 200}}},
	}
	store.routes = []models.Route{{ID: "r", FromID: "a", ToID: "b", Cost: models.ParseCost("300")}}

	svc := NewExpenseService(fakeCityRepo{store}, fakeRouteRepo{store}, testMetrics())

	total, err := svc.TotalSpent(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 650.0, total.Total)
	assert.Equal(t, 1, store.callCount("city.list"))
	assert.Equal(t, 1, store.callCount("route.list"))
}

func TestExpenseService_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.failOn("route.list", errors.New("connection reset"))

	svc := NewExpenseService(fakeCityRepo{store}, fakeRouteRepo{store}, testMetrics())

	_, err := svc.TotalSpent(context.Background())
	var storeErr *StoreError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "list routes", storeErr.Op)
}
