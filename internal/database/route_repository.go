package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelmap/itinerary-backend/internal/models"
)

const routeColumns = `id, from_id, to_id, transport, cost, note`

// PostgresRouteRepository handles route database operations
type PostgresRouteRepository struct {
	db DB
}

// NewPostgresRouteRepository creates a new route repository
func NewPostgresRouteRepository(db DB) *PostgresRouteRepository {
	return &PostgresRouteRepository{db: db}
}

// Create inserts a route with a fresh UUID
func (r *PostgresRouteRepository) Create(ctx context.Context, route *models.Route) error {
	id := uuid.NewString()

	query := `
		INSERT INTO routes (id, from_id, to_id, transport, cost, note)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		id, route.FromID, route.ToID, string(route.Transport), route.Cost, route.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}

	route.ID = id
	return nil
}

// Update rewrites transport, cost and note
func (r *PostgresRouteRepository) Update(ctx context.Context, route *models.Route) error {
	query := `
		UPDATE routes
		SET transport = $2, cost = $3, note = $4, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		route.ID, string(route.Transport), route.Cost, route.Note,
	)
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}
	return expectOneRow(result, "update route")
}

// Delete removes a route row
func (r *PostgresRouteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	return expectOneRow(result, "delete route")
}

// Get retrieves a route by ID
func (r *PostgresRouteRepository) Get(ctx context.Context, id string) (*models.Route, error) {
	var route models.Route
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`

	if err := r.db.GetContext(ctx, &route, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

// List returns every route in insertion order
func (r *PostgresRouteRepository) List(ctx context.Context) ([]models.Route, error) {
	routes := []models.Route{}
	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &routes, query); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// FindBy returns the routes whose endpoint column equals value
func (r *PostgresRouteRepository) FindBy(ctx context.Context, field RouteField, value string) ([]models.Route, error) {
	var column string
	switch field {
	case RouteFromID:
		column = "from_id"
	case RouteToID:
		column = "to_id"
	default:
		return nil, fmt.Errorf("unsupported route field: %s", field)
	}

	routes := []models.Route{}
	query := `SELECT ` + routeColumns + ` FROM routes WHERE ` + column + ` = $1 ORDER BY created_at, id`
	if err := r.db.SelectContext(ctx, &routes, query, value); err != nil {
		return nil, fmt.Errorf("failed to find routes by %s: %w", field, err)
	}
	return routes, nil
}

// DeleteAll empties the table
func (r *PostgresRouteRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM routes`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete routes: %w", err)
	}
	return result.RowsAffected()
}
