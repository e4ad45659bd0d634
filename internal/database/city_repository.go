package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/travelmap/itinerary-backend/internal/models"
)

const cityColumns = `id, name, coords, stay_in, stay_out, spent`

// PostgresCityRepository handles city database operations
type PostgresCityRepository struct {
	db DB
}

// NewPostgresCityRepository creates a new city repository
func NewPostgresCityRepository(db DB) *PostgresCityRepository {
	return &PostgresCityRepository{db: db}
}

// Create inserts a city with a fresh UUID
func (r *PostgresCityRepository) Create(ctx context.Context, city *models.City) error {
	id := uuid.NewString()
	city.Spent = city.Spent.OrEmpty()

	query := `
		INSERT INTO cities (id, name, coords, stay_in, stay_out, spent)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.ExecContext(ctx, query,
		id, city.City, city.Coords, city.StayIn, city.StayOut, city.Spent,
	)
	if err != nil {
		return fmt.Errorf("failed to create city: %w", err)
	}

	city.ID = id
	return nil
}

// Update rewrites name, stay dates and expenses
func (r *PostgresCityRepository) Update(ctx context.Context, city *models.City) error {
	city.Spent = city.Spent.OrEmpty()

	query := `
		UPDATE cities
		SET name = $2, stay_in = $3, stay_out = $4, spent = $5, updated_at = now()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		city.ID, city.City, city.StayIn, city.StayOut, city.Spent,
	)
	if err != nil {
		return fmt.Errorf("failed to update city: %w", err)
	}
	return expectOneRow(result, "update city")
}

// Delete removes a city row
func (r *PostgresCityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cities WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete city: %w", err)
	}
	return expectOneRow(result, "delete city")
}

// Get retrieves a city by ID
func (r *PostgresCityRepository) Get(ctx context.Context, id string) (*models.City, error) {
	var city models.City
	query := `SELECT ` + cityColumns + ` FROM cities WHERE id = $1`

	if err := r.db.GetContext(ctx, &city, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	city.Spent = city.Spent.OrEmpty()
	return &city, nil
}

// List returns every city in insertion order
func (r *PostgresCityRepository) List(ctx context.Context) ([]models.City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities ORDER BY created_at, id`
	return r.selectCities(ctx, "list cities", query)
}

// FindByName returns the cities with exactly this display name
func (r *PostgresCityRepository) FindByName(ctx context.Context, name string) ([]models.City, error) {
	query := `SELECT ` + cityColumns + ` FROM cities WHERE name = $1 ORDER BY created_at, id`
	return r.selectCities(ctx, "find cities by name", query, name)
}

// DeleteAll empties the table
func (r *PostgresCityRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cities`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cities: %w", err)
	}
	return result.RowsAffected()
}

func (r *PostgresCityRepository) selectCities(ctx context.Context, op, query string, args ...interface{}) ([]models.City, error) {
	cities := []models.City{}
	if err := r.db.SelectContext(ctx, &cities, query, args...); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	for i := range cities {
		cities[i].Spent = cities[i].Spent.OrEmpty()
	}
	return cities, nil
}

// expectOneRow maps "no row touched" to ErrNotFound
func expectOneRow(result sql.Result, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
