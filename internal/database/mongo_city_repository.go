package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/travelmap/itinerary-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoCityRepository stores cities in the Cities collection
type MongoCityRepository struct {
	collection *mongo.Collection
}

// NewMongoCityRepository creates a new city repository
func NewMongoCityRepository(db *mongo.Database) *MongoCityRepository {
	return &MongoCityRepository{collection: db.Collection(CitiesCollection)}
}

// EnsureIndexes creates the name index used by legacy route relinking
func (r *MongoCityRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "City", Value: 1}}})
	if err != nil {
		return fmt.Errorf("failed to create city indexes: %w", err)
	}
	return nil
}

// Create inserts a city with a fresh ObjectID hex id
func (r *MongoCityRepository) Create(ctx context.Context, city *models.City) error {
	doc := *city
	doc.ID = primitive.NewObjectID().Hex()
	doc.Spent = doc.Spent.OrEmpty()

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create city: %w", err)
	}

	city.ID = doc.ID
	city.Spent = doc.Spent
	return nil
}

// Update rewrites name, stay dates and expenses
func (r *MongoCityRepository) Update(ctx context.Context, city *models.City) error {
	result, err := r.collection.UpdateOne(ctx, idFilter(city.ID), bson.M{"$set": bson.M{
		"City":     city.City,
		"Stay_in":  city.StayIn,
		"Stay_out": city.StayOut,
		"Spent":    city.Spent.OrEmpty(),
	}})
	if err != nil {
		return fmt.Errorf("failed to update city: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a city document
func (r *MongoCityRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("failed to delete city: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a city by ID
func (r *MongoCityRepository) Get(ctx context.Context, id string) (*models.City, error) {
	var city models.City
	if err := r.collection.FindOne(ctx, idFilter(id)).Decode(&city); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	city.Spent = city.Spent.OrEmpty()
	return &city, nil
}

// List returns every city
func (r *MongoCityRepository) List(ctx context.Context) ([]models.City, error) {
	return r.find(ctx, "list cities", bson.M{})
}

// FindByName returns the cities whose City field equals name
func (r *MongoCityRepository) FindByName(ctx context.Context, name string) ([]models.City, error) {
	return r.find(ctx, "find cities by name", bson.M{"City": name})
}

// DeleteAll empties the collection
func (r *MongoCityRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete cities: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MongoCityRepository) find(ctx context.Context, op string, filter bson.M) ([]models.City, error) {
	cursor, err := r.collection.Find(ctx, filter, byInsertion())
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	cities := []models.City{}
	if err := cursor.All(ctx, &cities); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	for i := range cities {
		cities[i].Spent = cities[i].Spent.OrEmpty()
	}
	return cities, nil
}
