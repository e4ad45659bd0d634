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

var routeFieldKeys = map[RouteField]string{
	RouteFromID: "FromId",
	RouteToID:   "ToId",
}

// MongoRouteRepository stores routes in the Routes collection
type MongoRouteRepository struct {
	collection *mongo.Collection
}

// NewMongoRouteRepository creates a new route repository
func NewMongoRouteRepository(db *mongo.Database) *MongoRouteRepository {
	return &MongoRouteRepository{collection: db.Collection(RoutesCollection)}
}

// EnsureIndexes creates the endpoint indexes used by cascade deletion
func (r *MongoRouteRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "FromId", Value: 1}}},
		{Keys: bson.D{{Key: "ToId", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create route indexes: %w", err)
	}
	return nil
}

// Create inserts a route. Only the endpoint ids are persisted.
func (r *MongoRouteRepository) Create(ctx context.Context, route *models.Route) error {
	doc := *route
	doc.ID = primitive.NewObjectID().Hex()
	doc.From, doc.To = "", ""

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create route: %w", err)
	}

	route.ID = doc.ID
	return nil
}

// Update rewrites transport, cost and note
func (r *MongoRouteRepository) Update(ctx context.Context, route *models.Route) error {
	result, err := r.collection.UpdateOne(ctx, idFilter(route.ID), bson.M{"$set": bson.M{
		"Transport": route.Transport,
		"Cost":      route.Cost,
		"Note":      route.Note,
	}})
	if err != nil {
		return fmt.Errorf("failed to update route: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a route document
func (r *MongoRouteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.collection.DeleteOne(ctx, idFilter(id))
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Get retrieves a route by ID
func (r *MongoRouteRepository) Get(ctx context.Context, id string) (*models.Route, error) {
	var route models.Route
	if err := r.collection.FindOne(ctx, idFilter(id)).Decode(&route); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}
	return &route, nil
}

// List returns every route
func (r *MongoRouteRepository) List(ctx context.Context) ([]models.Route, error) {
	return r.find(ctx, "list routes", bson.M{})
}

// FindBy returns the routes whose endpoint field equals value
func (r *MongoRouteRepository) FindBy(ctx context.Context, field RouteField, value string) ([]models.Route, error) {
	key, ok := routeFieldKeys[field]
	if !ok {
		return nil, fmt.Errorf("unsupported route field: %s", field)
	}
	return r.find(ctx, "find routes by "+string(field), bson.M{key: value})
}

// FindUnlinked returns routes that still carry only From/To names
func (r *MongoRouteRepository) FindUnlinked(ctx context.Context) ([]models.Route, error) {
	return r.find(ctx, "find unlinked routes", bson.M{"$or": bson.A{
		bson.M{"FromId": bson.M{"$exists": false}},
		bson.M{"ToId": bson.M{"$exists": false}},
	}})
}

// Relink sets the endpoint ids of a legacy route
func (r *MongoRouteRepository) Relink(ctx context.Context, id, fromID, toID string) error {
	result, err := r.collection.UpdateOne(ctx, idFilter(id), bson.M{"$set": bson.M{
		"FromId": fromID,
		"ToId":   toID,
	}})
	if err != nil {
		return fmt.Errorf("failed to relink route: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll empties the collection
func (r *MongoRouteRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to delete routes: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *MongoRouteRepository) find(ctx context.Context, op string, filter bson.M) ([]models.Route, error) {
	cursor, err := r.collection.Find(ctx, filter, byInsertion())
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	routes := []models.Route{}
	if err := cursor.All(ctx, &routes); err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return routes, nil
}
