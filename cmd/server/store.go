package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/config"
	"github.com/travelmap/itinerary-backend/internal/database"
)

// storeHandle is the opened store with its repositories
type storeHandle struct {
	driver string
	cities database.CityRepository
	routes database.RouteRepository
	ping   func(ctx context.Context) error
	close  func()
}

func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*storeHandle, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverMongo:
		client, err := database.NewMongoClient(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		cities := database.NewMongoCityRepository(db)
		routes := database.NewMongoRouteRepository(db)
		disconnect := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				logger.WithError(err).Warn("Mongo disconnect failed")
			}
		}
		if err := prepareOrClose(ctx, disconnect, cities.EnsureIndexes, routes.EnsureIndexes); err != nil {
			return nil, err
		}
		return &storeHandle{
			driver: cfg.Store.Driver,
			cities: cities,
			routes: routes,
			ping:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:  disconnect,
		}, nil

	case config.StoreDriverPostgres:
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		ensureSchema := func(ctx context.Context) error { return database.EnsureSchema(ctx, db) }
		if err := prepareOrClose(ctx, func() { db.Close() }, ensureSchema); err != nil {
			return nil, err
		}
		return &storeHandle{
			driver: cfg.Store.Driver,
			cities: database.NewPostgresCityRepository(db),
			routes: database.NewPostgresRouteRepository(db),
			ping:   db.PingContext,
			close:  func() { db.Close() },
		}, nil

	case config.StoreDriverMemory:
		mem := database.NewMemoryStore()
		logger.Warn("Using the in-memory store, nothing will survive a restart")
		return &storeHandle{
			driver: cfg.Store.Driver,
			cities: mem.Cities(),
			routes: mem.Routes(),
			ping:   func(context.Context) error { return nil },
			close:  func() {},
		}, nil
	}

	return nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
}

// prepareOrClose runs the setup steps in order and calls closeFn if one fails
func prepareOrClose(ctx context.Context, closeFn func(), steps ...func(context.Context) error) error {
	for _, step := range steps {
		if err := step(ctx); err != nil {
			closeFn()
			return err
		}
	}
	return nil
}
