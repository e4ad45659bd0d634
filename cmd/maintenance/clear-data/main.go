package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/travelmap/itinerary-backend/internal/config"
	"github.com/travelmap/itinerary-backend/internal/database"
)

func main() {
	var driver, dbURL, mongoURI, mongoDB string
	var yes bool
	flag.StringVar(&driver, "driver", "", "store driver, mongo or postgres (overrides STORE_DRIVER)")
	flag.StringVar(&dbURL, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&mongoURI, "mongodb-uri", "", "MongoDB connection string (overrides MONGODB_URI)")
	flag.StringVar(&mongoDB, "mongo-db", "", "MongoDB database name (overrides MONGO_DB)")
	flag.BoolVar(&yes, "yes", false, "skip the confirmation prompt")
	flag.Parse()

	// Try loading .env from current working directory (optional)
	// This avoids having to pass secrets on the command line.
	_ = godotenv.Load()

	driver = strings.ToLower(firstNonEmpty(driver, os.Getenv("STORE_DRIVER"), config.StoreDriverMongo))

	if !yes {
		fmt.Printf("This deletes every city and route in the %s store. Type 'yes' to continue: ", driver)
		var answer string
		_, _ = fmt.Scanln(&answer)
		if answer != "yes" {
			fmt.Println("Aborted.")
			return
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var cities database.CityRepository
	var routes database.RouteRepository

	switch driver {
	case config.StoreDriverMongo:
		cfg := config.MongoConfig{
			URI:      firstNonEmpty(mongoURI, os.Getenv("MONGODB_URI")),
			Database: firstNonEmpty(mongoDB, os.Getenv("MONGO_DB"), "travelmap"),
			User:     os.Getenv("MONGO_USER"),
			Password: os.Getenv("MONGO_PASSWORD"),
		}
		if cfg.URI == "" {
			log.Fatal("MONGODB_URI is not set and -mongodb-uri was not provided")
		}
		client, err := database.NewMongoClient(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to connect to mongodb: %v", err)
		}
		defer client.Disconnect(context.Background())
		db := client.Database(cfg.Database)
		cities = database.NewMongoCityRepository(db)
		routes = database.NewMongoRouteRepository(db)

	case config.StoreDriverPostgres:
		url := firstNonEmpty(dbURL, os.Getenv("DATABASE_URL"))
		if url == "" {
			log.Fatal("DATABASE_URL is not set and -database-url was not provided")
		}
		// Build minimal database config without loading full app config
		dbCfg := config.DatabaseConfig{
			URL:                url,
			MaxConnections:     5,
			MaxIdleConnections: 2,
		}
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		db, err := database.NewConnection(ctx, dbCfg, logger)
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()
		cities = database.NewPostgresCityRepository(db)
		routes = database.NewPostgresRouteRepository(db)

	default:
		log.Fatalf("unsupported driver %q", driver)
	}

	fmt.Println("Connected. Clearing data...")

	// Routes first: they reference cities
	deletedRoutes, err := routes.DeleteAll(ctx)
	if err != nil {
		log.Fatalf("failed to delete routes: %v", err)
	}
	deletedCities, err := cities.DeleteAll(ctx)
	if err != nil {
		log.Fatalf("failed to delete cities: %v", err)
	}

	fmt.Printf("Deleted %d routes and %d cities.\n", deletedRoutes, deletedCities)

	// Verify by listing what is left
	remainingCities, err := cities.List(ctx)
	if err != nil {
		fmt.Printf("  cities: error: %v\n", err)
	} else {
		fmt.Printf("  cities: %d\n", len(remainingCities))
	}
	remainingRoutes, err := routes.List(ctx)
	if err != nil {
		fmt.Printf("  routes: error: %v\n", err)
	} else {
		fmt.Printf("  routes: %d\n", len(remainingRoutes))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
