// Command relink-routes fills in FromId/ToId on routes written by the first
// web client, which linked routes to cities by name only.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/travelmap/itinerary-backend/internal/config"
	"github.com/travelmap/itinerary-backend/internal/database"
)

func main() {
	var mongoURI, mongoDB string
	var dryRun bool
	flag.StringVar(&mongoURI, "mongodb-uri", "", "MongoDB connection string (overrides MONGODB_URI)")
	flag.StringVar(&mongoDB, "mongo-db", "", "MongoDB database name (overrides MONGO_DB)")
	flag.BoolVar(&dryRun, "dry-run", false, "report what would change without writing")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.MongoConfig{
		URI:      mongoURI,
		Database: mongoDB,
		User:     os.Getenv("MONGO_USER"),
		Password: os.Getenv("MONGO_PASSWORD"),
	}
	if cfg.URI == "" {
		cfg.URI = os.Getenv("MONGODB_URI")
	}
	if cfg.Database == "" {
		cfg.Database = os.Getenv("MONGO_DB")
	}
	if cfg.Database == "" {
		cfg.Database = "travelmap"
	}
	if cfg.URI == "" {
		log.Fatal("MONGODB_URI is not set and -mongodb-uri was not provided")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	client, err := database.NewMongoClient(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to mongodb: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(cfg.Database)
	cities := database.NewMongoCityRepository(db)
	routes := database.NewMongoRouteRepository(db)

	unlinked, err := routes.FindUnlinked(ctx)
	if err != nil {
		log.Fatalf("failed to list unlinked routes: %v", err)
	}
	fmt.Printf("Found %d routes without city ids.\n", len(unlinked))

	ids := map[string]string{}
	lookup := func(name string) (string, error) {
		if id, ok := ids[name]; ok {
			return id, nil
		}
		matches, err := cities.FindByName(ctx, name)
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			ids[name] = ""
			return "", nil
		}
		// Duplicate names resolve to the oldest city
		ids[name] = matches[0].ID
		return matches[0].ID, nil
	}

	var relinked, unresolved int
	for _, route := range unlinked {
		fromID := route.FromID
		if fromID == "" {
			if fromID, err = lookup(route.From); err != nil {
				log.Fatalf("failed to look up city %q: %v", route.From, err)
			}
		}
		toID := route.ToID
		if toID == "" {
			if toID, err = lookup(route.To); err != nil {
				log.Fatalf("failed to look up city %q: %v", route.To, err)
			}
		}

		if fromID == "" || toID == "" {
			unresolved++
			fmt.Printf("  %s: cannot resolve %q -> %q\n", route.ID, route.From, route.To)
			continue
		}

		if !dryRun {
			if err := routes.Relink(ctx, route.ID, fromID, toID); err != nil {
				log.Fatalf("failed to relink route %s: %v", route.ID, err)
			}
		}
		relinked++
	}

	verb := "Relinked"
	if dryRun {
		verb = "Would relink"
	}
	fmt.Printf("%s %d routes, %d left unresolved.\n", verb, relinked, unresolved)
}
