package main

import (
	"context"
	"os"

	"github.com/safar/go-bookshop/internal/config"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/logging"
	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) < 2 {
		logrus.Fatal("Usage: migrate [up|down]")
	}

	direction := database.Direction(os.Args[1])
	if direction != database.Up && direction != database.Down {
		logrus.Fatal("Direction must be 'up' or 'down'")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Load config: %v", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("Build logger: %v", err)
	}

	db, err := database.NewConnection(&cfg.Database)
	if err != nil {
		log.WithError(err).Fatal("Connect to database")
	}
	defer db.Close()

	files, err := database.Migrate(context.Background(), db, direction)
	if err != nil {
		log.WithError(err).Fatal("Run migrations")
	}

	for _, f := range files {
		log.WithField("file", f).Info("Applied migration")
	}
	log.WithField("direction", direction).Info("Migrations completed successfully")
}
