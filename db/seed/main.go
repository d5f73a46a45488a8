package main

import (
	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/pkg/database"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

func main() {
	cfg := environments.Load()

	if err := logger.Init(cfg.Log.Level); err != nil {
		logger.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	defer func() {
		if err := db.Close(); err != nil {
			logger.Errorf("Failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	if err := database.SeedTestData(db); err != nil {
		logger.Fatalf("Failed to seed test data: %v", err)
	}

	logger.Infof("Seed completed successfully")
}
