package main

import (
	"flag"
	"log"

	"CatalogEnricher/internal/database"
	"CatalogEnricher/internal/logger"
	"CatalogEnricher/internal/server"
	"CatalogEnricher/pkg/config"
)

func main() {
	configPath := flag.String("config", "settings.yaml", "Path to the settings file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger, err := logger.New(cfg.LogLevel, "logs")
	if err != nil {
		log.Fatalf("Failed to initialise logger: %v", err)
	}
	defer appLogger.Sync()

	repo, err := database.InitDB(cfg.CacheDB)
	if err != nil {
		appLogger.Fatalf("Failed to open local cache: %v", err)
	}
	defer repo.Close()

	if err := server.Start(repo, cfg, appLogger); err != nil {
		appLogger.Fatalf("Server stopped: %v", err)
	}
}
