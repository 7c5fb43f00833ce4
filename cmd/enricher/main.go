package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"CatalogEnricher/internal/app"
	"CatalogEnricher/internal/logger"
	"CatalogEnricher/pkg/config"
)

func main() {
	task := flag.String("task", "enrich", "Task to run: enrich, summarize, sync, or automatic")
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

	application, err := app.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatalf("Failed to initialise application: %v", err)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLogger.Infof("Running task: %s", *task)

	switch *task {
	case "enrich":
		err = application.RunEnrichment(ctx)

	case "summarize":
		err = application.RunSummarizer(ctx)

	case "sync":
		err = application.RunSync(ctx)

	case "automatic":
		err = application.RunAutomaticWorkflow(ctx)

	default:
		appLogger.Fatalf("Unknown task: %s", *task)
	}

	if err != nil {
		appLogger.Fatalf("Task %s failed: %v", *task, err)
	}
	appLogger.Infof("Task %s completed", *task)
}
