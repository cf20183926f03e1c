package main

import (
	"log"
	"net/http"

	"private-spaces-backend/pkg/config"
	"private-spaces-backend/pkg/database"
	"private-spaces-backend/pkg/router"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	var logger *zap.Logger
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	db := database.NewDatabase(database.DatabaseConfig{
		UseMemoryDB: cfg.UseMemoryDB,
		PostgresDSN: cfg.PostgresDSN,
	})
	defer db.Close()

	if err := db.HealthCheck(); err != nil {
		logger.Fatal("database health check failed", zap.Error(err))
	}

	mux := router.New(cfg, db, logger)

	addr := ":" + cfg.Port
	logger.Info("server listening",
		zap.String("addr", addr),
		zap.String("environment", cfg.Environment),
		zap.Bool("memory_db", cfg.UseMemoryDB))

	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
