package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/JerryYuan4733/ragflow-tyh/internal/config"
	"github.com/JerryYuan4733/ragflow-tyh/internal/database"
	"github.com/JerryYuan4733/ragflow-tyh/internal/engine"
	"github.com/JerryYuan4733/ragflow-tyh/internal/handler"
	"github.com/JerryYuan4733/ragflow-tyh/internal/pkg/redis"
)

func main() {
	// Load .env file if exists
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Redis cache is optional; services degrade to direct DB reads.
	cache, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Printf("Redis unavailable, continuing without cache: %v", err)
		cache = nil
	}

	// Remote engine client behind reloadable settings
	settings := config.NewEngineSettings(cfg.EngineBaseURL, cfg.EngineAPIKey)
	client := engine.NewClient(settings)

	// Setup router
	r := handler.SetupRouter(cfg, db, cache, settings, client)

	// Start server
	addr := cfg.Host + ":" + cfg.Port
	log.Printf("Knowledge base service starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
