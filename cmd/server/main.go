package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/oivindh/raceday/internal/config"
	"github.com/oivindh/raceday/internal/db"
	"github.com/oivindh/raceday/internal/httpapi"
	"github.com/oivindh/raceday/internal/metrics"
	"github.com/oivindh/raceday/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("❌ config: %v", err)
	}

	pg := db.Connect(cfg.PostgresDSN)
	db.Migrate(pg)
	if cfg.Seed {
		db.Seed(pg)
	}

	metrics.Register()

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	hub := notify.NewHub()
	server := httpapi.NewServer(pg, hub, cfg.SessionTTL)

	log.Printf("🧭 raceday API running on %s", cfg.HTTPAddr)
	if err := http.ListenAndServe(cfg.HTTPAddr, corsMiddleware.Handler(server.Router())); err != nil {
		log.Fatalf("listener failed: %v", err)
	}
}
