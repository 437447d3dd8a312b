package main

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vertigo/internal/config"
	database "vertigo/internal/db"
	"vertigo/internal/slides"
	"vertigo/internal/storage"

	// Use an alias to prevent naming collisions with the 'server' variable
	apiserver "vertigo/internal/api/server"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Feed API Server...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	db := database.New(cfg)

	// 3. Run Database Migrations
	db.AutoMigrate()
	database.SeedAdminUser(db.DB)
	database.SeedEntries(db.DB)

	// 4. Storage
	store := storage.New(cfg)

	// 5. Curated slides (optional; feed works without a deck)
	deck := slides.NewDeck()
	if cfg.Feed.SlidesPath != "" {
		if err := deck.Load(cfg.Feed.SlidesPath); err != nil {
			log.Printf("⚠️ Slide deck failed to load: %v", err)
		}
	}

	// 6. Setup Metrics
	go func() {
		http.Handle("/_metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/_metrics", cfg.Server.MetricsPort)
		if err := http.ListenAndServe(cfg.Server.MetricsPort, nil); err != nil {
			log.Printf("⚠️ Metrics server error: %v", err)
		}
	}()

	// 7. Start Server
	srv := apiserver.New(cfg, db, store, deck)

	log.Printf("🚀 API Server starting on %s", cfg.Server.Port)
	if err := srv.Start(cfg.Server.Port); err != nil {
		log.Fatalf("❌ Server failed to start: %v", err)
	}
}
