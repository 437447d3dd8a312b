package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vertigo/internal/config"
	database "vertigo/internal/db"
	"vertigo/internal/ingest"
	"vertigo/internal/storage"
)

func main() {
	repair := flag.Bool("repair", false, "Check published entries against storage, fix or unpublish, then exit")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Video Ingestion Worker...")

	// 1. Setup Configuration
	cfg := config.Load()

	// 2. Initialize Infrastructure
	store := storage.New(cfg)
	db := database.New(cfg) // Connect to Postgres

	// 3. Run Database Migrations
	db.AutoMigrate()

	worker := ingest.New(cfg, store, db)

	if *repair {
		worker.RepairCatalog()
		return
	}

	// 4. Setup Metrics
	ingest.RegisterMetrics()
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Printf("📊 Metrics exposed at http://localhost%s/metrics", cfg.Server.MetricsPort)
		log.Fatal(http.ListenAndServe(cfg.Server.MetricsPort, nil))
	}()

	// Ensure temp directory exists for processing
	os.MkdirAll(cfg.Server.TempDir, 0755)

	// 5. Start Worker
	worker.Run()
}
