package main

import (
	"context"
	"log"

	"medislot/internal/config"
	"medislot/internal/database"
	"medislot/internal/modules/reconciler"
	"medislot/internal/repository"
)

// One-shot reconciliation pass for operational use (external cron, manual
// cleanup after an incident). The API server runs the same sweep on its own
// timer; run this against a stopped server or accept that the row locks will
// make one of the two sweeps wait.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	bookingRepo := repository.NewBookingRepository(db)
	rec := reconciler.NewService(bookingRepo, nil, cfg.PendingTTL, cfg.BufferTTL)

	res, err := rec.RunSweep(context.Background())
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	log.Printf("sweep completed: failed_pending=%d released_buffered=%d", res.Failed, res.Released)
}
