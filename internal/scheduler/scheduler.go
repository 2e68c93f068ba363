// Package scheduler runs recurring intraday price ingestion on a cron spec.
package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/elbart/pecunia/internal/ingest"
)

// Scheduler manages the cron task for the watch command.
type Scheduler struct {
	Cron     *cron.Cron
	Ingester *ingest.Ingester
	Symbols  []string
	Ctx      context.Context
}

// New creates a Scheduler ingesting the given symbols.
func New(ctx context.Context, ing *ingest.Ingester, symbols []string) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Ingester: ing,
		Symbols:  symbols,
		Ctx:      ctx,
	}
}

// Register registers the ingestion task under the given cron spec.
func (s *Scheduler) Register(spec string) error {
	if len(s.Symbols) == 0 {
		return fmt.Errorf("no watch symbols configured")
	}
	if _, err := s.Cron.AddFunc(spec, s.ingestTask); err != nil {
		return fmt.Errorf("register ingest task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the ingestion task immediately (manual trigger).
func (s *Scheduler) RunNow() {
	s.ingestTask()
}

func (s *Scheduler) ingestTask() {
	log.Printf("[INFO] running intraday ingestion for %d symbols", len(s.Symbols))
	for _, symbol := range s.Symbols {
		observations, err := s.Ingester.Intraday(s.Ctx, symbol)
		if err != nil {
			log.Printf("[ERROR] ingest %s: %v", symbol, err)
			return
		}
		log.Printf("[INFO] ingested %d observations for %s", len(observations), symbol)
	}
}
