package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricedrop/notifier/internal/service"
)

// ScanWorker runs the price scan cycle on a fixed interval.
type ScanWorker struct {
	scanService *service.ScanService
	interval    time.Duration
}

// NewScanWorker constructs a ScanWorker.
func NewScanWorker(scanService *service.ScanService, interval time.Duration) *ScanWorker {
	return &ScanWorker{
		scanService: scanService,
		interval:    interval,
	}
}

// Start runs one cycle immediately, then repeats on the interval until the
// context is cancelled.
func (w *ScanWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting scan worker")

	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Scan worker stopped")
			return
		}
	}
}

func (w *ScanWorker) run(ctx context.Context) {
	if _, err := w.scanService.RunCycle(ctx); err != nil {
		log.Error().Err(err).Msg("Scan cycle failed")
	}
}
