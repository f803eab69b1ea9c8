package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/pricedrop/notifier/internal/bus"
	"github.com/pricedrop/notifier/internal/cache"
	"github.com/pricedrop/notifier/internal/extractor"
	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

// ScanService runs the periodic scan cycle: fetch every actively tracked
// product, extract its current price, compare against the stored baseline
// and publish a PriceDropEvent when the price fell.
type ScanService struct {
	productStore ProductStore
	fetcher      PageFetcher
	publisher    bus.Publisher
	lock         *cache.ScanLock

	cycleBudget time.Duration
	concurrency int
}

// NewScanService constructs a ScanService. lock may be nil, in which case
// cycles run without the cross-instance advisory lock.
func NewScanService(
	productStore ProductStore,
	fetcher PageFetcher,
	publisher bus.Publisher,
	lock *cache.ScanLock,
	cycleBudget time.Duration,
	concurrency int,
) *ScanService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ScanService{
		productStore: productStore,
		fetcher:      fetcher,
		publisher:    publisher,
		lock:         lock,
		cycleBudget:  cycleBudget,
		concurrency:  concurrency,
	}
}

// CycleReport summarizes one scan cycle.
type CycleReport struct {
	Checked  int  `json:"checked"`
	Drops    int  `json:"drops"`
	Failures int  `json:"failures"`
	Skipped  bool `json:"skipped"`
}

// RunCycle executes one full scan pass. It is safe to call concurrently;
// the advisory lock collapses overlapping cycles to one, and the
// conditional price write guarantees a single event per observed drop even
// when two cycles race past the lock.
func (s *ScanService) RunCycle(ctx context.Context) (*CycleReport, error) {
	if s.lock != nil {
		acquired, release, err := s.lock.TryAcquire(ctx)
		if err != nil {
			// The lock is best effort; a Redis outage must not stop scans.
			log.Warn().Err(err).Msg("Scan lock unavailable, proceeding without it")
		} else if !acquired {
			log.Info().Msg("Scan cycle already running elsewhere, skipping")
			return &CycleReport{Skipped: true}, nil
		} else {
			defer release()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cycleBudget)
	defer cancel()

	products, err := s.productStore.ListActivelyTracked(ctx)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	log.Info().Int("products", len(products)).Msg("Scan cycle started")

	var drops, failures, skipped int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range products {
		p := products[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				// Budget exhausted; leave the rest for the next cycle.
				atomic.AddInt64(&skipped, 1)
				return nil
			}
			dropped, err := s.checkProduct(gctx, &p)
			if err != nil {
				atomic.AddInt64(&failures, 1)
				log.Warn().Err(err).
					Str("product_id", p.ProductID).
					Str("url", p.URL).
					Msg("Product check failed")
			} else if dropped {
				atomic.AddInt64(&drops, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	report := &CycleReport{
		Checked:  len(products) - int(skipped),
		Drops:    int(drops),
		Failures: int(failures),
	}
	log.Info().
		Int("checked", report.Checked).
		Int("drops", report.Drops).
		Int("failures", report.Failures).
		Int64("deferred", skipped).
		Dur("elapsed", time.Since(started)).
		Msg("Scan cycle finished")
	return report, nil
}

// checkProduct fetches and compares a single product. It returns true when
// a price drop was recorded and published. A fetch or extraction failure
// still touches last_checked_at so the product keeps its place in the
// staleness ordering.
func (s *ScanService) checkProduct(ctx context.Context, p *models.Product) (bool, error) {
	// Scheduled checks render JavaScript (when the proxy is configured) so
	// SPA storefronts yield real prices; the slow path is fine off-request.
	content, err := s.fetcher.Fetch(ctx, p.URL, true)
	if err != nil {
		s.touch(ctx, p.ProductID)
		return false, err
	}

	obs, err := extractor.Extract(content, p.URL, p.Name)
	if err != nil {
		s.touch(ctx, p.ProductID)
		return false, err
	}

	name := p.Name
	if name == "" {
		name = obs.Name
	}

	// First observation or a currency change resets the baseline; no event
	// fires because old and new prices are not comparable.
	if p.LastKnownPrice == nil || p.Currency != obs.Currency {
		return false, s.updateQuiet(ctx, p, obs.Price, obs.Currency, name)
	}

	prev := *p.LastKnownPrice
	if obs.Price == prev {
		return false, s.productStore.TouchChecked(ctx, p.ProductID)
	}
	if obs.Price > prev {
		// Risen: move the baseline, stay quiet.
		return false, s.updateQuiet(ctx, p, obs.Price, obs.Currency, name)
	}

	// Drop. The conditional write must win before the event goes out so a
	// racing cycle observing the same drop cannot emit a duplicate.
	err = s.productStore.UpdatePrice(ctx, p.ProductID, p.LastKnownPrice, obs.Price, obs.Currency, name)
	if errors.Is(err, utils.ErrPriceConflict) {
		log.Info().
			Str("product_id", p.ProductID).
			Msg("Price already updated by a concurrent cycle, suppressing event")
		return false, nil
	}
	if err != nil {
		return false, err
	}

	ev := &models.PriceDropEvent{
		ProductID:   p.ProductID,
		ProductURL:  p.URL,
		ProductName: name,
		OldPrice:    prev,
		NewPrice:    obs.Price,
		Currency:    obs.Currency,
		DetectedAt:  time.Now().UTC(),
	}
	if err := s.publisher.PublishPriceDrop(ctx, ev); err != nil {
		// The write already landed; the drop is lost as a notification but
		// correct as state. Surface it loudly.
		log.Error().Err(err).
			Str("product_id", p.ProductID).
			Float64("old_price", prev).
			Float64("new_price", obs.Price).
			Msg("Price drop recorded but event publish failed")
		return false, err
	}

	log.Info().
		Str("product_id", p.ProductID).
		Float64("old_price", prev).
		Float64("new_price", obs.Price).
		Str("currency", obs.Currency).
		Str("strategy", string(obs.Strategy)).
		Msg("Price drop detected")
	return true, nil
}

// updateQuiet moves the stored baseline without emitting an event. Losing
// the conditional write to a concurrent cycle is not a failure here; the
// winner recorded an equally fresh observation.
func (s *ScanService) updateQuiet(ctx context.Context, p *models.Product, price float64, currency, name string) error {
	err := s.productStore.UpdatePrice(ctx, p.ProductID, p.LastKnownPrice, price, currency, name)
	if errors.Is(err, utils.ErrPriceConflict) {
		return nil
	}
	return err
}

func (s *ScanService) touch(ctx context.Context, productID string) {
	if err := s.productStore.TouchChecked(ctx, productID); err != nil {
		log.Warn().Err(err).Str("product_id", productID).Msg("TouchChecked failed")
	}
}
