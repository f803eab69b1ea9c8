package service

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricedrop/notifier/internal/mailer"
	"github.com/pricedrop/notifier/internal/models"
)

// DispatchService fans a price-drop event out to every active subscriber of
// the product. Each recipient is independent: one failed send never blocks
// or cancels the others.
type DispatchService struct {
	subStore SubscriptionStore
	sender   mailer.Sender

	publicBaseURL string
	sendTimeout   time.Duration
	maxAttempts   int
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(
	subStore SubscriptionStore,
	sender mailer.Sender,
	publicBaseURL string,
	sendTimeout time.Duration,
	maxAttempts int,
) *DispatchService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DispatchService{
		subStore:      subStore,
		sender:        sender,
		publicBaseURL: publicBaseURL,
		sendTimeout:   sendTimeout,
		maxAttempts:   maxAttempts,
	}
}

// DispatchReport summarizes one fan-out.
type DispatchReport struct {
	Subscribers int `json:"subscribers"`
	Sent        int `json:"sent"`
	Failed      int `json:"failed"`
}

// Dispatch looks up the current active subscribers for the event's product
// and sends each one a price-drop email. The subscriber list is read at
// dispatch time, not event time, so unsubscribes between detection and
// delivery are honored.
//
// It returns an error only when the subscriber lookup itself fails; that
// error propagates to the consumer, which leaves the event uncommitted for
// redelivery. Individual send failures are counted in the report.
func (s *DispatchService) Dispatch(ctx context.Context, ev *models.PriceDropEvent) (*DispatchReport, error) {
	subs, err := s.subStore.ActiveSubscribers(ctx, ev.ProductID)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}

	if len(subs) == 0 {
		log.Info().Str("product_id", ev.ProductID).Msg("Price drop has no active subscribers")
		return &DispatchReport{}, nil
	}

	var sent, failed int64
	var wg sync.WaitGroup
	for i := range subs {
		sub := subs[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.sendDrop(ctx, ev, &sub) {
				atomic.AddInt64(&sent, 1)
			} else {
				atomic.AddInt64(&failed, 1)
			}
		}()
	}
	wg.Wait()

	report := &DispatchReport{
		Subscribers: len(subs),
		Sent:        int(sent),
		Failed:      int(failed),
	}
	log.Info().
		Str("product_id", ev.ProductID).
		Int("subscribers", report.Subscribers).
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Msg("Price drop dispatched")
	return report, nil
}

// sendDrop delivers to one recipient with bounded retries.
func (s *DispatchService) sendDrop(ctx context.Context, ev *models.PriceDropEvent, sub *models.Subscription) bool {
	msg := mailer.BuildPriceDropEmail(
		ev.ProductName,
		ev.OldPrice,
		ev.NewPrice,
		ev.Currency,
		ev.ProductURL,
		s.unsubscribeURL(sub.UnsubscribeToken),
	)

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				log.Error().Err(ctx.Err()).
					Str("product_id", ev.ProductID).
					Str("email", sub.Email).
					Msg("Price drop email send abandoned")
				return false
			case <-time.After(time.Second << (attempt - 1)):
			}
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		err := s.sender.Send(sendCtx, sub.Email, msg)
		cancel()
		if err == nil {
			return true
		}
		lastErr = err
	}

	log.Error().Err(lastErr).
		Str("product_id", ev.ProductID).
		Str("email", sub.Email).
		Msg("Price drop email send failed")
	return false
}

func (s *DispatchService) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", s.publicBaseURL, url.QueryEscape(token))
}
