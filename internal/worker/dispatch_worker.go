package worker

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/pricedrop/notifier/internal/bus"
	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/service"
)

// DispatchWorker consumes price-drop events and fans them out to
// subscribers. Events are committed only after a successful dispatch, so a
// crash mid-dispatch redelivers rather than drops.
type DispatchWorker struct {
	consumer        *bus.KafkaConsumer
	dispatchService *service.DispatchService
}

// NewDispatchWorker constructs a DispatchWorker.
func NewDispatchWorker(consumer *bus.KafkaConsumer, dispatchService *service.DispatchService) *DispatchWorker {
	return &DispatchWorker{
		consumer:        consumer,
		dispatchService: dispatchService,
	}
}

// Start blocks consuming events until the context is cancelled.
func (w *DispatchWorker) Start(ctx context.Context) {
	log.Info().Msg("Starting dispatch worker")
	w.consumer.Run(ctx, w.handle)
	log.Info().Msg("Dispatch worker stopped")
}

func (w *DispatchWorker) handle(ctx context.Context, ev *models.PriceDropEvent) error {
	_, err := w.dispatchService.Dispatch(ctx, ev)
	if err != nil {
		log.Error().Err(err).Str("product_id", ev.ProductID).Msg("Dispatch failed, event will be redelivered")
	}
	return err
}
