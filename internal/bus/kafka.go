package bus

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/pricedrop/notifier/internal/models"
)

// KafkaPublisher writes price-drop events to the configured topic, keyed by
// product ID so all drops for one product land on the same partition.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher constructs a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
		},
	}
}

// PublishPriceDrop emits one event. Serialization failures are permanent and
// returned immediately; broker errors surface to the caller, which treats the
// cycle's detection as lost and lets the next cycle re-detect.
func (p *KafkaPublisher) PublishPriceDrop(ctx context.Context, ev *models.PriceDropEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.ProductID),
		Value: payload,
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KafkaConsumer reads price-drop events and hands them to a Handler. Offsets
// are committed only after the handler returns, so a crash mid-dispatch
// redelivers the event (at-least-once).
type KafkaConsumer struct {
	reader *kafka.Reader
}

// NewKafkaConsumer constructs a consumer group reader for the topic.
func NewKafkaConsumer(brokers []string, topic, groupID string) *KafkaConsumer {
	return &KafkaConsumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers: brokers,
			Topic:   topic,
			GroupID: groupID,
		}),
	}
}

// Run consumes until the context is canceled. Malformed messages are logged
// and committed (skipped); handler errors leave the message uncommitted for
// redelivery.
func (c *KafkaConsumer) Run(ctx context.Context, handle Handler) {
	log.Info().Str("topic", c.reader.Config().Topic).Msg("Starting price drop consumer")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("Price drop consumer stopped")
				return
			}
			log.Error().Err(err).Msg("Failed to fetch message, retrying")
			time.Sleep(time.Second)
			continue
		}

		var ev models.PriceDropEvent
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			log.Error().Err(err).Msg("Skipping malformed price drop event")
			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				log.Error().Err(err).Msg("Failed to commit skipped message")
			}
			continue
		}

		if err := handle(ctx, &ev); err != nil {
			// Leave uncommitted; the bus owns redelivery scheduling.
			log.Error().Err(err).Str("product_id", ev.ProductID).Msg("Price drop handling failed, leaving for redelivery")
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Msg("Failed to commit message")
		}
	}
}

// Close closes the underlying reader.
func (c *KafkaConsumer) Close() error {
	return c.reader.Close()
}
