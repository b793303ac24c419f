package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"
	"github.com/wallet-lock-ledger/internal/config"
)

// CommittedEventProducer publishes committed-transaction events. Publishing is
// decoupled from the commit itself: a lost event never affects the ledger.
type CommittedEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewCommittedEventProducer creates a new producer and ensures the topic exists
func NewCommittedEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*CommittedEventProducer, error) {
	if cfg.CommittedTopic == "" {
		return nil, fmt.Errorf("kafka committed topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for committed event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.CommittedTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure committed topic %s exists: %w", cfg.CommittedTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.CommittedTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Using async for high throughput
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write messages asynchronously", "topic", cfg.CommittedTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote messages asynchronously", "topic", cfg.CommittedTopic, "count", len(messages))
			}
		},
	}

	return &CommittedEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.CommittedTopic,
	}, nil
}

func (p *CommittedEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal committed event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish committed event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish committed event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published committed event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *CommittedEventProducer) Close() error {
	p.logger.Info("Closing committed event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
