package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/joseph-ayodele/fleet-tracker/internal/common"
)

// Writer is the subset of kafka.Writer we need.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes JSON events keyed by load ID, so events of one load stay ordered.
type KafkaPublisher struct {
	writer Writer
	logger *slog.Logger
}

func NewKafkaPublisher(broker, topic string, logger *slog.Logger) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(broker),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
	return NewKafkaPublisherWithWriter(w, logger)
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(w Writer, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// New returns a Kafka publisher, or Nop when no broker is configured.
func New(cfg common.KafkaConfig, logger *slog.Logger) Publisher {
	if cfg.Broker == "" {
		return Nop{}
	}
	return NewKafkaPublisher(cfg.Broker, cfg.Topic, logger)
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		p.logger.Error("events.marshal.failed", "key", key, "error", err)
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{Key: []byte(key), Value: b}
	if ev, ok := value.(Event); ok {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "event-type", Value: []byte(ev.Type)})
	}
	if id := common.RequestIDFromContext(ctx); id != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: "request-id", Value: []byte(id)})
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("events.publish.failed", "key", key, "error", err)
		return fmt.Errorf("publish event: %w", err)
	}
	p.logger.Debug("events.publish.ok", "key", key, "bytes", len(b))
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
