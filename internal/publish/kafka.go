package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/config"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// messageWriter is the part of *kafka.Writer the publisher uses
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends one JSON message per opportunity to the trade-learning topic.
// Messages are keyed by instrument so one instrument stays on one partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *logger.Logger
}

// NewKafkaPublisher creates a publisher from process config
func NewKafkaPublisher(cfg config.KafkaConfig, log *logger.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Gzip,
		MaxAttempts:  3,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: 10 * time.Second,
	}
	return newKafkaPublisher(writer, cfg.Topic, log), nil
}

func newKafkaPublisher(w messageWriter, topic string, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: log,
	}
}

// LogOpportunities publishes every record in one write
func (p *KafkaPublisher) LogOpportunities(ctx context.Context, opps []contracts.Opportunity) error {
	if len(opps) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(opps))
	for _, o := range opps {
		value, err := json.Marshal(o)
		if err != nil {
			return fmt.Errorf("marshal opportunity %s: %w", o.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(o.Instrument),
			Value: value,
			Time:  o.Timestamp,
			Headers: []kafka.Header{
				{Key: "run_id", Value: []byte(o.RunID)},
				{Key: "config_hash", Value: []byte(o.ConfigHash)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d opportunities to %s: %w", len(msgs), p.topic, err)
	}

	p.logger.WithFields(map[string]interface{}{
		"topic": p.topic,
		"count": len(msgs),
	}).Info("Published opportunities")

	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ contracts.OpportunityLogger = (*KafkaPublisher)(nil)
