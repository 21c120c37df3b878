package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"
)

// Config for the kafka connection
type Config struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Producer mirrors audit events onto a kafka topic for the data warehouse.
// The database stays the system of record; a publish failure is logged and
// dropped.
type Producer struct {
	writer *kafkaGo.Writer
}

// NewProducer creates a kafka producer, nil when mirroring is disabled
func NewProducer(cfg Config) *Producer {
	if !cfg.Enabled {
		return nil
	}
	return &Producer{
		writer: &kafkaGo.Writer{
			Addr:         kafkaGo.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkaGo.LeastBytes{},
			BatchTimeout: 200 * time.Millisecond,
			Async:        true,
		},
	}
}

// Publish sends one event keyed by entity id
func (p *Producer) Publish(key string, event interface{}) {
	if p == nil {
		return
	}
	value, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).
			Str("section", "kafka").
			Str("action", "publish").
			Msg("Unable to encode event")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(key),
		Value: value,
	}); err != nil {
		log.Warn().Err(err).
			Str("section", "kafka").
			Str("action", "publish").
			Msg("Unable to mirror event")
	}
}

// Close flushes and closes the writer
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}
