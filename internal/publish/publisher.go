// Package publish provides optional Kafka fan-out of processed transcription
// events. The store remains the durability boundary: publishing is
// best-effort and never fails the ingestion response.
package publish

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/John42506176Linux/voice-assist/internal/observability"
	"github.com/John42506176Linux/voice-assist/internal/resilience"
)

// Publisher publishes processed events to separate Kafka topics: stored
// utterances and partial (not yet finalized) results.
type Publisher struct {
	writerStored  *kafka.Writer
	writerPartial *kafka.Writer
	topicStored   string
	topicPartial  string
	enabled       bool
	breaker       *resilience.CircuitBreaker
	logger        zerolog.Logger
}

// Config holds Kafka publisher configuration.
type Config struct {
	Enabled      bool
	Brokers      []string
	TopicStored  string
	TopicPartial string
	MaxFailures  int
	ResetTimeout time.Duration
}

// New creates a Kafka publisher. With Enabled false or no brokers configured
// it runs in log-only mode and every publish is a successful no-op.
func New(cfg *Config, logger zerolog.Logger) *Publisher {
	if cfg == nil || !cfg.Enabled || len(cfg.Brokers) == 0 {
		logger.Info().Msg("Kafka disabled, publisher running in log-only mode")
		p := &Publisher{logger: logger}
		if cfg != nil {
			p.topicStored = cfg.TopicStored
			p.topicPartial = cfg.TopicPartial
		}
		return p
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	maxFailures := cfg.MaxFailures
	if maxFailures <= 0 {
		maxFailures = 5
	}
	resetTimeout := cfg.ResetTimeout
	if resetTimeout <= 0 {
		resetTimeout = 30 * time.Second
	}

	logger.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicStored", cfg.TopicStored).
		Str("topicPartial", cfg.TopicPartial).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerStored:  newWriter(cfg.TopicStored),
		writerPartial: newWriter(cfg.TopicPartial),
		topicStored:   cfg.TopicStored,
		topicPartial:  cfg.TopicPartial,
		enabled:       true,
		breaker:       resilience.NewCircuitBreaker("kafka", maxFailures, resetTimeout),
		logger:        logger,
	}
}

// PublishStored publishes a stored utterance keyed by its request ID.
func (p *Publisher) PublishStored(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerStored, p.topicStored, key, event)
}

// PublishPartial publishes a structurally valid but not yet finalized event.
func (p *Publisher) PublishPartial(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerPartial, p.topicPartial, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, key string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	p.logger.Debug().
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		observability.RecordPublish(topic, nil)
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "topic", Value: []byte(topic)},
		},
	}

	// The breaker sheds writes while the brokers are down so a dead Kafka
	// cannot slow down ingestion.
	err = p.breaker.Call(func() error {
		return writer.WriteMessages(ctx, msg)
	})
	observability.RecordPublish(topic, err)
	if err != nil {
		p.logger.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Str("breaker", p.breaker.GetState().String()).
			Msg("Failed to publish to Kafka")
		return err
	}

	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerStored != nil {
		if e := p.writerStored.Close(); e != nil {
			p.logger.Error().Err(e).Msg("Error closing stored-topic writer")
			err = e
		}
	}
	if p.writerPartial != nil {
		if e := p.writerPartial.Close(); e != nil {
			p.logger.Error().Err(e).Msg("Error closing partial-topic writer")
			err = e
		}
	}
	return err
}
