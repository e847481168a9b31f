package publish

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNew_DisabledMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
	}{
		{"nil config", nil},
		{"disabled", &Config{Enabled: false, Brokers: []string{"localhost:9092"}}},
		{"no brokers", &Config{Enabled: true, Brokers: []string{}}},
		{"nil brokers", &Config{Enabled: true, Brokers: nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(tt.cfg, zerolog.Nop())
			if p == nil {
				t.Fatal("Expected non-nil publisher")
			}
			if p.enabled {
				t.Error("Expected publisher to be disabled")
			}
			if p.writerStored != nil {
				t.Error("Expected nil stored-topic writer when disabled")
			}
			if p.writerPartial != nil {
				t.Error("Expected nil partial-topic writer when disabled")
			}
		})
	}
}

func TestNew_ConfigValues(t *testing.T) {
	cfg := &Config{
		Enabled:      false,
		Brokers:      []string{"localhost:9092"},
		TopicStored:  "test.stored",
		TopicPartial: "test.partial",
		MaxFailures:  3,
		ResetTimeout: time.Second,
	}

	p := New(cfg, zerolog.Nop())

	if p.topicStored != "test.stored" {
		t.Errorf("Expected stored topic 'test.stored', got %s", p.topicStored)
	}
	if p.topicPartial != "test.partial" {
		t.Errorf("Expected partial topic 'test.partial', got %s", p.topicPartial)
	}
}

func TestPublisher_PublishStored_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false}, zerolog.Nop())

	event := map[string]string{"transcript": "hello there"}
	if err := p.PublishStored(context.Background(), "abc123", event); err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
}

func TestPublisher_PublishPartial_Disabled(t *testing.T) {
	p := New(&Config{Enabled: false}, zerolog.Nop())

	event := map[string]string{"transcript": "hel"}
	if err := p.PublishPartial(context.Background(), "abc123", event); err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
}

func TestPublisher_Close_Disabled(t *testing.T) {
	p := New(nil, zerolog.Nop())
	if err := p.Close(); err != nil {
		t.Errorf("Expected no error closing disabled publisher, got %v", err)
	}
}

func TestPublisher_PublishUnmarshalable(t *testing.T) {
	p := New(nil, zerolog.Nop())

	if err := p.PublishStored(context.Background(), "k", make(chan int)); err == nil {
		t.Error("Expected marshal error for unencodable payload")
	}
}
