// Package kafka streams audit events to a Kafka topic for external indexers.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kgo"

	"landgrid/internal/audit"
)

// Sink publishes audit events as JSON records keyed by plot id, so all
// transitions of one plot land in one partition in order.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New builds a Sink over an existing franz-go client.
func New(client *kgo.Client, topic string) *Sink {
	return &Sink{client: client, topic: topic}
}

// Dial connects a dedicated producer client to the given brokers.
func Dial(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(strconv.FormatUint(event.PlotID, 10)),
		Value: value,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}
