package kafka

import (
	"context"
	"encoding/json"
	"net"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Publisher writes engine events to Kafka, one writer per topic, created
// lazily on first publish.
type Publisher struct {
	addr    net.Addr
	mu      sync.Mutex
	writers map[string]*kafka.Writer
}

func NewPublisher(brokers []string) *Publisher {
	return &Publisher{
		addr:    kafka.TCP(brokers...),
		writers: make(map[string]*kafka.Writer),
	}
}

func (p *Publisher) writer(topic string) *kafka.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.writers[topic]
	if !ok {
		w = &kafka.Writer{
			Addr:     p.addr,
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
		p.writers[topic] = w
	}
	return w
}

func (p *Publisher) Publish(topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer(topic).WriteMessages(
		context.Background(),
		kafka.Message{
			Value: data,
		},
	)
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for _, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
