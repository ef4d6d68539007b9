package events

import (
	"context"
	"sync"
)

// MemoryPublisher records published events in memory. Used by tests and
// broker-less local runs.
type MemoryPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent
}

type PublishedEvent struct {
	EventType    string
	Payload      []byte
	PartitionKey string
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(_ context.Context, eventType string, payload []byte, partitionKey string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, PublishedEvent{
		EventType:    eventType,
		Payload:      payload,
		PartitionKey: partitionKey,
	})
	return nil
}

// MemoryConsumer replays seeded messages once. Used by worker tests.
type MemoryConsumer struct {
	mu       sync.Mutex
	messages []Message
}

func NewMemoryConsumer() *MemoryConsumer { return &MemoryConsumer{} }

func (c *MemoryConsumer) Seed(msgs []Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msgs...)
}

func (c *MemoryConsumer) Poll(_ context.Context, max int) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if max <= 0 || max > len(c.messages) {
		max = len(c.messages)
	}
	out := c.messages[:max]
	c.messages = c.messages[max:]
	return out, nil
}
