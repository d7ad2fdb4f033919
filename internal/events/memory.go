package events

import (
	"context"
	"sync"

	"github.com/google/uuid"

	txcontext "deedledger/pkg/platform/tx"
)

// InMemoryPublisher records events in order. Default sink for dev and tests;
// tests assert against Events().
type InMemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewInMemoryPublisher() *InMemoryPublisher {
	return &InMemoryPublisher{}
}

func (p *InMemoryPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	// An aborted operation leaves no trace in the recorded stream.
	txcontext.OnRollback(ctx, func() { p.drop(event.ID) })
	return nil
}

func (p *InMemoryPublisher) drop(id uuid.UUID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].ID == id {
			p.events = append(p.events[:i], p.events[i+1:]...)
			return
		}
	}
}

// Events returns a copy of everything published so far, in publish order.
func (p *InMemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// OfType filters recorded events by type, preserving order.
func (p *InMemoryPublisher) OfType(t Type) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

func (p *InMemoryPublisher) Close() error {
	return nil
}
