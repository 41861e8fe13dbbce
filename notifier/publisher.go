package notifier

import (
	"context"
	"errors"
	"sync"
	"time"
)

const (
	EventOrderCreated  = "order_created"
	EventPinGenerated  = "pin_generated"
	EventAuthenticate  = "authenticate"
	EventAuthenticated = "authenticated"
)

// Message is the envelope every subscriber receives.
type Message struct {
	Timestamp time.Time   `json:"timestamp"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
}

func NewMessage(topic string, payload interface{}) Message {
	return Message{
		Timestamp: time.Now().UTC(),
		Event:     topic,
		Data:      payload,
	}
}

// EventPublisher is a publish-only channel. Publish gives no delivery
// guarantee; callers treat errors as log-and-continue.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload interface{}) error
}

// FanOut publishes to every member and joins their errors.
type FanOut []EventPublisher

func (f FanOut) Publish(ctx context.Context, topic string, payload interface{}) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, topic, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, string, interface{}) error { return nil }

// Recorder keeps published events in memory. Err, when set, is returned from
// every Publish after recording.
type Recorder struct {
	mu     sync.Mutex
	Events []Message
	Err    error
}

func (r *Recorder) Publish(_ context.Context, topic string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, NewMessage(topic, payload))
	return r.Err
}

// Topic returns the recorded events for topic in publish order.
func (r *Recorder) Topic(topic string) []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Message
	for _, m := range r.Events {
		if m.Event == topic {
			out = append(out, m)
		}
	}
	return out
}
