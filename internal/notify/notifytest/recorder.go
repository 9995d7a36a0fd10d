// Package notifytest captures published events in tests.
package notifytest

import (
	"context"
	"sync"
	"testing"

	"restaurant-backend/internal/notify"
)

type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
}

// Install replaces notify.Default with a Recorder until the test ends.
func Install(t *testing.T) *Recorder {
	t.Helper()
	r := &Recorder{}
	prev := notify.Default
	notify.Default = r
	t.Cleanup(func() { notify.Default = prev })
	return r
}

func (r *Recorder) Publish(_ context.Context, event notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Types returns the event types in publish order.
func (r *Recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}
