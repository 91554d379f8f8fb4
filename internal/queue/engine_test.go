package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// captureSink records every published event for assertions.
type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Publish(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *captureSink) byType(t EventType) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, ev := range c.events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func newTestEngine(t *testing.T, cfg Config) (*Engine, *captureSink) {
	t.Helper()
	sink := &captureSink{}
	eng := New(cfg, sink)
	t.Cleanup(eng.Close)
	return eng, sink
}

func mustBook(t *testing.T, eng *Engine, doctorID uuid.UUID, at time.Time, name string) Appointment {
	t.Helper()
	res, err := eng.Book(context.Background(), Patient{ID: uuid.New(), Name: name, Registered: true}, doctorID, at)
	if err != nil {
		t.Fatalf("book %s: %v", name, err)
	}
	return res.Appointment
}

// serials reads the live ordering for a doctor.
func serials(eng *Engine, doctorID uuid.UUID) []int {
	eng.store.mu.RLock()
	defer eng.store.mu.RUnlock()
	var out []int
	for _, token := range eng.store.queues[doctorID] {
		out = append(out, eng.store.byToken[token].Serial)
	}
	return out
}

func orderedTokens(eng *Engine, doctorID uuid.UUID) []int64 {
	eng.store.mu.RLock()
	defer eng.store.mu.RUnlock()
	out := make([]int64, len(eng.store.queues[doctorID]))
	copy(out, eng.store.queues[doctorID])
	return out
}

// checkSerialInvariant asserts the entry at index i carries serial i+1.
func checkSerialInvariant(t *testing.T, eng *Engine, doctorID uuid.UUID) {
	t.Helper()
	for i, s := range serials(eng, doctorID) {
		if s != i+1 {
			t.Fatalf("serial invariant broken: index %d has serial %d", i, s)
		}
	}
}
