// Package queue implements the in-memory outpatient queue scheduling engine:
// token issuance, per-doctor ordering, wait estimation, capacity checks,
// emergency/no-show/delay handling, doctor fatigue tracking and advisory load
// balancing. All state lives for the process lifetime; persistence and
// notification delivery are external concerns fed through the event Sink.
package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carewave/opd-queue-engine/internal/locking"
)

var (
	ErrUnknownToken       = errors.New("unknown appointment token")
	ErrUnknownDoctor      = errors.New("unknown doctor")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrConsultationActive = errors.New("doctor already has a consultation in progress")
)

// Config carries the engine tunables. Zero values are replaced by defaults
// in New.
type Config struct {
	DefaultConsultMinutes   int
	FollowUpConsultMinutes  int
	EmergencyConsultMinutes int
	CapacityThreshold       int
	FatigueThreshold        int
	BreakDuration           time.Duration
	HistoryLimit            int
	ImbalanceThreshold      int
	NoShowGrace             time.Duration
	LockWait                time.Duration
	LockPoll                time.Duration
}

func (c Config) withDefaults() Config {
	if c.DefaultConsultMinutes <= 0 {
		c.DefaultConsultMinutes = 15
	}
	if c.FollowUpConsultMinutes <= 0 {
		c.FollowUpConsultMinutes = 10
	}
	if c.EmergencyConsultMinutes <= 0 {
		c.EmergencyConsultMinutes = 20
	}
	if c.CapacityThreshold <= 0 {
		c.CapacityThreshold = 15
	}
	if c.FatigueThreshold <= 0 {
		c.FatigueThreshold = 20
	}
	if c.BreakDuration <= 0 {
		c.BreakDuration = 15 * time.Minute
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = 50
	}
	if c.ImbalanceThreshold <= 0 {
		c.ImbalanceThreshold = 5
	}
	if c.NoShowGrace <= 0 {
		c.NoShowGrace = 30 * time.Minute
	}
	if c.LockWait <= 0 {
		c.LockWait = 2 * time.Second
	}
	if c.LockPoll <= 0 {
		c.LockPoll = 10 * time.Millisecond
	}
	return c
}

// Engine owns all queue state. Structural mutations take the write lock;
// derivations (ETA, capacity, balance, status) take the read lock. Booking
// additionally serializes per (doctor, slot) through the keyed locker so
// concurrent bookings of the same slot observe strictly ordered token and
// serial assignment.
type Engine struct {
	cfg    Config
	sink   Sink
	locker *locking.Keyed

	store store

	now func() time.Time
}

func New(cfg Config, sink Sink) *Engine {
	cfg = cfg.withDefaults()
	return &Engine{
		cfg:    cfg,
		sink:   sink,
		locker: locking.NewKeyed(cfg.LockWait, cfg.LockPoll),
		store:  newStore(),
		now:    time.Now,
	}
}

// Close cancels every pending break timer. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	for _, f := range e.store.fatigue {
		if f.breakTimer != nil {
			f.breakTimer.Stop()
			f.breakTimer = nil
		}
	}
}

func (e *Engine) publish(events ...Event) {
	if e.sink == nil {
		return
	}
	for _, ev := range events {
		e.sink.Publish(ev)
	}
}

func (e *Engine) newEvent(t EventType, doctorID uuid.UUID) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		OccurredAt: e.now(),
		DoctorID:   doctorID,
	}
}

func slotKey(doctorID uuid.UUID, slot time.Time) string {
	return fmt.Sprintf("book:%s:%d", doctorID, slot.Unix())
}
