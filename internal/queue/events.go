package queue

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventBooked                EventType = "booked"
	EventWalkInAdded           EventType = "walkInAdded"
	EventEmergencyInserted     EventType = "emergencyInserted"
	EventNoShowHandled         EventType = "noShowHandled"
	EventQueueAdjusted         EventType = "queueAdjusted"
	EventBreakScheduled        EventType = "breakScheduled"
	EventBreakEnded            EventType = "breakEnded"
	EventConsultationStarted   EventType = "consultationStarted"
	EventConsultationCompleted EventType = "consultationCompleted"
	EventSendNotification      EventType = "sendNotification"
)

// Event is one engine state change. Appointment is a copy of the primary
// record involved; Affected and Shifted carry the peer impact of structural
// mutations. Delivery to end users (push, SMS) is an external dispatcher's
// job.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	Type        EventType      `json:"type"`
	OccurredAt  time.Time      `json:"occurred_at"`
	DoctorID    uuid.UUID      `json:"doctor_id"`
	Appointment *Appointment   `json:"appointment,omitempty"`
	Affected    []SerialChange `json:"affected,omitempty"`
	Shifted     []ShiftedEntry `json:"shifted,omitempty"`
	Note        string         `json:"note,omitempty"`
}

// Sink receives engine events. Publish is called outside the engine's locks
// and must not block for long; slow consumers should buffer.
type Sink interface {
	Publish(ev Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ev Event)

func (f SinkFunc) Publish(ev Event) { f(ev) }

// FanOut delivers every event to each registered sink in order.
type FanOut struct {
	sinks []Sink
}

func NewFanOut(sinks ...Sink) *FanOut {
	return &FanOut{sinks: sinks}
}

// Register appends another sink. Not safe to call once the engine is
// publishing; wire everything up before serving traffic.
func (f *FanOut) Register(s Sink) {
	f.sinks = append(f.sinks, s)
}

func (f *FanOut) Publish(ev Event) {
	for _, s := range f.sinks {
		s.Publish(ev)
	}
}

// ChannelSink bridges events onto a bounded channel. When the buffer is
// full the event is dropped and counted rather than blocking the engine.
type ChannelSink struct {
	ch      chan Event
	dropped atomic.Int64
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 64
	}
	return &ChannelSink{ch: make(chan Event, buffer)}
}

func (c *ChannelSink) Publish(ev Event) {
	select {
	case c.ch <- ev:
	default:
		c.dropped.Add(1)
	}
}

// Events is the receive side of the sink.
func (c *ChannelSink) Events() <-chan Event { return c.ch }

// Dropped reports how many events were discarded because the buffer was
// full.
func (c *ChannelSink) Dropped() int64 { return c.dropped.Load() }
