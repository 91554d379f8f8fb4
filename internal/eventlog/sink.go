package eventlog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewave/opd-queue-engine/internal/queue"
)

// Sink adapts an Archiver to the engine's event stream. Archive failures
// are logged, never propagated; the queue must not stall on the audit
// trail.
type Sink struct {
	arch    Archiver
	log     zerolog.Logger
	timeout time.Duration
}

func NewSink(arch Archiver, log zerolog.Logger) *Sink {
	return &Sink{arch: arch, log: log, timeout: 3 * time.Second}
}

func (s *Sink) Publish(ev queue.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		s.log.Error().Err(err).Str("event", string(ev.Type)).Msg("marshal event payload")
		payload = nil
	}

	entry := Entry{
		ID:        ev.ID,
		EventType: string(ev.Type),
		CreatedAt: ev.OccurredAt,
		Payload:   payload,
	}
	if ev.Appointment != nil {
		token := ev.Appointment.Token
		entry.Token = &token
	}
	if ev.DoctorID != uuid.Nil {
		doctorID := ev.DoctorID
		entry.DoctorID = &doctorID
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.arch.Record(ctx, entry); err != nil {
		s.log.Error().Err(err).Str("event", string(ev.Type)).Msg("archive event")
	}
}
