// Package eventlog persists the engine's emitted events as an append-only
// audit trail. Queue state itself is never stored or reloaded; the archive
// exists for operators and downstream dispatchers.
package eventlog

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry is one archived event row.
type Entry struct {
	ID        uuid.UUID
	EventType string
	Token     *int64
	DoctorID  *uuid.UUID
	Payload   []byte
	CreatedAt time.Time
}

// Archiver records event entries.
type Archiver interface {
	Record(ctx context.Context, e Entry) error
}
