package queue

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusCheckedIn  Status = "checked_in"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusNoShow     Status = "no_show"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether the status is final; a terminal appointment is
// never mutated again.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusNoShow || s == StatusCancelled
}

// Waiting reports whether the appointment still occupies wait time ahead of
// entries behind it.
func (s Status) Waiting() bool {
	return s == StatusScheduled || s == StatusCheckedIn || s == StatusInProgress
}

type Kind string

const (
	KindRegular   Kind = "regular"
	KindWalkIn    Kind = "walk_in"
	KindFollowUp  Kind = "follow_up"
	KindEmergency Kind = "emergency"
)

type Patient struct {
	ID         uuid.UUID
	Name       string
	Phone      string
	Registered bool
}

// Appointment is one visit record. Token is assigned once and never reused;
// Serial is the 1-based position within the doctor's ordering and is
// recomputed whenever entries ahead are inserted or removed.
type Appointment struct {
	Token         int64
	Serial        int
	Patient       Patient
	DoctorID      uuid.UUID
	ScheduledTime time.Time
	Kind          Kind
	Status        Status
	// EstimatedDuration is in minutes, defaulted by kind or the doctor's
	// rolling average at creation time.
	EstimatedDuration int

	BookedAt       time.Time
	CheckInAt      time.Time
	ConsultStartAt time.Time
	ConsultEndAt   time.Time

	Delayed     bool
	DelayReason string
}

// SerialChange records one entry whose serial moved during a structural
// mutation, for downstream notification.
type SerialChange struct {
	Token     int64 `json:"token"`
	OldSerial int   `json:"old_serial"`
	NewSerial int   `json:"new_serial"`
}

// ShiftedEntry records one entry whose scheduled time moved during delay
// propagation.
type ShiftedEntry struct {
	Token   int64     `json:"token"`
	Serial  int       `json:"serial"`
	OldTime time.Time `json:"old_time"`
	NewTime time.Time `json:"new_time"`
}
