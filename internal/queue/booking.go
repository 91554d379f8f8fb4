package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingResult is returned by every booking primitive.
type BookingResult struct {
	Appointment Appointment
}

// Book reserves the next token for a regular appointment. Concurrent calls
// for the same (doctor, slot) are serialized through the keyed lock, so no
// two callers can observe the same token or serial. The capacity guard is
// advisory and deliberately not consulted here.
func (e *Engine) Book(ctx context.Context, patient Patient, doctorID uuid.UUID, at time.Time) (BookingResult, error) {
	return e.book(ctx, patient, doctorID, at, KindRegular)
}

// WalkIn admits a patient without a prior slot: the entry is created already
// checked in, scheduled at the given time or now.
func (e *Engine) WalkIn(ctx context.Context, patient Patient, doctorID uuid.UUID, at time.Time) (BookingResult, error) {
	if at.IsZero() {
		at = e.now()
	}
	return e.book(ctx, patient, doctorID, at, KindWalkIn)
}

// FollowUp books a revisit with the shorter follow-up duration.
func (e *Engine) FollowUp(ctx context.Context, patient Patient, doctorID uuid.UUID, at time.Time) (BookingResult, error) {
	return e.book(ctx, patient, doctorID, at, KindFollowUp)
}

func (e *Engine) book(ctx context.Context, patient Patient, doctorID uuid.UUID, at time.Time, kind Kind) (BookingResult, error) {
	var result BookingResult

	err := e.locker.WithSlotLock(ctx, slotKey(doctorID, at), func(context.Context) error {
		now := e.now()

		e.store.mu.Lock()

		appt := &Appointment{
			Token:         e.store.issueToken(),
			Patient:       patient,
			DoctorID:      doctorID,
			ScheduledTime: at,
			Kind:          kind,
			Status:        StatusScheduled,
			BookedAt:      now,
		}

		switch kind {
		case KindWalkIn:
			appt.Status = StatusCheckedIn
			appt.CheckInAt = now
			appt.EstimatedDuration = e.averageDurationLocked(doctorID)
		case KindFollowUp:
			appt.EstimatedDuration = e.cfg.FollowUpConsultMinutes
		default:
			appt.EstimatedDuration = e.averageDurationLocked(doctorID)
		}

		e.store.byToken[appt.Token] = appt
		e.store.queues[doctorID] = append(e.store.queues[doctorID], appt.Token)
		appt.Serial = len(e.store.queues[doctorID])

		result.Appointment = snapshot(appt)
		e.store.mu.Unlock()

		return nil
	})
	if err != nil {
		return BookingResult{}, err
	}

	evType := EventBooked
	if kind == KindWalkIn {
		evType = EventWalkInAdded
	}
	ev := e.newEvent(evType, doctorID)
	ev.Appointment = &result.Appointment
	e.publish(ev)

	return result, nil
}

// CheckIn marks a scheduled patient as present. Walk-ins and emergencies
// are created already checked in.
func (e *Engine) CheckIn(token int64) (Appointment, error) {
	e.store.mu.Lock()

	appt, ok := e.store.appointment(token)
	if !ok {
		e.store.mu.Unlock()
		return Appointment{}, ErrUnknownToken
	}
	if appt.Status != StatusScheduled {
		e.store.mu.Unlock()
		return Appointment{}, ErrInvalidTransition
	}

	appt.Status = StatusCheckedIn
	appt.CheckInAt = e.now()
	out := snapshot(appt)
	e.store.mu.Unlock()

	return out, nil
}
