package queue

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// EmergencyResult carries the inserted appointment plus every entry whose
// serial moved to make room for it.
type EmergencyResult struct {
	Appointment Appointment
	Displaced   []SerialChange
}

// NoShowResult reports the removal: the minutes freed for the queue and the
// entries pulled forward.
type NoShowResult struct {
	Appointment   Appointment
	TimeSaved     int
	PulledForward []SerialChange
}

// InsertEmergency creates an EMERGENCY appointment immediately after the
// doctor's current IN_PROGRESS entry, or at the head of the queue when
// nobody is being served. Rapid successive emergencies each insert relative
// to whichever entry is in progress at that instant; no ordering between
// emergencies themselves is imposed.
func (e *Engine) InsertEmergency(patient Patient, doctorID uuid.UUID) (EmergencyResult, error) {
	now := e.now()

	e.store.mu.Lock()

	insertAt := e.store.inProgressIndex(doctorID) + 1

	appt := &Appointment{
		Token:             e.store.issueToken(),
		Patient:           patient,
		DoctorID:          doctorID,
		ScheduledTime:     now,
		Kind:              KindEmergency,
		Status:            StatusCheckedIn,
		EstimatedDuration: e.cfg.EmergencyConsultMinutes,
		BookedAt:          now,
		CheckInAt:         now,
	}
	e.store.byToken[appt.Token] = appt

	q := e.store.queues[doctorID]
	q = append(q, 0)
	copy(q[insertAt+1:], q[insertAt:])
	q[insertAt] = appt.Token
	e.store.queues[doctorID] = q

	displaced := e.store.resequence(doctorID, insertAt)
	// Strip the new entry itself from the impact list.
	peers := make([]SerialChange, 0, len(displaced))
	for _, c := range displaced {
		if c.Token != appt.Token {
			peers = append(peers, c)
		}
	}

	result := EmergencyResult{Appointment: snapshot(appt), Displaced: peers}
	e.store.mu.Unlock()

	ev := e.newEvent(EventEmergencyInserted, doctorID)
	ev.Appointment = &result.Appointment
	ev.Affected = peers
	e.publish(ev)

	return result, nil
}

// MarkNoShow removes a booked patient who failed to present. Only waiting
// entries can no-show; an in-progress or terminal entry is rejected.
func (e *Engine) MarkNoShow(token int64) (NoShowResult, error) {
	e.store.mu.Lock()

	appt, ok := e.store.appointment(token)
	if !ok {
		e.store.mu.Unlock()
		return NoShowResult{}, ErrUnknownToken
	}
	if appt.Status != StatusScheduled && appt.Status != StatusCheckedIn {
		e.store.mu.Unlock()
		return NoShowResult{}, ErrInvalidTransition
	}

	appt.Status = StatusNoShow

	doctorID := appt.DoctorID
	idx := e.store.queueIndex(doctorID, token)
	if idx >= 0 {
		q := e.store.queues[doctorID]
		e.store.queues[doctorID] = append(q[:idx], q[idx+1:]...)
	}
	pulled := e.store.resequence(doctorID, idx)

	result := NoShowResult{
		Appointment:   snapshot(appt),
		TimeSaved:     appt.EstimatedDuration,
		PulledForward: pulled,
	}
	next := e.store.nextWaiting(doctorID, e.store.inProgressIndex(doctorID)+1)
	var nextCopy *Appointment
	if next != nil {
		c := snapshot(next)
		nextCopy = &c
	}
	e.store.mu.Unlock()

	ev := e.newEvent(EventNoShowHandled, doctorID)
	ev.Appointment = &result.Appointment
	ev.Affected = pulled
	e.publish(ev)
	e.notifyNextUp(doctorID, nextCopy)

	return result, nil
}

// ShiftForDelay pushes every waiting entry for the doctor by the given
// number of minutes. Ordering and serials are unaffected; only scheduled
// times move. The full shifted list is returned for broadcast.
func (e *Engine) ShiftForDelay(doctorID uuid.UUID, minutes int, reason string) ([]ShiftedEntry, error) {
	e.store.mu.Lock()
	shifted := e.shiftLocked(doctorID, minutes, reason)
	e.store.mu.Unlock()

	if len(shifted) > 0 {
		ev := e.newEvent(EventQueueAdjusted, doctorID)
		ev.Shifted = shifted
		ev.Note = reason
		e.publish(ev)
	}

	return shifted, nil
}

// shiftLocked applies the delay. Caller holds the write lock.
func (e *Engine) shiftLocked(doctorID uuid.UUID, minutes int, reason string) []ShiftedEntry {
	if minutes <= 0 {
		return nil
	}

	var shifted []ShiftedEntry
	for _, t := range e.store.queues[doctorID] {
		a := e.store.byToken[t]
		if a.Status != StatusScheduled && a.Status != StatusCheckedIn {
			continue
		}
		old := a.ScheduledTime
		a.ScheduledTime = old.Add(time.Duration(minutes) * time.Minute)
		a.Delayed = true
		a.DelayReason = reason
		shifted = append(shifted, ShiftedEntry{
			Token:   a.Token,
			Serial:  a.Serial,
			OldTime: old,
			NewTime: a.ScheduledTime,
		})
	}
	return shifted
}

// StartConsultation moves a checked-in entry to IN_PROGRESS. A doctor can
// serve at most one patient at a time.
func (e *Engine) StartConsultation(token int64) (Appointment, error) {
	e.store.mu.Lock()

	appt, ok := e.store.appointment(token)
	if !ok {
		e.store.mu.Unlock()
		return Appointment{}, ErrUnknownToken
	}
	if appt.Status != StatusCheckedIn {
		e.store.mu.Unlock()
		return Appointment{}, ErrInvalidTransition
	}
	if e.store.inProgressIndex(appt.DoctorID) >= 0 {
		e.store.mu.Unlock()
		return Appointment{}, ErrConsultationActive
	}

	appt.Status = StatusInProgress
	appt.ConsultStartAt = e.now()
	out := snapshot(appt)
	e.store.mu.Unlock()

	ev := e.newEvent(EventConsultationStarted, out.DoctorID)
	ev.Appointment = &out
	e.publish(ev)

	return out, nil
}

// EndConsultation completes the in-progress entry, records the realized
// duration into the doctor's rolling history, advances the fatigue counter
// and, past the threshold, schedules a mandatory break that pushes the rest
// of the queue.
func (e *Engine) EndConsultation(token int64) (Appointment, error) {
	now := e.now()

	e.store.mu.Lock()

	appt, ok := e.store.appointment(token)
	if !ok {
		e.store.mu.Unlock()
		return Appointment{}, ErrUnknownToken
	}
	if appt.Status != StatusInProgress {
		e.store.mu.Unlock()
		return Appointment{}, ErrInvalidTransition
	}

	appt.Status = StatusCompleted
	appt.ConsultEndAt = now

	realized := int(math.Round(now.Sub(appt.ConsultStartAt).Minutes()))
	if realized < 1 {
		realized = 1
	}
	doctorID := appt.DoctorID
	e.recordCompletionLocked(doctorID, realized)

	breakEv, shifted := e.checkFatigueLocked(doctorID)

	out := snapshot(appt)
	next := e.store.nextWaiting(doctorID, e.store.inProgressIndex(doctorID)+1)
	var nextCopy *Appointment
	if next != nil {
		c := snapshot(next)
		nextCopy = &c
	}
	e.store.mu.Unlock()

	ev := e.newEvent(EventConsultationCompleted, doctorID)
	ev.Appointment = &out
	e.publish(ev)

	if breakEv != nil {
		breakEv.Shifted = shifted
		e.publish(*breakEv)
	}
	e.notifyNextUp(doctorID, nextCopy)

	return out, nil
}

// notifyNextUp emits the call-the-next-patient decision after the head of
// the waiting line changes. Delivery is the dispatcher's job.
func (e *Engine) notifyNextUp(doctorID uuid.UUID, next *Appointment) {
	if next == nil {
		return
	}
	ev := e.newEvent(EventSendNotification, doctorID)
	ev.Appointment = next
	ev.Note = "you are next in the queue"
	e.publish(ev)
}
