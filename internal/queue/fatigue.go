package queue

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// fatigueState tracks continuous patients treated per doctor. The break
// timer handle makes the deferred resume cancellable: CancelBreak ends a
// break early and Close stops every pending timer at shutdown.
type fatigueState struct {
	ContinuousTreated int
	OnBreak           bool
	LastBreakAt       time.Time
	breakTimer        *time.Timer
}

// FatigueStatus is the read-side view of a doctor's fatigue state.
type FatigueStatus struct {
	DoctorID          uuid.UUID
	ContinuousTreated int
	OnBreak           bool
	LastBreakAt       time.Time
}

// Fatigue reports the doctor's current fatigue state.
func (e *Engine) Fatigue(doctorID uuid.UUID) FatigueStatus {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	st := FatigueStatus{DoctorID: doctorID}
	if f, ok := e.store.fatigue[doctorID]; ok {
		st.ContinuousTreated = f.ContinuousTreated
		st.OnBreak = f.OnBreak
		st.LastBreakAt = f.LastBreakAt
	}
	return st
}

// checkFatigueLocked schedules a mandatory break once the doctor has
// treated the threshold number of patients without one. Pending entries are
// pushed by the break duration; the returned event and shifted list are
// published by the caller after unlocking. Caller holds the write lock.
func (e *Engine) checkFatigueLocked(doctorID uuid.UUID) (*Event, []ShiftedEntry) {
	f := e.store.fatigueFor(doctorID)
	if f.OnBreak || f.ContinuousTreated < e.cfg.FatigueThreshold {
		return nil, nil
	}

	now := e.now()
	f.OnBreak = true
	f.LastBreakAt = now

	minutes := int(math.Round(e.cfg.BreakDuration.Minutes()))
	shifted := e.shiftLocked(doctorID, minutes, "doctor break")

	f.breakTimer = time.AfterFunc(e.cfg.BreakDuration, func() {
		e.endBreak(doctorID)
	})

	ev := e.newEvent(EventBreakScheduled, doctorID)
	ev.Note = "mandatory break after continuous consultations"
	return &ev, shifted
}

// CancelBreak ends a doctor's break early, stopping the pending resume
// timer. Calling it for a doctor who is not on break is a no-op.
func (e *Engine) CancelBreak(doctorID uuid.UUID) {
	e.endBreak(doctorID)
}

func (e *Engine) endBreak(doctorID uuid.UUID) {
	e.store.mu.Lock()

	f, ok := e.store.fatigue[doctorID]
	if !ok || !f.OnBreak {
		e.store.mu.Unlock()
		return
	}

	if f.breakTimer != nil {
		f.breakTimer.Stop()
		f.breakTimer = nil
	}
	f.OnBreak = false
	f.ContinuousTreated = 0
	e.store.mu.Unlock()

	e.publish(e.newEvent(EventBreakEnded, doctorID))
}
