package queue

import (
	"time"

	"github.com/google/uuid"
)

// ETAResult is the wait estimate for one queued entry.
type ETAResult struct {
	Token            int64
	WaitMinutes      int
	PatientsAhead    int
	ExpectedCallTime time.Time
}

// AverageDuration returns the doctor's mean observed consultation length in
// minutes, or the configured default when no history exists yet.
func (e *Engine) AverageDuration(doctorID uuid.UUID) int {
	e.store.mu.RLock()
	defer e.store.mu.RUnlock()
	return e.averageDurationLocked(doctorID)
}

func (e *Engine) averageDurationLocked(doctorID uuid.UUID) int {
	h := e.store.history[doctorID]
	if len(h) == 0 {
		return e.cfg.DefaultConsultMinutes
	}
	sum := 0
	for _, d := range h {
		sum += d
	}
	return sum / len(h)
}

// EstimateWait sums the estimated duration of every non-terminal entry
// strictly ahead of the token in its doctor's ordering.
func (e *Engine) EstimateWait(token int64) (ETAResult, error) {
	e.store.mu.RLock()

	appt, ok := e.store.appointment(token)
	if !ok {
		e.store.mu.RUnlock()
		return ETAResult{}, ErrUnknownToken
	}

	doctorID := appt.DoctorID
	idx := e.store.queueIndex(doctorID, token)

	wait := 0
	ahead := 0
	for i := 0; i < idx; i++ {
		a := e.store.byToken[e.store.queues[doctorID][i]]
		if a.Status.Terminal() {
			continue
		}
		ahead++
		if a.EstimatedDuration > 0 {
			wait += a.EstimatedDuration
		} else {
			wait += e.averageDurationLocked(doctorID)
		}
	}
	e.store.mu.RUnlock()

	return ETAResult{
		Token:            token,
		WaitMinutes:      wait,
		PatientsAhead:    ahead,
		ExpectedCallTime: e.now().Add(time.Duration(wait) * time.Minute),
	}, nil
}

// recordCompletionLocked appends an observed duration to the doctor's
// bounded history and advances the fatigue counter. Caller holds the write
// lock.
func (e *Engine) recordCompletionLocked(doctorID uuid.UUID, minutes int) {
	h := append(e.store.history[doctorID], minutes)
	if len(h) > e.cfg.HistoryLimit {
		h = h[len(h)-e.cfg.HistoryLimit:]
	}
	e.store.history[doctorID] = h

	e.store.fatigueFor(doctorID).ContinuousTreated++
}
