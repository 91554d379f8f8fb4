package queue

import (
	"fmt"
	"time"
)

// QueueStatus is the human-facing position report for one token.
type QueueStatus struct {
	Token            int64
	Serial           int
	Status           Status
	PatientsAhead    int
	CurrentlyServing *int64
	Message          string
}

// MobileStatus combines position, wait estimate and notification flags into
// one projection for polling clients. Its shape is a convenience, not a
// protocol contract.
type MobileStatus struct {
	QueueStatus
	WaitMinutes      int
	ExpectedCallTime time.Time
	Delayed          bool
	DelayReason      string
	CallSoon         bool
}

// Status reports where a token stands in its doctor's queue.
func (e *Engine) Status(token int64) (QueueStatus, error) {
	e.store.mu.RLock()

	appt, ok := e.store.appointment(token)
	if !ok {
		e.store.mu.RUnlock()
		return QueueStatus{}, ErrUnknownToken
	}

	st := QueueStatus{
		Token:  token,
		Serial: appt.Serial,
		Status: appt.Status,
	}

	doctorID := appt.DoctorID
	if i := e.store.inProgressIndex(doctorID); i >= 0 {
		serving := e.store.queues[doctorID][i]
		st.CurrentlyServing = &serving
	}

	idx := e.store.queueIndex(doctorID, token)
	for i := 0; i < idx; i++ {
		if e.store.byToken[e.store.queues[doctorID][i]].Status.Waiting() {
			st.PatientsAhead++
		}
	}
	e.store.mu.RUnlock()

	st.Message = statusMessage(st)
	return st, nil
}

func statusMessage(st QueueStatus) string {
	switch {
	case st.Status == StatusInProgress:
		return "your consultation is in progress"
	case st.Status == StatusCompleted:
		return "your consultation is complete"
	case st.Status == StatusNoShow:
		return "you were marked as a no-show"
	case st.Status == StatusCancelled:
		return "your appointment was cancelled"
	case st.PatientsAhead == 0:
		return "you are next, please be ready"
	case st.PatientsAhead == 1:
		return "1 patient ahead of you"
	default:
		return fmt.Sprintf("%d patients ahead of you", st.PatientsAhead)
	}
}

// MobileStatus builds the polling read model for one token.
func (e *Engine) MobileStatus(token int64) (MobileStatus, error) {
	st, err := e.Status(token)
	if err != nil {
		return MobileStatus{}, err
	}
	eta, err := e.EstimateWait(token)
	if err != nil {
		return MobileStatus{}, err
	}

	e.store.mu.RLock()
	appt := e.store.byToken[token]
	delayed, reason := appt.Delayed, appt.DelayReason
	e.store.mu.RUnlock()

	return MobileStatus{
		QueueStatus:      st,
		WaitMinutes:      eta.WaitMinutes,
		ExpectedCallTime: eta.ExpectedCallTime,
		Delayed:          delayed,
		DelayReason:      reason,
		CallSoon:         !st.Status.Terminal() && st.Status != StatusInProgress && st.PatientsAhead <= 1,
	}, nil
}
