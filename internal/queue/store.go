package queue

import (
	"sync"

	"github.com/google/uuid"
)

// store is the arena behind the engine: a token index over appointment
// records plus a per-doctor ordered list of tokens. Doctor state is created
// lazily on first reference; an unknown doctor behaves as an empty queue.
type store struct {
	mu sync.RWMutex

	nextToken int64
	byToken   map[int64]*Appointment
	queues    map[uuid.UUID][]int64
	history   map[uuid.UUID][]int
	fatigue   map[uuid.UUID]*fatigueState
}

func newStore() store {
	return store{
		byToken: make(map[int64]*Appointment),
		queues:  make(map[uuid.UUID][]int64),
		history: make(map[uuid.UUID][]int),
		fatigue: make(map[uuid.UUID]*fatigueState),
	}
}

// issueToken returns the next global token. Caller holds the write lock.
func (s *store) issueToken() int64 {
	s.nextToken++
	return s.nextToken
}

// appointment returns the live record for a token. Caller holds a lock.
func (s *store) appointment(token int64) (*Appointment, bool) {
	a, ok := s.byToken[token]
	return a, ok
}

// resequence rewrites serials for a doctor's queue starting at index from,
// returning every entry whose serial actually changed. Caller holds the
// write lock. Serials are index+1, so the invariant holds immediately after
// any structural mutation.
func (s *store) resequence(doctorID uuid.UUID, from int) []SerialChange {
	q := s.queues[doctorID]
	if from < 0 {
		from = 0
	}
	var changed []SerialChange
	for i := from; i < len(q); i++ {
		a := s.byToken[q[i]]
		want := i + 1
		if a.Serial != want {
			changed = append(changed, SerialChange{Token: a.Token, OldSerial: a.Serial, NewSerial: want})
			a.Serial = want
		}
	}
	return changed
}

// queueIndex returns the position of token within its doctor's ordering, or
// -1 when the token is not part of the active ordering. Caller holds a lock.
func (s *store) queueIndex(doctorID uuid.UUID, token int64) int {
	for i, t := range s.queues[doctorID] {
		if t == token {
			return i
		}
	}
	return -1
}

// inProgressIndex returns the index of the doctor's single IN_PROGRESS
// entry, or -1 when nobody is being served. Caller holds a lock.
func (s *store) inProgressIndex(doctorID uuid.UUID) int {
	for i, t := range s.queues[doctorID] {
		if s.byToken[t].Status == StatusInProgress {
			return i
		}
	}
	return -1
}

// nextWaiting returns the first entry at or after index from that is checked
// in and waiting to be called, or nil. Caller holds a lock.
func (s *store) nextWaiting(doctorID uuid.UUID, from int) *Appointment {
	q := s.queues[doctorID]
	if from < 0 {
		from = 0
	}
	for i := from; i < len(q); i++ {
		a := s.byToken[q[i]]
		if a.Status == StatusCheckedIn || a.Status == StatusScheduled {
			return a
		}
	}
	return nil
}

func (s *store) fatigueFor(doctorID uuid.UUID) *fatigueState {
	f, ok := s.fatigue[doctorID]
	if !ok {
		f = &fatigueState{}
		s.fatigue[doctorID] = f
	}
	return f
}

// snapshot returns a copy safe to hand to callers and event subscribers.
func snapshot(a *Appointment) Appointment {
	return *a
}
