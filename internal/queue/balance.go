package queue

import (
	"fmt"

	"github.com/google/uuid"
)

// DoctorLoad is one doctor's active entry count.
type DoctorLoad struct {
	DoctorID uuid.UUID
	Active   int
}

// BalanceResult is the advisory cross-doctor load comparison for a
// department. It never moves an appointment; a human decides.
type BalanceResult struct {
	DepartmentID   uuid.UUID
	Loads          []DoctorLoad
	MostLoaded     DoctorLoad
	LeastLoaded    DoctorLoad
	Spread         int
	Imbalanced     bool
	Recommendation string
}

// Balance compares active (scheduled, checked-in, in-progress) entry counts
// across the department's doctors and flags an imbalance when the spread
// exceeds the configured threshold.
func (e *Engine) Balance(departmentID uuid.UUID, doctorIDs []uuid.UUID) BalanceResult {
	result := BalanceResult{DepartmentID: departmentID}

	e.store.mu.RLock()
	for _, id := range doctorIDs {
		n := 0
		for _, t := range e.store.queues[id] {
			if e.store.byToken[t].Status.Waiting() {
				n++
			}
		}
		result.Loads = append(result.Loads, DoctorLoad{DoctorID: id, Active: n})
	}
	e.store.mu.RUnlock()

	if len(result.Loads) < 2 {
		result.Recommendation = "not enough doctors to compare"
		return result
	}

	result.MostLoaded = result.Loads[0]
	result.LeastLoaded = result.Loads[0]
	for _, l := range result.Loads[1:] {
		if l.Active > result.MostLoaded.Active {
			result.MostLoaded = l
		}
		if l.Active < result.LeastLoaded.Active {
			result.LeastLoaded = l
		}
	}

	result.Spread = result.MostLoaded.Active - result.LeastLoaded.Active
	result.Imbalanced = result.Spread > e.cfg.ImbalanceThreshold

	if result.Imbalanced {
		result.Recommendation = fmt.Sprintf(
			"consider redirecting new patients from doctor %s (%d active) to doctor %s (%d active)",
			result.MostLoaded.DoctorID, result.MostLoaded.Active,
			result.LeastLoaded.DoctorID, result.LeastLoaded.Active,
		)
	} else {
		result.Recommendation = "load is balanced"
	}

	return result
}
