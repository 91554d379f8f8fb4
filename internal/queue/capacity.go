package queue

import (
	"time"

	"github.com/google/uuid"
)

// SlotSuggestion is an alternative hourly bucket with room left.
type SlotSuggestion struct {
	Start     time.Time
	Remaining int
}

// CapacityResult reports how full an hourly bucket is. The check is
// advisory: booking never consults it, callers decide whether to honor it.
type CapacityResult struct {
	DoctorID    uuid.UUID
	BucketStart time.Time
	Count       int
	Threshold   int
	AtCapacity  bool
	Suggestions []SlotSuggestion
}

// CheckCapacity counts the doctor's appointments, any status, whose
// scheduled time falls inside the hour bucket containing slot. At capacity
// it proposes up to three later buckets that still have room.
func (e *Engine) CheckCapacity(doctorID uuid.UUID, slot time.Time) CapacityResult {
	bucket := slot.Truncate(time.Hour)

	e.store.mu.RLock()
	defer e.store.mu.RUnlock()

	result := CapacityResult{
		DoctorID:    doctorID,
		BucketStart: bucket,
		Count:       e.bucketCountLocked(doctorID, bucket),
		Threshold:   e.cfg.CapacityThreshold,
	}
	result.AtCapacity = result.Count >= result.Threshold

	if result.AtCapacity {
		for i := 1; i <= 3; i++ {
			alt := bucket.Add(time.Duration(i) * time.Hour)
			n := e.bucketCountLocked(doctorID, alt)
			if n < e.cfg.CapacityThreshold {
				result.Suggestions = append(result.Suggestions, SlotSuggestion{
					Start:     alt,
					Remaining: e.cfg.CapacityThreshold - n,
				})
			}
		}
	}

	return result
}

// bucketCountLocked counts the doctor's appointments, terminal ones
// included, scheduled in [bucket, bucket+1h). Caller holds a lock.
func (e *Engine) bucketCountLocked(doctorID uuid.UUID, bucket time.Time) int {
	end := bucket.Add(time.Hour)
	n := 0
	for _, a := range e.store.byToken {
		if a.DoctorID != doctorID {
			continue
		}
		if !a.ScheduledTime.Before(bucket) && a.ScheduledTime.Before(end) {
			n++
		}
	}
	return n
}
