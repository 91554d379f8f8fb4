package queue

import "time"

// SweepOverdue marks every entry still SCHEDULED past the no-show grace
// period as a no-show, queue by queue. It is meant to run on a ticker next
// to the HTTP facade; the grace period keeps late check-ins safe.
func (e *Engine) SweepOverdue(now time.Time) []NoShowResult {
	cutoff := now.Add(-e.cfg.NoShowGrace)

	e.store.mu.RLock()
	var overdue []int64
	for token, a := range e.store.byToken {
		if a.Status == StatusScheduled && a.ScheduledTime.Before(cutoff) {
			overdue = append(overdue, token)
		}
	}
	e.store.mu.RUnlock()

	var swept []NoShowResult
	for _, token := range overdue {
		res, err := e.MarkNoShow(token)
		if err != nil {
			// Raced with a check-in or another mutation; nothing to do.
			continue
		}
		swept = append(swept, res)
	}
	return swept
}
