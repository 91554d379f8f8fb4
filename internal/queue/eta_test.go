package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func record(eng *Engine, doctor uuid.UUID, minutes ...int) {
	eng.store.mu.Lock()
	defer eng.store.mu.Unlock()
	for _, m := range minutes {
		eng.recordCompletionLocked(doctor, m)
	}
}

func TestAverageDuration_DefaultWhenEmpty(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	if got := eng.AverageDuration(uuid.New()); got != 15 {
		t.Errorf("average with no history = %d, want default 15", got)
	}
}

func TestAverageDuration_Mean(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()
	record(eng, doctor, 10, 20, 30)

	if got := eng.AverageDuration(doctor); got != 20 {
		t.Errorf("average = %d, want 20", got)
	}
}

func TestAverageDuration_HistoryBounded(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()

	// One old outlier, then 50 identical samples push it out.
	record(eng, doctor, 1000)
	for i := 0; i < 50; i++ {
		record(eng, doctor, 10)
	}

	eng.store.mu.RLock()
	n := len(eng.store.history[doctor])
	eng.store.mu.RUnlock()
	if n != 50 {
		t.Errorf("history length = %d, want 50", n)
	}
	if got := eng.AverageDuration(doctor); got != 10 {
		t.Errorf("average = %d, want 10 after oldest sample dropped", got)
	}
}

func TestEstimateWait_SumsEntriesAhead(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()
	appts := seedQueue(t, eng, doctor, 4)

	eta, err := eng.EstimateWait(appts[3].Token)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if eta.WaitMinutes != 45 {
		t.Errorf("wait = %d, want 45 (3 entries x 15 min)", eta.WaitMinutes)
	}
	if eta.PatientsAhead != 3 {
		t.Errorf("patients ahead = %d, want 3", eta.PatientsAhead)
	}

	until := time.Until(eta.ExpectedCallTime)
	if until < 44*time.Minute || until > 46*time.Minute {
		t.Errorf("expected call time %s from now, want about 45m", until)
	}
}

func TestEstimateWait_SkipsTerminalEntries(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()
	appts := seedQueue(t, eng, doctor, 4)

	if _, err := eng.MarkNoShow(appts[0].Token); err != nil {
		t.Fatal(err)
	}

	eta, err := eng.EstimateWait(appts[3].Token)
	if err != nil {
		t.Fatal(err)
	}
	if eta.WaitMinutes != 30 {
		t.Errorf("wait = %d, want 30 after a no-show ahead", eta.WaitMinutes)
	}
	if eta.PatientsAhead != 2 {
		t.Errorf("patients ahead = %d, want 2", eta.PatientsAhead)
	}
}

func TestEstimateWait_FirstInLine(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()
	appts := seedQueue(t, eng, doctor, 1)

	eta, err := eng.EstimateWait(appts[0].Token)
	if err != nil {
		t.Fatal(err)
	}
	if eta.WaitMinutes != 0 || eta.PatientsAhead != 0 {
		t.Errorf("first in line: wait=%d ahead=%d, want 0/0", eta.WaitMinutes, eta.PatientsAhead)
	}
}

func TestEstimateWait_UnknownToken(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	if _, err := eng.EstimateWait(404); err != ErrUnknownToken {
		t.Errorf("error = %v, want ErrUnknownToken", err)
	}
}

func TestEndConsultation_FeedsHistory(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()
	appts := seedQueue(t, eng, doctor, 1)
	startServing(t, eng, appts[0].Token)

	if _, err := eng.EndConsultation(appts[0].Token); err != nil {
		t.Fatal(err)
	}

	eng.store.mu.RLock()
	defer eng.store.mu.RUnlock()
	if len(eng.store.history[doctor]) != 1 {
		t.Fatalf("history length = %d, want 1", len(eng.store.history[doctor]))
	}
	// Sub-minute consultations round up to one minute.
	if eng.store.history[doctor][0] < 1 {
		t.Errorf("realized duration = %d, want >= 1", eng.store.history[doctor][0])
	}
	if eng.store.fatigue[doctor].ContinuousTreated != 1 {
		t.Errorf("continuous treated = %d, want 1", eng.store.fatigue[doctor].ContinuousTreated)
	}
}
