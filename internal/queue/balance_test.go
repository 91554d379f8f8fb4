package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestBalance_FlagsImbalance(t *testing.T) {
	eng, _ := newTestEngine(t, Config{ImbalanceThreshold: 5})
	dept := uuid.New()
	busy := uuid.New()
	idle := uuid.New()

	for i := 0; i < 8; i++ {
		mustBook(t, eng, busy, time.Now().Add(time.Hour), "patient")
	}
	mustBook(t, eng, idle, time.Now().Add(time.Hour), "patient")

	res := eng.Balance(dept, []uuid.UUID{busy, idle})
	if !res.Imbalanced {
		t.Fatalf("spread %d over threshold should flag imbalance", res.Spread)
	}
	if res.MostLoaded.DoctorID != busy || res.MostLoaded.Active != 8 {
		t.Errorf("most loaded = %s/%d, want %s/8", res.MostLoaded.DoctorID, res.MostLoaded.Active, busy)
	}
	if res.LeastLoaded.DoctorID != idle || res.LeastLoaded.Active != 1 {
		t.Errorf("least loaded = %s/%d, want %s/1", res.LeastLoaded.DoctorID, res.LeastLoaded.Active, idle)
	}
	if res.Recommendation == "" {
		t.Error("imbalance should come with a recommendation")
	}
}

func TestBalance_WithinThreshold(t *testing.T) {
	eng, _ := newTestEngine(t, Config{ImbalanceThreshold: 5})
	a, b := uuid.New(), uuid.New()

	for i := 0; i < 4; i++ {
		mustBook(t, eng, a, time.Now().Add(time.Hour), "patient")
	}
	for i := 0; i < 2; i++ {
		mustBook(t, eng, b, time.Now().Add(time.Hour), "patient")
	}

	res := eng.Balance(uuid.New(), []uuid.UUID{a, b})
	if res.Imbalanced {
		t.Errorf("spread %d within threshold should not flag", res.Spread)
	}
}

func TestBalance_CountsOnlyActive(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	a, b := uuid.New(), uuid.New()

	appts := seedQueue(t, eng, a, 3)
	if _, err := eng.MarkNoShow(appts[0].Token); err != nil {
		t.Fatal(err)
	}
	startServing(t, eng, appts[1].Token)
	if _, err := eng.EndConsultation(appts[1].Token); err != nil {
		t.Fatal(err)
	}
	mustBook(t, eng, b, time.Now().Add(time.Hour), "patient")

	res := eng.Balance(uuid.New(), []uuid.UUID{a, b})
	for _, l := range res.Loads {
		if l.DoctorID == a && l.Active != 1 {
			t.Errorf("doctor a active = %d, want 1 (no-show and completed excluded)", l.Active)
		}
	}
}

func TestBalance_SingleDoctor(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	res := eng.Balance(uuid.New(), []uuid.UUID{uuid.New()})
	if res.Imbalanced {
		t.Error("one doctor can never be imbalanced")
	}
}
