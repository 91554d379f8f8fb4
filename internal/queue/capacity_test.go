package queue

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCheckCapacity_BucketCount(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	doctor := uuid.New()
	bucket := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	mustBook(t, eng, doctor, bucket, "on the hour")
	mustBook(t, eng, doctor, bucket.Add(59*time.Minute), "end of bucket")
	mustBook(t, eng, doctor, bucket.Add(time.Hour), "next bucket")
	mustBook(t, eng, doctor, bucket.Add(-time.Minute), "previous bucket")

	res := eng.CheckCapacity(doctor, bucket.Add(30*time.Minute))
	if res.Count != 2 {
		t.Errorf("count = %d, want 2 (half-open hour bucket)", res.Count)
	}
	if res.AtCapacity {
		t.Error("2 of 15 should not be at capacity")
	}
	if !res.BucketStart.Equal(bucket) {
		t.Errorf("bucket start = %s, want %s", res.BucketStart, bucket)
	}
}

func TestCheckCapacity_ThresholdAndSuggestions(t *testing.T) {
	eng, _ := newTestEngine(t, Config{CapacityThreshold: 15})
	doctor := uuid.New()
	bucket := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for i := 0; i < 15; i++ {
		mustBook(t, eng, doctor, bucket.Add(time.Duration(i)*time.Minute), "peak hour")
	}
	// Partially fill the next bucket too.
	for i := 0; i < 5; i++ {
		mustBook(t, eng, doctor, bucket.Add(time.Hour+time.Duration(i)*time.Minute), "spill")
	}

	res := eng.CheckCapacity(doctor, bucket)
	if !res.AtCapacity {
		t.Fatalf("count %d at threshold %d should be at capacity", res.Count, res.Threshold)
	}
	if res.Count != 15 {
		t.Errorf("count = %d, want 15", res.Count)
	}

	if len(res.Suggestions) != 3 {
		t.Fatalf("suggestions = %d, want 3", len(res.Suggestions))
	}
	if !res.Suggestions[0].Start.Equal(bucket.Add(time.Hour)) {
		t.Errorf("first suggestion = %s, want next hour", res.Suggestions[0].Start)
	}
	if res.Suggestions[0].Remaining != 10 {
		t.Errorf("first suggestion remaining = %d, want 10", res.Suggestions[0].Remaining)
	}
	if res.Suggestions[1].Remaining != 15 || res.Suggestions[2].Remaining != 15 {
		t.Error("empty buckets should have full room remaining")
	}
}

func TestCheckCapacity_FullAlternativesSkipped(t *testing.T) {
	eng, _ := newTestEngine(t, Config{CapacityThreshold: 2})
	doctor := uuid.New()
	bucket := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	for _, h := range []time.Duration{0, time.Hour} { // slot and slot+1h both full
		mustBook(t, eng, doctor, bucket.Add(h), "a")
		mustBook(t, eng, doctor, bucket.Add(h+time.Minute), "b")
	}

	res := eng.CheckCapacity(doctor, bucket)
	if !res.AtCapacity {
		t.Fatal("bucket should be at capacity")
	}
	for _, s := range res.Suggestions {
		if s.Start.Equal(bucket.Add(time.Hour)) {
			t.Error("a full alternative bucket must not be suggested")
		}
	}
	if len(res.Suggestions) != 2 {
		t.Errorf("suggestions = %d, want 2 (only +2h and +3h have room)", len(res.Suggestions))
	}
}

func TestCheckCapacity_UnknownDoctorEmptyQueue(t *testing.T) {
	eng, _ := newTestEngine(t, Config{})
	res := eng.CheckCapacity(uuid.New(), time.Now())
	if res.Count != 0 || res.AtCapacity {
		t.Errorf("unknown doctor should behave as empty: count=%d at_capacity=%v", res.Count, res.AtCapacity)
	}
}
