package monitoring

import (
	"errors"
	"testing"
	"time"

	"go-label-printer/internal/models"
)

func TestCodecFailureTrackerAggregates(t *testing.T) {
	tracker := NewCodecFailureTracker(10, time.Hour)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	bad := errors.New("checksum mismatch")
	tracker.RecordCodecFailure("5901234123458", models.SymbologyEAN13, models.SymbologyCode128, bad)
	clock = clock.Add(time.Minute)
	tracker.RecordCodecFailure("5901234123458", models.SymbologyEAN13, models.SymbologyCode128, bad)
	tracker.RecordCodecFailure("ÄÖÜ", models.SymbologyCode39, "", errors.New("invalid character"))

	open := tracker.GetFailures(false, 0)
	if len(open) != 2 {
		t.Fatalf("expected 2 distinct failures, got %d", len(open))
	}
	var ean CodecFailure
	for _, f := range open {
		if f.Symbology == "EAN13" {
			ean = f
		}
	}
	if ean.Count != 2 || ean.FallbackTo != "CODE128" || !ean.LastSeen.After(ean.FirstSeen) {
		t.Fatalf("unexpected aggregate %+v", ean)
	}

	summary := tracker.Summary()
	if summary["EAN13"].Count != 2 || summary["CODE39"].Values != 1 {
		t.Fatalf("unexpected summary %+v", summary)
	}

	if err := tracker.Resolve(ean.Fingerprint); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(tracker.GetFailures(true, 0)) != 1 || len(tracker.GetFailures(false, 0)) != 1 {
		t.Fatal("resolve did not move the failure")
	}
	if err := tracker.Resolve("nope"); err == nil {
		t.Fatal("expected error for unknown fingerprint")
	}
}

func TestCodecFailureTrackerEvictsAndPrunes(t *testing.T) {
	tracker := NewCodecFailureTracker(2, time.Hour)
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	for _, v := range []string{"A", "B", "C"} {
		tracker.RecordCodecFailure(v, models.SymbologyEAN8, "", nil)
		clock = clock.Add(time.Second)
	}
	failures := tracker.GetFailures(false, 0)
	if len(failures) != 2 || failures[0].Value != "C" || failures[1].Value != "B" {
		t.Fatalf("expected oldest evicted, got %+v", failures)
	}

	clock = clock.Add(2 * time.Hour)
	tracker.RecordCodecFailure("D", models.SymbologyEAN8, "", nil)
	failures = tracker.GetFailures(false, 0)
	if len(failures) != 1 || failures[0].Value != "D" {
		t.Fatalf("expected stale entries pruned, got %+v", failures)
	}
}
