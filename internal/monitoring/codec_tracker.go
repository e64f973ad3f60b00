package monitoring

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go-label-printer/internal/models"
)

// CodecFailure aggregates every failed encoding of one value in one
// symbology.
type CodecFailure struct {
	Fingerprint string     `json:"fingerprint"`
	Value       string     `json:"value"`
	Symbology   string     `json:"symbology"`
	FallbackTo  string     `json:"fallback_to,omitempty"`
	Error       string     `json:"error"`
	Count       int        `json:"count"`
	FirstSeen   time.Time  `json:"first_seen"`
	LastSeen    time.Time  `json:"last_seen"`
	Resolved    bool       `json:"resolved"`
	ResolvedAt  *time.Time `json:"resolved_at,omitempty"`
}

// FailureSummary represents failure counts for one symbology
type FailureSummary struct {
	Count        int       `json:"count"`
	Values       int       `json:"values"`
	LastOccurred time.Time `json:"last_occurred"`
}

// CodecFailureTracker remembers which codes could not be encoded so that
// bad product barcodes surface instead of silently printing as Code 128.
type CodecFailureTracker struct {
	mutex      sync.RWMutex
	failures   map[string]*CodecFailure
	maxEntries int
	retention  time.Duration
	now        func() time.Time
}

func NewCodecFailureTracker(maxEntries int, retention time.Duration) *CodecFailureTracker {
	if maxEntries <= 0 {
		maxEntries = 1000
	}
	return &CodecFailureTracker{
		failures:   make(map[string]*CodecFailure),
		maxEntries: maxEntries,
		retention:  retention,
		now:        time.Now,
	}
}

func fingerprint(value string, symbology models.Symbology) string {
	return fmt.Sprintf("%x", value+"|"+string(symbology))
}

// RecordCodecFailure stores or bumps the failure of value in symbology.
// fallback is the symbology that was used instead, empty if none worked.
func (t *CodecFailureTracker) RecordCodecFailure(value string, symbology, fallback models.Symbology, err error) {
	now := t.now().UTC()
	key := fingerprint(value, symbology)

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.prune(now)

	if existing, ok := t.failures[key]; ok {
		existing.Count++
		existing.LastSeen = now
		existing.FallbackTo = string(fallback)
		existing.Resolved = false
		existing.ResolvedAt = nil
		if err != nil {
			existing.Error = err.Error()
		}
		return
	}

	failure := &CodecFailure{
		Fingerprint: key,
		Value:       value,
		Symbology:   string(symbology),
		FallbackTo:  string(fallback),
		Count:       1,
		FirstSeen:   now,
		LastSeen:    now,
	}
	if err != nil {
		failure.Error = err.Error()
	}
	t.failures[key] = failure

	if len(t.failures) > t.maxEntries {
		t.evictOldest()
	}
}

// GetFailures returns copies of the tracked failures, most recent first.
func (t *CodecFailureTracker) GetFailures(resolved bool, limit int) []CodecFailure {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	out := make([]CodecFailure, 0, len(t.failures))
	for _, f := range t.failures {
		if f.Resolved == resolved {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastSeen.After(out[j].LastSeen)
	})

	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out
}

// Summary groups open failures by requested symbology.
func (t *CodecFailureTracker) Summary() map[string]FailureSummary {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	summary := make(map[string]FailureSummary)
	for _, f := range t.failures {
		if f.Resolved {
			continue
		}
		s := summary[f.Symbology]
		s.Count += f.Count
		s.Values++
		if f.LastSeen.After(s.LastOccurred) {
			s.LastOccurred = f.LastSeen
		}
		summary[f.Symbology] = s
	}
	return summary
}

// Resolve marks a failure as handled, typically after the product barcode
// was corrected.
func (t *CodecFailureTracker) Resolve(fingerprint string) error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	f, ok := t.failures[fingerprint]
	if !ok {
		return fmt.Errorf("codec failure not found: %s", fingerprint)
	}
	now := t.now().UTC()
	f.Resolved = true
	f.ResolvedAt = &now
	return nil
}

// prune drops entries not seen within the retention window.
func (t *CodecFailureTracker) prune(now time.Time) {
	if t.retention <= 0 {
		return
	}
	for key, f := range t.failures {
		if now.Sub(f.LastSeen) > t.retention {
			delete(t.failures, key)
		}
	}
}

func (t *CodecFailureTracker) evictOldest() {
	var oldestKey string
	var oldest time.Time
	for key, f := range t.failures {
		if oldestKey == "" || f.LastSeen.Before(oldest) {
			oldestKey = key
			oldest = f.LastSeen
		}
	}
	if oldestKey != "" {
		delete(t.failures, oldestKey)
	}
}
