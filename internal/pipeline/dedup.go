// Package pipeline turns filtered transcript records into cost, token,
// burn-rate and context metrics.
package pipeline

import "github.com/theirongolddev/burnline/internal/model"

const emptyUsageKey = "{}"

// Fingerprint identifies the underlying event a record describes. Records
// replayed into the log share a timestamp and usage payload.
func Fingerprint(r model.Record) string {
	key := r.UsageKey
	if key == "" {
		key = emptyUsageKey
	}
	return r.RawTimestamp + "|" + key
}

// Deduplicator tracks fingerprints seen in one aggregation pass.
type Deduplicator struct {
	seen map[string]struct{}
}

// NewDeduplicator returns an empty deduplicator.
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{})}
}

// First reports whether r is the first record with its fingerprint, and
// marks it seen.
func (d *Deduplicator) First(r model.Record) bool {
	fp := Fingerprint(r)
	if _, dup := d.seen[fp]; dup {
		return false
	}
	d.seen[fp] = struct{}{}
	return true
}

// Unique returns records with later duplicates removed, in input order.
func Unique(records []model.Record) []model.Record {
	d := NewDeduplicator()
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if d.First(r) {
			out = append(out, r)
		}
	}
	return out
}
