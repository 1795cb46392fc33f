package pipeline

import (
	"slices"
	"sort"
	"time"

	"github.com/theirongolddev/burnline/internal/model"

	"github.com/samber/lo"
)

// Gaps outside (minResponseGap, maxResponseGap) are not response latency:
// either the same turn or the user walking away.
const (
	minResponseGap = 100 * time.Millisecond
	maxResponseGap = 5 * time.Minute
)

// ResponseLatency averages the gap between each assistant record and the
// latest user record strictly before it.
func ResponseLatency(records []model.Record) model.Maybe[float64] {
	users := make([]time.Time, 0, len(records))
	for _, r := range records {
		if r.Role == model.RoleUser && r.HasTimestamp() && !r.IsSidechain {
			users = append(users, r.Timestamp)
		}
	}
	if len(users) == 0 {
		return model.None[float64]()
	}
	slices.SortFunc(users, func(a, b time.Time) int { return a.Compare(b) })

	var (
		sum float64
		n   int
	)
	for _, r := range records {
		if r.Role != model.RoleAssistant || !r.HasTimestamp() || r.IsSidechain {
			continue
		}
		i := sort.Search(len(users), func(i int) bool { return !users[i].Before(r.Timestamp) })
		if i == 0 {
			continue
		}
		gap := r.Timestamp.Sub(users[i-1])
		if gap <= minResponseGap || gap >= maxResponseGap {
			continue
		}
		sum += gap.Seconds()
		n++
	}
	if n == 0 {
		return model.None[float64]()
	}
	return model.Some(sum / float64(n))
}

// SessionMetrics summarizes conversation shape: response latency, the span
// between first and last timestamps, and the number of user messages.
// Duration needs two distinct timestamps.
func SessionMetrics(records []model.Record) model.SessionMetrics {
	m := model.SessionMetrics{ResponseTime: ResponseLatency(records)}
	if len(records) == 0 {
		return m
	}

	stamped := lo.Filter(records, func(r model.Record, _ int) bool { return r.HasTimestamp() })
	if len(stamped) >= 2 {
		first := lo.MinBy(stamped, func(a, b model.Record) bool { return a.Timestamp.Before(b.Timestamp) })
		last := lo.MaxBy(stamped, func(a, b model.Record) bool { return a.Timestamp.After(b.Timestamp) })
		if d := last.Timestamp.Sub(first.Timestamp); d > 0 {
			m.SessionDuration = model.Some(d.Seconds())
		}
	}

	m.MessageCount = model.Some(lo.CountBy(records, func(r model.Record) bool {
		return r.Role == model.RoleUser
	}))
	return m
}
