package pipeline

import (
	"math"
	"strings"

	"github.com/theirongolddev/burnline/internal/model"
)

const (
	DefaultContextLimit = 200_000
	// DefaultUsableRatio is the share of the window available before
	// automatic compaction kicks in.
	DefaultUsableRatio = 0.8
)

// ContextWindowEstimator reports context usage from the latest request.
type ContextWindowEstimator struct {
	Limit       int64
	Overrides   map[string]int64 // model substring -> limit
	UsableRatio float64
}

// LimitFor returns the context limit for modelID. The longest matching
// override substring wins.
func (e ContextWindowEstimator) LimitFor(modelID string) int64 {
	limit := e.Limit
	if limit <= 0 {
		limit = DefaultContextLimit
	}

	lower := strings.ToLower(modelID)
	best := ""
	for sub, l := range e.Overrides {
		if sub == "" || l <= 0 || !strings.Contains(lower, strings.ToLower(sub)) {
			continue
		}
		if len(sub) > len(best) || (len(sub) == len(best) && sub < best) {
			best = sub
			limit = l
		}
	}
	return limit
}

// Estimate uses the latest non-sidechain record with positive input tokens.
// Ties on timestamp keep the earliest record in file order. An empty modelID
// falls back to that record's model.
func (e ContextWindowEstimator) Estimate(records []model.Record, modelID string) model.Maybe[model.ContextEstimate] {
	var latest *model.Record
	for i := range records {
		r := &records[i]
		if r.IsSidechain || !r.HasUsage() || r.Usage.InputTokens <= 0 || !r.HasTimestamp() {
			continue
		}
		if latest == nil || r.Timestamp.After(latest.Timestamp) {
			latest = r
		}
	}
	if latest == nil {
		return model.None[model.ContextEstimate]()
	}

	if modelID == "" {
		modelID = latest.Model
	}
	return e.estimate(latest.Usage.Context(), e.LimitFor(modelID))
}

func (e ContextWindowEstimator) estimate(consumed, limit int64) model.Maybe[model.ContextEstimate] {
	if limit <= 0 {
		return model.None[model.ContextEstimate]()
	}
	ratio := e.UsableRatio
	if ratio <= 0 || ratio > 1 {
		ratio = DefaultUsableRatio
	}
	usable := max(int64(math.Round(float64(limit)*ratio)), 1)

	usablePct := percent(consumed, usable)
	return model.Some(model.ContextEstimate{
		ConsumedTokens:      consumed,
		LimitTokens:         limit,
		UsableTokens:        usable,
		PercentageUsed:      percent(consumed, limit),
		UsablePercentage:    usablePct,
		PercentageRemaining: max(0, 100-usablePct),
	})
}

func percent(n, of int64) int {
	p := int(math.Round(float64(n) / float64(of) * 100))
	return min(max(p, 0), 100)
}
