package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/source"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parse builds records the way the transcript reader does.
func parse(t *testing.T, lines ...string) []model.Record {
	t.Helper()
	out := make([]model.Record, 0, len(lines))
	for _, l := range lines {
		r, ok := source.ParseLine([]byte(l))
		require.True(t, ok, "unparseable fixture: %s", l)
		out = append(out, r)
	}
	return out
}

func stamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339Nano)
}

func assistantLine(ts time.Time, modelID string, in, out, create, read int64) string {
	return fmt.Sprintf(`{"type":"assistant","timestamp":%q,"message":{"model":%q,"usage":{"input_tokens":%d,"output_tokens":%d,"cache_creation_input_tokens":%d,"cache_read_input_tokens":%d}}}`,
		stamp(ts), modelID, in, out, create, read)
}

func userLine(ts time.Time) string {
	return fmt.Sprintf(`{"type":"user","timestamp":%q,"message":{"role":"user","content":"hi"}}`, stamp(ts))
}

var t0 = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)

func TestAggregate_ComputedCost(t *testing.T) {
	records := parse(t,
		userLine(t0),
		assistantLine(t0.Add(time.Second), "claude-3-5-sonnet-20241022", 1000, 500, 0, 0),
	)

	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)

	cost, ok := snap.Cost.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.0105, cost, 1e-9)
	assert.InDelta(t, 0.003, snap.Costs.Input, 1e-9)
	assert.InDelta(t, 0.0075, snap.Costs.Output, 1e-9)
	assert.Equal(t, model.Some(int64(1500)), snap.Tokens)
	assert.Equal(t, 1, snap.Records)
}

func TestAggregate_EmptyModelUsesDefault(t *testing.T) {
	records := parse(t, fmt.Sprintf(`{"timestamp":%q,"message":{"usage":{"input_tokens":1000000}}}`, stamp(t0)))
	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)
	assert.InDelta(t, 3.0, snap.Cost.OrElse(-1), 1e-9)
}

func TestAggregate_DuplicatesCountedOnce(t *testing.T) {
	line := assistantLine(t0, "claude-sonnet-4-20250514", 100, 50, 10, 1000)
	once := parse(t, line)
	twice := parse(t, line, line)

	agg := NewCostAggregator(nil, nil)
	a := agg.Aggregate(context.Background(), once)
	b := agg.Aggregate(context.Background(), twice)

	assert.Equal(t, a, b)
	assert.Equal(t, model.Some(int64(1160)), b.Tokens)
}

func TestAggregate_DedupIdempotent(t *testing.T) {
	lines := []string{
		userLine(t0),
		assistantLine(t0.Add(2*time.Second), "claude-opus-4-20250514", 10, 20, 30, 40),
		assistantLine(t0.Add(5*time.Second), "claude-3-5-haiku-20241022", 500, 60, 0, 7),
		fmt.Sprintf(`{"type":"assistant","timestamp":%q,"costUSD":0.42}`, stamp(t0.Add(9*time.Second))),
	}
	doubled := append(append([]string{}, lines...), lines...)

	agg := NewCostAggregator(nil, nil)
	assert.Equal(t,
		agg.Aggregate(context.Background(), parse(t, lines...)),
		agg.Aggregate(context.Background(), parse(t, doubled...)),
	)
}

func TestAggregate_SameTimestampDifferentUsage(t *testing.T) {
	records := parse(t,
		assistantLine(t0, "claude-3-5-sonnet-20241022", 100, 0, 0, 0),
		assistantLine(t0, "claude-3-5-sonnet-20241022", 200, 0, 0, 0),
	)
	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)
	assert.Equal(t, model.Some(int64(300)), snap.Tokens, "different payloads are distinct events")
}

func TestAggregate_BreakdownSumsToTokens(t *testing.T) {
	records := parse(t,
		assistantLine(t0, "claude-3-5-sonnet-20241022", 25000, 5000, 2000, 300),
		assistantLine(t0.Add(time.Minute), "claude-3-5-sonnet-20241022", 7, 11, 13, 17),
	)
	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)

	b, ok := snap.Breakdown.Get()
	require.True(t, ok)
	assert.Equal(t, b.Input+b.Output+b.CacheCreation+b.CacheRead, snap.Tokens.OrElse(-1))
}

func TestAggregate_PrecomputedCostWins(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	records := parse(t, fmt.Sprintf(
		`{"type":"assistant","timestamp":%q,"costUSD":5.0,"message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1000,"output_tokens":100}}}`,
		stamp(t0)))

	snap := NewCostAggregator(nil, logger).Aggregate(context.Background(), records)
	assert.InDelta(t, 5.0, snap.Cost.OrElse(0), 1e-9)
	assert.InDelta(t, 5.0, snap.Costs.Precomputed, 1e-9)
	assert.Equal(t, model.Some(int64(1100)), snap.Tokens)

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "precomputed cost disagrees with pricing" {
			found = true
			assert.InDelta(t, 5.0, e.Data["precomputed"], 1e-9)
		}
	}
	assert.True(t, found, "discrepancy is logged")
}

func TestAggregate_SmallDiscrepancyNotLogged(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	// Recomputed: 1000 input tokens of Sonnet 3.5 = $0.003.
	records := parse(t, fmt.Sprintf(
		`{"type":"assistant","timestamp":%q,"costUSD":0.005,"message":{"model":"claude-3-5-sonnet-20241022","usage":{"input_tokens":1000}}}`,
		stamp(t0)))
	NewCostAggregator(nil, logger).Aggregate(context.Background(), records)

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, "precomputed cost disagrees with pricing", e.Message)
	}
}

func TestAggregate_PrecomputedWithoutUsage(t *testing.T) {
	records := parse(t, fmt.Sprintf(`{"type":"assistant","timestamp":%q,"costUSD":0.25}`, stamp(t0)))
	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)

	assert.Equal(t, model.Some(0.25), snap.Cost)
	assert.False(t, snap.Tokens.Valid)
	assert.False(t, snap.Breakdown.Valid)
}

func TestAggregate_NothingContributes(t *testing.T) {
	agg := NewCostAggregator(nil, nil)

	for name, records := range map[string][]model.Record{
		"nil":        nil,
		"users only": parse(t, userLine(t0), userLine(t0.Add(time.Minute))),
	} {
		snap := agg.Aggregate(context.Background(), records)
		assert.False(t, snap.Cost.Valid, name)
		assert.False(t, snap.Tokens.Valid, name)
		assert.False(t, snap.Breakdown.Valid, name)
	}
}

func TestAggregate_ZeroUsageIsStillPresent(t *testing.T) {
	records := parse(t, assistantLine(t0, "claude-3-5-sonnet-20241022", 0, 0, 0, 0))
	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)
	assert.Equal(t, model.Some(0.0), snap.Cost)
	assert.Equal(t, model.Some(int64(0)), snap.Tokens)
}

func TestAggregate_IgnoresSidechain(t *testing.T) {
	records := parse(t,
		assistantLine(t0, "claude-3-5-sonnet-20241022", 100, 0, 0, 0),
		fmt.Sprintf(`{"type":"assistant","isSidechain":true,"timestamp":%q,"costUSD":9.99,"message":{"usage":{"input_tokens":5000}}}`, stamp(t0.Add(time.Second))),
	)
	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)
	assert.Equal(t, model.Some(int64(100)), snap.Tokens)
	assert.Less(t, snap.Cost.OrElse(100), 1.0)
}

func TestUnique(t *testing.T) {
	line := assistantLine(t0, "m", 1, 1, 0, 0)
	records := parse(t, line, userLine(t0), line, userLine(t0))

	got := Unique(records)
	require.Len(t, got, 2)
	assert.Equal(t, model.RoleAssistant, got[0].Role)
	assert.Equal(t, model.RoleUser, got[1].Role)
}

func TestAggregate_HugeCountsDoNotWrap(t *testing.T) {
	records := parse(t,
		assistantLine(t0, "claude-sonnet-4-20250514", 5e18, 5e18, 5e18, 5e18),
		assistantLine(t0.Add(time.Second), "claude-sonnet-4-20250514", 5e18, 5e18, 5e18, 5e18),
		assistantLine(t0.Add(2*time.Second), "claude-sonnet-4-20250514", 5e18, 5e18, 5e18, 5e18),
	)

	snap := NewCostAggregator(nil, nil).Aggregate(context.Background(), records)

	tokens, ok := snap.Tokens.Get()
	require.True(t, ok)
	assert.Positive(t, tokens)
	b, ok := snap.Breakdown.Get()
	require.True(t, ok)
	assert.Equal(t, b.Total(), tokens)
	assert.Positive(t, b.Input)
	cost, _ := snap.Cost.Get()
	assert.Positive(t, cost)
}
