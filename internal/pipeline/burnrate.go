package pipeline

import (
	"context"
	"time"

	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/model"

	"github.com/samber/lo"
)

const (
	// DefaultLookback bounds which records feed the burn rate.
	DefaultLookback = 2 * time.Hour
	// DefaultBurnFloor keeps a burst of recent activity from extrapolating
	// to an absurd hourly figure.
	DefaultBurnFloor = 30 * time.Minute
)

// BurnRateCalculator extrapolates recent consumption to an hourly rate.
type BurnRateCalculator struct {
	Clock    clock.Clock
	Costs    *CostAggregator
	Lookback time.Duration
	Floor    time.Duration
}

// NewBurnRateCalculator returns a calculator with the default window.
func NewBurnRateCalculator(c clock.Clock, costs *CostAggregator) *BurnRateCalculator {
	return &BurnRateCalculator{
		Clock:    c,
		Costs:    costs,
		Lookback: DefaultLookback,
		Floor:    DefaultBurnFloor,
	}
}

// Compute divides the cost and tokens of records inside the lookback window
// by the time since the earliest of them, floored. Rates are absent when the
// window holds nothing billable.
func (b *BurnRateCalculator) Compute(ctx context.Context, records []model.Record) model.BurnRate {
	now := clock.OrSystem(b.Clock).Now()
	lookback := b.Lookback
	if lookback <= 0 {
		lookback = DefaultLookback
	}
	floor := b.Floor
	if floor <= 0 {
		floor = DefaultBurnFloor
	}

	window := lo.Filter(records, func(r model.Record, _ int) bool {
		return r.HasTimestamp() && now.Sub(r.Timestamp) < lookback
	})
	if len(window) == 0 {
		return model.BurnRate{}
	}

	earliest := lo.MinBy(window, func(a, b model.Record) bool {
		return a.Timestamp.Before(b.Timestamp)
	}).Timestamp
	elapsed := max(now.Sub(earliest), floor)
	hours := elapsed.Hours()

	costs := b.Costs
	if costs == nil {
		costs = NewCostAggregator(nil, nil)
	}
	snap := costs.Aggregate(ctx, window)

	rate := model.BurnRate{WindowSeconds: elapsed.Seconds()}
	if c, ok := snap.Cost.Get(); ok && c > 0 {
		rate.CostPerHour = model.Some(c / hours)
	}
	if t, ok := snap.Tokens.Get(); ok && t > 0 {
		rate.TokensPerHour = model.Some(float64(t) / hours)
	}
	return rate
}
