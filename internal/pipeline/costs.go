package pipeline

import (
	"context"
	"math"

	"github.com/theirongolddev/burnline/internal/logging"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pricing"

	"github.com/sirupsen/logrus"
)

// A precomputed cost is reported as disagreeing with pricing when it differs
// by more than both thresholds.
const (
	discrepancyRatio  = 0.25
	discrepancyMinUSD = 0.01
)

// Pricer resolves pricing for a model identifier.
type Pricer interface {
	Lookup(ctx context.Context, modelID string) pricing.ModelPricing
}

// CostAggregator sums cost and tokens over deduplicated records.
type CostAggregator struct {
	Pricing Pricer
	Log     logrus.FieldLogger
}

// NewCostAggregator returns an aggregator. A nil pricer uses the offline
// table.
func NewCostAggregator(p Pricer, log logrus.FieldLogger) *CostAggregator {
	if p == nil {
		p = pricing.Static(pricing.OfflineTable())
	}
	return &CostAggregator{Pricing: p, Log: logging.OrDiscard(log)}
}

// Aggregate computes the usage snapshot for records. A precomputed costUSD
// is authoritative; otherwise cost comes from the record model's pricing.
// Cost and token totals each run their own deduplication pass. With no
// contributing records every field is absent.
func (a *CostAggregator) Aggregate(ctx context.Context, records []model.Record) model.UsageSnapshot {
	log := logging.OrDiscard(a.Log)

	var (
		costs        model.TokenTypeCosts
		contributing int
	)
	costDedup := NewDeduplicator()
	for _, r := range records {
		if r.IsSidechain || (!r.HasUsage() && r.CostUSD == nil) {
			continue
		}
		if !costDedup.First(r) {
			log.WithField("timestamp", r.RawTimestamp).Debug("skipping duplicate cost entry")
			continue
		}
		contributing++

		if r.CostUSD != nil {
			costs.Precomputed += *r.CostUSD
			if r.HasUsage() {
				a.checkDiscrepancy(ctx, r, log)
			}
			continue
		}

		split := a.pricingFor(ctx, r).Costs(*r.Usage)
		costs.Input += split.Input
		costs.Output += split.Output
		costs.CacheWrite += split.CacheWrite
		costs.CacheRead += split.CacheRead
	}

	if contributing == 0 {
		return model.UsageSnapshot{}
	}

	var (
		breakdown model.TokenBreakdown
		withUsage int
	)
	tokenDedup := NewDeduplicator()
	for _, r := range records {
		if r.IsSidechain || !r.HasUsage() || !tokenDedup.First(r) {
			continue
		}
		breakdown.Add(*r.Usage)
		withUsage++
	}

	snap := model.UsageSnapshot{
		Cost:    model.Some(costs.Total()),
		Costs:   costs,
		Records: contributing,
	}
	if withUsage > 0 {
		snap.Tokens = model.Some(breakdown.Total())
		snap.Breakdown = model.Some(breakdown)
	}
	return snap
}

func (a *CostAggregator) pricingFor(ctx context.Context, r model.Record) pricing.ModelPricing {
	id := r.Model
	if id == "" {
		id = pricing.DefaultModel
	}
	return a.Pricing.Lookup(ctx, id)
}

func (a *CostAggregator) checkDiscrepancy(ctx context.Context, r model.Record, log logrus.FieldLogger) {
	pre := *r.CostUSD
	recomputed := a.pricingFor(ctx, r).Cost(*r.Usage)
	diff := math.Abs(pre - recomputed)
	if diff <= discrepancyMinUSD || diff <= discrepancyRatio*math.Max(pre, recomputed) {
		return
	}
	log.WithFields(logrus.Fields{
		"timestamp":   r.RawTimestamp,
		"model":       r.Model,
		"precomputed": pre,
		"recomputed":  recomputed,
	}).Debug("precomputed cost disagrees with pricing")
}
