// Package engine computes every status line metric for one session from a
// single read of its transcript.
package engine

import (
	"context"
	"time"

	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/logging"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pipeline"
	"github.com/theirongolddev/burnline/internal/pricing"
	"github.com/theirongolddev/burnline/internal/source"
	"github.com/theirongolddev/burnline/internal/store"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Input identifies the session to report on.
type Input struct {
	SessionID      string
	TranscriptPath string
	ModelID        string
}

// Report is everything the status line can show. Absent values mean the
// data needed to compute them was not there.
type Report struct {
	SessionID      string                             `json:"sessionId"`
	TranscriptPath string                             `json:"transcriptPath"`
	ModelID        string                             `json:"modelId"`
	Session        model.UsageSnapshot                `json:"session"`
	BurnRate       model.BurnRate                     `json:"burnRate"`
	Context        model.Maybe[model.ContextEstimate] `json:"context"`
	Metrics        model.SessionMetrics               `json:"metrics"`
	Today          model.Maybe[model.DailyUsage]      `json:"today"`
	SessionBudget  model.BudgetStatus                 `json:"sessionBudget"`
	DailyBudget    model.BudgetStatus                 `json:"dailyBudget"`
	PricingSource  pricing.Source                     `json:"pricingSource"`
	GeneratedAt    time.Time                          `json:"generatedAt"`
}

// Engine wires the pipeline stages together. Daily is optional; a nil
// loader leaves Today absent.
type Engine struct {
	ClaudeDir string
	Pricing   *pricing.Resolver
	Costs     *pipeline.CostAggregator
	Burn      *pipeline.BurnRateCalculator
	Context   pipeline.ContextWindowEstimator
	Daily     *pipeline.DailyLoader
	Budgets   config.BudgetConfig
	Clock     clock.Clock
	Log       logrus.FieldLogger
}

// New builds an engine from config. st may be nil.
func New(cfg config.Config, resolver *pricing.Resolver, st *store.Cache, clk clock.Clock, log logrus.FieldLogger) *Engine {
	log = logging.OrDiscard(log)
	clk = clock.OrSystem(clk)

	var pricer pipeline.Pricer = pricing.Static(pricing.OfflineTable())
	if resolver != nil {
		pricer = resolver
	}
	costs := pipeline.NewCostAggregator(pricer, log)
	claudeDir := cfg.ClaudeDir()

	return &Engine{
		ClaudeDir: claudeDir,
		Pricing:   resolver,
		Costs:     costs,
		Burn:      pipeline.NewBurnRateCalculator(clk, costs),
		Context: pipeline.ContextWindowEstimator{
			Limit:       cfg.Context.Limit,
			Overrides:   cfg.Context.Overrides,
			UsableRatio: pipeline.DefaultUsableRatio,
		},
		Daily: &pipeline.DailyLoader{
			ClaudeDir: claudeDir,
			Store:     st,
			Costs:     costs,
			Clock:     clk,
			Log:       log,
		},
		Budgets: cfg.Budget,
		Clock:   clk,
		Log:     log,
	}
}

// Compute builds the report for in. It never fails: a missing transcript
// yields a report with every session metric absent.
func (e *Engine) Compute(ctx context.Context, in Input) Report {
	log := logging.OrDiscard(e.Log)
	start := time.Now()
	rep := Report{
		SessionID:   in.SessionID,
		ModelID:     in.ModelID,
		GeneratedAt: clock.OrSystem(e.Clock).Now(),
	}

	var records []model.Record
	if path, ok := source.ResolveTranscript(e.ClaudeDir, in.TranscriptPath, in.SessionID); ok {
		rep.TranscriptPath = path
		records = source.Collect(path, log)
	} else {
		log.WithFields(logrus.Fields{
			"session":    in.SessionID,
			"transcript": in.TranscriptPath,
		}).Debug("no transcript found")
	}

	costs := e.Costs
	if costs == nil {
		costs = pipeline.NewCostAggregator(nil, log)
	}
	burn := e.Burn
	if burn == nil {
		burn = pipeline.NewBurnRateCalculator(e.Clock, costs)
	}

	// Each stage writes its own field and degrades to None on its own.
	g, gctx := errgroup.WithContext(ctx)
	if len(records) > 0 {
		g.Go(func() error {
			rep.Session = costs.Aggregate(gctx, records)
			return nil
		})
		g.Go(func() error {
			rep.BurnRate = burn.Compute(gctx, records)
			return nil
		})
		g.Go(func() error {
			rep.Context = e.Context.Estimate(records, in.ModelID)
			return nil
		})
		g.Go(func() error {
			rep.Metrics = pipeline.SessionMetrics(records)
			return nil
		})
	}
	if e.Daily != nil {
		g.Go(func() error {
			rep.Today = e.Daily.Today(gctx)
			return nil
		})
	}
	_ = g.Wait()

	rep.SessionBudget = pipeline.Budget(rep.Session.Cost, e.Budgets.SessionUSD, e.Budgets.WarningThreshold)
	todayCost := model.None[float64]()
	if d, ok := rep.Today.Get(); ok {
		todayCost = model.Some(d.Cost)
	}
	rep.DailyBudget = pipeline.Budget(todayCost, e.Budgets.DailyUSD, e.Budgets.WarningThreshold)

	if e.Pricing != nil {
		rep.PricingSource = e.Pricing.Origin()
	}

	log.WithFields(logrus.Fields{
		"records": len(records),
		"pricing": rep.PricingSource,
		"elapsed": time.Since(start).String(),
	}).Debug("report computed")
	return rep
}
