// Package pricing resolves per-model token prices through a tiered cache:
// memory, disk, network, stale disk, and finally a compiled-in table.
package pricing

import (
	"context"

	"github.com/theirongolddev/burnline/internal/model"
)

// DefaultModel is used for records that do not name a model and for
// identifiers nothing else matches.
const DefaultModel = "claude-3-5-sonnet-20241022"

// ModelPricing holds USD prices per million tokens for one model.
type ModelPricing struct {
	Name         string  `json:"name"`
	Input        float64 `json:"input"`
	Output       float64 `json:"output"`
	CacheWrite5m float64 `json:"cache_write_5m"`
	CacheWrite1h float64 `json:"cache_write_1h"`
	CacheRead    float64 `json:"cache_read"`
}

// Table maps model identifiers to pricing.
type Table map[string]ModelPricing

// Costs splits the cost of a usage payload by token category. Cache
// creation is billed at the 5-minute write rate.
func (p ModelPricing) Costs(u model.Usage) model.TokenTypeCosts {
	return model.TokenTypeCosts{
		Input:      float64(u.InputTokens) / 1_000_000 * p.Input,
		Output:     float64(u.OutputTokens) / 1_000_000 * p.Output,
		CacheWrite: float64(u.CacheCreationTokens) / 1_000_000 * p.CacheWrite5m,
		CacheRead:  float64(u.CacheReadTokens) / 1_000_000 * p.CacheRead,
	}
}

// Cost returns the total USD cost of a usage payload.
func (p ModelPricing) Cost(u model.Usage) float64 {
	return p.Costs(u).Total()
}

// CacheSavings returns how much cache reads saved versus full input pricing.
func (p ModelPricing) CacheSavings(cacheReadTokens int64) float64 {
	return float64(cacheReadTokens) / 1_000_000 * (p.Input - p.CacheRead)
}

func unknownModelPricing(id string) ModelPricing {
	return ModelPricing{
		Name:         id + " (Unknown Model)",
		Input:        3.00,
		Output:       15.00,
		CacheWrite5m: 3.75,
		CacheWrite1h: 6.00,
		CacheRead:    0.30,
	}
}

// Static serves lookups from a fixed table with the default rules.
type Static Table

// Lookup resolves id against the static table.
func (s Static) Lookup(_ context.Context, id string) ModelPricing {
	return Resolve(Table(s), id, DefaultRules)
}
