package model

// TokenBreakdown splits a token total by category.
type TokenBreakdown struct {
	Input         int64 `json:"input"`
	Output        int64 `json:"output"`
	CacheCreation int64 `json:"cacheCreation"`
	CacheRead     int64 `json:"cacheRead"`
}

// Total returns the sum of all categories.
func (b TokenBreakdown) Total() int64 {
	return SumTokens(b.Input, b.Output, b.CacheCreation, b.CacheRead)
}

// Add accumulates a usage payload.
func (b *TokenBreakdown) Add(u Usage) {
	b.Input = SumTokens(b.Input, u.InputTokens)
	b.Output = SumTokens(b.Output, u.OutputTokens)
	b.CacheCreation = SumTokens(b.CacheCreation, u.CacheCreationTokens)
	b.CacheRead = SumTokens(b.CacheRead, u.CacheReadTokens)
}

// Merge accumulates another breakdown.
func (b *TokenBreakdown) Merge(o TokenBreakdown) {
	b.Input = SumTokens(b.Input, o.Input)
	b.Output = SumTokens(b.Output, o.Output)
	b.CacheCreation = SumTokens(b.CacheCreation, o.CacheCreation)
	b.CacheRead = SumTokens(b.CacheRead, o.CacheRead)
}

// TokenTypeCosts splits a cost total by token category. Precomputed holds
// costs taken verbatim from the transcript, which cannot be split.
type TokenTypeCosts struct {
	Input       float64 `json:"input"`
	Output      float64 `json:"output"`
	CacheWrite  float64 `json:"cacheWrite"`
	CacheRead   float64 `json:"cacheRead"`
	Precomputed float64 `json:"precomputed"`
}

// Total returns the sum of all categories.
func (c TokenTypeCosts) Total() float64 {
	return c.Input + c.Output + c.CacheWrite + c.CacheRead + c.Precomputed
}

// UsageSnapshot is the cost and token total for a set of records.
type UsageSnapshot struct {
	Cost      Maybe[float64]        `json:"cost"`
	Tokens    Maybe[int64]          `json:"tokens"`
	Breakdown Maybe[TokenBreakdown] `json:"breakdown"`
	Costs     TokenTypeCosts        `json:"costs"`
	Records   int                   `json:"records"`
}

// BurnRate is the extrapolated hourly consumption over a recent window.
type BurnRate struct {
	CostPerHour   Maybe[float64] `json:"costPerHour"`
	TokensPerHour Maybe[float64] `json:"tokensPerHour"`
	WindowSeconds float64        `json:"windowSeconds"`
}

// ContextEstimate describes how much of the context window the latest
// request consumed.
type ContextEstimate struct {
	ConsumedTokens      int64 `json:"consumedTokens"`
	LimitTokens         int64 `json:"limitTokens"`
	UsableTokens        int64 `json:"usableTokens"`
	PercentageUsed      int   `json:"percentageUsed"`
	UsablePercentage    int   `json:"usablePercentage"`
	PercentageRemaining int   `json:"percentageRemaining"`
}

// SessionMetrics holds conversation-shape metrics for one transcript.
type SessionMetrics struct {
	ResponseTime    Maybe[float64] `json:"responseTime"`    // seconds
	SessionDuration Maybe[float64] `json:"sessionDuration"` // seconds
	MessageCount    Maybe[int]     `json:"messageCount"`
}

// DailyUsage holds usage totals for one local calendar day.
type DailyUsage struct {
	Day       string         `json:"day"` // YYYY-MM-DD
	Cost      float64        `json:"cost"`
	Breakdown TokenBreakdown `json:"breakdown"`
	Records   int            `json:"records"`
}

// Merge accumulates another day's totals.
func (d *DailyUsage) Merge(o DailyUsage) {
	d.Cost += o.Cost
	d.Breakdown.Merge(o.Breakdown)
	d.Records += o.Records
}
