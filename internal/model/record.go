// Package model defines domain types for burnline usage accounting.
package model

import (
	"math"
	"time"
)

// Role classifies a transcript record for latency pairing.
type Role int

const (
	RoleUnknown Role = iota
	RoleUser
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Usage holds the token counts reported for one API response.
type Usage struct {
	InputTokens         int64 `json:"input_tokens"`
	OutputTokens        int64 `json:"output_tokens"`
	CacheCreationTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadTokens     int64 `json:"cache_read_input_tokens"`
}

// Total returns the sum of all four token categories.
func (u Usage) Total() int64 {
	return SumTokens(u.InputTokens, u.OutputTokens, u.CacheCreationTokens, u.CacheReadTokens)
}

// Context returns the tokens occupying the context window. Output tokens are
// generated, not consumed, so they are excluded.
func (u Usage) Context() int64 {
	return SumTokens(u.InputTokens, u.CacheReadTokens, u.CacheCreationTokens)
}

// SumTokens adds non-negative token counts, saturating at math.MaxInt64
// instead of wrapping. Negative inputs count as zero.
func SumTokens(counts ...int64) int64 {
	var total int64
	for _, n := range counts {
		if n <= 0 {
			continue
		}
		if n > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += n
	}
	return total
}

// Record is one parsed transcript line. It is built once at read time and
// never mutated afterwards.
type Record struct {
	Timestamp    time.Time // zero when missing or unparseable
	RawTimestamp string
	Role         Role
	Usage        *Usage
	UsageKey     string // compact usage JSON, "" when Usage is nil
	CostUSD      *float64
	IsSidechain  bool
	Model        string
}

// HasUsage reports whether the record carries a usage payload.
func (r Record) HasUsage() bool {
	return r.Usage != nil
}

// HasTimestamp reports whether the record has a usable timestamp.
func (r Record) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}
