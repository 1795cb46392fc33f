package pricing

import "strings"

// Rule maps identifier fragments to a canonical model whose pricing applies.
type Rule struct {
	Patterns []string
	Fallback string
}

// Rules is evaluated in order; put specific version strings before generic
// family names.
type Rules []Rule

// DefaultRules covers the known Claude families.
var DefaultRules = Rules{
	{Patterns: []string{"opus-4-1", "claude-opus-4-1"}, Fallback: "claude-opus-4-1-20250805"},
	{Patterns: []string{"opus-4", "claude-opus-4"}, Fallback: "claude-opus-4-20250514"},
	{Patterns: []string{"sonnet-4", "claude-sonnet-4"}, Fallback: "claude-sonnet-4-20250514"},
	{Patterns: []string{"sonnet-3.7", "3-7-sonnet"}, Fallback: "claude-3-7-sonnet-20250219"},
	{Patterns: []string{"3-5-sonnet", "sonnet-3.5"}, Fallback: "claude-3-5-sonnet-20241022"},
	{Patterns: []string{"3-5-haiku", "haiku-3.5"}, Fallback: "claude-3-5-haiku-20241022"},
	{Patterns: []string{"haiku", "3-haiku"}, Fallback: "claude-3-haiku-20240307"},
	{Patterns: []string{"opus"}, Fallback: "claude-opus-4-20250514"},
	{Patterns: []string{"sonnet"}, Fallback: DefaultModel},
}

// Match returns the fallback of the first rule with a pattern contained in
// id whose fallback exists in t. Matching is case-insensitive.
func (rs Rules) Match(id string, t Table) (string, bool) {
	lower := strings.ToLower(id)
	for _, r := range rs {
		if _, ok := t[r.Fallback]; !ok {
			continue
		}
		for _, p := range r.Patterns {
			if strings.Contains(lower, p) {
				return r.Fallback, true
			}
		}
	}
	return "", false
}
