package model

// BudgetStatus holds spend against a configured budget.
type BudgetStatus struct {
	Percentage Maybe[float64] `json:"percentage"`
	Warning    bool           `json:"warning"`
	Indicator  string         `json:"indicator"` // "!" at warning, "+" past half, else ""
}
