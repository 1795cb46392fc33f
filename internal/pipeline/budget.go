package pipeline

import (
	"math"

	"github.com/theirongolddev/burnline/internal/model"
)

const (
	DefaultWarningThreshold = 80.0
	halfwayThreshold        = 50.0
)

// Budget reports cost against a USD budget. Percentage is capped at 100.
// A missing cost or non-positive budget yields an empty status.
func Budget(cost model.Maybe[float64], budget, warnAt float64) model.BudgetStatus {
	c, ok := cost.Get()
	if !ok || budget <= 0 || c < 0 {
		return model.BudgetStatus{}
	}
	if warnAt <= 0 {
		warnAt = DefaultWarningThreshold
	}

	pct := math.Min(100, c/budget*100)
	st := model.BudgetStatus{Percentage: model.Some(pct)}
	switch {
	case pct >= warnAt:
		st.Warning = true
		st.Indicator = "!"
	case pct >= halfwayThreshold:
		st.Indicator = "+"
	}
	return st
}
