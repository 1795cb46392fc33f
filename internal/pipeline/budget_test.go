package pipeline

import (
	"testing"

	"github.com/theirongolddev/burnline/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestBudget(t *testing.T) {
	tests := []struct {
		name      string
		cost      model.Maybe[float64]
		budget    float64
		warnAt    float64
		wantPct   model.Maybe[float64]
		wantWarn  bool
		indicator string
	}{
		{"under half", model.Some(2.0), 10, 80, model.Some(20.0), false, ""},
		{"past half", model.Some(5.0), 10, 80, model.Some(50.0), false, "+"},
		{"at warning", model.Some(8.0), 10, 80, model.Some(80.0), true, "!"},
		{"over budget capped", model.Some(25.0), 10, 80, model.Some(100.0), true, "!"},
		{"default threshold", model.Some(8.5), 10, 0, model.Some(85.0), true, "!"},
		{"low threshold wins over half", model.Some(3.0), 10, 25, model.Some(30.0), true, "!"},
		{"no cost", model.None[float64](), 10, 80, model.None[float64](), false, ""},
		{"no budget", model.Some(3.0), 0, 80, model.None[float64](), false, ""},
		{"negative cost", model.Some(-1.0), 10, 80, model.None[float64](), false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Budget(tt.cost, tt.budget, tt.warnAt)
			assert.Equal(t, tt.wantPct.Valid, got.Percentage.Valid)
			assert.InDelta(t, tt.wantPct.Value, got.Percentage.Value, 1e-9)
			assert.Equal(t, tt.wantWarn, got.Warning)
			assert.Equal(t, tt.indicator, got.Indicator)
		})
	}
}
