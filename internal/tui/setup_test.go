package tui

import (
	"testing"

	"github.com/theirongolddev/burnline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupValues_RoundTrip(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Budget.SessionUSD = 2.5

	vals := SetupValuesFrom(cfg)
	assert.Equal(t, "2.5", vals.SessionBudget)
	assert.Empty(t, vals.DailyBudget)

	vals.DailyBudget = "$20"
	vals.SessionType = "breakdown"
	vals.Segments = []string{config.SegmentContext, config.SegmentModel}
	vals.Offline = true

	require.NoError(t, vals.Apply(&cfg))
	assert.InDelta(t, 2.5, cfg.Budget.SessionUSD, 1e-9)
	assert.InDelta(t, 20.0, cfg.Budget.DailyUSD, 1e-9)
	assert.Equal(t, "breakdown", cfg.Display.SessionType)
	assert.Equal(t, []string{config.SegmentContext, config.SegmentModel}, cfg.Display.Segments)
	assert.True(t, cfg.Pricing.Offline)
}

func TestSetupValues_ApplyRejectsBadBudget(t *testing.T) {
	cfg := config.DefaultConfig()
	for _, bad := range []string{"lots", "-5"} {
		vals := SetupValuesFrom(cfg)
		vals.SessionBudget = bad
		assert.Error(t, vals.Apply(&cfg), bad)
	}
	assert.Zero(t, cfg.Budget.SessionUSD, "config is untouched on error")
}

func TestValidateBudget(t *testing.T) {
	assert.NoError(t, validateBudget(""))
	assert.NoError(t, validateBudget(" 12.50 "))
	assert.ErrorIs(t, validateBudget("-1"), errNegativeBudget)
}

func TestNewSetupForm(t *testing.T) {
	vals := SetupValuesFrom(config.DefaultConfig())
	assert.NotNil(t, NewSetupForm(&vals))
}
