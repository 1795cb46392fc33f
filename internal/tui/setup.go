package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/burnline/internal/config"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers collected by the setup form. Budgets are
// strings so the form can accept an empty answer.
type SetupValues struct {
	ClaudeDir     string
	Segments      []string
	SessionType   string
	ColorProfile  string
	SessionBudget string
	DailyBudget   string
	Offline       bool
}

// SetupValuesFrom seeds the form from an existing config.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		ClaudeDir:     cfg.General.ClaudeDir,
		Segments:      append([]string(nil), cfg.Display.Segments...),
		SessionType:   cfg.Display.SessionType,
		ColorProfile:  cfg.Display.ColorProfile,
		SessionBudget: budgetString(cfg.Budget.SessionUSD),
		DailyBudget:   budgetString(cfg.Budget.DailyUSD),
		Offline:       cfg.Pricing.Offline,
	}
}

// Apply writes the answers into cfg.
func (v SetupValues) Apply(cfg *config.Config) error {
	session, err := parseBudget(v.SessionBudget)
	if err != nil {
		return fmt.Errorf("session budget: %w", err)
	}
	daily, err := parseBudget(v.DailyBudget)
	if err != nil {
		return fmt.Errorf("daily budget: %w", err)
	}

	cfg.General.ClaudeDir = strings.TrimSpace(v.ClaudeDir)
	cfg.Display.Segments = append([]string(nil), v.Segments...)
	if v.SessionType != "" {
		cfg.Display.SessionType = v.SessionType
	}
	if v.ColorProfile != "" {
		cfg.Display.ColorProfile = v.ColorProfile
	}
	cfg.Budget.SessionUSD = session
	cfg.Budget.DailyUSD = daily
	cfg.Pricing.Offline = v.Offline
	return nil
}

// NewSetupForm builds the huh form bound to vals.
func NewSetupForm(vals *SetupValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Claude data directory").
				Description("Leave blank for ~/.claude").
				Value(&vals.ClaudeDir),
			huh.NewMultiSelect[string]().
				Title("Segments").
				Description("Shown left to right in this order").
				Options(huh.NewOptions(
					config.SegmentModel,
					config.SegmentSession,
					config.SegmentToday,
					config.SegmentContext,
					config.SegmentBurn,
					config.SegmentMetrics,
				)...).
				Value(&vals.Segments),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Session display").
				Options(
					huh.NewOption("Cost ($1.23)", "cost"),
					huh.NewOption("Tokens (45.6K tokens)", "tokens"),
					huh.NewOption("Both", "both"),
					huh.NewOption("Breakdown (1.2Kin + 300out + 4.5Mcached)", "breakdown"),
				).
				Value(&vals.SessionType),
			huh.NewSelect[string]().
				Title("Color profile").
				Options(huh.NewOptions("truecolor", "ansi256", "ansi", "none")...).
				Value(&vals.ColorProfile),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Session budget (USD)").
				Description("Blank disables").
				Validate(validateBudget).
				Value(&vals.SessionBudget),
			huh.NewInput().
				Title("Daily budget (USD)").
				Description("Blank disables").
				Validate(validateBudget).
				Value(&vals.DailyBudget),
			huh.NewConfirm().
				Title("Offline pricing only?").
				Description("Never fetch the pricing document").
				Value(&vals.Offline),
		),
	)
}

var errNegativeBudget = errors.New("must not be negative")

func validateBudget(s string) error {
	_, err := parseBudget(s)
	return err
}

func parseBudget(s string) (float64, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v < 0 {
		return 0, errNegativeBudget
	}
	return v, nil
}

func budgetString(v float64) string {
	if v <= 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
