package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/engine"
	"github.com/theirongolddev/burnline/internal/model"

	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session <session-id | transcript.jsonl>",
	Short: "Detailed usage report for one session",
	Args:  cobra.ExactArgs(1),
	RunE:  runSession,
}

var flagSessionModel string

func init() {
	sessionCmd.Flags().StringVarP(&flagSessionModel, "model", "m", "", "Model id used for the context window limit")
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	in := engine.Input{SessionID: args[0], TranscriptPath: args[0], ModelID: flagSessionModel}
	rep := rt.Engine.Compute(cmdContext(cmd), in)
	if rep.TranscriptPath == "" {
		return fmt.Errorf("no transcript found for %q under %s", args[0], cfg.ClaudeDir())
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("Session " + rep.SessionID))
	fmt.Println()
	for _, t := range sessionTables(rep) {
		fmt.Println(cli.RenderTable(t))
	}
	return nil
}

// sessionTables lays a report out as the usage, token and activity tables.
func sessionTables(rep engine.Report) []cli.Table {
	s := rep.Session
	usage := cli.Table{
		Title:   "Usage",
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Transcript", rep.TranscriptPath},
			{"Cost", orDash(s.Cost, cli.FormatCost)},
			{"Tokens", orDash(s.Tokens, cli.FormatTokens)},
			{"Records", cli.FormatNumber(int64(s.Records))},
			{"Budget", budgetCell(rep.SessionBudget)},
			{"Burn rate", orDash(rep.BurnRate.CostPerHour, cli.FormatRate)},
			{"Token rate", orDash(rep.BurnRate.TokensPerHour, cli.FormatTokenRate)},
			{"Pricing", string(rep.PricingSource)},
		},
	}

	tables := []cli.Table{usage}

	if b, ok := s.Breakdown.Get(); ok {
		c := s.Costs
		tables = append(tables, cli.Table{
			Title:   "Tokens",
			Headers: []string{"Type", "Tokens", "Cost"},
			Rows: [][]string{
				{"Input", cli.FormatTokens(b.Input), cli.FormatCost(c.Input)},
				{"Output", cli.FormatTokens(b.Output), cli.FormatCost(c.Output)},
				{"Cache write", cli.FormatTokens(b.CacheCreation), cli.FormatCost(c.CacheWrite)},
				{"Cache read", cli.FormatTokens(b.CacheRead), cli.FormatCost(c.CacheRead)},
				{"Precomputed", "", cli.FormatCost(c.Precomputed)},
				{"---"},
				{"Total", cli.FormatTokens(b.Total()), cli.FormatCost(c.Total())},
			},
		})
	}

	activity := [][]string{
		{"Messages", orDash(rep.Metrics.MessageCount, func(n int) string { return cli.FormatNumber(int64(n)) })},
		{"Duration", orDash(rep.Metrics.SessionDuration, cli.FormatDuration)},
		{"Response time", orDash(rep.Metrics.ResponseTime, cli.FormatLatency)},
	}
	if c, ok := rep.Context.Get(); ok {
		activity = append(activity,
			[]string{"Context", fmt.Sprintf("%s / %s", cli.FormatNumber(c.ConsumedTokens), cli.FormatNumber(c.LimitTokens))},
			[]string{"Context used", fmt.Sprintf("%d%% (%d%% of usable)", c.PercentageUsed, c.UsablePercentage)},
			[]string{"", cli.RenderProgressBar(c.UsablePercentage, 20)},
		)
	}
	tables = append(tables, cli.Table{
		Title:   "Activity",
		Headers: []string{"Metric", "Value"},
		Rows:    activity,
	})
	return tables
}

func orDash[T any](m model.Maybe[T], format func(T) string) string {
	if v, ok := m.Get(); ok {
		return format(v)
	}
	return "-"
}

func budgetCell(b model.BudgetStatus) string {
	if !b.Percentage.Valid {
		return "not set"
	}
	return strings.TrimSpace(cli.FormatBudget(b))
}
