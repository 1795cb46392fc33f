package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/pipeline"

	"github.com/spf13/cobra"
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Usage across every session since local midnight",
	Args:  cobra.NoArgs,
	RunE:  runToday,
}

var flagDate string

func init() {
	todayCmd.Flags().StringVar(&flagDate, "date", "", "Report another local day (YYYY-MM-DD)")
	rootCmd.AddCommand(todayCmd)
}

func runToday(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	date := time.Now()
	if flagDate != "" {
		date, err = time.ParseInLocation(time.DateOnly, flagDate, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
	}

	day, stats, err := rt.Engine.Daily.Load(cmdContext(cmd), pipeline.DayKey(date), pipeline.StartOfDay(date))
	if err != nil {
		return fmt.Errorf("loading today's usage: %w", err)
	}

	if stats.Parsed > 0 || stats.CacheHits > 0 {
		fmt.Fprintf(os.Stderr, "  %d files: %d cached + %d parsed\n", stats.Candidates, stats.CacheHits, stats.Parsed)
	}
	if stats.Pruned > 0 {
		fmt.Fprintf(os.Stderr, "  pruned %d vanished files, %d tracked\n", stats.Pruned, stats.Tracked)
	}

	cost := model.None[float64]()
	if day.Records > 0 {
		cost = model.Some(day.Cost)
	}
	budget := pipeline.Budget(cost, cfg.Budget.DailyUSD, cfg.Budget.WarningThreshold)
	b := day.Breakdown

	fmt.Println()
	fmt.Println(cli.RenderTitle("Usage " + day.Day))
	fmt.Println()
	fmt.Println(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Cost", cli.FormatCost(day.Cost)},
			{"Budget", budgetCell(budget)},
			{"Records", cli.FormatNumber(int64(day.Records))},
			{"---"},
			{"Input", cli.FormatTokens(b.Input)},
			{"Output", cli.FormatTokens(b.Output)},
			{"Cache write", cli.FormatTokens(b.CacheCreation)},
			{"Cache read", cli.FormatTokens(b.CacheRead)},
			{"Total tokens", cli.FormatTokens(b.Total())},
		},
	}))
	return nil
}
