package cmd

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/pricing"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var pricingCmd = &cobra.Command{
	Use:   "pricing",
	Short: "Inspect and refresh model pricing",
}

var pricingListCmd = &cobra.Command{
	Use:   "list",
	Short: "List known models and their prices (USD per million tokens)",
	Args:  cobra.NoArgs,
	RunE:  runPricingList,
}

var pricingLookupCmd = &cobra.Command{
	Use:   "lookup <model>",
	Short: "Show which pricing a model identifier resolves to",
	Args:  cobra.ExactArgs(1),
	RunE:  runPricingLookup,
}

var pricingRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch the pricing document now and update the disk cache",
	Args:  cobra.NoArgs,
	RunE:  runPricingRefresh,
}

func init() {
	pricingCmd.AddCommand(pricingListCmd, pricingLookupCmd, pricingRefreshCmd)
	rootCmd.AddCommand(pricingCmd)
}

func runPricingList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	table, src := rt.Resolver.Table(cmdContext(cmd))
	fmt.Println(cli.RenderTable(pricingTable(table, src)))
	return nil
}

func pricingTable(table pricing.Table, src pricing.Source) cli.Table {
	ids := lo.Keys(table)
	slices.Sort(ids)

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		p := table[id]
		rows = append(rows, []string{
			id,
			rate(p.Input),
			rate(p.Output),
			rate(p.CacheWrite5m),
			rate(p.CacheWrite1h),
			rate(p.CacheRead),
		})
	}
	return cli.Table{
		Title:   fmt.Sprintf("Pricing (%d models, source: %s)", len(ids), src),
		Headers: []string{"Model", "Input", "Output", "Write 5m", "Write 1h", "Read"},
		Rows:    rows,
	}
}

func runPricingLookup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	id := args[0]
	p := rt.Resolver.Lookup(cmdContext(cmd), id)
	fmt.Println(cli.RenderTable(cli.Table{
		Title: fmt.Sprintf("%s (source: %s)", id, rt.Resolver.Origin()),
		Rows: [][]string{
			{"Resolved to", p.Name},
			{"Input", rate(p.Input)},
			{"Output", rate(p.Output)},
			{"Cache write 5m", rate(p.CacheWrite5m)},
			{"Cache write 1h", rate(p.CacheWrite1h)},
			{"Cache read", rate(p.CacheRead)},
			{"Saved per 1M cache reads", rate(p.CacheSavings(1_000_000))},
		},
	}))
	if strings.HasSuffix(p.Name, "(Unknown Model)") {
		fmt.Fprintf(os.Stderr, "  No pricing matched %q; using default rates.\n", id)
	}
	return nil
}

func runPricingRefresh(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Pricing.Offline {
		return fmt.Errorf("pricing refresh: offline mode is enabled")
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	table, err := rt.Resolver.Refresh(cmdContext(cmd))
	if err != nil {
		return fmt.Errorf("pricing refresh: %w", err)
	}
	fmt.Printf("  Fetched pricing for %d models from %s\n", len(table), cfg.Pricing.URL)
	fmt.Printf("  Cached at %s\n", cfg.PricingCachePath())
	return nil
}

func rate(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
