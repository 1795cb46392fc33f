// Package cmd implements the burnline CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/burnline/internal/config"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := configPath()
	fmt.Printf("  Config file: %s\n", path)
	if _, err := os.Stat(path); err == nil {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Printf("  Claude directory: %s\n", cfg.ClaudeDir())
	fmt.Printf("  Pricing cache:    %s\n", cfg.PricingCachePath())
	fmt.Printf("  Usage cache:      %s\n", cfg.UsageDBPath())
	fmt.Println()

	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	fmt.Println()
	fmt.Println("  Run `burnline setup` to reconfigure.")
	return nil
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	return config.Path()
}
