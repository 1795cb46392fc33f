package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/source"
	"github.com/theirongolddev/burnline/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	// Existing config or defaults; a broken file is replaced.
	cfg, _ := loadConfig()

	files, _ := source.ScanDir(cfg.ClaudeDir())
	fmt.Println()
	fmt.Println("  Welcome to burnline!")
	if len(files) > 0 {
		fmt.Printf("  Found %d transcripts in %s\n", len(files), cfg.ClaudeDir())
	}
	fmt.Println()

	vals := tui.SetupValuesFrom(cfg)
	if err := tui.NewSetupForm(&vals).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return fmt.Errorf("setup form: %w", err)
	}
	if err := vals.Apply(&cfg); err != nil {
		return err
	}

	path := configPath()
	if err := config.SaveFile(path, cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `burnline setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
