package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/engine"
	"github.com/theirongolddev/burnline/internal/hook"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	flagConfig     string
	flagDataDir    string
	flagDebug      bool
	flagNoCache    bool
	flagOffline    bool
	flagJSON       bool
	flagSession    string
	flagTranscript string
	flagModel      string
)

var rootCmd = &cobra.Command{
	Use:   "burnline",
	Short: "Claude Code status line with cost and usage accounting",
	Long: `Reads the status line hook document from stdin and prints one line:
session cost, today's spend, context window use and burn rate.

Configure it in Claude Code's settings.json:
  "statusLine": {"type": "command", "command": "burnline"}`,
	SilenceUsage: true,
	RunE:         runStatusLine,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default "+config.Path()+")")
	rootCmd.PersistentFlags().StringVarP(&flagDataDir, "data-dir", "d", "", "Claude data directory (default ~/.claude)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Write debug logs to stderr or the configured log file")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip the SQLite daily usage cache")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Never fetch pricing from the network")

	rootCmd.Flags().BoolVar(&flagJSON, "json", false, "Print the full report as JSON")
	rootCmd.Flags().StringVarP(&flagSession, "session", "s", "", "Session id, overrides the hook input")
	rootCmd.Flags().StringVarP(&flagTranscript, "transcript", "t", "", "Transcript path, overrides the hook input")
	rootCmd.Flags().StringVarP(&flagModel, "model", "m", "", "Model id, overrides the hook input")
}

func runStatusLine(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	var stdin io.Reader
	if !isTerminal(os.Stdin) {
		stdin = os.Stdin
	}
	opts := statusOptions{
		SessionID:      flagSession,
		TranscriptPath: flagTranscript,
		ModelID:        flagModel,
		JSON:           flagJSON,
	}
	return writeStatusLine(cmdContext(cmd), rt, cfg.Display, stdin, os.Stdout, opts)
}

// statusOptions carries flag overrides for the hook input.
type statusOptions struct {
	SessionID      string
	TranscriptPath string
	ModelID        string
	JSON           bool
}

// writeStatusLine decodes the hook document from in (which may be nil),
// computes the report and writes it to out. A malformed hook document is
// logged and the line is still printed from whatever the flags provide.
func writeStatusLine(ctx context.Context, rt *runtime, d config.DisplayConfig, in io.Reader, out io.Writer, opts statusOptions) error {
	var data hook.Data
	if in != nil {
		parsed, err := hook.Parse(in)
		switch {
		case err == nil:
			data = parsed
		case errors.Is(err, hook.ErrEmptyInput):
		default:
			rt.Log.WithError(err).Warn("ignoring hook input")
		}
	}

	input := engine.Input{
		SessionID:      firstNonEmpty(opts.SessionID, data.SessionID),
		TranscriptPath: firstNonEmpty(opts.TranscriptPath, data.TranscriptPath),
		ModelID:        firstNonEmpty(opts.ModelID, data.Model.ID),
	}
	rep := rt.Engine.Compute(ctx, input)

	if opts.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	_, err := fmt.Fprintln(out, cli.RenderStatusLine(rep, data.ModelName(), d))
	return err
}

// loadConfig reads the config file and applies persistent flag overrides.
func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFile(configPath())
	if err != nil {
		return cfg, err
	}

	if flagDataDir != "" {
		cfg.General.ClaudeDir = flagDataDir
	}
	if flagDebug {
		cfg.General.Debug = true
	}
	if flagOffline {
		cfg.Pricing.Offline = true
	}
	lipgloss.SetColorProfile(colorProfile(cfg.Display.ColorProfile))
	return cfg, nil
}

// colorProfile maps the config's color_profile to a termenv profile.
// Unknown names get full color.
func colorProfile(name string) termenv.Profile {
	switch name {
	case "none", "ascii":
		return termenv.Ascii
	case "ansi", "ansi16":
		return termenv.ANSI
	case "ansi256":
		return termenv.ANSI256
	default:
		return termenv.TrueColor
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
