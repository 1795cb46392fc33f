package cmd

import (
	"fmt"

	"github.com/theirongolddev/burnline/internal/engine"
	"github.com/theirongolddev/burnline/internal/source"
	"github.com/theirongolddev/burnline/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <session-id | transcript.jsonl>",
	Short: "Live status line preview that refreshes as the transcript grows",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

var flagWatchModel string

func init() {
	watchCmd.Flags().StringVarP(&flagWatchModel, "model", "m", "", "Model id used for the context window limit")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	rt := newRuntime(cfg)
	defer rt.Close()

	path, ok := source.ResolveTranscript(cfg.ClaudeDir(), args[0], args[0])
	if !ok {
		return fmt.Errorf("no transcript found for %q under %s", args[0], cfg.ClaudeDir())
	}

	var watcher *fsnotify.Watcher
	if w, err := tui.WatchTranscript(path); err != nil {
		rt.Log.WithError(err).Warn("file watching unavailable, refreshing on a timer")
	} else {
		watcher = w
		defer func() { _ = watcher.Close() }()
	}

	in := engine.Input{SessionID: args[0], TranscriptPath: path, ModelID: flagWatchModel}
	m := tui.NewWatch(rt.Engine, in, flagWatchModel, cfg.Display, watcher)
	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
