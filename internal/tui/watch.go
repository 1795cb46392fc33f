// Package tui provides the interactive Bubble Tea views for burnline: a
// live status line preview and the setup form.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/theirongolddev/burnline/internal/cli"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/engine"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
)

// Burn rate decays with wall time even when the transcript is idle.
const refreshInterval = 15 * time.Second

// ReportMsg carries a freshly computed report.
type ReportMsg struct {
	Report  engine.Report
	Elapsed time.Duration
}

// TranscriptChangedMsg is sent when the watched transcript is written.
type TranscriptChangedMsg struct{}

// WatchErrMsg reports a file watcher failure. Watching stops; periodic
// refresh continues.
type WatchErrMsg struct{ Err error }

type tickMsg struct{}

// Watch is the Bubble Tea model behind `burnline watch`.
type Watch struct {
	engine    *engine.Engine
	input     engine.Input
	modelName string
	display   config.DisplayConfig
	watcher   *fsnotify.Watcher

	spinner    spinner.Model
	report     engine.Report
	hasReport  bool
	computing  bool
	dirty      bool
	refreshes  int
	elapsed    time.Duration
	lastUpdate time.Time
	watchErr   error
	width      int
}

// NewWatch creates the watch model. watcher may be nil, in which case the
// view refreshes on a timer only.
func NewWatch(e *engine.Engine, in engine.Input, modelName string, d config.DisplayConfig, watcher *fsnotify.Watcher) Watch {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(cli.ColorAccent)

	return Watch{
		engine:    e,
		input:     in,
		modelName: modelName,
		display:   d,
		watcher:   watcher,
		spinner:   sp,
		computing: true,
	}
}

// WatchTranscript starts an fsnotify watcher on the transcript's directory.
// Claude Code appends to the file, and some editors replace it, so the
// directory is watched rather than the file.
func WatchTranscript(path string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(path), err)
	}
	return w, nil
}

// Init implements tea.Model.
func (m Watch) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.computeCmd(),
		waitForChange(m.watcher, m.input.TranscriptPath),
		tickCmd(),
	)
}

// Update implements tea.Model.
func (m Watch) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			return m.recompute()
		}
		return m, nil

	case ReportMsg:
		m.report = msg.Report
		m.hasReport = true
		m.computing = false
		m.elapsed = msg.Elapsed
		m.lastUpdate = time.Now()
		m.refreshes++
		if m.input.TranscriptPath == "" && msg.Report.TranscriptPath != "" {
			m.input.TranscriptPath = msg.Report.TranscriptPath
		}
		if m.dirty {
			m.dirty = false
			return m.recompute()
		}
		return m, nil

	case TranscriptChangedMsg:
		next, cmd := m.recompute()
		return next, tea.Batch(cmd, waitForChange(m.watcher, m.input.TranscriptPath))

	case WatchErrMsg:
		m.watchErr = msg.Err
		return m, nil

	case tickMsg:
		next, cmd := m.recompute()
		return next, tea.Batch(cmd, tickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// recompute starts a computation, or marks one pending if already running.
func (m Watch) recompute() (Watch, tea.Cmd) {
	if m.computing {
		m.dirty = true
		return m, nil
	}
	m.computing = true
	return m, m.computeCmd()
}

func (m Watch) computeCmd() tea.Cmd {
	e, in := m.engine, m.input
	return func() tea.Msg {
		start := time.Now()
		rep := e.Compute(context.Background(), in)
		return ReportMsg{Report: rep, Elapsed: time.Since(start)}
	}
}

// View implements tea.Model.
func (m Watch) View() string {
	title := lipgloss.NewStyle().Foreground(cli.ColorAccent).Bold(true)
	muted := lipgloss.NewStyle().Foreground(cli.ColorTextMuted)
	warn := lipgloss.NewStyle().Foreground(cli.ColorOrange)

	var b strings.Builder
	b.WriteString("\n  ")
	b.WriteString(title.Render("burnline watch"))
	if m.computing {
		b.WriteString(" " + m.spinner.View())
	}
	b.WriteString("\n\n  ")

	if !m.hasReport {
		b.WriteString(muted.Render("Computing..."))
	} else {
		b.WriteString(cli.RenderStatusLine(m.report, m.modelName, m.display))
	}
	b.WriteString("\n\n")

	if m.hasReport {
		for _, g := range m.gauges() {
			b.WriteString("  " + g + "\n")
		}
		b.WriteString("\n")
	}

	if m.hasReport {
		transcript := m.report.TranscriptPath
		if transcript == "" {
			transcript = "not found"
		}
		b.WriteString(muted.Render(fmt.Sprintf("  transcript: %s", transcript)))
		b.WriteString("\n")
		b.WriteString(muted.Render(fmt.Sprintf("  updated %s in %s  ·  %d refreshes  ·  pricing: %s",
			m.lastUpdate.Format("15:04:05"), m.elapsed.Round(time.Millisecond), m.refreshes, pricingLabel(m.report))))
		b.WriteString("\n")
	}
	if m.watchErr != nil {
		b.WriteString(warn.Render(fmt.Sprintf("  file watching stopped: %s", m.watchErr)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(muted.Render("  r refresh  ·  q quit"))
	b.WriteString("\n")
	return b.String()
}

// gauges renders bars for context use and any configured budgets.
func (m Watch) gauges() []string {
	barWidth := 30
	if m.width > 0 {
		barWidth = min(max(m.width-40, 10), 60)
	}

	var out []string
	if c, ok := m.report.Context.Get(); ok {
		note := fmt.Sprintf("%s of %s usable", cli.FormatNumber(c.ConsumedTokens), cli.FormatNumber(c.UsableTokens))
		out = append(out, gauge("Context", float64(c.UsablePercentage), note, 8, barWidth))
	}
	if pct, ok := m.report.SessionBudget.Percentage.Get(); ok {
		out = append(out, gauge("Session", pct, cli.FormatCost(m.report.Session.Cost.OrElse(0)), 8, barWidth))
	}
	if pct, ok := m.report.DailyBudget.Percentage.Get(); ok {
		today, _ := m.report.Today.Get()
		out = append(out, gauge("Today", pct, cli.FormatCost(today.Cost), 8, barWidth))
	}
	return out
}

func pricingLabel(rep engine.Report) string {
	if rep.PricingSource == "" {
		return "unused"
	}
	return string(rep.PricingSource)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// waitForChange blocks until the watcher reports a write to a transcript.
// With a known path only that file counts; otherwise any .jsonl does.
func waitForChange(w *fsnotify.Watcher, path string) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return nil
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				if path != "" && filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				if path == "" && filepath.Ext(ev.Name) != ".jsonl" {
					continue
				}
				return TranscriptChangedMsg{}
			case err, ok := <-w.Errors:
				if !ok {
					return nil
				}
				return WatchErrMsg{Err: err}
			}
		}
	}
}
