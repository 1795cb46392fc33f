package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Midday avoids local-midnight edge cases in any time zone.
var today = time.Date(2025, 8, 10, 12, 0, 0, 0, time.Local)

func writeTranscript(t *testing.T, claudeDir, project, session string, lines ...string) string {
	t.Helper()
	path := filepath.Join(claudeDir, "projects", project, session+".jsonl")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o600))
	return path
}

func dailyFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeTranscript(t, dir, "-home-proj-a", "s1",
		userLine(today.Add(-time.Hour)),
		costLine(today.Add(-time.Hour+time.Second), 1.25, 1000),
		costLine(today.Add(-24*time.Hour), 50, 99999), // yesterday
	)
	writeTranscript(t, dir, "-home-proj-b", "s2",
		costLine(today.Add(-2*time.Hour), 0.75, 500),
		costLine(today.Add(-2*time.Hour), 0.75, 500), // replayed
	)
	writeTranscript(t, dir, "-home-proj-b", "idle",
		userLine(today.Add(-3*time.Hour)),
	)
	return dir
}

func TestDailyLoader_Today(t *testing.T) {
	l := &DailyLoader{ClaudeDir: dailyFixture(t), Clock: clock.Fixed(today), Workers: 2}

	got, ok := l.Today(context.Background()).Get()
	require.True(t, ok)
	assert.Equal(t, DayKey(today), got.Day)
	assert.InDelta(t, 2.0, got.Cost, 1e-9)
	assert.Equal(t, int64(1500), got.Breakdown.Total())
	assert.Equal(t, 2, got.Records)
}

func TestDailyLoader_NothingToday(t *testing.T) {
	dir := t.TempDir()
	writeTranscript(t, dir, "p", "old", costLine(today.Add(-48*time.Hour), 3, 1))

	l := &DailyLoader{ClaudeDir: dir, Clock: clock.Fixed(today)}
	assert.False(t, l.Today(context.Background()).Valid)

	l = &DailyLoader{ClaudeDir: filepath.Join(dir, "missing"), Clock: clock.Fixed(today)}
	assert.False(t, l.Today(context.Background()).Valid)
}

func TestDailyLoader_SkipsFilesOlderThanSince(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "p", "s", costLine(today.Add(-time.Hour), 1, 1))
	old := today.Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	l := &DailyLoader{ClaudeDir: dir, Clock: clock.Fixed(today)}
	_, stats, err := l.Load(context.Background(), DayKey(today), StartOfDay(today))
	require.NoError(t, err)
	assert.Zero(t, stats.Candidates, "an unmodified file cannot hold today's records")
}

func TestDailyLoader_UsesStore(t *testing.T) {
	dir := dailyFixture(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	l := &DailyLoader{ClaudeDir: dir, Store: st, Clock: clock.Fixed(today)}
	day, since := DayKey(today), StartOfDay(today)

	first, stats, err := l.Load(context.Background(), day, since)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Parsed)
	assert.Zero(t, stats.CacheHits)
	assert.Equal(t, 3, stats.Tracked)

	second, stats, err := l.Load(context.Background(), day, since)
	require.NoError(t, err)
	assert.Zero(t, stats.Parsed)
	assert.Equal(t, 3, stats.CacheHits)
	assert.Equal(t, first, second)

	// Growing a file invalidates only that file.
	path := writeTranscript(t, dir, "-home-proj-b", "s2",
		costLine(today.Add(-2*time.Hour), 0.75, 500),
		costLine(today.Add(-90*time.Minute), 1, 100),
	)
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, later, later))

	third, stats, err := l.Load(context.Background(), day, since)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 2, stats.CacheHits)
	assert.InDelta(t, 3.0, third.Cost, 1e-9)
}

func TestDailyLoader_SkipsSubagentFiles(t *testing.T) {
	dir := dailyFixture(t)
	writeTranscript(t, dir, "-home-proj-a", filepath.Join("s1", "subagents", "agent-1"),
		costLine(today.Add(-time.Hour), 9, 9000),
	)

	l := &DailyLoader{ClaudeDir: dir, Clock: clock.Fixed(today)}
	day, stats, err := l.Load(context.Background(), DayKey(today), StartOfDay(today))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Candidates)
	assert.InDelta(t, 2.0, day.Cost, 1e-9)
}

func TestDailyLoader_PrunesVanishedFiles(t *testing.T) {
	dir := dailyFixture(t)
	st, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	l := &DailyLoader{ClaudeDir: dir, Store: st, Clock: clock.Fixed(today)}
	day, since := DayKey(today), StartOfDay(today)

	_, stats, err := l.Load(context.Background(), day, since)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Tracked)
	assert.Zero(t, stats.Pruned)

	require.NoError(t, os.Remove(filepath.Join(dir, "projects", "-home-proj-b", "s2.jsonl")))

	got, stats, err := l.Load(context.Background(), day, since)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Pruned)
	assert.Equal(t, 2, stats.Tracked)
	assert.Equal(t, 2, stats.CacheHits)
	assert.InDelta(t, 1.25, got.Cost, 1e-9)

	tracked, err := st.GetTrackedFiles()
	require.NoError(t, err)
	assert.Len(t, tracked, 2)
}

func TestDailyLoader_PrunesWithNoCandidates(t *testing.T) {
	dir := t.TempDir()
	path := writeTranscript(t, dir, "p", "s", costLine(today.Add(-time.Hour), 1, 1))
	st, err := store.Open(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	l := &DailyLoader{ClaudeDir: dir, Store: st, Clock: clock.Fixed(today)}
	_, stats, err := l.Load(context.Background(), DayKey(today), StartOfDay(today))
	require.NoError(t, err)
	require.Equal(t, 1, stats.Tracked)

	require.NoError(t, os.Remove(path))
	_, stats, err = l.Load(context.Background(), DayKey(today), StartOfDay(today))
	require.NoError(t, err)
	assert.Zero(t, stats.Candidates)
	assert.Equal(t, 1, stats.Pruned)
	assert.Zero(t, stats.Tracked)
}

func TestDailyLoader_SummarizeFile(t *testing.T) {
	dir := dailyFixture(t)
	l := &DailyLoader{}

	days := l.SummarizeFile(context.Background(), filepath.Join(dir, "projects", "-home-proj-a", "s1.jsonl"))
	require.Len(t, days, 2)
	assert.InDelta(t, 50, days[DayKey(today.Add(-24*time.Hour))].Cost, 1e-9)
	assert.InDelta(t, 1.25, days[DayKey(today)].Cost, 1e-9)
}

func TestStartOfDay(t *testing.T) {
	got := StartOfDay(today)
	assert.Equal(t, 0, got.Hour())
	assert.Equal(t, DayKey(today), DayKey(got))
	assert.False(t, got.After(today))
}
