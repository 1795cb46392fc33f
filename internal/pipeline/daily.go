package pipeline

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/logging"
	"github.com/theirongolddev/burnline/internal/model"
	"github.com/theirongolddev/burnline/internal/source"
	"github.com/theirongolddev/burnline/internal/store"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

const dayLayout = "2006-01-02"

// DayKey returns the local calendar day of t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Local().Format(dayLayout)
}

// StartOfDay returns local midnight for the day containing t.
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.Local)
}

// DailyLoader totals usage across every transcript for a calendar day.
// Store is optional; without it every candidate file is parsed.
type DailyLoader struct {
	ClaudeDir string
	Store     *store.Cache
	Costs     *CostAggregator
	Clock     clock.Clock
	Log       logrus.FieldLogger
	Workers   int
}

// LoadStats describes how a day's totals were assembled.
type LoadStats struct {
	Candidates int
	CacheHits  int
	Parsed     int
	Pruned     int // tracked files no longer on disk
	Tracked    int // files in the store after the load
}

// Today returns today's totals, or None when no record today has usage.
func (l *DailyLoader) Today(ctx context.Context) model.Maybe[model.DailyUsage] {
	log := logging.OrDiscard(l.Log)
	now := clock.OrSystem(l.Clock).Now()

	usage, stats, err := l.Load(ctx, DayKey(now), StartOfDay(now))
	if err != nil {
		log.WithError(err).Debug("daily usage unavailable")
		return model.None[model.DailyUsage]()
	}
	log.WithFields(logrus.Fields{
		"candidates": stats.Candidates,
		"cacheHits":  stats.CacheHits,
		"parsed":     stats.Parsed,
		"pruned":     stats.Pruned,
		"tracked":    stats.Tracked,
	}).Debug("daily usage loaded")

	if usage.Records == 0 {
		return model.None[model.DailyUsage]()
	}
	return model.Some(usage)
}

// Load sums day's usage over transcripts modified at or after since.
// Unchanged files are served from the store; the rest are parsed in a
// bounded worker pool and written back.
func (l *DailyLoader) Load(ctx context.Context, day string, since time.Time) (model.DailyUsage, LoadStats, error) {
	log := logging.OrDiscard(l.Log)
	total := model.DailyUsage{Day: day}

	files, err := source.ScanDir(l.ClaudeDir)
	if err != nil {
		return total, LoadStats{}, fmt.Errorf("scanning %s: %w", l.ClaudeDir, err)
	}

	// Subagent transcripts hold only sidechain records.
	files = lo.Reject(files, func(f source.DiscoveredFile, _ int) bool { return f.IsSubagent })
	candidates := lo.Filter(files, func(f source.DiscoveredFile, _ int) bool {
		return !f.ModTime.Before(since)
	})
	stats := LoadStats{Candidates: len(candidates)}

	var (
		tracked map[string]store.FileInfo
		cached  map[string]model.DailyUsage
	)
	if l.Store != nil {
		if tracked, err = l.Store.GetTrackedFiles(); err != nil {
			log.WithError(err).Debug("reading file tracker")
			tracked = nil
		}
		stats.Pruned = l.prune(tracked, files)
	}
	if len(candidates) == 0 {
		stats.Tracked = l.trackedCount()
		return total, stats, nil
	}
	if l.Store != nil {
		if cached, err = l.Store.LoadDay(day); err != nil {
			log.WithError(err).Debug("reading cached daily usage")
			tracked, cached = nil, nil
		}
	}

	// Diff: partition into unchanged and changed
	var toParse []source.DiscoveredFile
	for _, f := range candidates {
		info, ok := tracked[f.Path]
		if ok && info.MtimeNs == f.ModTime.UnixNano() && info.SizeBytes == f.Size {
			stats.CacheHits++
			if u, ok := cached[f.Path]; ok {
				total.Merge(u)
			}
			continue
		}
		toParse = append(toParse, f)
	}

	results := l.parseAll(ctx, toParse)
	for i, days := range results {
		if days == nil {
			continue
		}
		stats.Parsed++
		if u, ok := days[day]; ok {
			total.Merge(u)
		}
		if l.Store == nil {
			continue
		}
		f := toParse[i]
		if err := l.Store.SaveFileDays(f.Path, f.ModTime.UnixNano(), f.Size, lo.Values(days)); err != nil {
			log.WithError(err).WithField("path", f.Path).Debug("caching daily usage")
		}
	}

	stats.Tracked = l.trackedCount()
	return total, stats, nil
}

func (l *DailyLoader) trackedCount() int {
	if l.Store == nil {
		return 0
	}
	n, err := l.Store.FileCount()
	if err != nil {
		return 0
	}
	return n
}

// prune drops store entries for transcripts that are no longer on disk.
func (l *DailyLoader) prune(tracked map[string]store.FileInfo, files []source.DiscoveredFile) int {
	if len(tracked) == 0 {
		return 0
	}
	present := lo.SliceToMap(files, func(f source.DiscoveredFile) (string, struct{}) {
		return f.Path, struct{}{}
	})
	pruned := 0
	for path := range tracked {
		if _, ok := present[path]; ok {
			continue
		}
		if err := l.Store.DeleteFile(path); err != nil {
			logging.OrDiscard(l.Log).WithError(err).WithField("path", path).Debug("pruning file tracker")
			continue
		}
		pruned++
	}
	return pruned
}

// SummarizeFile aggregates one transcript per local calendar day.
func (l *DailyLoader) SummarizeFile(ctx context.Context, path string) map[string]model.DailyUsage {
	costs := l.Costs
	if costs == nil {
		costs = NewCostAggregator(nil, l.Log)
	}

	records := source.Collect(path, l.Log)
	byDay := lo.GroupBy(
		lo.Filter(records, func(r model.Record, _ int) bool { return r.HasTimestamp() }),
		func(r model.Record) string { return DayKey(r.Timestamp) },
	)

	out := make(map[string]model.DailyUsage, len(byDay))
	for day, recs := range byDay {
		snap := costs.Aggregate(ctx, recs)
		if snap.Records == 0 {
			continue
		}
		out[day] = model.DailyUsage{
			Day:       day,
			Cost:      snap.Cost.OrElse(0),
			Breakdown: snap.Breakdown.OrElse(model.TokenBreakdown{}),
			Records:   snap.Records,
		}
	}
	return out
}

// parseAll summarizes files with a bounded worker pool. Entries for files
// skipped after cancellation are nil.
func (l *DailyLoader) parseAll(ctx context.Context, files []source.DiscoveredFile) []map[string]model.DailyUsage {
	results := make([]map[string]model.DailyUsage, len(files))
	if len(files) == 0 {
		return results
	}

	numWorkers := l.Workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	for i := range files {
		work <- i
	}
	close(work)

	var wg sync.WaitGroup
	var processed atomic.Int64

	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for idx := range work {
				if ctx.Err() != nil {
					continue
				}
				results[idx] = l.SummarizeFile(ctx, files[idx].Path)
				processed.Add(1)
			}
		}()
	}
	wg.Wait()

	logging.OrDiscard(l.Log).WithFields(logrus.Fields{
		"files":   len(files),
		"parsed":  processed.Load(),
		"workers": numWorkers,
	}).Debug("parsed transcripts")
	return results
}
