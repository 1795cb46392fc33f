package pricing

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	table Table
	err   error
	calls int
}

func (s *stubFetcher) Fetch(context.Context) (Table, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

var base = time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)

func movableClock(t *time.Time) clock.Clock {
	return clock.Func(func() time.Time { return *t })
}

func remoteTable() Table {
	return Table{
		"claude-sonnet-4-20250514": {Name: "Sonnet 4", Input: 3, Output: 15, CacheWrite5m: 3.75, CacheWrite1h: 6, CacheRead: 0.3},
		"claude-opus-4-20250514":   {Name: "Opus 4", Input: 15, Output: 75, CacheWrite5m: 18.75, CacheWrite1h: 30, CacheRead: 1.5},
		DefaultModel:               {Name: "Sonnet 3.5", Input: 3, Output: 15, CacheWrite5m: 3.75, CacheWrite1h: 6, CacheRead: 0.3},
	}
}

func TestResolver_OfflineFallback(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("network down")}
	r := NewResolver(NewCache(), Options{
		Fetcher: fetcher,
		Clock:   clock.Fixed(base),
	})

	table, src := r.Table(context.Background())
	assert.Equal(t, SourceOffline, src)
	assert.NotEmpty(t, table)

	p := r.Lookup(context.Background(), "claude-3-5-sonnet-20241022")
	assert.InDelta(t, 3.00, p.Input, 1e-9)
	assert.InDelta(t, 15.00, p.Output, 1e-9)
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolver_MemoryTierAvoidsRefetch(t *testing.T) {
	now := base
	fetcher := &stubFetcher{table: remoteTable()}
	r := NewResolver(NewCache(), Options{Fetcher: fetcher, Clock: movableClock(&now)})

	_, src := r.Table(context.Background())
	require.Equal(t, SourceNetwork, src)

	for range 5 {
		r.Lookup(context.Background(), "claude-opus-4-20250514")
	}
	assert.Equal(t, 1, fetcher.calls)

	now = now.Add(DefaultTTL - time.Second)
	_, src = r.Table(context.Background())
	assert.Equal(t, SourceMemory, src)

	now = now.Add(2 * time.Second)
	_, src = r.Table(context.Background())
	assert.Equal(t, SourceNetwork, src)
	assert.Equal(t, 2, fetcher.calls)
}

func TestResolver_FreshDiskSkipsNetwork(t *testing.T) {
	disk := NewDiskCache(filepath.Join(t.TempDir(), "pricing.json"))
	require.NoError(t, disk.Save(remoteTable(), base.Add(-time.Hour)))

	fetcher := &stubFetcher{err: errors.New("should not be called")}
	r := NewResolver(NewCache(), Options{Disk: disk, Fetcher: fetcher, Clock: clock.Fixed(base)})

	table, src := r.Table(context.Background())
	assert.Equal(t, SourceDisk, src)
	assert.Contains(t, table, "claude-opus-4-20250514")
	assert.Equal(t, 0, fetcher.calls)

	_, src = r.Table(context.Background())
	assert.Equal(t, SourceMemory, src)
}

func TestResolver_StaleDiskWhenNetworkFails(t *testing.T) {
	disk := NewDiskCache(filepath.Join(t.TempDir(), "pricing.json"))
	require.NoError(t, disk.Save(remoteTable(), base.Add(-72*time.Hour)))

	fetcher := &stubFetcher{err: errors.New("timeout")}
	r := NewResolver(NewCache(), Options{Disk: disk, Fetcher: fetcher, Clock: clock.Fixed(base)})

	table, src := r.Table(context.Background())
	assert.Equal(t, SourceStaleDisk, src)
	assert.Contains(t, table, "claude-opus-4-20250514")
	assert.NotContains(t, table, "claude-3-haiku-20240307", "stale disk wins over the offline table")
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolver_NetworkWritesThroughToDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "pricing.json")
	disk := NewDiskCache(path)
	fetcher := &stubFetcher{table: remoteTable()}

	r := NewResolver(NewCache(), Options{Disk: disk, Fetcher: fetcher, Clock: clock.Fixed(base)})
	_, src := r.Table(context.Background())
	require.Equal(t, SourceNetwork, src)

	snap, err := disk.Load()
	require.NoError(t, err)
	assert.Equal(t, base.UnixMilli(), snap.FetchedAt.UnixMilli())
	assert.Len(t, snap.Table, 3)

	// A second process starts with an empty memory cache.
	r2 := NewResolver(NewCache(), Options{Disk: disk, Fetcher: fetcher, Clock: clock.Fixed(base.Add(time.Hour))})
	_, src = r2.Table(context.Background())
	assert.Equal(t, SourceDisk, src)
	assert.Equal(t, 1, fetcher.calls)
}

func TestResolver_FallbackBackoff(t *testing.T) {
	now := base
	fetcher := &stubFetcher{err: errors.New("offline")}
	r := NewResolver(NewCache(), Options{
		Fetcher:        fetcher,
		Clock:          movableClock(&now),
		FailureBackoff: 10 * time.Minute,
	})

	_, src := r.Table(context.Background())
	require.Equal(t, SourceOffline, src)

	now = now.Add(5 * time.Minute)
	_, src = r.Table(context.Background())
	assert.Equal(t, SourceMemory, src)
	assert.Equal(t, 1, fetcher.calls)

	now = now.Add(6 * time.Minute)
	r.Table(context.Background())
	assert.Equal(t, 2, fetcher.calls)
}

func TestResolver_CorruptDiskFallsThrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.json")
	writeFile(t, path, `{"data": {"m": {"input": "cheap"}}, "timestamp": 1}`)

	r := NewResolver(NewCache(), Options{
		Disk:    NewDiskCache(path),
		Fetcher: &stubFetcher{err: errors.New("down")},
		Clock:   clock.Fixed(base),
	})
	_, src := r.Table(context.Background())
	assert.Equal(t, SourceOffline, src)
}

func TestResolver_Refresh(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("down")}
	r := NewResolver(NewCache(), Options{Fetcher: fetcher, Clock: clock.Fixed(base)})

	_, err := r.Refresh(context.Background())
	require.Error(t, err)

	fetcher.err = nil
	fetcher.table = remoteTable()
	table, err := r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Len(t, table, 3)

	_, src := r.Table(context.Background())
	assert.Equal(t, SourceMemory, src)
}

func TestResolver_Overrides(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	r := NewResolver(NewCache(), Options{
		Clock: clock.Fixed(base),
		Overrides: map[string]config.ModelPricingOverride{
			"claude-sonnet-4-20250514": {Input: f(2.5)},
			"local-model":              {Input: f(1), Output: f(2), CacheWrite5m: f(0.5), CacheRead: f(0.1)},
			"partial-unknown":          {Input: f(1)},
		},
	})

	table, _ := r.Table(context.Background())

	sonnet4 := table["claude-sonnet-4-20250514"]
	assert.InDelta(t, 2.5, sonnet4.Input, 1e-9)
	assert.InDelta(t, 15.0, sonnet4.Output, 1e-9, "unset fields keep the resolved value")

	local, ok := table["local-model"]
	require.True(t, ok)
	assert.InDelta(t, 0.5, local.CacheWrite1h, 1e-9)

	assert.NotContains(t, table, "partial-unknown")
	assert.InDelta(t, 3.0, OfflineTable()["claude-sonnet-4-20250514"].Input, 1e-9, "offline table is not mutated")
}

func TestResolve_Order(t *testing.T) {
	table := OfflineTable()

	tests := []struct {
		name string
		id   string
		want ModelPricing
	}{
		{"exact", "claude-3-haiku-20240307", table["claude-3-haiku-20240307"]},
		{"case insensitive", "Claude-3-Haiku-20240307", table["claude-3-haiku-20240307"]},
		{"opus 4.1 family", "claude-opus-4-1-preview", table["claude-opus-4-1-20250805"]},
		{"generic opus", "some-opus-experiment", table["claude-opus-4-20250514"]},
		{"sonnet 4 family", "claude-sonnet-4-5-20250929", table["claude-sonnet-4-20250514"]},
		{"3.7 dotted", "anthropic/sonnet-3.7", table["claude-3-7-sonnet-20250219"]},
		{"haiku 3.5", "claude-3-5-haiku-custom", table["claude-3-5-haiku-20241022"]},
		{"plain haiku", "haiku", table["claude-3-haiku-20240307"]},
		{"unknown uses default", "gpt-4o", table[DefaultModel]},
		{"empty uses default", "", table[DefaultModel]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(table, tt.id, DefaultRules))
		})
	}
}

func TestResolve_AlwaysFullyPopulated(t *testing.T) {
	for _, id := range []string{"", "mystery", "OPUS", "claude-sonnet"} {
		p := Resolve(Table{}, id, DefaultRules)
		assert.Positive(t, p.Input, id)
		assert.Positive(t, p.Output, id)
		assert.Positive(t, p.CacheWrite5m, id)
		assert.Positive(t, p.CacheWrite1h, id)
		assert.Positive(t, p.CacheRead, id)

		again := Resolve(Table{}, id, DefaultRules)
		assert.Equal(t, p, again, "resolution is deterministic")
	}
}

func TestResolve_RuleSkipsMissingFallback(t *testing.T) {
	table := Table{
		"claude-opus-4-20250514": opus,
		DefaultModel:             sonnet,
	}
	// opus-4-1 rule's fallback is absent, so the opus-4 rule answers.
	got := Resolve(table, "claude-opus-4-1-next", DefaultRules)
	assert.Equal(t, opus, got)
}

func TestModelPricing_Cost(t *testing.T) {
	p := OfflineTable()[DefaultModel]
	costs := p.Costs(modelUsage(1_000_000, 100_000, 200_000, 2_000_000))

	assert.InDelta(t, 3.00, costs.Input, 1e-9)
	assert.InDelta(t, 1.50, costs.Output, 1e-9)
	assert.InDelta(t, 0.75, costs.CacheWrite, 1e-9)
	assert.InDelta(t, 0.60, costs.CacheRead, 1e-9)
	assert.InDelta(t, 5.85, p.Cost(modelUsage(1_000_000, 100_000, 200_000, 2_000_000)), 1e-9)
}
