package pricing

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/logging"

	"github.com/sirupsen/logrus"
)

const (
	// DefaultTTL is how long fetched pricing stays fresh.
	DefaultTTL = 24 * time.Hour
	// DefaultFailureBackoff is how long a fallback table is reused before
	// the network is tried again.
	DefaultFailureBackoff = time.Hour
)

// Options configures a Resolver. Nil Disk or Fetcher disables that tier.
type Options struct {
	Disk           *DiskCache
	Fetcher        Fetcher
	Clock          clock.Clock
	Rules          Rules
	Overrides      map[string]config.ModelPricingOverride
	TTL            time.Duration
	FailureBackoff time.Duration
	Log            logrus.FieldLogger
}

// Resolver answers "what does this model cost" and never fails: every tier
// falls through to the next, ending at the offline table. It is safe for
// concurrent use; only one goroutine walks the tiers at a time.
type Resolver struct {
	mu        sync.Mutex
	cache     *Cache
	disk      *DiskCache
	fetcher   Fetcher
	clock     clock.Clock
	rules     Rules
	overrides map[string]config.ModelPricingOverride
	ttl       time.Duration
	backoff   time.Duration
	log       logrus.FieldLogger
}

// NewResolver builds a resolver around an existing memory cache.
func NewResolver(cache *Cache, opts Options) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	r := &Resolver{
		cache:     cache,
		disk:      opts.Disk,
		fetcher:   opts.Fetcher,
		clock:     clock.OrSystem(opts.Clock),
		rules:     opts.Rules,
		overrides: opts.Overrides,
		ttl:       opts.TTL,
		backoff:   opts.FailureBackoff,
		log:       logging.OrDiscard(opts.Log),
	}
	if r.rules == nil {
		r.rules = DefaultRules
	}
	if r.ttl <= 0 {
		r.ttl = DefaultTTL
	}
	if r.backoff <= 0 {
		r.backoff = DefaultFailureBackoff
	}
	return r
}

// Table returns the current pricing table and the tier that supplied it.
func (r *Resolver) Table(ctx context.Context) (Table, Source) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	if t, ok := r.cache.Get(now); ok {
		return t, SourceMemory
	}

	snap, diskErr := r.loadDisk()
	if diskErr == nil && now.Sub(snap.FetchedAt) < r.ttl {
		t := r.applyOverrides(snap.Table)
		r.cache.Put(t, SourceDisk, snap.FetchedAt, snap.FetchedAt.Add(r.ttl))
		r.log.WithField("models", len(t)).Debug("using disk cached pricing")
		return t, SourceDisk
	}

	if fetched, err := r.fetch(ctx, now); err == nil {
		t := r.applyOverrides(fetched)
		r.cache.Put(t, SourceNetwork, now, now.Add(r.ttl))
		return t, SourceNetwork
	}

	if diskErr == nil {
		t := r.applyOverrides(snap.Table)
		r.cache.Put(t, SourceStaleDisk, snap.FetchedAt, now.Add(r.backoff))
		r.log.WithFields(logrus.Fields{
			"models":    len(t),
			"fetchedAt": snap.FetchedAt.Format(time.RFC3339),
		}).Debug("using stale disk cached pricing")
		return t, SourceStaleDisk
	}

	t := r.applyOverrides(OfflineTable())
	r.cache.Put(t, SourceOffline, time.Time{}, now.Add(r.backoff))
	r.log.WithField("models", len(t)).Debug("using offline pricing")
	return t, SourceOffline
}

// Refresh bypasses the memory and disk tiers and fetches fresh pricing,
// writing it through on success.
func (r *Resolver) Refresh(ctx context.Context) (Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	fetched, err := r.fetch(ctx, now)
	if err != nil {
		return nil, err
	}
	t := r.applyOverrides(fetched)
	r.cache.Put(t, SourceNetwork, now, now.Add(r.ttl))
	return t, nil
}

// Lookup resolves pricing for a model identifier.
func (r *Resolver) Lookup(ctx context.Context, modelID string) ModelPricing {
	t, _ := r.Table(ctx)
	return Resolve(t, modelID, r.rules)
}

// Resolve finds pricing for id in t: exact key, case-insensitive key, the
// first matching rule, the default model, then a hardcoded mid-tier price.
func Resolve(t Table, id string, rules Rules) ModelPricing {
	if id == "" {
		id = DefaultModel
	}
	if p, ok := t[id]; ok {
		return p
	}

	for _, key := range slices.Sorted(maps.Keys(t)) {
		if strings.EqualFold(key, id) {
			return t[key]
		}
	}

	if fallback, ok := rules.Match(id, t); ok {
		return t[fallback]
	}

	if p, ok := t[DefaultModel]; ok {
		return p
	}
	return unknownModelPricing(id)
}

var errNoFetcher = errors.New("pricing: network tier disabled")

func (r *Resolver) fetch(ctx context.Context, now time.Time) (Table, error) {
	if r.fetcher == nil {
		return nil, errNoFetcher
	}

	t, err := r.fetcher.Fetch(ctx)
	if err != nil {
		r.log.WithError(err).Debug("pricing fetch failed, falling back")
		return nil, err
	}

	if r.disk != nil {
		if err := r.disk.Save(t, now); err != nil {
			r.log.WithError(err).WithField("path", r.disk.Path()).Debug("failed to save pricing cache")
		}
	}
	return t, nil
}

func (r *Resolver) loadDisk() (Snapshot, error) {
	if r.disk == nil {
		return Snapshot{}, ErrNoDiskCache
	}
	snap, err := r.disk.Load()
	if err != nil && !errors.Is(err, ErrNoDiskCache) {
		r.log.WithError(err).WithField("path", r.disk.Path()).Debug("ignoring unreadable pricing cache")
	}
	return snap, err
}

// applyOverrides returns a copy of t with user overrides applied. An
// override for an unknown model is added only when it supplies every
// required rate.
func (r *Resolver) applyOverrides(t Table) Table {
	if len(r.overrides) == 0 {
		return t
	}
	out := maps.Clone(t)
	for id, o := range r.overrides {
		p, ok := out[id]
		if !ok {
			if o.Input == nil || o.Output == nil || o.CacheWrite5m == nil || o.CacheRead == nil {
				r.log.WithField("model", id).Warn("ignoring incomplete pricing override for unknown model")
				continue
			}
			p = ModelPricing{Name: id}
		}
		setRate(&p.Input, o.Input)
		setRate(&p.Output, o.Output)
		setRate(&p.CacheWrite5m, o.CacheWrite5m)
		setRate(&p.CacheRead, o.CacheRead)
		switch {
		case o.CacheWrite1h != nil:
			setRate(&p.CacheWrite1h, o.CacheWrite1h)
		case !ok:
			p.CacheWrite1h = p.CacheWrite5m
		}
		out[id] = p
	}
	return out
}

func setRate(dst *float64, v *float64) {
	if v != nil && *v >= 0 {
		*dst = *v
	}
}

// String describes a pricing entry for diagnostics.
func (p ModelPricing) String() string {
	return fmt.Sprintf("%s in=%.2f out=%.2f cw5m=%.2f cw1h=%.2f cr=%.2f",
		p.Name, p.Input, p.Output, p.CacheWrite5m, p.CacheWrite1h, p.CacheRead)
}

// Origin reports the tier behind the most recently resolved table. It is
// empty until the first lookup.
func (r *Resolver) Origin() Source {
	src, _ := r.cache.Origin()
	return src
}
