package cmd

import (
	"github.com/theirongolddev/burnline/internal/clock"
	"github.com/theirongolddev/burnline/internal/config"
	"github.com/theirongolddev/burnline/internal/engine"
	"github.com/theirongolddev/burnline/internal/logging"
	"github.com/theirongolddev/burnline/internal/pricing"
	"github.com/theirongolddev/burnline/internal/store"

	"github.com/sirupsen/logrus"
)

// runtime bundles the long-lived pieces every command needs.
type runtime struct {
	Config   config.Config
	Log      *logrus.Logger
	Resolver *pricing.Resolver
	Store    *store.Cache
	Engine   *engine.Engine
}

// newRuntime wires logging, pricing, the daily usage cache and the engine.
// An unavailable cache only costs speed, so it is logged and skipped.
func newRuntime(cfg config.Config) *runtime {
	log := logging.Setup(cfg.Log, cfg.General.Debug)
	resolver := newResolver(cfg, log)

	var st *store.Cache
	if !flagNoCache {
		c, err := store.Open(cfg.UsageDBPath())
		if err != nil {
			log.WithError(err).Warn("daily usage cache unavailable, parsing every file")
		} else {
			st = c
		}
	}

	return &runtime{
		Config:   cfg,
		Log:      log,
		Resolver: resolver,
		Store:    st,
		Engine:   engine.New(cfg, resolver, st, clock.System{}, log),
	}
}

func newResolver(cfg config.Config, log logrus.FieldLogger) *pricing.Resolver {
	opts := pricing.Options{
		Disk:      pricing.NewDiskCache(cfg.PricingCachePath()),
		Overrides: cfg.Pricing.Overrides,
		Log:       log,
	}
	if !cfg.Pricing.Offline {
		opts.Fetcher = pricing.NewHTTPFetcher(cfg.Pricing.URL, cfg.PricingTimeout(), log)
	}
	return pricing.NewResolver(pricing.NewCache(), opts)
}

// Close releases the cache and log file.
func (r *runtime) Close() {
	if r.Store != nil {
		if err := r.Store.Close(); err != nil {
			r.Log.WithError(err).Debug("closing daily usage cache")
		}
	}
	logging.Close(r.Log)
}
