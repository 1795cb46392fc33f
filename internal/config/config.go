// Package config loads and saves the burnline TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultPricingURL is the authoritative pricing document.
const DefaultPricingURL = "https://raw.githubusercontent.com/Owloops/claude-powerline/main/pricing.json"

// Config holds all burnline configuration.
type Config struct {
	General GeneralConfig `toml:"general"`
	Display DisplayConfig `toml:"display"`
	Budget  BudgetConfig  `toml:"budget"`
	Context ContextConfig `toml:"context"`
	Pricing PricingConfig `toml:"pricing"`
	Log     LogConfig     `toml:"log"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	ClaudeDir string `toml:"claude_dir,omitempty"`
	Debug     bool   `toml:"debug"`
}

// DisplayConfig controls which segments render and how.
type DisplayConfig struct {
	Segments     []string `toml:"segments"`
	SessionType  string   `toml:"session_type"` // cost, tokens, both, breakdown
	ColorProfile string   `toml:"color_profile"`
	Separator    string   `toml:"separator"`
}

// BudgetConfig holds spend limits. Zero disables a budget.
type BudgetConfig struct {
	SessionUSD       float64 `toml:"session_usd"`
	DailyUSD         float64 `toml:"daily_usd"`
	WarningThreshold float64 `toml:"warning_threshold"`
}

// ContextConfig holds context window limits.
type ContextConfig struct {
	Limit int64 `toml:"limit"`
	// Overrides maps a model id substring to a limit, e.g. "[1m]" = 1000000.
	Overrides map[string]int64 `toml:"overrides,omitempty"`
}

// PricingConfig controls pricing resolution.
type PricingConfig struct {
	URL        string                          `toml:"url"`
	Offline    bool                            `toml:"offline"`
	TimeoutSec int                             `toml:"timeout_sec"`
	CachePath  string                          `toml:"cache_path,omitempty"`
	Overrides  map[string]ModelPricingOverride `toml:"overrides,omitempty"`
}

// ModelPricingOverride holds per-model pricing overrides in USD per million
// tokens. Unset fields keep the resolved value.
type ModelPricingOverride struct {
	Input        *float64 `toml:"input,omitempty"`
	Output       *float64 `toml:"output,omitempty"`
	CacheWrite5m *float64 `toml:"cache_write_5m,omitempty"`
	CacheWrite1h *float64 `toml:"cache_write_1h,omitempty"`
	CacheRead    *float64 `toml:"cache_read,omitempty"`
}

// LogConfig configures the optional rotating log file.
type LogConfig struct {
	File       string `toml:"file,omitempty"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Segment names understood by the renderer.
const (
	SegmentModel   = "model"
	SegmentSession = "session"
	SegmentToday   = "today"
	SegmentContext = "context"
	SegmentBurn    = "burn"
	SegmentMetrics = "metrics"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Display: DisplayConfig{
			Segments:     []string{SegmentModel, SegmentSession, SegmentToday, SegmentContext, SegmentBurn},
			SessionType:  "cost",
			ColorProfile: "truecolor",
			Separator:    " │ ",
		},
		Budget: BudgetConfig{
			WarningThreshold: 80,
		},
		Context: ContextConfig{
			Limit: 200_000,
		},
		Pricing: PricingConfig{
			URL:        DefaultPricingURL,
			TimeoutSec: 5,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "burnline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "burnline")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "burnline")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "burnline")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFile(Path())
}

// LoadFile reads the config at path, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.normalize()
	applyEnv(&cfg)
	return cfg, nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes the config to path.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// ClaudeDir returns the configured Claude data directory or ~/.claude.
func (c Config) ClaudeDir() string {
	if c.General.ClaudeDir != "" {
		return c.General.ClaudeDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude")
}

// PricingCachePath returns the on-disk pricing mirror location.
func (c Config) PricingCachePath() string {
	if c.Pricing.CachePath != "" {
		return c.Pricing.CachePath
	}
	return filepath.Join(CacheDir(), "pricing.json")
}

// UsageDBPath returns the daily usage cache database location.
func (c Config) UsageDBPath() string {
	return filepath.Join(CacheDir(), "usage.db")
}

// PricingTimeout returns the network fetch timeout.
func (c Config) PricingTimeout() time.Duration {
	return time.Duration(c.Pricing.TimeoutSec) * time.Second
}

// normalize restores defaults for values a partial config file zeroed out.
func (c *Config) normalize() {
	def := DefaultConfig()
	if c.Context.Limit <= 0 {
		c.Context.Limit = def.Context.Limit
	}
	if c.Pricing.URL == "" {
		c.Pricing.URL = def.Pricing.URL
	}
	if c.Pricing.TimeoutSec <= 0 {
		c.Pricing.TimeoutSec = def.Pricing.TimeoutSec
	}
	if c.Budget.WarningThreshold <= 0 {
		c.Budget.WarningThreshold = def.Budget.WarningThreshold
	}
	if c.Display.SessionType == "" {
		c.Display.SessionType = def.Display.SessionType
	}
	if c.Display.Separator == "" {
		c.Display.Separator = def.Display.Separator
	}
	if c.Display.ColorProfile == "" {
		c.Display.ColorProfile = def.Display.ColorProfile
	}
}

func applyEnv(c *Config) {
	for _, key := range []string{"BURNLINE_DEBUG", "CLAUDE_POWERLINE_DEBUG"} {
		if envBool(key) {
			c.General.Debug = true
		}
	}
	if envBool("BURNLINE_OFFLINE") {
		c.Pricing.Offline = true
	}
}

// envBool treats any non-empty value other than a false literal as true.
func envBool(key string) bool {
	v := os.Getenv(key)
	if v == "" {
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}
