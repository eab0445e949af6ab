package config

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xuesi9527/async-http-client/internal/properties"
)

// Config resolves keys against runtime overrides, custom properties and
// default properties, in that order, and caches each result until Reload.
type Config struct {
	defaultSource properties.Source
	customSource  properties.Source
	searchPaths   []string
	overrides     Overrides
	logger        *zap.Logger
	clock         func() time.Time

	defaults map[string]string

	mu    sync.Mutex
	state atomic.Pointer[generation]
}

// Option configures New.
type Option func(*Config)

// WithDefaultSource replaces the packaged default resource.
func WithDefaultSource(src properties.Source) Option {
	return func(c *Config) {
		c.defaultSource = src
	}
}

// WithCustomSource replaces the ahc.properties lookup.
func WithCustomSource(src properties.Source) Option {
	return func(c *Config) {
		c.customSource = src
	}
}

// WithSearchPaths sets the directories searched for ahc.properties, in order.
// It is ignored when WithCustomSource is also given.
func WithSearchPaths(dirs ...string) Option {
	return func(c *Config) {
		c.searchPaths = append([]string(nil), dirs...)
	}
}

// WithOverrides replaces the runtime override store.
func WithOverrides(o Overrides) Option {
	return func(c *Config) {
		c.overrides = o
	}
}

// WithClock overrides the time source used to stamp loads, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *Config) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for load and reload events.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New loads the default and custom resources and returns a ready Config.
// Missing resources load as empty; unreadable or malformed ones fail.
func New(opts ...Option) (*Config, error) {
	c := &Config{
		overrides: defaultOverrides(),
		logger:    zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.defaultSource == nil {
		c.defaultSource = packagedDefaults()
	}
	if c.customSource == nil {
		c.customSource = customResource(c.searchPaths)
	}
	if c.overrides == nil {
		c.overrides = OverrideChain{}
	}

	defaults, err := properties.Load(c.defaultSource)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.defaultSource.Name(), err)
	}
	custom, err := properties.Load(c.customSource)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", c.customSource.Name(), err)
	}

	c.defaults = defaults
	c.state.Store(newGeneration(custom, c.resolve, c.clock()))

	c.logger.Debug("configuration loaded",
		zap.String("default_source", c.defaultSource.Name()),
		zap.Int("default_keys", len(defaults)),
		zap.String("custom_source", c.customSource.Name()),
		zap.Int("custom_keys", len(custom)),
	)

	return c, nil
}

// GetString returns the resolved value of key and whether any layer defines it.
func (c *Config) GetString(key string) (string, bool) {
	r := c.Lookup(key)
	return r.Value, r.Found
}

// Lookup returns the cached resolution of key, resolving it on first use.
func (c *Config) Lookup(key string) Resolution {
	return c.state.Load().lookup(key)
}

// GetInt parses the resolved value of key as a base-10 32-bit integer.
func (c *Config) GetInt(key string) (int, error) {
	value, ok := c.GetString(key)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	n, err := strconv.ParseInt(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse %s as int: %w", key, err)
	}
	return int(n), nil
}

// GetBoolean reports whether the resolved value of key equals "true",
// ignoring case. Any other present value is false.
func (c *Config) GetBoolean(key string) (bool, error) {
	value, ok := c.GetString(key)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}
	return strings.EqualFold(value, "true"), nil
}

// Reload re-reads the custom resource and drops every cached resolution.
// The default resource is never re-read. If the custom resource fails to
// load, the previous properties and cache stay in use.
func (c *Config) Reload() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	custom, err := properties.Load(c.customSource)
	if err != nil {
		c.logger.Error("reload failed, keeping previous properties",
			zap.String("source", c.customSource.Name()),
			zap.Error(err),
		)
		return fmt.Errorf("reload %s: %w", c.customSource.Name(), err)
	}

	previous := c.state.Swap(newGeneration(custom, c.resolve, c.clock()))
	c.logger.Info("configuration reloaded",
		zap.String("source", c.customSource.Name()),
		zap.Int("custom_keys", len(custom)),
		zap.Int("dropped_entries", previous.cached()),
	)
	return nil
}

// LoadedAt returns when the custom properties in use were loaded, either by
// New or by the last successful Reload.
func (c *Config) LoadedAt() time.Time {
	return c.state.Load().loadedAt
}

// Keys returns the sorted keys defined by the custom and default layers.
// Override-only keys are not listed.
func (c *Config) Keys() []string {
	seen := make(map[string]struct{}, len(c.defaults))
	for k := range c.defaults {
		seen[k] = struct{}{}
	}
	for k := range c.state.Load().custom {
		seen[k] = struct{}{}
	}
	return slices.Sorted(maps.Keys(seen))
}

// SearchPaths returns the directories searched for ahc.properties, or nil
// when a custom source was supplied.
func (c *Config) SearchPaths() []string {
	src, ok := c.customSource.(properties.SearchPathSource)
	if !ok {
		return nil
	}
	return slices.Clone(src.Dirs)
}

func (c *Config) resolve(custom map[string]string, key string) Resolution {
	if v, ok := c.overrides.Lookup(key); ok {
		return Resolution{Key: key, Value: v, Found: true, Layer: LayerOverride}
	}
	if v, ok := custom[key]; ok {
		return Resolution{Key: key, Value: v, Found: true, Layer: LayerCustom}
	}
	if v, ok := c.defaults[key]; ok {
		return Resolution{Key: key, Value: v, Found: true, Layer: LayerDefault}
	}
	return Resolution{Key: key, Layer: LayerNone}
}
