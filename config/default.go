package config

import (
	"sync"
	"sync/atomic"
)

var (
	instance   atomic.Pointer[Config]
	instanceMu sync.Mutex
)

// Default returns the process-wide Config, creating it on first use from the
// packaged defaults and ./ahc.properties. A failed creation is not kept, so
// the next call tries again.
func Default() (*Config, error) {
	if c := instance.Load(); c != nil {
		return c, nil
	}

	instanceMu.Lock()
	defer instanceMu.Unlock()

	if c := instance.Load(); c != nil {
		return c, nil
	}
	c, err := New()
	if err != nil {
		return nil, err
	}
	instance.Store(c)
	return c, nil
}

// ReloadProperties reloads the process-wide Config. It does nothing when
// Default has not been called yet.
func ReloadProperties() error {
	c := instance.Load()
	if c == nil {
		return nil
	}
	return c.Reload()
}
