package config

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Layer names the source a value was resolved from.
type Layer string

const (
	LayerNone     Layer = "none"
	LayerOverride Layer = "override"
	LayerCustom   Layer = "custom"
	LayerDefault  Layer = "default"
)

// Resolution is the cached outcome of resolving one key. A key that no layer
// defines is cached too, with Found set to false.
type Resolution struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Found bool   `json:"found"`
	Layer Layer  `json:"layer"`
}

type resolveFunc func(custom map[string]string, key string) Resolution

// generation pairs one set of custom properties with the cache built on top
// of it. Reload replaces the whole generation, so a lookup only ever sees
// one consistent pair.
type generation struct {
	custom   map[string]string
	resolve  resolveFunc
	loadedAt time.Time

	resolved sync.Map
	flight   singleflight.Group
	size     atomic.Int64
}

func newGeneration(custom map[string]string, resolve resolveFunc, loadedAt time.Time) *generation {
	return &generation{
		custom:   custom,
		resolve:  resolve,
		loadedAt: loadedAt,
	}
}

// lookup reads cached resolutions without locking. Misses for the same key
// share one flight, and the cache is checked again inside it so a caller
// arriving just after a flight ended does not resolve a second time.
func (g *generation) lookup(key string) Resolution {
	if r, ok := g.resolved.Load(key); ok {
		return r.(Resolution)
	}

	r, _, _ := g.flight.Do(key, func() (any, error) {
		if r, ok := g.resolved.Load(key); ok {
			return r, nil
		}
		res := g.resolve(g.custom, key)
		g.resolved.Store(key, res)
		g.size.Add(1)
		return res, nil
	})
	return r.(Resolution)
}

func (g *generation) cached() int {
	return int(g.size.Load())
}
