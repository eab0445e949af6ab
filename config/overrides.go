package config

import (
	"os"
	"sync"
)

// Overrides is the runtime override store consulted before any file layer.
// Keys are matched exactly.
type Overrides interface {
	Lookup(key string) (string, bool)
}

// PropertyStore is a concurrency-safe mutable override store.
type PropertyStore struct {
	values sync.Map
}

var systemProperties PropertyStore

// SystemProperties returns the process-wide override store.
func SystemProperties() *PropertyStore {
	return &systemProperties
}

// SetProperty sets key to value.
func (s *PropertyStore) SetProperty(key, value string) {
	s.values.Store(key, value)
}

// ClearProperty removes key.
func (s *PropertyStore) ClearProperty(key string) {
	s.values.Delete(key)
}

// Property returns the value stored for key.
func (s *PropertyStore) Property(key string) (string, bool) {
	v, ok := s.values.Load(key)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// Lookup implements Overrides.
func (s *PropertyStore) Lookup(key string) (string, bool) {
	return s.Property(key)
}

// EnvOverrides looks keys up as environment variable names.
type EnvOverrides struct{}

// Lookup implements Overrides.
func (EnvOverrides) Lookup(key string) (string, bool) {
	return os.LookupEnv(key)
}

// MapOverrides serves overrides from a fixed map.
type MapOverrides map[string]string

// Lookup implements Overrides.
func (m MapOverrides) Lookup(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// OverrideChain returns the first hit across its stores.
type OverrideChain []Overrides

// Lookup implements Overrides.
func (c OverrideChain) Lookup(key string) (string, bool) {
	for _, o := range c {
		if o == nil {
			continue
		}
		if v, ok := o.Lookup(key); ok {
			return v, true
		}
	}
	return "", false
}

func defaultOverrides() Overrides {
	return OverrideChain{SystemProperties(), EnvOverrides{}}
}
