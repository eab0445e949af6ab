package config

import "errors"

var (
	// ErrMissingKey is returned by typed getters when no layer defines the key.
	ErrMissingKey = errors.New("configuration key not found")
)
