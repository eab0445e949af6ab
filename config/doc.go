// Package config resolves AsyncHttpClient settings by key from three layers,
// highest priority first: runtime overrides, the user's ahc.properties and the
// packaged ahc-default.properties. Resolved values are cached per key until
// the next Reload.
//
// Applications can build a Config with New and pass it around, or use the
// process-wide instance returned by Default.
package config
