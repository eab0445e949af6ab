// Package api serves a small admin HTTP surface over a resolved configuration:
// health, per-key resolution with the winning layer, the list of known keys
// and an explicit reload trigger.
package api
