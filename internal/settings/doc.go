// Package settings loads the ahcconfig tool's own runtime settings from
// multiple sources (YAML file, environment variables, CLI flags) with
// precedence: CLI flags > YAML config > Environment variables > Defaults.
// These settings decide where ahc.properties is searched for and how the
// admin server runs; they are separate from the properties being resolved.
package settings
