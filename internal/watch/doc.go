// Package watch reloads configuration when a watched properties file changes.
// Directories are watched rather than files so that editors which replace a
// file by rename are still noticed.
package watch
