// Package application provides application initialization and dependency wiring.
// It builds the layered configuration from the tool settings and assembles the
// admin handler, router, HTTP server and optional file watcher, keeping the
// main package focused on CLI parsing and orchestration.
package application
