// Package daemon runs the long-lived filtering service: it enforces
// single-instance execution, owns the settings store and classifier, manages
// page sessions, and serves the HTTP API clients push snapshots through.
package daemon
