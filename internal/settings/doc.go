// Package settings persists user configuration for the filtering pipeline:
// the excluded-topic set, the display action, and the match sensitivity.
//
// Storage is a small SQLite database shared by the daemon and the CLI.
// Mutations bump a version counter; the daemon observes its own writes
// synchronously through OnChange and out-of-process writes through Watch.
package settings
