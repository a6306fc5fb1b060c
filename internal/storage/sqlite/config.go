// Package sqlite implements the SQLite destination behind storage.Destination.
package sqlite

import "time"

// Config holds destination repository configuration.
type Config struct {
	// Path is the database file, e.g. "data/project_7.db".
	Path string

	// Create makes Open create the file (and its directory) when absent.
	// Without it a missing file is reported as ErrNoDestination.
	Create bool

	// BusyTimeout is how long a statement waits on a locked database before
	// failing. Zero uses 5s.
	BusyTimeout time.Duration
}
