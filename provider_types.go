package migrate

import "time"

// Source describes where a migration came from.
type Source struct {
	// Path is the file that registered the migration. Empty for migrations built with
	// [NewGoMigration].
	Path         string
	Revision     string
	DownRevision string
}

func newSource(m *Migration) *Source {
	return &Source{
		Path:         m.Source,
		Revision:     m.Revision,
		DownRevision: m.DownRevision,
	}
}

// MigrationResult is the result of a single migration operation.
//
// Note, the caller is responsible for checking the Error field for any errors that occurred while
// running the migration. If the Error field is not nil, the migration failed.
type MigrationResult struct {
	Source    *Source
	Duration  time.Duration
	Direction string
	// Empty is true if the migration had no function to run in this direction. The revision is
	// still recorded.
	Empty bool

	// Error is any error that occurred while running the migration.
	Error error
}

// State represents the state of a migration.
type State string

const (
	// StatePending represents a migration that is ahead of the database revision.
	StatePending State = "pending"
	// StateApplied represents a migration at or behind the database revision.
	StateApplied State = "applied"
)

// MigrationStatus represents the status of a single migration.
type MigrationStatus struct {
	State  State
	Source *Source
}

func directionString(direction bool) string {
	if direction {
		return "up"
	}
	return "down"
}
