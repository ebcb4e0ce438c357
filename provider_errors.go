package migrate

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMigrations is returned by [NewProvider] when no migrations are found.
	ErrNoMigrations = errors.New("no migrations found")

	// ErrRevisionNotFound is returned when a revision is not part of the chain.
	ErrRevisionNotFound = errors.New("revision not found")

	// ErrAmbiguousRevision is returned when a revision prefix matches more than one revision.
	ErrAmbiguousRevision = errors.New("ambiguous revision")

	// ErrAlreadyApplied is returned when applying a migration that has already been applied.
	ErrAlreadyApplied = errors.New("already applied")

	// ErrNoNextRevision is returned by [Provider.UpByOne] at the head of the chain and by
	// [Provider.Down] at its base.
	ErrNoNextRevision = errors.New("no next revision found")

	// ErrOutOfOrder is returned when the database is not at the revision a migration expects to
	// start from.
	ErrOutOfOrder = errors.New("migration attempting to run out of order")
)

// PartialError is returned when a migration fails, but some migrations already got applied.
type PartialError struct {
	// Applied are migrations that were applied successfully before the error occurred. May be
	// empty.
	Applied []*MigrationResult
	// Failed contains the result of the migration that failed. Cannot be nil.
	Failed *MigrationResult
	// Err is the error that occurred while running the migration and caused the failure.
	Err error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf(
		"partial migration error (revision:%s,direction:%s): %v",
		e.Failed.Source.Revision, e.Failed.Direction, e.Err,
	)
}

func (e *PartialError) Unwrap() error {
	return e.Err
}
