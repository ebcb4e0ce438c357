package database

import (
	"context"
	"errors"
)

var (
	// ErrMultipleHeads is returned by [Store.GetRevision] when the version table records more than
	// one revision. Branched histories are not supported.
	ErrMultipleHeads = errors.New("multiple revisions recorded")

	// ErrRevisionMismatch is returned by [Store.SetRevision] when the recorded revision is not the
	// one the caller expected to replace. This usually means another process migrated the
	// database concurrently.
	ErrRevisionMismatch = errors.New("recorded revision does not match")
)

// Store is an interface that defines methods for recording the current revision of a database.
// By defining a Store interface, we can support multiple databases with consistent functionality.
//
// Each database dialect requires a specific implementation of this interface. A dialect
// represents a set of SQL statements specific to a particular database system.
type Store interface {
	// Tablename is the version table used to record the current revision. Must not be empty.
	Tablename() string

	// CreateVersionTable creates the version table. The table is created empty, which means the
	// database is at no revision.
	CreateVersionTable(ctx context.Context, db DBTxConn) error

	// TableExists reports whether the version table exists.
	TableExists(ctx context.Context, db DBTxConn) (bool, error)

	// GetRevision returns the recorded revision, or an empty string if none is recorded. If more
	// than one revision is recorded, it must return [ErrMultipleHeads].
	GetRevision(ctx context.Context, db DBTxConn) (string, error)

	// SetRevision moves the recorded revision from req.From to req.To. An empty From means no
	// revision is recorded, an empty To clears the recorded revision. If the recorded revision is
	// not req.From, it must return [ErrRevisionMismatch].
	SetRevision(ctx context.Context, db DBTxConn, req UpdateRequest) error
}

// UpdateRequest describes a transition of the recorded revision.
type UpdateRequest struct {
	From string
	To   string
}
