package dialectquery

// Querier is the interface that wraps the basic methods to create a dialect specific query.
//
// All queries operate on an alembic-compatible version table: a single VARCHAR column named
// version_num that holds at most one row, the revision the database is currently at.
type Querier interface {
	// CreateTable returns the SQL query string to create the version table.
	CreateTable(tableName string) string

	// TableExists returns the SQL query string to check whether the version table exists. The
	// query takes the table name as its only argument and must return a single boolean column.
	TableExists(tableName string) string

	// GetRevision returns the SQL query string to select every recorded revision. The query
	// should return the version_num column.
	GetRevision(tableName string) string

	// InsertRevision returns the SQL query string to record a revision when none is recorded.
	InsertRevision(tableName string) string

	// UpdateRevision returns the SQL query string to move the recorded revision from one value to
	// another. The first argument is the new revision, the second is the expected current one.
	UpdateRevision(tableName string) string

	// DeleteRevision returns the SQL query string to remove a recorded revision.
	DeleteRevision(tableName string) string
}
