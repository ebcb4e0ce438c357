// Package database provides a Store interface for recording which revision of the migration chain a
// database is at. It also provides an implementation for each supported database dialect.
//
// The version table layout is compatible with the one Alembic maintains: a single column named
// version_num holding at most one row. A database whose schema was previously managed by Alembic
// can therefore be migrated further without any conversion of its bookkeeping.
package database
