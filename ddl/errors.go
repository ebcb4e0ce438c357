package ddl

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Postgres SQLSTATE codes, see https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgUndefinedColumn = "42703"
	pgDuplicateColumn = "42701"
	pgUndefinedTable  = "42P01"
)

// IsUndefinedColumn reports whether err was raised because a referenced column does not exist.
func IsUndefinedColumn(err error) bool {
	return hasPgCode(err, pgUndefinedColumn) || hasSqliteMessage(err, "no such column")
}

// IsDuplicateColumn reports whether err was raised because a column being added already exists.
func IsDuplicateColumn(err error) bool {
	return hasPgCode(err, pgDuplicateColumn) || hasSqliteMessage(err, "duplicate column name")
}

// IsUndefinedTable reports whether err was raised because a referenced table does not exist.
func IsUndefinedTable(err error) bool {
	return hasPgCode(err, pgUndefinedTable) || hasSqliteMessage(err, "no such table")
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

func hasSqliteMessage(err error, msg string) bool {
	var sqliteErr *sqlite.Error
	return errors.As(err, &sqliteErr) && strings.Contains(sqliteErr.Error(), msg)
}
