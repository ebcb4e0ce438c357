package ddl

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pantos-io/servicenode-migrate/database"
)

// ErrColumnNotFound is returned by [LookupColumn] when the table has no such column.
var ErrColumnNotFound = errors.New("column not found")

// ColumnInfo is the declared shape of an existing column.
type ColumnInfo struct {
	Name     string
	DataType string
	Nullable bool
	// Default is the default expression as reported by the database, empty if there is none.
	Default string
}

// LookupColumn reads the declared shape of table.column from the database catalog.
func LookupColumn(
	ctx context.Context,
	db database.DBTxConn,
	dialect database.Dialect,
	table, column string,
) (*ColumnInfo, error) {
	var (
		q    string
		args []any
	)
	switch dialect {
	case database.DialectPostgres:
		q = `SELECT data_type, is_nullable = 'YES', column_default
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = $1 AND column_name = $2`
		args = []any{table, column}
	case database.DialectSQLite3:
		q = `SELECT type, "notnull" = 0, dflt_value FROM pragma_table_info(?) WHERE name = ?`
		args = []any{table, column}
	default:
		return nil, fmt.Errorf("lookup column: unsupported dialect %q", dialect)
	}
	info := &ColumnInfo{Name: column}
	var def sql.NullString
	err := db.QueryRowContext(ctx, q, args...).Scan(&info.DataType, &info.Nullable, &def)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s.%s: %w", table, column, ErrColumnNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup column %s.%s: %w", table, column, err)
	}
	info.DataType = strings.ToLower(info.DataType)
	info.Default = def.String
	return info, nil
}
