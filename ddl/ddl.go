// Package ddl builds and runs the data definition statements used by schema migration steps.
//
// Statements are rendered with quoted identifiers so table and column names are never
// interpreted as SQL. Errors returned by the database are passed back to the caller unmodified;
// use [IsUndefinedColumn] and friends to classify them.
package ddl

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/pantos-io/servicenode-migrate/database"
)

// Column describes a column to add to a table.
type Column struct {
	Name string
	// Type is the SQL type, for example "INTEGER".
	Type string
	// ServerDefault is a raw SQL expression used as the column default. Empty means no default.
	ServerDefault string
	Nullable      bool
}

// DropColumn returns the statement that drops column from table.
func DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", quoteQualified(table), quote(column))
}

// AddColumn returns the statement that adds col to table.
func AddColumn(table string, col Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "ALTER TABLE %s ADD COLUMN %s %s", quoteQualified(table), quote(col.Name), col.Type)
	if col.ServerDefault != "" {
		b.WriteString(" DEFAULT " + col.ServerDefault)
	}
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

// NextVal returns the default expression that draws the next value from the named sequence.
func NextVal(sequence string) string {
	return "nextval(" + quoteLiteral(sequence) + "::regclass)"
}

// Exec runs each statement in order and stops at the first error, which is returned as is.
func Exec(ctx context.Context, db database.DBTxConn, statements ...string) error {
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteQualified quotes each dot separated part of a schema qualified name.
func quoteQualified(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
