package dialectquery

import (
	"strings"

	"github.com/jackc/pgx/v5"
)

// quoteTable quotes a possibly schema-qualified table name, so "public.alembic_version" yields
// "public"."alembic_version". Both dialects accept double quoted identifiers.
func quoteTable(tableName string) string {
	return pgx.Identifier(strings.Split(tableName, ".")).Sanitize()
}

// constraintName derives the quoted primary key constraint name from a possibly schema-qualified
// table name, so "public.alembic_version" yields "alembic_version_pkc".
func constraintName(tableName string) string {
	if i := strings.LastIndex(tableName, "."); i >= 0 {
		tableName = tableName[i+1:]
	}
	return pgx.Identifier{tableName + "_pkc"}.Sanitize()
}
