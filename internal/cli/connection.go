package cli

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/pantos-io/servicenode-migrate/database"
	"github.com/xo/dburl"
)

// dialectToDriverMapping maps dialects to the database/sql driver names registered by
// ./cmd/servicenode-migrate. For postgres we use github.com/jackc/pgx/v5/stdlib, and the driver
// name is "pgx". For sqlite3 we use modernc.org/sqlite and the driver name is "sqlite".
var dialectToDriverMapping = map[database.Dialect]string{
	database.DialectPostgres: "pgx",
	database.DialectSQLite3:  "sqlite",
}

func openConnection(dbstring string) (*sql.DB, database.Dialect, error) {
	dbURL, err := dburl.Parse(dbstring)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse DSN: %w", err)
	}
	dialect, err := resolveDialect(dbURL.UnaliasedDriver, dbURL.Scheme)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve dialect: %w", err)
	}
	driverName, ok := dialectToDriverMapping[dialect]
	if !ok {
		return nil, "", fmt.Errorf("unknown database dialect: %s", dialect)
	}
	db, err := sql.Open(driverName, dbURL.DSN)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open connection: %w", err)
	}
	return db, dialect, nil
}

// resolveDialect returns the dialect for the first string that matches a known dialect alias or
// schema name. If no match is found, an error is returned.
//
// The string can be a schema name or an alias. The aliases are defined by the dburl package for
// common databases. See: https://github.com/xo/dburl#database-schemes-aliases-and-drivers
func resolveDialect(ss ...string) (database.Dialect, error) {
	for _, s := range ss {
		switch s {
		case "postgres", "pg", "pgx", "postgresql", "pgsql":
			return database.DialectPostgres, nil
		case "sqlite", "sqlite3", "file":
			return database.DialectSQLite3, nil
		}
	}
	return "", fmt.Errorf("failed to resolve scheme names or aliases to a dialect: %q", strings.Join(ss, ","))
}
