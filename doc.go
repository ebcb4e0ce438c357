// Package migrate applies the schema migrations of the service node database.
//
// Migrations form a linear chain of revisions: every step names the revision it applies on top
// of. The revision a database is at is kept in an Alembic compatible version table, so databases
// that were upgraded by earlier tooling can be migrated further once they are stamped.
//
// A [Provider] binds a chain to one database:
//
//	p, err := migrate.NewProvider(database.DialectPostgres, db)
//	if err != nil {
//		return err
//	}
//	results, err := p.Up(ctx)
package migrate
