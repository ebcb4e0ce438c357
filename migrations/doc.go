// Package migrations holds the schema migrations of the service node database.
//
// Each file registers one step with the global registry from its init function, so importing
// this package is enough to make the steps available to a [migrate.Provider]:
//
//	import _ "github.com/pantos-io/servicenode-migrate/migrations"
package migrations
