package main

import (
	"github.com/pantos-io/servicenode-migrate/internal/cli"

	// Register the schema migrations of the service node database.
	_ "github.com/pantos-io/servicenode-migrate/migrations"
)

var (
	// version is set at build time with -ldflags "-X main.version=...".
	version = "devel"
)

func main() {
	cli.Main(cli.WithVersion(version))
}
