package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
)

type rootConfig struct {
	verbose bool
	useJSON bool

	dbstring string
	table    string
	lock     bool
	envFile  string
}

func newRootCmd(st *state) (*ffcli.Command, *rootConfig) {
	config := new(rootConfig)
	fs := newFlagSet("servicenode-migrate", st.stderr)
	config.registerFlags(fs)

	root := &ffcli.Command{
		Name:       "servicenode-migrate",
		ShortUsage: "servicenode-migrate [flags] <subcommand> [args...]",
		LongHelp:   rootCmdLongHelp,
		FlagSet:    fs,
		Exec:       config.Exec,
		Options:    ffOptions(),
	}
	return root, config
}

func newFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

func ffOptions() []ff.Option {
	return []ff.Option{
		ff.WithEnvVarPrefix(envPrefix),
	}
}

// registerFlags registers the flag fields into the provided flag.FlagSet. This
// helper function allows subcommands to register the root flags into their
// flagsets, creating "global" flags that can be passed after any subcommand at
// the commandline.
func (c *rootConfig) registerFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.verbose, "v", false, "log verbose output")
	fs.BoolVar(&c.useJSON, "json", false, "format output as JSON")

	fs.StringVar(&c.dbstring, "dbstring", "", "database connection string, ${VAR} references are expanded")
	fs.StringVar(&c.table, "table", "", "database table to store the current revision (default alembic_version)")
	fs.BoolVar(&c.lock, "lock", false, "hold a postgres advisory session lock while migrating")
	fs.StringVar(&c.envFile, "env-file", defaultEnvFile, `dotenv file to load, "none" to skip`)
}

func (c *rootConfig) Exec(_ context.Context, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unknown command: %q", args[0])
	}
	return flag.ErrHelp
}

const rootCmdLongHelp = `
Apply and roll back the schema migrations of the service node database.

The current revision is kept in an Alembic compatible version table, so databases
upgraded by earlier releases can be migrated further.

Every flag can also be set with an environment variable prefixed by MIGRATE_, for
example MIGRATE_DBSTRING. Variables are also read from a dotenv file.
`
