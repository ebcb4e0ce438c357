package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	migrate "github.com/pantos-io/servicenode-migrate"
	"github.com/pantos-io/servicenode-migrate/database"
	"github.com/pantos-io/servicenode-migrate/lock"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"
)

// state holds the state of the CLI and is passed to each command. It is used to configure the
// database connection and output streams.
type state struct {
	version         string
	stdout          io.Writer
	stderr          io.Writer
	openConnection  func(dbstring string) (*sql.DB, database.Dialect, error)
	providerOptions []migrate.ProviderOption
	// migrations replace the globally registered migrations when set.
	migrations []*migrate.Migration
}

func newStateWithDefaults(opts ...Options) (*state, error) {
	state := &state{}
	for _, opt := range opts {
		if err := opt.apply(state); err != nil {
			return nil, err
		}
	}
	// Set defaults if not set by the caller
	if state.stdout == nil {
		state.stdout = os.Stdout
	}
	if state.stderr == nil {
		state.stderr = os.Stderr
	}
	if state.openConnection == nil {
		state.openConnection = openConnection
	}
	if state.version == "" {
		state.version = "devel"
	}
	return state, nil
}

func (s *state) writeJSON(v any) error {
	by, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	by = append(by, '\n')
	_, err = s.stdout.Write(by)
	return err
}

func (s *state) logger(verbose bool) zerolog.Logger {
	noColor, _ := strconv.ParseBool(os.Getenv(ENV_NO_COLOR))
	out := zerolog.ConsoleWriter{Out: s.stderr, NoColor: noColor, TimeFormat: "15:04:05"}
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// initProvider opens the database named by --dbstring. The caller must close the provider.
func (s *state) initProvider(root *rootConfig) (*migrate.Provider, error) {
	if root.dbstring == "" {
		return nil, errors.New("database connection string is required, set with --dbstring or MIGRATE_DBSTRING")
	}
	dbstring, err := expandEnv(root.dbstring)
	if err != nil {
		return nil, fmt.Errorf("failed to expand connection string: %w", err)
	}
	db, dialect, err := s.openConnection(dbstring)
	if err != nil {
		return nil, fmt.Errorf("failed to open connection: %w", err)
	}
	options := []migrate.ProviderOption{
		migrate.WithLogger(s.logger(root.verbose)),
	}
	if root.table != "" {
		options = append(options, migrate.WithTableName(root.table))
	}
	if root.lock {
		if dialect != database.DialectPostgres {
			return nil, multierr.Append(
				fmt.Errorf("--lock is not supported for dialect %s", dialect),
				db.Close(),
			)
		}
		locker, err := lock.NewPostgresSessionLocker()
		if err != nil {
			return nil, multierr.Append(err, db.Close())
		}
		options = append(options, migrate.WithSessionLocker(locker))
	}
	if s.migrations != nil {
		options = append(options,
			migrate.WithDisableGlobalRegistry(true),
			migrate.WithGoMigrations(s.migrations...),
		)
	}
	options = append(options, s.providerOptions...)
	p, err := migrate.NewProvider(dialect, db, options...)
	if err != nil {
		return nil, multierr.Append(err, db.Close())
	}
	return p, nil
}
