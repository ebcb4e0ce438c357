package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/pantos-io/servicenode-migrate/database"
	"github.com/rs/zerolog"
)

// NewProvider returns a new Provider.
//
// The caller is responsible for matching the database dialect with the database/sql driver. For
// example, if the database dialect is "postgres", the database/sql driver could be
// github.com/jackc/pgx/v5/stdlib.
//
// See [ProviderOption] for more information on configuring the provider.
//
// Unless otherwise specified, all methods on Provider are safe for concurrent use.
func NewProvider(dialect database.Dialect, db *sql.DB, opts ...ProviderOption) (*Provider, error) {
	if db == nil {
		return nil, errors.New("db must not be nil")
	}
	if dialect == "" {
		return nil, errors.New("dialect must not be empty")
	}
	cfg := config{
		registered: make(map[string]*Migration),
	}
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}
	// Set defaults after applying user-supplied options so option funcs can check for empty values.
	if cfg.tableName == "" {
		cfg.tableName = DefaultTablename
	}
	if !cfg.loggerSet {
		cfg.logger = zerolog.Nop()
	}
	store, err := database.NewStore(dialect, cfg.tableName)
	if err != nil {
		return nil, err
	}
	migrations, err := merge(cfg.registered, cfg.disableGlobalRegistry)
	if err != nil {
		return nil, err
	}
	if len(migrations) == 0 {
		return nil, ErrNoMigrations
	}
	chain, err := NewChain(migrations)
	if err != nil {
		return nil, err
	}
	return &Provider{
		db:    db,
		cfg:   cfg,
		store: store,
		chain: chain,
	}, nil
}

func merge(registered map[string]*Migration, disableGlobal bool) ([]*Migration, error) {
	var migrations []*Migration
	for _, m := range registered {
		migrations = append(migrations, m)
	}
	if disableGlobal {
		return migrations, nil
	}
	for _, m := range Registered() {
		if _, ok := registered[m.Revision]; ok {
			return nil, fmt.Errorf("revision %s registered globally and with WithGoMigrations", m.Revision)
		}
		migrations = append(migrations, m)
	}
	return migrations, nil
}

// Provider runs the migrations of one revision chain against one database.
type Provider struct {
	// mu protects all accesses to the provider and must be held when calling operations on the
	// database.
	mu sync.Mutex

	db    *sql.DB
	cfg   config
	store database.Store
	chain *Chain
}

// Status returns the status of all migrations in chain order. If the database is at a revision
// that is not part of the chain, this method returns [ErrRevisionNotFound].
func (p *Provider) Status(ctx context.Context) ([]*MigrationStatus, error) {
	_, status, err := p.status(ctx)
	return status, err
}

// StatusWithRevision is like [Provider.Status] but also returns the database revision the
// statuses were derived from. Both are read in one session.
func (p *Provider) StatusWithRevision(ctx context.Context) (string, []*MigrationStatus, error) {
	return p.status(ctx)
}

// GetDBRevision returns the revision recorded in the database, or the empty string if none is.
func (p *Provider) GetDBRevision(ctx context.Context) (string, error) {
	return p.getDBRevision(ctx)
}

// HeadRevision returns the revision of the last migration.
func (p *Provider) HeadRevision() string {
	return p.chain.Head()
}

// RootRevision returns the revision of the first migration.
func (p *Provider) RootRevision() string {
	return p.chain.Root()
}

// BaseRevision returns the revision the first migration applies on top of.
func (p *Provider) BaseRevision() string {
	return p.chain.Base()
}

// Chain returns the provider's revision chain.
func (p *Provider) Chain() *Chain {
	return p.chain
}

// ListSources returns the sources of all migrations in chain order.
func (p *Provider) ListSources() []*Source {
	sources := make([]*Source, 0, len(p.chain.ordered))
	for _, m := range p.chain.ordered {
		sources = append(sources, newSource(m))
	}
	return sources
}

// Ping attempts to ping the database to verify a connection is available.
func (p *Provider) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Close closes the database connection.
func (p *Provider) Close() error {
	return p.db.Close()
}

// ApplyRevision applies exactly one migration. If there is no migration with the given revision,
// this method returns [ErrRevisionNotFound].
//
// When direction is true, the up migration is executed and the database must be at the
// migration's down revision. When direction is false, the down migration is executed and the
// database must be at the migration's revision. Otherwise [ErrOutOfOrder] is returned, or
// [ErrAlreadyApplied] when applying up a migration at or behind the database revision.
func (p *Provider) ApplyRevision(ctx context.Context, revision string, direction bool) (*MigrationResult, error) {
	return p.apply(ctx, revision, direction)
}

// Up applies all pending migrations. If there are no new migrations to apply, this method returns
// empty list and nil error.
func (p *Provider) Up(ctx context.Context) ([]*MigrationResult, error) {
	return p.up(ctx, false, Head)
}

// UpByOne applies the next migration. If the database is at head, this method returns
// [ErrNoNextRevision].
func (p *Provider) UpByOne(ctx context.Context) (*MigrationResult, error) {
	res, err := p.up(ctx, true, Head)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNoNextRevision
	}
	return res[0], nil
}

// UpTo applies all migrations up to and including the given revision, which may be a full
// revision, a unique prefix of one, or "head". If the database is already at or past the revision,
// this method returns empty list and nil error.
func (p *Provider) UpTo(ctx context.Context, revision string) ([]*MigrationResult, error) {
	return p.up(ctx, false, revision)
}

// Down rolls back the most recently applied migration. If the database is at the base revision,
// this method returns [ErrNoNextRevision].
func (p *Provider) Down(ctx context.Context) (*MigrationResult, error) {
	res, err := p.down(ctx, true, Base)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, ErrNoNextRevision
	}
	return res[0], nil
}

// DownTo rolls back migrations until the database is at the given revision, which may be a full
// revision, a unique prefix of one, or "base". The migration that produced the revision stays
// applied.
func (p *Provider) DownTo(ctx context.Context, revision string) ([]*MigrationResult, error) {
	return p.down(ctx, false, revision)
}

// Stamp records revision in the database without running any migration. revision may be any
// revision of the chain, its base revision, "head" or "base".
func (p *Provider) Stamp(ctx context.Context, revision string) error {
	return p.stamp(ctx, revision)
}
