package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pantos-io/servicenode-migrate/database"
	"go.uber.org/multierr"
)

// runMigrations runs migrations sequentially in the given direction.
//
// If the migrations slice is empty, this function returns nil with no error.
func (p *Provider) runMigrations(
	ctx context.Context,
	conn *sql.Conn,
	migrations []*Migration,
	direction bool,
) ([]*MigrationResult, error) {
	if len(migrations) == 0 {
		return nil, nil
	}
	// Avoid allocating a slice because we may have a partial migration error. 1. Avoid giving the
	// impression that N migrations were applied when in fact some were not 2. Avoid the caller
	// having to check for nil results
	var results []*MigrationResult
	for _, m := range migrations {
		current := &MigrationResult{
			Source:    newSource(m),
			Direction: directionString(direction),
			Empty:     m.isEmpty(direction),
		}
		start := time.Now()
		if err := p.runIndividually(ctx, conn, direction, m); err != nil {
			current.Error = err
			current.Duration = time.Since(start)
			return nil, &PartialError{
				Applied: results,
				Failed:  current,
				Err:     err,
			}
		}
		current.Duration = time.Since(start)
		results = append(results, current)
	}
	return results, nil
}

// transition is the version table update made by applying m in the given direction.
func transition(m *Migration, direction bool) database.UpdateRequest {
	if direction {
		return database.UpdateRequest{From: m.DownRevision, To: m.Revision}
	}
	return database.UpdateRequest{From: m.Revision, To: m.DownRevision}
}

// runIndividually runs an individual migration, opening a new transaction if the migration is safe
// to run in a transaction. Otherwise, it runs the migration outside of a transaction with the
// supplied connection.
func (p *Provider) runIndividually(
	ctx context.Context,
	conn *sql.Conn,
	direction bool,
	m *Migration,
) error {
	req := transition(m, direction)
	// Re-read the revision before every step, another runner may have moved it.
	current, err := p.store.GetRevision(ctx, conn)
	if err != nil {
		return err
	}
	if current != req.From {
		return fmt.Errorf("%w: database is at %s, %s expects %s",
			ErrOutOfOrder, displayRevision(current), m.Revision, displayRevision(req.From))
	}
	p.cfg.logger.Info().
		Str("from", req.From).
		Str("to", req.To).
		Str("direction", directionString(direction)).
		Msg("migrating")

	f := m.goFunc(direction)
	if m.useTx(direction) {
		return p.beginTx(ctx, conn, func(tx *sql.Tx) error {
			if f != nil && f.RunTx != nil {
				if err := f.RunTx(ctx, tx); err != nil {
					return err
				}
			}
			return p.store.SetRevision(ctx, tx, req)
		})
	}
	// Note, we're using *sql.DB instead of *sql.Conn because it's the contract of RunDB. This
	// deadlocks if the caller sets max open connections to 1.
	if f.RunDB != nil {
		if err := f.RunDB(ctx, p.db); err != nil {
			return err
		}
	}
	return p.store.SetRevision(ctx, conn, req)
}

// beginTx begins a transaction and runs the given function. If the function returns an error, the
// transaction is rolled back. Otherwise, the transaction is committed.
func (p *Provider) beginTx(
	ctx context.Context,
	conn *sql.Conn,
	fn func(tx *sql.Tx) error,
) (retErr error) {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			retErr = multierr.Append(retErr, tx.Rollback())
		}
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *Provider) initialize(ctx context.Context) (*sql.Conn, func() error, error) {
	p.mu.Lock()
	conn, err := p.db.Conn(ctx)
	if err != nil {
		p.mu.Unlock()
		return nil, nil, err
	}
	// cleanup is a function that cleans up the connection, and optionally, the session lock.
	cleanup := func() error {
		p.mu.Unlock()
		return conn.Close()
	}
	if l := p.cfg.sessionLocker; l != nil {
		if err := l.SessionLock(ctx, conn); err != nil {
			return nil, nil, multierr.Append(err, cleanup())
		}
		p.cfg.logger.Debug().Msg("acquired session lock")
		cleanup = func() error {
			p.mu.Unlock()
			// Use a detached context to unlock the session. This is because the context passed to
			// SessionLock may have been canceled, and we don't want to cancel the unlock.
			err := l.SessionUnlock(context.WithoutCancel(ctx), conn)
			if err == nil {
				p.cfg.logger.Debug().Msg("released session lock")
			}
			return multierr.Append(err, conn.Close())
		}
	}
	if err := p.ensureVersionTable(ctx, conn); err != nil {
		return nil, nil, multierr.Append(err, cleanup())
	}
	return conn, cleanup, nil
}

func (p *Provider) ensureVersionTable(ctx context.Context, conn *sql.Conn) error {
	exists, err := p.store.TableExists(ctx, conn)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.beginTx(ctx, conn, func(tx *sql.Tx) error {
		return p.store.CreateVersionTable(ctx, tx)
	})
}

// currentPosition reads the database revision and locates it in the chain.
func (p *Provider) currentPosition(ctx context.Context, conn *sql.Conn) (string, int, error) {
	current, err := p.store.GetRevision(ctx, conn)
	if err != nil {
		return "", 0, err
	}
	pos, ok := p.chain.position(current)
	if !ok {
		if current == "" {
			return "", 0, fmt.Errorf("database has no revision, stamp it at %s first: %w",
				p.chain.Base(), ErrRevisionNotFound)
		}
		return "", 0, fmt.Errorf("database revision %s: %w", current, ErrRevisionNotFound)
	}
	return current, pos, nil
}

func (p *Provider) up(ctx context.Context, upByOne bool, target string) (_ []*MigrationResult, retErr error) {
	revision, err := p.chain.Resolve(target)
	if err != nil {
		return nil, err
	}
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()
	current, pos, err := p.currentPosition(ctx, conn)
	if err != nil {
		return nil, err
	}
	if to, _ := p.chain.position(revision); to <= pos {
		return nil, nil
	}
	apply, err := p.chain.Path(current, revision)
	if err != nil {
		return nil, err
	}
	if upByOne {
		apply = apply[:1]
	}
	return p.runMigrations(ctx, conn, apply, true)
}

func (p *Provider) down(ctx context.Context, downByOne bool, target string) (_ []*MigrationResult, retErr error) {
	revision, err := p.chain.Resolve(target)
	if err != nil {
		return nil, err
	}
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()
	current, pos, err := p.currentPosition(ctx, conn)
	if err != nil {
		return nil, err
	}
	if to, _ := p.chain.position(revision); to >= pos {
		return nil, nil
	}
	apply, err := p.chain.DownPath(current, revision)
	if err != nil {
		return nil, err
	}
	if downByOne {
		apply = apply[:1]
	}
	return p.runMigrations(ctx, conn, apply, false)
}

func (p *Provider) apply(ctx context.Context, revision string, direction bool) (_ *MigrationResult, retErr error) {
	rev, err := p.chain.Resolve(revision)
	if err != nil {
		return nil, err
	}
	m, ok := p.chain.Lookup(rev)
	if !ok {
		return nil, fmt.Errorf("%s is not a migration: %w", displayRevision(rev), ErrRevisionNotFound)
	}
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()
	current, err := p.store.GetRevision(ctx, conn)
	if err != nil {
		return nil, err
	}
	if direction && current != m.DownRevision {
		cur, known := p.chain.position(current)
		if at, _ := p.chain.position(m.Revision); known && cur >= at {
			return nil, fmt.Errorf("revision %s: %w", m.Revision, ErrAlreadyApplied)
		}
	}
	results, err := p.runMigrations(ctx, conn, []*Migration{m}, direction)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

func (p *Provider) stamp(ctx context.Context, revision string) (retErr error) {
	rev, err := p.chain.Resolve(revision)
	if err != nil {
		return err
	}
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()
	current, err := p.store.GetRevision(ctx, conn)
	if err != nil {
		return err
	}
	p.cfg.logger.Info().Str("from", current).Str("to", rev).Msg("stamping")
	return p.beginTx(ctx, conn, func(tx *sql.Tx) error {
		return p.store.SetRevision(ctx, tx, database.UpdateRequest{From: current, To: rev})
	})
}

func (p *Provider) status(ctx context.Context) (_ string, _ []*MigrationStatus, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return "", nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()
	current, err := p.store.GetRevision(ctx, conn)
	if err != nil {
		return "", nil, err
	}
	pos, ok := p.chain.position(current)
	if !ok && current != "" {
		return "", nil, fmt.Errorf("database revision %s: %w", current, ErrRevisionNotFound)
	}
	// An empty database in front of an external base has applied nothing.
	status := make([]*MigrationStatus, 0, len(p.chain.ordered))
	for i, m := range p.chain.ordered {
		s := &MigrationStatus{
			Source: newSource(m),
			State:  StatePending,
		}
		if i < pos {
			s.State = StateApplied
		}
		status = append(status, s)
	}
	return current, status, nil
}

func (p *Provider) getDBRevision(ctx context.Context) (_ string, retErr error) {
	conn, cleanup, err := p.initialize(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		retErr = multierr.Append(retErr, cleanup())
	}()
	return p.store.GetRevision(ctx, conn)
}
