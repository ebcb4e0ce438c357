package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// maxRevisionLength is the width of the version_num column.
const maxRevisionLength = 32

// Reserved revision names accepted by [Provider.UpTo], [Provider.DownTo] and [Provider.Stamp].
const (
	Head = "head"
	Base = "base"
)

// TransactionMode reports whether a Go function runs inside a transaction.
type TransactionMode int

const (
	TransactionEnabled TransactionMode = iota + 1
	TransactionDisabled
)

func (m TransactionMode) String() string {
	switch m {
	case TransactionEnabled:
		return "transaction_enabled"
	case TransactionDisabled:
		return "transaction_disabled"
	default:
		return fmt.Sprintf("unknown transaction mode (%d)", m)
	}
}

// GoFunc is the body of one direction of a migration.
//
// Exactly one of RunTx or RunDB may be set. If both are nil the direction is empty: nothing runs,
// but the revision is still recorded. When Mode is zero it is derived from whichever function is
// set, defaulting to TransactionEnabled.
type GoFunc struct {
	RunTx func(ctx context.Context, tx *sql.Tx) error
	RunDB func(ctx context.Context, db *sql.DB) error

	Mode TransactionMode
}

// Migration is one step in the revision chain.
type Migration struct {
	// Revision is the identifier recorded in the version table once the step is applied.
	Revision string
	// DownRevision is the revision this step applies on top of. Empty for the first step of a
	// chain that starts from an empty database.
	DownRevision string
	// Source is the file that registered the migration, if known.
	Source string

	UpFunc, DownFunc *GoFunc

	construct bool
}

// NewGoMigration returns a migration with the given up and down functions. Either may be nil.
//
// Migrations built this way can be passed to [WithGoMigrations].
func NewGoMigration(revision, downRevision string, up, down *GoFunc) *Migration {
	m := &Migration{
		Revision:     revision,
		DownRevision: downRevision,
		construct:    true,
	}
	if up != nil {
		m.UpFunc = &GoFunc{RunTx: up.RunTx, RunDB: up.RunDB, Mode: up.Mode}
	}
	if down != nil {
		m.DownFunc = &GoFunc{RunTx: down.RunTx, RunDB: down.RunDB, Mode: down.Mode}
	}
	return m
}

func (m *Migration) String() string {
	if m.DownRevision == "" {
		return "<base> -> " + m.Revision
	}
	return m.DownRevision + " -> " + m.Revision
}

func (m *Migration) goFunc(direction bool) *GoFunc {
	if direction {
		return m.UpFunc
	}
	return m.DownFunc
}

// isEmpty reports whether the migration has nothing to run in the given direction.
func (m *Migration) isEmpty(direction bool) bool {
	f := m.goFunc(direction)
	return f == nil || (f.RunTx == nil && f.RunDB == nil)
}

func (m *Migration) useTx(direction bool) bool {
	f := m.goFunc(direction)
	return f == nil || f.Mode != TransactionDisabled
}

func checkRevision(rev string) error {
	if rev == "" {
		return errors.New("revision must not be empty")
	}
	if len(rev) > maxRevisionLength {
		return fmt.Errorf("revision %q is longer than %d characters", rev, maxRevisionLength)
	}
	switch strings.ToLower(rev) {
	case Head, Base:
		return fmt.Errorf("revision must not be named %q", rev)
	}
	return nil
}

// normalize validates m and fills in the transaction mode of its functions.
func (m *Migration) normalize() error {
	if m == nil {
		return errors.New("migration must not be nil")
	}
	if err := checkRevision(m.Revision); err != nil {
		return err
	}
	if m.DownRevision != "" {
		if err := checkRevision(m.DownRevision); err != nil {
			return fmt.Errorf("down revision of %s: %w", m.Revision, err)
		}
	}
	if m.DownRevision == m.Revision {
		return fmt.Errorf("revision %s must not revise itself", m.Revision)
	}
	if err := normalizeFunc(m.UpFunc); err != nil {
		return fmt.Errorf("revision %s: up function: %w", m.Revision, err)
	}
	if err := normalizeFunc(m.DownFunc); err != nil {
		return fmt.Errorf("revision %s: down function: %w", m.Revision, err)
	}
	if m.UpFunc != nil && m.DownFunc != nil && m.UpFunc.Mode != m.DownFunc.Mode {
		return fmt.Errorf("revision %s: up and down functions must have the same transaction mode", m.Revision)
	}
	return nil
}

func normalizeFunc(f *GoFunc) error {
	if f == nil {
		return nil
	}
	if f.RunTx != nil && f.RunDB != nil {
		return errors.New("must specify exactly one of RunTx or RunDB")
	}
	switch {
	case f.RunTx != nil:
		if f.Mode == TransactionDisabled {
			return errors.New("transaction mode must be enabled or unspecified when RunTx is set")
		}
		f.Mode = TransactionEnabled
	case f.RunDB != nil:
		if f.Mode == TransactionEnabled {
			return errors.New("transaction mode must be disabled or unspecified when RunDB is set")
		}
		f.Mode = TransactionDisabled
	default:
		if f.Mode == 0 {
			f.Mode = TransactionEnabled
		}
	}
	if f.Mode != TransactionEnabled && f.Mode != TransactionDisabled {
		return fmt.Errorf("invalid transaction mode: %d", f.Mode)
	}
	return nil
}
