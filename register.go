package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"sort"
)

var registeredGoMigrations = make(map[string]*Migration)

// AddMigrationContext registers a migration whose functions run inside a transaction shared with
// the version table update.
//
// This function is intended to be called from the init function of a migration file, and will
// panic if the revision is invalid or already registered.
//
// Example:
//
//	func init() {
//		migrate.AddMigrationContext("5e552e0ec844", "bd913c5bfdfb", upRemoveID, downRemoveID)
//	}
func AddMigrationContext(revision, downRevision string, up, down func(context.Context, *sql.Tx) error) {
	_, filename, _, _ := runtime.Caller(1)
	m := &Migration{
		Revision:     revision,
		DownRevision: downRevision,
		UpFunc:       &GoFunc{RunTx: up, Mode: TransactionEnabled},
		DownFunc:     &GoFunc{RunTx: down, Mode: TransactionEnabled},
	}
	if err := register(filename, m); err != nil {
		panic(err)
	}
}

// AddMigrationNoTxContext registers a migration whose functions run outside a transaction.
//
// It panics under the same conditions as [AddMigrationContext].
func AddMigrationNoTxContext(revision, downRevision string, up, down func(context.Context, *sql.DB) error) {
	_, filename, _, _ := runtime.Caller(1)
	m := &Migration{
		Revision:     revision,
		DownRevision: downRevision,
		UpFunc:       &GoFunc{RunDB: up, Mode: TransactionDisabled},
		DownFunc:     &GoFunc{RunDB: down, Mode: TransactionDisabled},
	}
	if err := register(filename, m); err != nil {
		panic(err)
	}
}

// SetGlobalMigrations registers migrations built with [NewGoMigration] globally. It returns an
// error instead of panicking.
func SetGlobalMigrations(migrations ...*Migration) error {
	for _, m := range migrations {
		if m == nil {
			return fmt.Errorf("cannot register nil migration")
		}
		if !m.construct {
			return fmt.Errorf("revision %s: migration must be created with NewGoMigration", m.Revision)
		}
		if err := register(m.Source, m); err != nil {
			return err
		}
	}
	return nil
}

func register(filename string, m *Migration) error {
	if err := m.normalize(); err != nil {
		return fmt.Errorf("failed to add migration %q: %w", filename, err)
	}
	if existing, ok := registeredGoMigrations[m.Revision]; ok {
		return fmt.Errorf("failed to add migration %q: revision %s conflicts with %q",
			filename,
			m.Revision,
			existing.Source,
		)
	}
	m.Source = filename
	registeredGoMigrations[m.Revision] = m
	return nil
}

// Registered returns the globally registered migrations sorted by revision.
func Registered() []*Migration {
	out := make([]*Migration, 0, len(registeredGoMigrations))
	for _, m := range registeredGoMigrations {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Revision < out[j].Revision })
	return out
}

// ResetGlobalMigrations removes all globally registered migrations. Intended for tests.
func ResetGlobalMigrations() {
	registeredGoMigrations = make(map[string]*Migration)
}
