package migrate

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationNormalize(t *testing.T) {
	t.Parallel()

	runTx := func(context.Context, *sql.Tx) error { return nil }
	runDB := func(context.Context, *sql.DB) error { return nil }

	t.Run("derive_mode", func(t *testing.T) {
		m := NewGoMigration("a1", "", &GoFunc{RunTx: runTx}, &GoFunc{RunTx: runTx})
		require.NoError(t, m.normalize())
		require.Equal(t, TransactionEnabled, m.UpFunc.Mode)
		require.True(t, m.useTx(true))
		require.False(t, m.isEmpty(true))

		m = NewGoMigration("a1", "", &GoFunc{RunDB: runDB}, nil)
		require.NoError(t, m.normalize())
		require.Equal(t, TransactionDisabled, m.UpFunc.Mode)
		require.False(t, m.useTx(true))
		require.True(t, m.isEmpty(false))
		require.True(t, m.useTx(false))
	})
	t.Run("empty_func", func(t *testing.T) {
		m := NewGoMigration("a1", "", &GoFunc{}, nil)
		require.NoError(t, m.normalize())
		require.Equal(t, TransactionEnabled, m.UpFunc.Mode)
		require.True(t, m.isEmpty(true))
	})
	t.Run("both_funcs", func(t *testing.T) {
		m := NewGoMigration("a1", "", &GoFunc{RunTx: runTx, RunDB: runDB}, nil)
		require.ErrorContains(t, m.normalize(), "must specify exactly one of RunTx or RunDB")
	})
	t.Run("conflicting_mode", func(t *testing.T) {
		m := NewGoMigration("a1", "", &GoFunc{RunTx: runTx, Mode: TransactionDisabled}, nil)
		require.Error(t, m.normalize())
		m = NewGoMigration("a1", "", &GoFunc{RunDB: runDB, Mode: TransactionEnabled}, nil)
		require.Error(t, m.normalize())
		m = NewGoMigration("a1", "", &GoFunc{Mode: 7}, nil)
		require.ErrorContains(t, m.normalize(), "invalid transaction mode")
	})
	t.Run("mixed_directions", func(t *testing.T) {
		m := NewGoMigration("a1", "", &GoFunc{RunTx: runTx}, &GoFunc{RunDB: runDB})
		require.ErrorContains(t, m.normalize(), "same transaction mode")
	})
	t.Run("string", func(t *testing.T) {
		require.Equal(t, "<base> -> a1", NewGoMigration("a1", "", nil, nil).String())
		require.Equal(t, "a1 -> b2", NewGoMigration("b2", "a1", nil, nil).String())
		require.Equal(t, "transaction_disabled", TransactionDisabled.String())
	})
}

func TestRegister(t *testing.T) {
	// Not parallel because it modifies global state.
	t.Cleanup(ResetGlobalMigrations)
	ResetGlobalMigrations()

	AddMigrationContext("a1", "", nil, nil)
	AddMigrationNoTxContext("b2", "a1", nil, nil)
	registered := Registered()
	require.Len(t, registered, 2)
	require.Equal(t, "a1", registered[0].Revision)
	require.Contains(t, registered[0].Source, "migration_test.go")
	require.Equal(t, TransactionEnabled, registered[0].UpFunc.Mode)
	require.Equal(t, TransactionDisabled, registered[1].UpFunc.Mode)

	require.PanicsWithError(t,
		`failed to add migration "`+registered[0].Source+`": revision a1 conflicts with "`+registered[0].Source+`"`,
		func() { AddMigrationContext("a1", "", nil, nil) },
	)
	require.Panics(t, func() { AddMigrationContext("head", "", nil, nil) })

	require.NoError(t, SetGlobalMigrations(NewGoMigration("c3", "b2", nil, nil)))
	require.Len(t, Registered(), 3)
	require.Error(t, SetGlobalMigrations(&Migration{Revision: "d4", DownRevision: "c3"}))
	require.Error(t, SetGlobalMigrations(nil))

	ResetGlobalMigrations()
	require.Empty(t, Registered())
}
