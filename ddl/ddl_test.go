package ddl_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pantos-io/servicenode-migrate/database"
	"github.com/pantos-io/servicenode-migrate/ddl"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func TestStatements(t *testing.T) {
	t.Parallel()

	t.Run("drop", func(t *testing.T) {
		require.Equal(t, `ALTER TABLE "bids" DROP COLUMN "id"`, ddl.DropColumn("bids", "id"))
		require.Equal(t, `ALTER TABLE "public"."bids" DROP COLUMN "id"`, ddl.DropColumn("public.bids", "id"))
		require.Equal(t, `ALTER TABLE "we""ird" DROP COLUMN "c"`, ddl.DropColumn(`we"ird`, "c"))
	})
	t.Run("add", func(t *testing.T) {
		got := ddl.AddColumn("bids", ddl.Column{
			Name:          "id",
			Type:          "INTEGER",
			ServerDefault: ddl.NextVal("bids_id_seq"),
		})
		require.Equal(t, `ALTER TABLE "bids" ADD COLUMN "id" INTEGER DEFAULT nextval('bids_id_seq'::regclass) NOT NULL`, got)
		got = ddl.AddColumn("bids", ddl.Column{Name: "note", Type: "TEXT", Nullable: true})
		require.Equal(t, `ALTER TABLE "bids" ADD COLUMN "note" TEXT`, got)
	})
	t.Run("nextval", func(t *testing.T) {
		require.Equal(t, "nextval('bids_id_seq'::regclass)", ddl.NextVal("bids_id_seq"))
		require.Equal(t, "nextval('o''brien'::regclass)", ddl.NextVal("o'brien"))
	})
}

func TestExec(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	boom := errors.New("boom")
	mock.ExpectExec("first").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("second").WillReturnError(boom)

	err = ddl.Exec(context.Background(), db, "first", "second", "third")
	require.Same(t, boom, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE bids (id INTEGER NOT NULL DEFAULT 7, amount TEXT)`)
	require.NoError(t, err)

	info, err := ddl.LookupColumn(ctx, db, database.DialectSQLite3, "bids", "id")
	require.NoError(t, err)
	require.Equal(t, &ddl.ColumnInfo{Name: "id", DataType: "integer", Nullable: false, Default: "7"}, info)

	info, err = ddl.LookupColumn(ctx, db, database.DialectSQLite3, "bids", "amount")
	require.NoError(t, err)
	require.True(t, info.Nullable)
	require.Empty(t, info.Default)

	require.NoError(t, ddl.Exec(ctx, db, ddl.DropColumn("bids", "id")))
	_, err = ddl.LookupColumn(ctx, db, database.DialectSQLite3, "bids", "id")
	require.ErrorIs(t, err, ddl.ErrColumnNotFound)

	err = ddl.Exec(ctx, db, ddl.DropColumn("bids", "id"))
	require.Error(t, err)
	require.True(t, ddl.IsUndefinedColumn(err))
	require.False(t, ddl.IsDuplicateColumn(err))

	err = ddl.Exec(ctx, db, ddl.AddColumn("bids", ddl.Column{Name: "amount", Type: "TEXT", Nullable: true}))
	require.Error(t, err)
	require.True(t, ddl.IsDuplicateColumn(err))

	err = ddl.Exec(ctx, db, ddl.DropColumn("missing", "id"))
	require.Error(t, err)
	require.True(t, ddl.IsUndefinedTable(err))
}

func TestLookupColumnUnsupportedDialect(t *testing.T) {
	t.Parallel()

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = ddl.LookupColumn(context.Background(), db, "mysql", "bids", "id")
	require.ErrorContains(t, err, `unsupported dialect "mysql"`)
}

func TestClassifyNil(t *testing.T) {
	t.Parallel()

	require.False(t, ddl.IsUndefinedColumn(nil))
	require.False(t, ddl.IsDuplicateColumn(nil))
	require.False(t, ddl.IsUndefinedTable(errors.New("no such table: plain error")))
}
