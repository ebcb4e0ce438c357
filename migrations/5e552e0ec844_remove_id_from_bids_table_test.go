package migrations

import (
	"context"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	migrate "github.com/pantos-io/servicenode-migrate"
	"github.com/pantos-io/servicenode-migrate/ddl"
	"github.com/stretchr/testify/require"
)

func TestRemoveIDFromBidsTableRegistered(t *testing.T) {
	var found *migrate.Migration
	for _, m := range migrate.Registered() {
		if m.Revision == revisionRemoveIDFromBidsTable {
			found = m
		}
	}
	require.NotNil(t, found)
	require.Equal(t, "bd913c5bfdfb", found.DownRevision)
	require.Equal(t, "5e552e0ec844_remove_id_from_bids_table.go", filepath.Base(found.Source))
	require.Equal(t, migrate.TransactionEnabled, found.UpFunc.Mode)
	require.Equal(t, migrate.TransactionEnabled, found.DownFunc.Mode)
}

func TestRemoveIDFromBidsTableStatements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, tc := range []struct {
		name string
		want string
	}{
		{
			name: "up",
			want: `ALTER TABLE "bids" DROP COLUMN "id"`,
		},
		{
			name: "down",
			want: `ALTER TABLE "bids" ADD COLUMN "id" INTEGER DEFAULT nextval('bids_id_seq'::regclass) NOT NULL`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			t.Cleanup(func() { db.Close() })

			mock.ExpectBegin()
			mock.ExpectExec(regexp.QuoteMeta(tc.want)).WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectCommit()

			tx, err := db.BeginTx(ctx, nil)
			require.NoError(t, err)
			if tc.name == "up" {
				err = upRemoveIDFromBidsTable(ctx, tx)
			} else {
				err = downRemoveIDFromBidsTable(ctx, tx)
			}
			require.NoError(t, err)
			require.NoError(t, tx.Commit())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRemoveIDFromBidsTableErrorPropagates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "42703",
		Message:  `column "id" of relation "bids" does not exist`,
	}
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`ALTER TABLE "bids" DROP COLUMN "id"`)).WillReturnError(pgErr)
	mock.ExpectRollback()

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	err = upRemoveIDFromBidsTable(ctx, tx)
	require.Same(t, pgErr, err)
	require.True(t, ddl.IsUndefinedColumn(err))
	require.NoError(t, tx.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}
