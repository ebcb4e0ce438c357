package lock_test

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pantos-io/servicenode-migrate/internal/testdb"
	"github.com/pantos-io/servicenode-migrate/lock"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestPostgresSessionLocker(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip("skip long running test")
	}
	db, cleanup, err := testdb.NewPostgres()
	require.NoError(t, err)
	t.Cleanup(cleanup)

	// Subtests share one database and run sequentially.

	t.Run("lock_and_unlock", func(t *testing.T) {
		const lockID int64 = 123456789
		locker, err := lock.NewPostgresSessionLocker(
			lock.WithLockID(lockID),
			lock.WithLockTimeout(1, 4),
			lock.WithUnlockTimeout(1, 4),
		)
		require.NoError(t, err)
		ctx := context.Background()
		conn, err := db.Conn(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, conn.Close()) })

		require.NoError(t, locker.SessionLock(ctx, conn))
		exists, err := existsPgLock(ctx, db, lockID)
		require.NoError(t, err)
		require.True(t, exists)

		require.NoError(t, locker.SessionUnlock(ctx, conn))
		exists, err = existsPgLock(ctx, db, lockID)
		require.NoError(t, err)
		require.False(t, exists)
	})
	t.Run("lock_close_conn_unlock", func(t *testing.T) {
		locker, err := lock.NewPostgresSessionLocker(
			lock.WithLockTimeout(1, 4),
			lock.WithUnlockTimeout(1, 4),
		)
		require.NoError(t, err)
		ctx := context.Background()
		conn, err := db.Conn(ctx)
		require.NoError(t, err)

		require.NoError(t, locker.SessionLock(ctx, conn))
		exists, err := existsPgLock(ctx, db, lock.DefaultLockID)
		require.NoError(t, err)
		require.True(t, exists)

		require.NoError(t, conn.Close())
		err = locker.SessionUnlock(ctx, conn)
		require.Error(t, err)
		require.True(t, errors.Is(err, sql.ErrConnDone))
	})
	t.Run("multiple_connections", func(t *testing.T) {
		const workers = 5
		lockID := randomLockID()
		ctx := context.Background()
		var (
			g        errgroup.Group
			acquired atomic.Int32
			failed   atomic.Int32
		)
		for range workers {
			conn, err := db.Conn(ctx)
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, conn.Close()) })
			g.Go(func() error {
				// Exactly one connection acquires the lock, the others time out.
				locker, err := lock.NewPostgresSessionLocker(
					lock.WithLockID(lockID),
					lock.WithLockTimeout(1, 3),
					lock.WithUnlockTimeout(1, 3),
				)
				if err != nil {
					return err
				}
				if err := locker.SessionLock(ctx, conn); err != nil {
					if err.Error() != "failed to acquire lock" {
						return err
					}
					failed.Add(1)
					return nil
				}
				acquired.Add(1)
				return nil
			})
		}
		require.NoError(t, g.Wait())
		require.EqualValues(t, 1, acquired.Load())
		require.EqualValues(t, workers-1, failed.Load())
		exists, err := existsPgLock(ctx, db, lockID)
		require.NoError(t, err)
		require.True(t, exists)
	})
	t.Run("unlock_with_different_connection_error", func(t *testing.T) {
		lockID := randomLockID()
		ctx := context.Background()
		locker, err := lock.NewPostgresSessionLocker(
			lock.WithLockID(lockID),
			lock.WithLockTimeout(1, 4),
			lock.WithUnlockTimeout(1, 2),
		)
		require.NoError(t, err)

		conn1, err := db.Conn(ctx)
		require.NoError(t, err)
		require.NoError(t, locker.SessionLock(ctx, conn1))
		t.Cleanup(func() {
			require.NoError(t, locker.SessionUnlock(ctx, conn1))
			require.NoError(t, conn1.Close())
		})
		conn2, err := db.Conn(ctx)
		require.NoError(t, err)
		t.Cleanup(func() { require.NoError(t, conn2.Close()) })

		err = locker.SessionUnlock(ctx, conn2)
		require.Error(t, err)
		require.Equal(t, "failed to unlock session", err.Error())
	})
}

func randomLockID() int64 {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return rng.Int63n(90000) + 10000
}

func existsPgLock(ctx context.Context, db *sql.DB, lockID int64) (bool, error) {
	q := `SELECT EXISTS(SELECT 1 FROM pg_locks WHERE locktype='advisory' AND ((classid::bigint<<32)|objid::bigint)=$1)`
	row := db.QueryRowContext(ctx, q, lockID)
	var exists bool
	if err := row.Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
