package lock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionLockerOptions(t *testing.T) {
	t.Parallel()

	locker, err := NewPostgresSessionLocker(
		WithLockID(42),
		WithLockTimeout(1, 3),
		WithUnlockTimeout(2, 5),
	)
	require.NoError(t, err)
	pg, ok := locker.(*postgresSessionLocker)
	require.True(t, ok)
	require.EqualValues(t, 42, pg.lockID)
	require.Equal(t, probe{interval: time.Second, failureThreshold: 3}, pg.lockProbe)
	require.Equal(t, probe{interval: 2 * time.Second, failureThreshold: 5}, pg.unlockProbe)

	// Defaults.
	locker, err = NewPostgresSessionLocker()
	require.NoError(t, err)
	pg = locker.(*postgresSessionLocker)
	require.Equal(t, DefaultLockID, pg.lockID)
	require.Equal(t, 5*time.Second, pg.lockProbe.interval)
	require.EqualValues(t, 60, pg.lockProbe.failureThreshold)

	_, err = NewPostgresSessionLocker(WithLockID(0))
	require.Error(t, err)
	_, err = NewPostgresSessionLocker(WithLockTimeout(0, 10))
	require.Error(t, err)
	_, err = NewPostgresSessionLocker(WithLockTimeout(5, 0))
	require.Error(t, err)
	_, err = NewPostgresSessionLocker(WithUnlockTimeout(0, 10))
	require.Error(t, err)
	_, err = NewPostgresSessionLocker(WithUnlockTimeout(5, 0))
	require.Error(t, err)
}

func TestProbeBackoff(t *testing.T) {
	t.Parallel()

	b := probe{interval: time.Millisecond, failureThreshold: 3}.backoff()
	var attempts int
	for {
		if _, stop := b.Next(); stop {
			break
		}
		attempts++
	}
	// The first attempt is not a retry.
	require.Equal(t, 2, attempts)
}
