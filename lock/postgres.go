package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// NewPostgresSessionLocker returns a SessionLocker that uses a Postgres session level advisory
// lock.
//
// The lock is released by SessionUnlock, or implicitly by Postgres when the session ends.
func NewPostgresSessionLocker(opts ...SessionLockerOption) (SessionLocker, error) {
	cfg := sessionLockerConfig{
		lockID: DefaultLockID,
		lockProbe: probe{
			interval:         DefaultLockTimeoutPeriodSeconds * time.Second,
			failureThreshold: DefaultLockTimeoutFailureThreshold,
		},
		unlockProbe: probe{
			interval:         DefaultUnlockTimeoutPeriodSeconds * time.Second,
			failureThreshold: DefaultUnlockTimeoutFailureThreshold,
		},
	}
	for _, opt := range opts {
		if err := opt.apply(&cfg); err != nil {
			return nil, err
		}
	}
	return &postgresSessionLocker{
		lockID:      cfg.lockID,
		lockProbe:   cfg.lockProbe,
		unlockProbe: cfg.unlockProbe,
	}, nil
}

type postgresSessionLocker struct {
	lockID      int64
	lockProbe   probe
	unlockProbe probe
}

var _ SessionLocker = (*postgresSessionLocker)(nil)

func (l *postgresSessionLocker) SessionLock(ctx context.Context, conn *sql.Conn) error {
	return retry.Do(ctx, l.lockProbe.backoff(), func(ctx context.Context) error {
		row := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID)
		var locked bool
		if err := row.Scan(&locked); err != nil {
			return fmt.Errorf("failed to execute pg_try_advisory_lock: %w", err)
		}
		if locked {
			return nil
		}
		// Another session holds the lock.
		return retry.RetryableError(errors.New("failed to acquire lock"))
	})
}

func (l *postgresSessionLocker) SessionUnlock(ctx context.Context, conn *sql.Conn) error {
	return retry.Do(ctx, l.unlockProbe.backoff(), func(ctx context.Context) error {
		var unlocked bool
		row := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
		if err := row.Scan(&unlocked); err != nil {
			return fmt.Errorf("failed to execute pg_advisory_unlock: %w", err)
		}
		if unlocked {
			return nil
		}
		// This session does not hold the lock.
		return retry.RetryableError(errors.New("failed to unlock session"))
	})
}

// backoff tries once per interval, at most failureThreshold times in total. Backoffs are
// stateful, so a new one is built for every call.
func (p probe) backoff() retry.Backoff {
	return retry.WithMaxRetries(p.failureThreshold-1, retry.NewConstant(p.interval))
}
