package lock

import (
	"errors"
	"time"
)

const (
	// DefaultLockID is the advisory lock id taken by migration runners. It is a crc64 hash of the
	// string "servicenode-migrate".
	//
	// crc64.Checksum([]byte("servicenode-migrate"), crc64.MakeTable(crc64.ECMA))
	DefaultLockID int64 = -6771387444289936878

	// Default values for the lock (time to wait for the lock to be acquired) and unlock (time to
	// wait for the lock to be released) timeouts.
	DefaultLockTimeoutPeriodSeconds      = 5
	DefaultLockTimeoutFailureThreshold   = 60
	DefaultUnlockTimeoutPeriodSeconds    = 2
	DefaultUnlockTimeoutFailureThreshold = 30
)

// SessionLockerOption is used to configure a SessionLocker.
type SessionLockerOption interface {
	apply(*sessionLockerConfig) error
}

// WithLockID sets the lock ID to use when locking the database.
//
// If WithLockID is not called, the DefaultLockID is used.
func WithLockID(lockID int64) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		if lockID == 0 {
			return errors.New("lock id must not be zero")
		}
		c.lockID = lockID
		return nil
	})
}

// WithLockTimeout sets how long to keep trying to acquire the lock. The lock is attempted every
// period seconds, at most failureThreshold times.
func WithLockTimeout(period, failureThreshold uint64) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		p, err := newProbe(period, failureThreshold)
		if err != nil {
			return err
		}
		c.lockProbe = p
		return nil
	})
}

// WithUnlockTimeout sets how long to keep trying to release the lock.
func WithUnlockTimeout(period, failureThreshold uint64) SessionLockerOption {
	return sessionLockerConfigFunc(func(c *sessionLockerConfig) error {
		p, err := newProbe(period, failureThreshold)
		if err != nil {
			return err
		}
		c.unlockProbe = p
		return nil
	})
}

type probe struct {
	interval         time.Duration
	failureThreshold uint64
}

func newProbe(period, failureThreshold uint64) (probe, error) {
	if period == 0 {
		return probe{}, errors.New("period must be greater than 0")
	}
	if failureThreshold == 0 {
		return probe{}, errors.New("failure threshold must be greater than 0")
	}
	return probe{
		interval:         time.Duration(period) * time.Second,
		failureThreshold: failureThreshold,
	}, nil
}

type sessionLockerConfig struct {
	lockID      int64
	lockProbe   probe
	unlockProbe probe
}

var _ SessionLockerOption = (sessionLockerConfigFunc)(nil)

type sessionLockerConfigFunc func(*sessionLockerConfig) error

func (f sessionLockerConfigFunc) apply(cfg *sessionLockerConfig) error {
	return f(cfg)
}
