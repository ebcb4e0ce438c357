// Package lock serializes migration runners that share one database.
package lock

import (
	"context"
	"database/sql"
)

// SessionLocker holds a lock for the lifetime of one database session.
//
// The same *sql.Conn must be passed to SessionLock and SessionUnlock.
type SessionLocker interface {
	SessionLock(ctx context.Context, conn *sql.Conn) error
	SessionUnlock(ctx context.Context, conn *sql.Conn) error
}
