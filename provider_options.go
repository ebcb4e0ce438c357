package migrate

import (
	"errors"
	"fmt"

	"github.com/pantos-io/servicenode-migrate/lock"
	"github.com/rs/zerolog"
)

const (
	// DefaultTablename matches the version table used by Alembic, so databases migrated by either
	// tool can be shared.
	DefaultTablename = "alembic_version"
)

// ProviderOption is a configuration option for a Provider.
type ProviderOption interface {
	apply(*config) error
}

// WithTableName sets the name of the database table used to track the current revision.
//
// If WithTableName is not called, the default value is "alembic_version".
func WithTableName(name string) ProviderOption {
	return configFunc(func(c *config) error {
		if c.tableName != "" {
			return fmt.Errorf("table already set to %q", c.tableName)
		}
		if name == "" {
			return errors.New("table must not be empty")
		}
		c.tableName = name
		return nil
	})
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger zerolog.Logger) ProviderOption {
	return configFunc(func(c *config) error {
		c.logger = logger
		c.loggerSet = true
		return nil
	})
}

// WithSessionLocker enables locking using the provided SessionLocker.
//
// If WithSessionLocker is not called, locking is disabled.
func WithSessionLocker(locker lock.SessionLocker) ProviderOption {
	return configFunc(func(c *config) error {
		if c.sessionLocker != nil {
			return errors.New("session locker already set")
		}
		if locker == nil {
			return errors.New("session locker must not be nil")
		}
		c.sessionLocker = locker
		return nil
	})
}

// WithGoMigrations registers migrations with the provider only. They are merged with the global
// registry unless [WithDisableGlobalRegistry] is set. Migrations must be created with
// [NewGoMigration].
func WithGoMigrations(migrations ...*Migration) ProviderOption {
	return configFunc(func(c *config) error {
		for _, m := range migrations {
			if m == nil {
				return errors.New("migration must not be nil")
			}
			if !m.construct {
				return fmt.Errorf("revision %s: migration must be created with NewGoMigration", m.Revision)
			}
			if _, ok := c.registered[m.Revision]; ok {
				return fmt.Errorf("revision %s already registered", m.Revision)
			}
			c.registered[m.Revision] = m
		}
		return nil
	})
}

// WithDisableGlobalRegistry prevents the provider from reading migrations registered with
// [AddMigrationContext] and friends.
func WithDisableGlobalRegistry(b bool) ProviderOption {
	return configFunc(func(c *config) error {
		c.disableGlobalRegistry = b
		return nil
	})
}

type config struct {
	tableName string

	logger    zerolog.Logger
	loggerSet bool

	sessionLocker lock.SessionLocker

	registered            map[string]*Migration
	disableGlobalRegistry bool
}

type configFunc func(*config) error

func (f configFunc) apply(cfg *config) error {
	return f(cfg)
}
