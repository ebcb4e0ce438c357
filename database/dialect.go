package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/pantos-io/servicenode-migrate/internal/dialect/dialectquery"
)

// Dialect is the type of database dialect.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite3  Dialect = "sqlite3"
)

// NewStore returns a new [Store] backed by the given dialect.
func NewStore(dialect Dialect, tablename string) (Store, error) {
	if tablename == "" {
		return nil, errors.New("tablename must not be empty")
	}
	if dialect == "" {
		return nil, errors.New("dialect must not be empty")
	}
	lookup := map[Dialect]dialectquery.Querier{
		DialectPostgres: &dialectquery.Postgres{},
		DialectSQLite3:  &dialectquery.Sqlite3{},
	}
	querier, ok := lookup[dialect]
	if !ok {
		return nil, fmt.Errorf("unknown dialect: %q", dialect)
	}
	return &store{
		tablename: tablename,
		querier:   querier,
	}, nil
}

type store struct {
	tablename string
	querier   dialectquery.Querier
}

var _ Store = (*store)(nil)

func (s *store) Tablename() string {
	return s.tablename
}

func (s *store) CreateVersionTable(ctx context.Context, db DBTxConn) error {
	q := s.querier.CreateTable(s.tablename)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to create version table %q: %w", s.tablename, err)
	}
	return nil
}

func (s *store) TableExists(ctx context.Context, db DBTxConn) (bool, error) {
	q := s.querier.TableExists(s.tablename)
	var exists bool
	if err := db.QueryRowContext(ctx, q, s.tablename).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check if version table %q exists: %w", s.tablename, err)
	}
	return exists, nil
}

func (s *store) GetRevision(ctx context.Context, db DBTxConn) (string, error) {
	q := s.querier.GetRevision(s.tablename)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return "", fmt.Errorf("failed to get revision: %w", err)
	}
	defer rows.Close()

	var revisions []string
	for rows.Next() {
		var revision string
		if err := rows.Scan(&revision); err != nil {
			return "", fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, revision)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(revisions) {
	case 0:
		return "", nil
	case 1:
		return revisions[0], nil
	default:
		return "", fmt.Errorf("%w: %v", ErrMultipleHeads, revisions)
	}
}

func (s *store) SetRevision(ctx context.Context, db DBTxConn, req UpdateRequest) error {
	if req.From == req.To {
		return nil
	}
	var (
		q    string
		args []any
	)
	switch {
	case req.From == "":
		// Guard against a revision that was recorded after the caller last looked.
		current, err := s.GetRevision(ctx, db)
		if err != nil {
			return err
		}
		if current != "" {
			return fmt.Errorf("%w: expected none, found %s", ErrRevisionMismatch, current)
		}
		q, args = s.querier.InsertRevision(s.tablename), []any{req.To}
	case req.To == "":
		q, args = s.querier.DeleteRevision(s.tablename), []any{req.From}
	default:
		q, args = s.querier.UpdateRevision(s.tablename), []any{req.To, req.From}
	}
	result, err := db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to set revision %q -> %q: %w", req.From, req.To, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set revision %q -> %q: %w", req.From, req.To, err)
	}
	if n != 1 {
		return fmt.Errorf("%w: expected %q, update affected %d rows", ErrRevisionMismatch, req.From, n)
	}
	return nil
}
