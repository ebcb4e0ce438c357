package dialectquery

import "fmt"

type Sqlite3 struct{}

var _ Querier = (*Sqlite3)(nil)

func (s *Sqlite3) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		version_num VARCHAR(32) NOT NULL,
		CONSTRAINT %s PRIMARY KEY (version_num)
	)`
	return fmt.Sprintf(q, quoteTable(tableName), constraintName(tableName))
}

func (s *Sqlite3) TableExists(tableName string) string {
	return `SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type='table' AND name=?)`
}

func (s *Sqlite3) GetRevision(tableName string) string {
	q := `SELECT version_num FROM %s`
	return fmt.Sprintf(q, quoteTable(tableName))
}

func (s *Sqlite3) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (version_num) VALUES (?)`
	return fmt.Sprintf(q, quoteTable(tableName))
}

func (s *Sqlite3) UpdateRevision(tableName string) string {
	q := `UPDATE %s SET version_num=? WHERE version_num=?`
	return fmt.Sprintf(q, quoteTable(tableName))
}

func (s *Sqlite3) DeleteRevision(tableName string) string {
	q := `DELETE FROM %s WHERE version_num=?`
	return fmt.Sprintf(q, quoteTable(tableName))
}
