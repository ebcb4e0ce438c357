package dialectquery

import "fmt"

type Postgres struct{}

var _ Querier = (*Postgres)(nil)

func (p *Postgres) CreateTable(tableName string) string {
	q := `CREATE TABLE %s (
		version_num VARCHAR(32) NOT NULL,
		CONSTRAINT %s PRIMARY KEY (version_num)
	)`
	return fmt.Sprintf(q, quoteTable(tableName), constraintName(tableName))
}

func (p *Postgres) TableExists(tableName string) string {
	return `SELECT to_regclass($1) IS NOT NULL`
}

func (p *Postgres) GetRevision(tableName string) string {
	q := `SELECT version_num FROM %s`
	return fmt.Sprintf(q, quoteTable(tableName))
}

func (p *Postgres) InsertRevision(tableName string) string {
	q := `INSERT INTO %s (version_num) VALUES ($1)`
	return fmt.Sprintf(q, quoteTable(tableName))
}

func (p *Postgres) UpdateRevision(tableName string) string {
	q := `UPDATE %s SET version_num=$1 WHERE version_num=$2`
	return fmt.Sprintf(q, quoteTable(tableName))
}

func (p *Postgres) DeleteRevision(tableName string) string {
	q := `DELETE FROM %s WHERE version_num=$1`
	return fmt.Sprintf(q, quoteTable(tableName))
}
