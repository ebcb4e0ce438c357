package migrations

import (
	"context"
	"database/sql"

	migrate "github.com/pantos-io/servicenode-migrate"
	"github.com/pantos-io/servicenode-migrate/ddl"
)

// remove_id_from_bids_table
//
// Created: 2024-01-15 10:11:31
const (
	revisionRemoveIDFromBidsTable     = "5e552e0ec844"
	downRevisionRemoveIDFromBidsTable = "bd913c5bfdfb"
)

func init() {
	migrate.AddMigrationContext(
		revisionRemoveIDFromBidsTable,
		downRevisionRemoveIDFromBidsTable,
		upRemoveIDFromBidsTable,
		downRemoveIDFromBidsTable,
	)
}

func upRemoveIDFromBidsTable(ctx context.Context, tx *sql.Tx) error {
	return ddl.Exec(ctx, tx, ddl.DropColumn("bids", "id"))
}

// downRemoveIDFromBidsTable restores the column but not its values: existing rows are numbered
// from the current position of bids_id_seq.
func downRemoveIDFromBidsTable(ctx context.Context, tx *sql.Tx) error {
	return ddl.Exec(ctx, tx, ddl.AddColumn("bids", ddl.Column{
		Name:          "id",
		Type:          "INTEGER",
		ServerDefault: ddl.NextVal("bids_id_seq"),
		Nullable:      false,
	}))
}
