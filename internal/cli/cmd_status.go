package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	migrate "github.com/pantos-io/servicenode-migrate"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/multierr"
)

func newStatusCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "status", "status [flags]",
		"List applied and pending migrations", statusCmdLongHelp,
		`$ servicenode-migrate status --dbstring="sqlite:./servicenode.db"`,
		`$ MIGRATE_DBSTRING="postgres://localhost/servicenode" servicenode-migrate status --json`,
	)
	cmd.Exec = func(ctx context.Context, args []string) (retErr error) {
		if err := checkArgs(args); err != nil {
			return err
		}
		p, err := st.initProvider(root)
		if err != nil {
			return err
		}
		defer func() { retErr = multierr.Append(retErr, p.Close()) }()
		current, statuses, err := p.StatusWithRevision(ctx)
		if err != nil {
			return err
		}
		if root.useJSON {
			return st.writeJSON(convertMigrationStatus(current, statuses))
		}
		return printStatus(st, current, statuses)
	}
	return cmd
}

const statusCmdLongHelp = `
List the status of all migrations in the order they apply, comparing the revision
recorded in the database with the migrations compiled into this binary.

A migration at or behind the recorded revision is "applied", every other one is
"pending".
`

type migrationsStatus struct {
	Current    string            `json:"current"`
	HasPending bool              `json:"has_pending"`
	Migrations []migrationStatus `json:"migrations"`
}

type migrationStatus struct {
	State  string       `json:"state"`
	Source statusSource `json:"source"`
}

type statusSource struct {
	Path         string `json:"path"`
	Revision     string `json:"revision"`
	DownRevision string `json:"down_revision"`
}

func convertMigrationStatus(current string, statuses []*migrate.MigrationStatus) migrationsStatus {
	out := migrationsStatus{
		Current:    current,
		Migrations: make([]migrationStatus, 0, len(statuses)),
	}
	for _, s := range statuses {
		if s.State == migrate.StatePending {
			out.HasPending = true
		}
		out.Migrations = append(out.Migrations, migrationStatus{
			State: string(s.State),
			Source: statusSource{
				Path:         s.Source.Path,
				Revision:     s.Source.Revision,
				DownRevision: s.Source.DownRevision,
			},
		})
	}
	return out
}

func printStatus(st *state, current string, statuses []*migrate.MigrationStatus) error {
	fmt.Fprintf(st.stdout, "current revision: %s\n\n", displayRevision(current))
	w := tabwriter.NewWriter(st.stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "STATE\tREVISION\tDOWN REVISION\tFILENAME")
	for _, s := range statuses {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			s.State,
			s.Source.Revision,
			displayRevision(s.Source.DownRevision),
			filename(s.Source),
		)
	}
	return w.Flush()
}

func newCurrentCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "current", "current [flags]",
		"Print the revision recorded in the database", "",
	)
	cmd.Exec = func(ctx context.Context, args []string) (retErr error) {
		if err := checkArgs(args); err != nil {
			return err
		}
		p, err := st.initProvider(root)
		if err != nil {
			return err
		}
		defer func() { retErr = multierr.Append(retErr, p.Close()) }()
		current, err := p.GetDBRevision(ctx)
		if err != nil {
			return err
		}
		isHead := current != "" && current == p.HeadRevision()
		if root.useJSON {
			return st.writeJSON(currentOutput{Revision: current, IsHead: isHead})
		}
		if current == "" {
			fmt.Fprintln(st.stdout, displayRevision(current))
			return nil
		}
		if isHead {
			fmt.Fprintf(st.stdout, "%s (head)\n", current)
			return nil
		}
		fmt.Fprintln(st.stdout, current)
		return nil
	}
	return cmd
}

type currentOutput struct {
	Revision string `json:"revision"`
	IsHead   bool   `json:"is_head"`
}
