package cli

import (
	"context"
	"fmt"

	migrate "github.com/pantos-io/servicenode-migrate"
	"github.com/peterbourgon/ff/v3/ffcli"
)

func newHeadsCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "heads", "heads [flags]",
		"Print the head revision of the migration chain", "",
	)
	cmd.Exec = func(ctx context.Context, args []string) error {
		if err := checkArgs(args); err != nil {
			return err
		}
		chain, err := newChain(st)
		if err != nil {
			return err
		}
		if root.useJSON {
			return st.writeJSON(headsOutput{Heads: []string{chain.Head()}})
		}
		fmt.Fprintf(st.stdout, "%s (head)\n", chain.Head())
		return nil
	}
	return cmd
}

type headsOutput struct {
	Heads []string `json:"heads"`
}

func newHistoryCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "history", "history [flags]",
		"List the migration chain, newest first", historyCmdLongHelp,
	)
	cmd.Exec = func(ctx context.Context, args []string) error {
		if err := checkArgs(args); err != nil {
			return err
		}
		chain, err := newChain(st)
		if err != nil {
			return err
		}
		migrations := chain.Migrations()
		if root.useJSON {
			out := historyOutput{Migrations: make([]historyEntry, 0, len(migrations))}
			for i := len(migrations) - 1; i >= 0; i-- {
				m := migrations[i]
				out.Migrations = append(out.Migrations, historyEntry{
					Revision:     m.Revision,
					DownRevision: m.DownRevision,
					Filename:     filename(&migrate.Source{Path: m.Source, Revision: m.Revision}),
					IsHead:       m.Revision == chain.Head(),
				})
			}
			return st.writeJSON(out)
		}
		for i := len(migrations) - 1; i >= 0; i-- {
			m := migrations[i]
			label := ""
			if m.Revision == chain.Head() {
				label = " (head)"
			}
			fmt.Fprintf(st.stdout, "%s -> %s%s, %s\n",
				displayRevision(m.DownRevision),
				m.Revision,
				label,
				filename(&migrate.Source{Path: m.Source, Revision: m.Revision}),
			)
		}
		return nil
	}
	return cmd
}

const historyCmdLongHelp = `
List the migration chain compiled into this binary, newest first. The database is
not consulted, --dbstring is not required.
`

type historyOutput struct {
	Migrations []historyEntry `json:"migrations"`
}

type historyEntry struct {
	Revision     string `json:"revision"`
	DownRevision string `json:"down_revision"`
	Filename     string `json:"filename"`
	IsHead       bool   `json:"is_head"`
}

// newChain builds the chain the provider would use without opening a database.
func newChain(st *state) (*migrate.Chain, error) {
	migrations := st.migrations
	if migrations == nil {
		migrations = migrate.Registered()
	}
	if len(migrations) == 0 {
		return nil, migrate.ErrNoMigrations
	}
	return migrate.NewChain(migrations)
}
