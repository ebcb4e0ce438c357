package cli

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/multierr"
)

func newStampCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "stamp", "stamp [flags] <revision>",
		"Record a revision in the database without running migrations", stampCmdLongHelp,
		`$ servicenode-migrate stamp bd913c5bfdfb`,
		`$ servicenode-migrate stamp head`,
	)
	cmd.Exec = func(ctx context.Context, args []string) (retErr error) {
		if err := checkArgs(args, "revision"); err != nil {
			return err
		}
		p, err := st.initProvider(root)
		if err != nil {
			return err
		}
		defer func() { retErr = multierr.Append(retErr, p.Close()) }()
		if err := p.Stamp(ctx, args[0]); err != nil {
			return err
		}
		current, err := p.GetDBRevision(ctx)
		if err != nil {
			return err
		}
		if root.useJSON {
			return st.writeJSON(currentOutput{Revision: current, IsHead: current != "" && current == p.HeadRevision()})
		}
		fmt.Fprintf(st.stdout, "stamped %s\n", displayRevision(current))
		return nil
	}
	return cmd
}

const stampCmdLongHelp = `
Record a revision in the version table without running any migration.

Databases created before this tool was introduced must be stamped at the revision
their schema is known to match, usually the base revision of the chain, before
the first upgrade.
`
