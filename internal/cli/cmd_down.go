package cli

import (
	"context"
	"errors"
	"time"

	migrate "github.com/pantos-io/servicenode-migrate"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/multierr"
)

func newDownCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "down", "down [flags]",
		"Roll back the migration at the current revision", "",
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
		now := time.Now()
		result, err := p.Down(ctx)
		return printResult(st, single(result), err, time.Since(now), root.useJSON)
	}
	return cmd
}

func newDownToCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "down-to", "down-to [flags] <revision>",
		"Roll back migrations until the database is at a revision", downToCmdLongHelp,
		`$ servicenode-migrate down-to bd913c5bfdfb`,
		`$ servicenode-migrate down-to base`,
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
		now := time.Now()
		results, err := p.DownTo(ctx, args[0])
		return printResult(st, results, err, time.Since(now), root.useJSON)
	}
	return cmd
}

const downToCmdLongHelp = `
The revision may be a full revision, a unique prefix of one, or "base". The
migration that produced the revision stays applied.
`

func newRedoCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "redo", "redo [flags]",
		"Roll back the migration at the current revision and apply it again", "",
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
		now := time.Now()
		results, err := redo(ctx, p)
		return printResult(st, results, err, time.Since(now), root.useJSON)
	}
	return cmd
}

func redo(ctx context.Context, p *migrate.Provider) ([]*migrate.MigrationResult, error) {
	down, err := p.Down(ctx)
	if err != nil {
		return nil, err
	}
	up, err := p.UpByOne(ctx)
	if err != nil {
		var partial *migrate.PartialError
		if errors.As(err, &partial) {
			partial.Applied = append([]*migrate.MigrationResult{down}, partial.Applied...)
			return nil, partial
		}
		return []*migrate.MigrationResult{down}, err
	}
	return []*migrate.MigrationResult{down, up}, nil
}
