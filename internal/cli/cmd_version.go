package cli

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func newVersionCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "version", "version",
		"Print the version of servicenode-migrate", "",
	)
	cmd.Exec = func(ctx context.Context, args []string) error {
		if err := checkArgs(args); err != nil {
			return err
		}
		if root.useJSON {
			return st.writeJSON(versionOutput{Version: st.version})
		}
		fmt.Fprintf(st.stdout, "servicenode-migrate version: %s\n", st.version)
		return nil
	}
	return cmd
}

type versionOutput struct {
	Version string `json:"version"`
}
