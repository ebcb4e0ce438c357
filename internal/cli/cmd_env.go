package cli

import (
	"context"
	"fmt"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func newEnvCmd(st *state, root *rootConfig) *ffcli.Command {
	cmd := newSubcommand(st, root, "env", "env [flags]",
		"Print the environment variables read by servicenode-migrate", "",
	)
	cmd.Exec = func(ctx context.Context, args []string) error {
		if err := checkArgs(args); err != nil {
			return err
		}
		envs := listEnv()
		if root.useJSON {
			return st.writeJSON(envs)
		}
		for _, env := range envs {
			fmt.Fprintf(st.stdout, "%s=%q\n", env.Name, env.Value)
		}
		return nil
	}
	return cmd
}
