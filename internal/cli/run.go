package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/peterbourgon/ff/v3/ffcli"
)

func run(ctx context.Context, args []string, opts ...Options) (retErr error) {
	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic: %v", r)
		}
	}()
	st, err := newStateWithDefaults(opts...)
	if err != nil {
		return err
	}
	// The env file must be loaded before flags are parsed, it feeds MIGRATE_ variables.
	if err := loadEnvFile(args); err != nil {
		return err
	}
	root, config := newRootCmd(st)
	root.Subcommands = []*ffcli.Command{
		newUpCmd(st, config),
		newUpByOneCmd(st, config),
		newUpToCmd(st, config),
		newDownCmd(st, config),
		newDownToCmd(st, config),
		newRedoCmd(st, config),
		newStatusCmd(st, config),
		newCurrentCmd(st, config),
		newHeadsCmd(st, config),
		newHistoryCmd(st, config),
		newStampCmd(st, config),
		newEnvCmd(st, config),
		newVersionCmd(st, config),
	}
	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	if err := root.Run(ctx); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}
	return nil
}

// newSubcommand returns a command whose flag set also accepts the root flags.
func newSubcommand(st *state, root *rootConfig, name, shortUsage, shortHelp, longHelp string, examples ...string) *ffcli.Command {
	fs := newFlagSet("servicenode-migrate "+name, st.stderr)
	root.registerFlags(fs)
	return &ffcli.Command{
		Name:       name,
		ShortUsage: "servicenode-migrate " + shortUsage,
		ShortHelp:  shortHelp,
		LongHelp:   strings.TrimSpace(longHelp),
		FlagSet:    fs,
		UsageFunc:  newUsageFunc(examples),
		Options:    ffOptions(),
	}
}

func newUsageFunc(examples []string) func(*ffcli.Command) string {
	return func(c *ffcli.Command) string {
		var b strings.Builder
		b.WriteString(ffcli.DefaultUsageFunc(c))
		if len(examples) > 0 {
			b.WriteString("\nEXAMPLES\n")
			for _, e := range examples {
				b.WriteString("  " + e + "\n")
			}
		}
		return b.String()
	}
}

func checkArgs(args []string, names ...string) error {
	if len(args) < len(names) {
		return fmt.Errorf("missing required argument: %s", strings.Join(names[len(args):], ", "))
	}
	if len(args) > len(names) {
		return fmt.Errorf("too many arguments: %s", strings.Join(args[len(names):], " "))
	}
	return nil
}
