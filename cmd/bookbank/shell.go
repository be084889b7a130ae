package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newShellCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively in one session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.shell(cmd)
		},
	}
}

// shell reads one command per line and runs it against the shared session, so
// the cookie jar and the page survive between commands.
func (a *app) shell(parent *cobra.Command) error {
	ctx := parent.Context()
	fmt.Fprintln(a.stdout, "BookBank shell. Type help for commands, exit to leave.")

	for {
		fmt.Fprint(a.stdout, "bookbank> ")
		line, err := a.input.ReadString('\n')
		fields := strings.Fields(line)

		if len(fields) > 0 {
			switch fields[0] {
			case "exit", "quit":
				return nil
			case "shell":
				fmt.Fprintln(a.stderr, "Error: already in a shell")
			default:
				root := newRootCommand(a)
				root.SetArgs(fields)
				if runErr := root.ExecuteContext(ctx); runErr != nil {
					a.report(runErr)
				}
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(a.stdout)
				return nil
			}
			return fmt.Errorf("failed to read command: %w", err)
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}
