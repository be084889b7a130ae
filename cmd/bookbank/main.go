// cmd/bookbank/main.go
package main

import (
	"context"
	"io"
	"os"
	"os/signal"

	"bookbank/internal/prompt"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, prompt.IsTerminal(os.Stdin), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command line and returns the process exit status.
func run(ctx context.Context, args []string, stdin io.Reader, interactive bool, stdout, stderr io.Writer) int {
	a := newApp(stdin, interactive, stdout, stderr)
	defer a.close()

	root := newRootCommand(a)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return a.report(err)
	}
	return 0
}
