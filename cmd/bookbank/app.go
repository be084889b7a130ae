package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"bookbank/internal/clients"
	"bookbank/internal/config"
	"bookbank/internal/dispatch"
	"bookbank/internal/logging"
	"bookbank/internal/prompt"
	"bookbank/internal/telemetry"
	"bookbank/internal/view"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// app is the state shared by every command of one process, shell included.
type app struct {
	stdin       io.Reader
	input       *bufio.Reader
	interactive bool
	stdout      io.Writer
	stderr      io.Writer

	v          *viper.Viper
	configFile string

	ready      bool
	cfg        *config.Config
	logger     zerolog.Logger
	client     *clients.LendingClient
	view       *view.Refresher
	prompter   *prompt.Terminal
	dispatcher *dispatch.Dispatcher
	shutdown   telemetry.Shutdown
}

func newApp(stdin io.Reader, interactive bool, stdout, stderr io.Writer) *app {
	return &app{
		stdin:       stdin,
		input:       bufio.NewReader(stdin),
		interactive: interactive,
		stdout:      stdout,
		stderr:      stderr,
		v:           config.New(),
		logger:      zerolog.Nop(),
	}
}

// setup loads configuration and wires the client stack. It runs once per
// process; shell commands reuse what the first call built.
func (a *app) setup(ctx context.Context) error {
	if a.ready {
		return nil
	}

	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	a.logger = logging.New(a.stderr, logging.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logging.BridgeStdlog(a.logger)

	shutdown, err := telemetry.Setup(ctx, telemetry.Config{
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:  cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}
	a.shutdown = shutdown

	client, err := clients.NewLendingClient(clients.Options{
		BaseURL:       cfg.BaseURL,
		Timeout:       cfg.Timeout,
		RateLimit:     cfg.RateLimit,
		Burst:         cfg.Burst,
		SessionCookie: cfg.SessionCookie,
		MaxBodyBytes:  cfg.MaxBodyBytes,
	})
	if err != nil {
		return err
	}

	var check view.ImageCheck
	if cfg.CheckImages {
		check = client.ImageAvailable
	}
	refresher := view.NewRefresher(client, view.Options{
		Out:        a.stdout,
		Location:   loc,
		ImageCheck: check,
		Logger:     a.logger,
	})
	prompter := prompt.NewTerminal(a.input, a.stdout, cfg.AssumeYes, a.interactive)

	dispatcher, err := dispatch.NewDispatcher(dispatch.DefaultTable(), client, prompter, refresher, a.logger)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.client = client
	a.view = refresher
	a.prompter = prompter
	a.dispatcher = dispatcher
	a.ready = true

	a.logger.Debug().Str("base_url", client.BaseURL()).Msg("client ready")
	return nil
}

func (a *app) close() {
	if a.shutdown == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("telemetry shutdown failed")
	}
}

// sessionFlags are fixed by the first setup and cannot change inside a shell.
var sessionFlags = []string{"config", "base-url", "log-level", "pretty"}

// applyLineFlags handles the persistent flags of a shell line. --yes applies
// to that line only.
func (a *app) applyLineFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	for _, name := range sessionFlags {
		if flags.Changed(name) {
			return fmt.Errorf("--%s cannot be changed inside the shell", name)
		}
	}
	yes, err := flags.GetBool("yes")
	if err != nil {
		return err
	}
	a.prompter.SetAssumeYes(a.cfg.AssumeYes || yes)
	return nil
}

// reportedError marks a failure the user has already been shown.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return &reportedError{err: err}
}

// report prints err unless it was already shown and returns the exit status.
func (a *app) report(err error) int {
	var shown *reportedError
	if errors.As(err, &shown) {
		a.logger.Debug().Err(err).Msg("command failed")
		return 1
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return 1
}

// readPassword reads a password without echo when stdin is a terminal.
func (a *app) readPassword(question string) (string, error) {
	fmt.Fprint(a.stdout, question)
	if f, ok := a.stdin.(*os.File); ok && a.interactive {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stdout)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}

	line, err := a.input.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(line), nil
}
