// Package cli parses command lines and runs commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/exitcode"
	"todo/internal/metrics"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/store"
)

// ServiceFactory creates a Service from config.
// Used to inject the backend during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service
// factory. A nil factory selects the backend named in the config.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	if factory == nil {
		factory = DefaultFactory
	}
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatch(ctx, cmdName, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	flags := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	flags.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir, metricsPath string
	var quiet, debug bool

	flags.StringVar(&configDir, "config", "", "")
	flags.BoolVar(&quiet, "quiet", false, "")
	flags.BoolVar(&debug, "debug", false, "")
	flags.StringVar(&metricsPath, "metrics", "", "")

	// Register command-specific flags
	cmd.RegisterFlags(flags)

	if err := flags.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := flags.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug
	cfg.MetricsPath = metricsPath
	if debug {
		cfg.Logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	log := cfg.Log()
	log.Debug("dispatch", "command", cmd.Name(), "config", cfg.Dir, "backend", cfg.Backend)

	if !cmd.NeedsAuth() {
		return cmd.Run(ctx, cfg, nil, positionalArgs, out, errOut)
	}

	holder, err := loadSession(cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	if _, ok := holder.Token(); !ok {
		fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
		return exitcode.AuthError
	}

	svc, err := d.factory(ctx, cfg)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}

	var m *metrics.Metrics
	if cfg.MetricsPath != "" {
		m = metrics.New()
		svc = m.Wrap(svc)
	}

	st := store.New(svc, holder, store.WithTimeout(cfg.Timeout), store.WithLogger(log))
	cancel := st.Subscribe(func(snap store.Snapshot) {
		log.Debug("store updated", "state", snap.State.String(), "tasks", len(snap.Tasks), "visible", len(snap.Visible), "filter", snap.Filter.String())
	})
	defer cancel()

	code := cmd.Run(ctx, cfg, st, positionalArgs, out, errOut)

	if m != nil {
		if err := m.WriteTextfile(cfg.MetricsPath); err != nil {
			fmt.Fprintf(errOut, "error: failed to write metrics: %v\n", err)
		}
	}
	return code
}

// loadSession reads the stored session. A missing file yields an empty holder.
func loadSession(cfg *config.Config) (*session.Holder, error) {
	sess, err := session.Load(cfg.SessionPath())
	if errors.Is(err, fs.ErrNotExist) {
		return session.NewHolder(nil), nil
	}
	if err != nil {
		return nil, err
	}
	return session.NewHolder(sess), nil
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	errStr := err.Error()

	// Unknown flag
	if strings.HasPrefix(errStr, "flag provided but not defined: ") {
		return "unknown flag: " + strings.TrimPrefix(errStr, "flag provided but not defined: ")
	}

	return errStr
}
