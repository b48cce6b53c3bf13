package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"

	"todosync/internal/commands"
	"todosync/internal/config"
	"todosync/internal/exitcode"
	"todosync/internal/logger"
	"todosync/internal/service"
)

// ServiceFactory builds the sync service from loaded config.
// Used to inject the store and remote during dispatch.
type ServiceFactory func(ctx context.Context, cfg *config.Config) (service.Service, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  ServiceFactory
}

// NewDispatcher creates a new dispatcher with the given registry and service factory.
func NewDispatcher(registry *commands.Registry, factory ServiceFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "lists" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "lists", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
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
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(errOut, "error: %s\n", flagError(err))
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	if err := cfg.Load(); err != nil {
		fmt.Fprintf(errOut, "error: config: %s\n", err)
		printHints(errOut, err)
		return exitcode.AuthError
	}

	level := cfg.Settings.LogLevel
	if debug {
		level = "debug"
	}
	log, err := logger.Initialize(logger.Options{
		File:    cfg.Settings.LogFile,
		Level:   level,
		Console: debug,
	})
	if err != nil {
		fmt.Fprintf(errOut, "error: config: invalid log_level: %s\n", err)
		return exitcode.AuthError
	}
	defer logger.Sync()
	log.Debugw("Dispatching command", "command", cmd.Name(), "backend", cfg.Settings.Backend)

	var svc service.Service
	if cmd.NeedsService() && d.factory != nil {
		svc, err = d.factory(ctx, cfg)
		if err != nil {
			return factoryFailure(errOut, err)
		}
		if closer, ok := svc.(io.Closer); ok {
			defer func() {
				if err := closer.Close(); err != nil {
					log.Warnw("Failed to close service", "error", err)
				}
			}()
		}
	}

	return cmd.Run(ctx, cfg, svc, positionalArgs, out, errOut)
}

// flagError rewrites flag package errors into the CLI's wording.
func flagError(err error) string {
	errStr := err.Error()

	// Check for missing flag value
	if strings.HasPrefix(errStr, "flag needs an argument:") {
		return errStr
	}

	if strings.HasPrefix(errStr, "flag provided but not defined:") {
		return "unknown flag: " + strings.TrimPrefix(errStr, "flag provided but not defined: ")
	}

	return errStr
}

// factoryFailure reports a service that could not be built. A store that
// will not open is a local failure; anything else is credentials or config.
func factoryFailure(errOut io.Writer, err error) int {
	if service.IsLocalStore(err) {
		fmt.Fprintf(errOut, "error: local store: %s\n", err)
		return exitcode.LocalError
	}
	fmt.Fprintf(errOut, "error: auth error: %s\n", err)
	printHints(errOut, err)
	return exitcode.AuthError
}

func printHints(errOut io.Writer, err error) {
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(errOut, "hint: %s\n", hint)
	}
}
