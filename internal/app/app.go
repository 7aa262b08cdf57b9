package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dshills/piecetree/internal/config"
	"github.com/dshills/piecetree/internal/engine"
)

// Options configures the application.
type Options struct {
	// ConfigPath is the TOML or YAML configuration file. Empty means none.
	ConfigPath string

	// LogLevel overrides the configured log level when set.
	LogLevel string

	// Stdout receives command output. Defaults to os.Stdout.
	Stdout io.Writer

	// Stderr receives log output. Defaults to os.Stderr.
	Stderr io.Writer
}

// Command is a subcommand of the application.
type Command struct {
	Name    string
	Usage   string
	Summary string
	Run     func(app *Application, ctx context.Context, args []string) error
}

// commands maps names to subcommands.
var commands = map[string]*Command{}

func register(c *Command) {
	commands[c.Name] = c
}

// Commands returns the subcommands sorted by name.
func Commands() []*Command {
	out := make([]*Command, 0, len(commands))
	for _, c := range commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Application holds the configuration and shared services of one run.
type Application struct {
	cfg       *config.Config
	logger    *Logger
	metrics   *Metrics
	documents *DocumentManager

	stdout io.Writer
}

// New loads the configuration and builds the logger.
func New(ctx context.Context, opts Options) (*Application, error) {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	cfg := config.New(config.WithFile(opts.ConfigPath))
	if opts.LogLevel != "" {
		cfg.SetOverride("logging.level", opts.LogLevel)
	}
	if err := cfg.Load(ctx); err != nil {
		return nil, NewOperationError("load config", opts.ConfigPath, err)
	}

	lc := cfg.Logging()
	logger := NewLogger(LoggerConfig{
		Level:  ParseLogLevel(lc.Level),
		Format: lc.Format,
		Output: opts.Stderr,
		Name:   "ptree",
	})

	app := &Application{
		cfg:     cfg,
		logger:  logger,
		metrics: NewMetrics(),
		stdout:  opts.Stdout,
	}
	app.documents = NewDocumentManager(app.engineOptions()...)

	logger.WithFields(map[string]any{
		"path":         opts.ConfigPath,
		"level_source": cfg.Source("logging.level"),
	}).Debug("configuration loaded")
	return app, nil
}

// engineOptions returns the engine options implied by the configuration.
func (app *Application) engineOptions() []engine.Option {
	ec := app.cfg.Engine()
	opts := []engine.Option{
		engine.WithMaxUndoEntries(ec.MaxUndo),
		engine.WithReadChunkSize(ec.ReadChunk),
		engine.WithLogger(app.logger.WithComponent("engine").Zap()),
	}
	if ec.Checks {
		opts = append(opts, engine.WithConsistencyChecks())
	}
	return opts
}

// Config returns the loaded configuration.
func (app *Application) Config() *config.Config {
	return app.cfg
}

// Logger returns the application's logger instance.
func (app *Application) Logger() *Logger {
	if app.logger == nil {
		return GetLogger()
	}
	return app.logger
}

// Metrics returns the application's metrics instance.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}

// Run executes the subcommand named by args[0].
func (app *Application) Run(ctx context.Context, args []string) (err error) {
	if len(args) == 0 {
		return fmt.Errorf("%w: no command given", ErrUsage)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, args[0])
	}

	defer func() {
		if r := recover(); r != nil {
			err = NewOperationError(cmd.Name, "", &RecoveredPanicError{Value: r})
		}
		_ = app.logger.Sync()
	}()

	app.logger.WithComponent(cmd.Name).Debug("running %s with %d args", cmd.Name, len(args)-1)
	return cmd.Run(app, ctx, args[1:])
}

// Sync flushes the logger.
func (app *Application) Sync() error {
	return app.logger.Sync()
}
