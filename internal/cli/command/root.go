package command

import (
	"fmt"
	"io"
	"strings"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/cli/config"
	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/infra/buildinfo"
	"github.com/yndnr/netverify-go/internal/storage"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
)

const (
	envKey     = "env"
	optionsKey = "options"
)

// Option customizes the App. Tests use it to inject state and transport.
type Option func(*appOptions)

type appOptions struct {
	store      storage.Store
	httpClient connect.HTTPClient
	reader     io.Reader
	writer     io.Writer
	errWriter  io.Writer
}

// WithStateStore uses s for local state instead of opening badger under
// state.dir. The App does not close it.
func WithStateStore(s storage.Store) Option {
	return func(o *appOptions) {
		o.store = s
	}
}

// WithHTTPClient sets the engine HTTP transport.
func WithHTTPClient(c connect.HTTPClient) Option {
	return func(o *appOptions) {
		o.httpClient = c
	}
}

// WithWriters sets stdout and stderr.
func WithWriters(out, errOut io.Writer) Option {
	return func(o *appOptions) {
		o.writer = out
		o.errWriter = errOut
	}
}

// WithReader sets stdin, read by the interactive shell.
func WithReader(r io.Reader) Option {
	return func(o *appOptions) {
		o.reader = r
	}
}

// App creates the CLI application.
func App(opts ...Option) *cli.App {
	o := &appOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return newApp(o)
}

func newApp(o *appOptions) *cli.App {
	app := &cli.App{
		Name:    buildinfo.Program,
		Usage:   "Network configuration verification client",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			NetworkCommand(),
			SnapshotCommand(),
			QueryCommand(),
			TracerouteCommand(),
			ACLCommand(),
			DiffCommand(),
			ContextCommand(),
			DiagCommand(),
			ConfigCommand(),
			REPLCommand(),
		},
		Before: func(c *cli.Context) error {
			return before(c, o)
		},
		After: after,
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				return domain.ErrInvalidArgument.WithDetails("unknown command: " + strings.Join(c.Args().Slice(), " "))
			}
			return cli.ShowAppHelp(c)
		},
		// main and the REPL report errors themselves; never exit in-process.
		ExitErrHandler: func(*cli.Context, error) {},
		Metadata:       map[string]any{optionsKey: o},
	}
	if o.reader != nil {
		app.Reader = o.reader
	}
	if o.writer != nil {
		app.Writer = o.writer
	}
	if o.errWriter != nil {
		app.ErrWriter = o.errWriter
	}
	return app
}

// globalFlags returns the global CLI flags. Environment variables are
// read by the config loader, not by the flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "CLI config file",
			Value:   config.DefaultConfigPath(),
		},
		&cli.StringFlag{
			Name:    "engine",
			Aliases: []string{"e"},
			Usage:   "verification engine address (host:port or URL)",
		},
		&cli.StringFlag{
			Name:    "api-key",
			Aliases: []string{"k"},
			Usage:   "engine API key",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error",
		},
	}
}

// flagOverrides maps explicitly set global flags to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"engine":    "engine.address",
		"api-key":   "engine.api_key",
		"output":    "output.format",
		"log-level": "log.level",
	}
	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

// before builds the Env of the outermost invocation. Nested runs from the
// REPL reuse it. Every command line gets its own request ID.
func before(c *cli.Context, o *appOptions) error {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		env.depth++
		withRequestLogger(c, env)
		if c.IsSet("output") {
			return env.setLineFormat(c.String("output"))
		}
		return nil
	}

	env, err := newEnv(c, o)
	if err != nil {
		return err
	}
	c.App.Metadata[envKey] = env
	withRequestLogger(c, env)
	return nil
}

func withRequestLogger(c *cli.Context, env *Env) {
	ctx := logger.WithRequestID(c.Context, ulid.Make().String())
	c.Context = logger.WithLogger(ctx, logger.FromSlog(env.Logger))
}

func after(c *cli.Context) error {
	env, ok := c.App.Metadata[envKey].(*Env)
	if !ok {
		return nil
	}
	if env.depth > 0 {
		env.depth--
		env.lineFormat = ""
		return nil
	}
	delete(c.App.Metadata, envKey)
	return env.Close()
}

// envFrom returns the Env created by Before.
func envFrom(c *cli.Context) (*Env, error) {
	if env, ok := c.App.Metadata[envKey].(*Env); ok {
		return env, nil
	}
	return nil, fmt.Errorf("%s: runtime not initialized", buildinfo.Program)
}
