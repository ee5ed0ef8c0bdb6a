package command

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/cli/config"
	"github.com/yndnr/netverify-go/internal/cli/repl"
	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/infra/confloader"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
)

// REPLCommand returns the interactive shell command.
func REPLCommand() *cli.Command {
	return &cli.Command{
		Name:    "repl",
		Aliases: []string{"shell"},
		Usage:   "Start an interactive session",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write the history file",
			},
		},
		Action: runREPL,
	}
}

func runREPL(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	if env.depth > 0 {
		return domain.ErrInvalidArgument.WithDetails("already in an interactive session")
	}

	history := repl.NewHistory("")
	if !c.Bool("no-history") {
		history = repl.NewHistory(filepath.Join(config.HomeDir(), "history"))
	}

	stop := watchConfig(env)
	defer stop()

	o, _ := c.App.Metadata[optionsKey].(*appOptions)
	if o == nil {
		o = &appOptions{}
	}
	shell := repl.New(
		func(ctx context.Context, args []string) error {
			line := newApp(o)
			line.Metadata[envKey] = env
			return line.RunContext(ctx, reorderArgs(line, append([]string{line.Name}, args...)))
		},
		repl.WithIO(c.App.Reader, c.App.Writer),
		repl.WithPrompt(func() string { return prompt(c.Context, env) }),
		repl.WithCommands(commandPaths(c.App.Commands)),
		repl.WithHistory(history),
	)
	return shell.Run(c.Context)
}

func prompt(ctx context.Context, env *Env) string {
	active, err := env.ActiveContext(ctx)
	if err != nil || !active.HasNetwork() {
		return "netverify> "
	}
	return "netverify(" + active.String() + ")> "
}

// watchConfig applies log level changes of the config file while the
// shell runs. Other settings take effect on the next start.
func watchConfig(env *Env) func() {
	w, err := confloader.NewWatcher(confloader.WithWatcherLogger(env.Logger))
	if err != nil {
		env.Logger.Debug("config watcher unavailable", "error", err)
		return func() {}
	}
	if err := w.Watch(env.ConfigPath); err != nil {
		_ = w.Stop()
		return func() {}
	}
	w.OnChange(func(string) {
		cfg, err := config.Load(env.ConfigPath, nil)
		if err != nil {
			env.Logger.Warn("config reload failed", "error", err)
			return
		}
		logger.SetLevel(cfg.Log.Level)
		env.Logger.Info("log level reloaded", "level", cfg.Log.Level)
	})
	w.StartAsync()
	return func() { _ = w.Stop() }
}

// commandPaths lists every command path, e.g. "snapshot fork".
func commandPaths(cmds []*cli.Command) []string {
	var paths []string
	var walk func(prefix string, cmds []*cli.Command)
	walk = func(prefix string, cmds []*cli.Command) {
		for _, cmd := range cmds {
			if cmd.Hidden {
				continue
			}
			path := prefix + cmd.Name
			paths = append(paths, path)
			walk(path+" ", cmd.Subcommands)
		}
	}
	walk("", cmds)
	slices.Sort(paths)
	return paths
}
