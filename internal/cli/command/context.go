package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/storage"
)

// DefaultDiagnosticLimit is the number of diagnostics diag list shows.
const DefaultDiagnosticLimit = 20

// ContextCommand returns the context command.
func ContextCommand() *cli.Command {
	return &cli.Command{
		Name:    "context",
		Aliases: []string{"ctx"},
		Usage:   "Show or clear the active network and snapshot",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "clear",
				Usage: "Clear the active context",
			},
		},
		Action: contextShow,
	}
}

type contextView struct {
	Network   string `json:"network" yaml:"network"`
	Snapshot  string `json:"snapshot" yaml:"snapshot"`
	Engine    string `json:"engine" yaml:"engine"`
	UpdatedAt string `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func contextShow(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	if c.Bool("clear") {
		session, err := env.Session(c.Context)
		if err != nil {
			return err
		}
		if err := session.Reset(c.Context); err != nil {
			return err
		}
		fmt.Fprintln(env.Out, "Context cleared")
		return nil
	}

	active, err := env.ActiveContext(c.Context)
	if err != nil {
		return err
	}
	view := contextView{
		Network:  active.Network,
		Snapshot: active.Snapshot,
		Engine:   env.conn.Address(),
	}
	if store, err := env.State(); err == nil {
		if rec, err := storage.NewContextStore(store).LoadRecord(c.Context); err == nil && rec.Network == active.Network {
			view.UpdatedAt = rec.UpdatedAt.Format(time.RFC3339)
		}
	}
	return env.Print(view)
}

// DiagCommand returns the diag subcommand group.
func DiagCommand() *cli.Command {
	return &cli.Command{
		Name:  "diag",
		Usage: "Inspect engine failures recorded as diagnostics",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List recent diagnostics, newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum entries",
						Value:   DefaultDiagnosticLimit,
					},
				},
				Action: diagList,
			},
			{
				Name:   "clear",
				Usage:  "Delete all diagnostics and compact local state",
				Action: diagClear,
			},
			{
				Name:   "state",
				Usage:  "Show local state store statistics",
				Action: diagState,
			},
		},
	}
}

func diagList(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	executor, err := env.Executor(c.Context)
	if err != nil {
		return err
	}

	diags, err := executor.Diagnostics(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}
	return env.Print(diags)
}

func diagClear(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	journal, err := env.Journal(c.Context)
	if err != nil {
		return err
	}

	n, err := journal.Clear(c.Context)
	if err != nil {
		return err
	}
	store, err := env.State()
	if err != nil {
		return err
	}
	if _, err := store.GC(c.Context); err != nil {
		env.Logger.Warn("state store gc failed", "error", err)
	}
	fmt.Fprintf(env.Out, "Deleted %d diagnostics\n", n)
	return nil
}

type stateView struct {
	Dir          string `json:"dir" yaml:"dir"`
	LSMSize      uint64 `json:"lsm_size" yaml:"lsm_size"`
	ValueLogSize uint64 `json:"value_log_size" yaml:"value_log_size"`
	TotalSize    uint64 `json:"total_size" yaml:"total_size"`
	LastGC       string `json:"last_gc" yaml:"last_gc"`
}

func diagState(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	store, err := env.State()
	if err != nil {
		return err
	}

	stats, err := store.Stats(c.Context)
	if err != nil {
		return err
	}
	view := stateView{
		Dir:          env.Config.State.Dir,
		LSMSize:      stats.LSMSize,
		ValueLogSize: stats.ValueLogSize,
		TotalSize:    stats.TotalSize,
		LastGC:       "never",
	}
	if stats.LastGCTime > 0 {
		view.LastGC = time.UnixMilli(stats.LastGCTime).UTC().Format(time.RFC3339)
	}
	return env.Print(view)
}
