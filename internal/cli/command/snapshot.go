package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/cli/output"
	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/telemetry/logger"
)

// SnapshotCommand returns the snapshot subcommand group.
func SnapshotCommand() *cli.Command {
	return &cli.Command{
		Name:    "snapshot",
		Aliases: []string{"snap"},
		Usage:   "Manage snapshots of the active network",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List snapshots",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "network",
						Aliases: []string{"n"},
						Usage:   "Network to list (default: active network)",
					},
				},
				Action: snapshotList,
			},
			{
				Name:      "init",
				Usage:     "Upload a snapshot and make it active",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Aliases: []string{"d"},
						Usage:   "Snapshot directory (configs/, hosts/, ...)",
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Single device configuration file",
					},
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Platform of --file (e.g. cisco-nx, juniper)",
					},
					&cli.BoolFlag{
						Name:  "overwrite",
						Usage: "Replace an existing snapshot of the same name",
					},
				},
				Action: snapshotInit,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a snapshot",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "network",
						Aliases: []string{"n"},
						Usage:   "Network of the snapshot (default: active network)",
					},
				},
				Action: snapshotDelete,
			},
			{
				Name:      "use",
				Usage:     "Set the active snapshot",
				ArgsUsage: "NAME",
				Action:    snapshotUse,
			},
			{
				Name:      "show-config",
				Usage:     "Print an input file of a snapshot",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "snapshot",
						Aliases: []string{"s"},
						Usage:   "Snapshot to read (default: active snapshot)",
					},
					&cli.BoolFlag{
						Name:  "redact",
						Usage: "Replace passwords, secrets and keys with a placeholder",
					},
				},
				Action: snapshotShowConfig,
			},
			{
				Name:      "fail",
				Usage:     "Derive a snapshot with a single failure applied",
				ArgsUsage: "BASE NAME",
				Flags:     failureFlags(),
				Action:    snapshotFail,
			},
			{
				Name:      "fork",
				Usage:     "Derive a snapshot with nodes or interfaces deactivated",
				ArgsUsage: "BASE NAME",
				Flags:     failureFlags(),
				Action:    snapshotFork,
			},
		},
	}
}

// failureFlags are the deactivation flags shared by fork and diff run.
func failureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "deactivate-node",
			Aliases: []string{"N"},
			Usage:   "Node to deactivate (repeatable)",
		},
		&cli.StringSliceFlag{
			Name:    "deactivate-interface",
			Aliases: []string{"I"},
			Usage:   "Interface to deactivate as HOST[INTERFACE] (repeatable)",
		},
		&cli.BoolFlag{
			Name:  "overwrite",
			Usage: "Replace an existing derived snapshot",
		},
	}
}

func snapshotList(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	session, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	var names []string
	if network := c.String("network"); network != "" {
		names, err = session.ListSnapshotsOf(c.Context, network)
	} else {
		names, err = session.ListSnapshots(c.Context)
	}
	if err != nil {
		return err
	}
	return env.Print(names)
}

func snapshotInit(c *cli.Context) error {
	if err := requireArgs(c, 1, "snapshot name"); err != nil {
		return err
	}
	dir, file := c.String("dir"), c.String("file")
	if (dir == "") == (file == "") {
		return domain.ErrInvalidArgument.WithDetails("exactly one of --dir and --file is required")
	}

	env, err := envFrom(c)
	if err != nil {
		return err
	}
	session, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	name := c.Args().First()
	spin := env.Spinner("Uploading snapshot " + name)
	if dir != "" {
		err = session.InitSnapshotFromDir(c.Context, dir, name, c.Bool("overwrite"))
	} else {
		var text []byte
		if text, err = os.ReadFile(file); err != nil {
			err = domain.ErrInvalidArgument.WithDetails("read " + file).WithCause(err)
		} else {
			err = session.InitSnapshotFromText(c.Context, string(text), c.String("platform"), name, c.Bool("overwrite"))
		}
	}
	if err != nil {
		spin.Fail("Snapshot " + name + " not initialized")
		return err
	}
	spin.Success("Snapshot " + name + " initialized")

	fmt.Fprintf(env.Out, "Active snapshot: %s\n", session.Context())
	return nil
}

func snapshotDelete(c *cli.Context) error {
	if err := requireArgs(c, 1, "snapshot name"); err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	session, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	network := c.String("network")
	if network == "" {
		if network = session.CurrentNetwork(); network == "" {
			return domain.ErrNoActiveNetwork
		}
	}
	name := c.Args().First()
	if err := session.DeleteSnapshot(c.Context, network, name); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Snapshot %s/%s deleted\n", network, name)
	return nil
}

func snapshotUse(c *cli.Context) error {
	if err := requireArgs(c, 1, "snapshot name"); err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	session, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	if err := session.SelectSnapshot(c.Context, c.Args().First()); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Active snapshot: %s\n", session.Context())
	return nil
}

func snapshotShowConfig(c *cli.Context) error {
	if err := requireArgs(c, 1, "file name"); err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	session, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	text, err := session.SnapshotConfig(c.Context, c.Args().First(), c.String("snapshot"))
	if err != nil {
		return err
	}
	if c.Bool("redact") {
		text = logger.RedactConfig(text)
	}
	if env.Format() != output.FormatTable {
		return env.Print(map[string]string{"file": c.Args().First(), "text": text})
	}
	_, err = fmt.Fprint(env.Out, text)
	return err
}

func snapshotFork(c *cli.Context) error {
	if err := requireArgs(c, 2, "base snapshot and derived snapshot name"); err != nil {
		return err
	}
	refs, err := parseInterfaceRefs(c.StringSlice("deactivate-interface"))
	if err != nil {
		return err
	}

	env, err := envFrom(c)
	if err != nil {
		return err
	}
	orch, err := env.Orchestrator(c.Context)
	if err != nil {
		return err
	}

	spec := domain.ForkSpec{
		BaseSnapshot:         c.Args().Get(0),
		Name:                 c.Args().Get(1),
		DeactivateNodes:      c.StringSlice("deactivate-node"),
		DeactivateInterfaces: refs,
		Overwrite:            c.Bool("overwrite"),
	}
	spin := env.Spinner("Forking " + spec.BaseSnapshot)
	if err := orch.Fork(c.Context, spec); err != nil {
		spin.Fail("Fork failed")
		return err
	}
	spin.Success("Snapshot " + spec.Name + " forked from " + spec.BaseSnapshot)
	fmt.Fprintf(env.Out, "Snapshot %s created\n", spec.Name)
	return nil
}

// snapshotFail applies one failure: the first interface if any is given,
// otherwise every listed node.
func snapshotFail(c *cli.Context) error {
	if err := requireArgs(c, 2, "base snapshot and derived snapshot name"); err != nil {
		return err
	}
	refs, err := parseInterfaceRefs(c.StringSlice("deactivate-interface"))
	if err != nil {
		return err
	}

	env, err := envFrom(c)
	if err != nil {
		return err
	}
	orch, err := env.Orchestrator(c.Context)
	if err != nil {
		return err
	}

	base, name := c.Args().Get(0), c.Args().Get(1)
	spin := env.Spinner("Forking " + base)
	if err := orch.ForkWithFailure(c.Context, base, name, c.StringSlice("deactivate-node"), refs, c.Bool("overwrite")); err != nil {
		spin.Fail("Fork failed")
		return err
	}
	spin.Success("Snapshot " + name + " forked from " + base)
	fmt.Fprintf(env.Out, "Snapshot %s created\n", name)
	return nil
}
