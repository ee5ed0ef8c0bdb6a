package command

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/core/service"
)

// ACLCommand returns the acl subcommand group.
func ACLCommand() *cli.Command {
	return &cli.Command{
		Name:  "acl",
		Usage: "Analyze filters",
		Subcommands: []*cli.Command{
			{
				Name:      "compare",
				Usage:     "Show lines that treat traffic differently in two device configs",
				ArgsUsage: "ORIGINAL_FILE REFACTORED_FILE",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "platform",
						Usage: "Platform of the original config (default: inferred)",
					},
					&cli.StringFlag{
						Name:  "refactored-platform",
						Usage: "Platform of the refactored config (default: --platform)",
					},
				},
				Action: aclCompare,
			},
		},
	}
}

// DiffCommand returns the diff subcommand group.
func DiffCommand() *cli.Command {
	return &cli.Command{
		Name:  "diff",
		Usage: "Compare snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Fork a snapshot with failures and compare it with the base",
				Flags: append(failureFlags()[:2:2],
					&cli.StringFlag{
						Name:     "base",
						Usage:    "Base snapshot",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Derived snapshot name (replaced if it exists)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "query",
						Usage: "Differential query",
						Value: domain.QueryDifferentialReachability,
					},
					&cli.StringSliceFlag{
						Name:    "param",
						Aliases: []string{"p"},
						Usage:   "Query parameter as KEY=VALUE (repeatable)",
					},
				),
				Action: diffRun,
			},
			{
				Name:      "compare",
				Usage:     "Run a query on two existing snapshots and show differences",
				ArgsUsage: "QUERY",
				Flags: append(paramFlags(),
					&cli.StringFlag{
						Name:    "snapshot",
						Aliases: []string{"s"},
						Usage:   "Subject snapshot (default: active snapshot)",
					},
					&cli.StringFlag{
						Name:     "reference",
						Aliases:  []string{"r"},
						Usage:    "Reference snapshot",
						Required: true,
					},
				),
				Action: diffCompare,
			},
		},
	}
}

func aclCompare(c *cli.Context) error {
	if err := requireArgs(c, 2, "original and refactored config files"); err != nil {
		return err
	}
	original, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails("read " + c.Args().Get(0)).WithCause(err)
	}
	refactored, err := os.ReadFile(c.Args().Get(1))
	if err != nil {
		return domain.ErrInvalidArgument.WithDetails("read " + c.Args().Get(1)).WithCause(err)
	}
	platform := c.String("platform")
	refPlatform := c.String("refactored-platform")
	if refPlatform == "" {
		refPlatform = platform
	}

	env, err := envFrom(c)
	if err != nil {
		return err
	}
	orch, err := env.Orchestrator(c.Context)
	if err != nil {
		return err
	}

	spin := env.Spinner("Comparing filters")
	result, err := orch.CompareFilters(c.Context, string(original), string(refactored), platform, refPlatform)
	spin.Stop()
	if err != nil {
		return err
	}
	return env.Print(result)
}

func diffRun(c *cli.Context) error {
	params, err := parseParams("", c.StringSlice("param"))
	if err != nil {
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

	req := service.FailureImpactRequest{
		BaseSnapshot:         c.String("base"),
		DerivedSnapshot:      c.String("name"),
		DeactivateNodes:      c.StringSlice("deactivate-node"),
		DeactivateInterfaces: refs,
		Query:                c.String("query"),
		Params:               params,
	}
	spin := env.Spinner("Analyzing failure impact on " + req.BaseSnapshot)
	result, err := orch.FailureImpact(c.Context, req)
	spin.Stop()
	if err != nil {
		return err
	}
	return env.Print(result)
}

func diffCompare(c *cli.Context) error {
	if err := requireArgs(c, 1, "query name"); err != nil {
		return err
	}
	params, err := queryParams(c)
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

	snapshot := c.String("snapshot")
	if snapshot == "" {
		session, err := env.Session(c.Context)
		if err != nil {
			return err
		}
		if snapshot = session.CurrentSnapshot(); snapshot == "" {
			return domain.ErrNoActiveSnapshot
		}
	}

	spin := env.Spinner("Comparing snapshots")
	result, err := orch.CompareSnapshots(c.Context, c.Args().First(), snapshot, c.String("reference"), params)
	spin.Stop()
	if err != nil {
		return err
	}
	return env.Print(result)
}
