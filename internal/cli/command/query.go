package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/netverify-go/internal/cli/output"
	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/core/service"
	"github.com/yndnr/netverify-go/internal/core/shape"
)

// QueryCommand returns the query subcommand group.
func QueryCommand() *cli.Command {
	return &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Run verification queries",
		Subcommands: []*cli.Command{
			{
				Name:      "run",
				Usage:     "Run a query against the active snapshot",
				ArgsUsage: "NAME",
				Flags: append(paramFlags(),
					&cli.StringFlag{
						Name:    "snapshot",
						Aliases: []string{"s"},
						Usage:   "Snapshot to query (default: active snapshot)",
					},
					&cli.StringFlag{
						Name:    "reference",
						Aliases: []string{"r"},
						Usage:   "Reference snapshot for comparison queries",
					},
					&cli.BoolFlag{
						Name:  "no-cache",
						Usage: "Bypass the result cache",
					},
					&cli.StringSliceFlag{
						Name:  "columns",
						Usage: "Columns to show, in order",
					},
				),
				Action: queryRun,
			},
			{
				Name:      "describe",
				Usage:     "Describe a query",
				ArgsUsage: "NAME",
				Action:    queryDescribe,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List queries offered by the engine",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "known",
						Usage: "List the queries this client supports, with families",
					},
				},
				Action: queryList,
			},
			{
				Name:      "batch",
				Usage:     "Run a YAML list of queries concurrently",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "parallel",
						Aliases: []string{"j"},
						Usage:   "Concurrent engine calls",
						Value:   service.DefaultBatchParallelism,
					},
				},
				Action: queryBatch,
			},
		},
	}
}

// paramFlags are the query parameter flags.
func paramFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "param",
			Aliases: []string{"p"},
			Usage:   "Query parameter as KEY=VALUE (repeatable)",
		},
		&cli.StringFlag{
			Name:  "params",
			Usage: "Query parameters as a JSON/YAML document, or @FILE",
		},
	}
}

func queryParams(c *cli.Context) (domain.Params, error) {
	return parseParams(c.String("params"), c.StringSlice("param"))
}

func queryRun(c *cli.Context) error {
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
	executor, err := env.Executor(c.Context)
	if err != nil {
		return err
	}

	var opts []service.ExecOption
	if s := c.String("snapshot"); s != "" {
		opts = append(opts, service.WithSnapshot(s))
	}
	if r := c.String("reference"); r != "" {
		opts = append(opts, service.WithReference(r))
	}
	if c.Bool("no-cache") {
		opts = append(opts, service.WithoutCache())
	}

	name := c.Args().First()
	spin := env.Spinner("Running " + name)
	result, err := executor.Execute(c.Context, name, params, opts...)
	spin.Stop()
	if err != nil {
		return err
	}
	if cols := c.StringSlice("columns"); len(cols) > 0 {
		result = shape.Project(result, cols...)
	}
	return env.Print(result)
}

func queryDescribe(c *cli.Context) error {
	if err := requireArgs(c, 1, "query name"); err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	executor, err := env.Executor(c.Context)
	if err != nil {
		return err
	}

	name := c.Args().First()
	text, err := executor.Describe(c.Context, name)
	if err != nil {
		return err
	}
	if env.Format() != output.FormatTable {
		return env.Print(map[string]string{"name": name, "description": text})
	}
	_, err = fmt.Fprintln(env.Out, text)
	return err
}

type capabilityRow struct {
	Name           string `json:"name" yaml:"name"`
	Family         string `json:"family" yaml:"family"`
	NeedsReference bool   `json:"needs_reference" yaml:"needs_reference"`
	Summary        string `json:"summary" yaml:"summary"`
}

func queryList(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	if c.Bool("known") {
		caps := service.Capabilities()
		rows := make([]capabilityRow, 0, len(caps))
		for _, cp := range caps {
			rows = append(rows, capabilityRow{
				Name:           cp.Name,
				Family:         string(cp.Family),
				NeedsReference: cp.NeedsReference,
				Summary:        cp.Summary,
			})
		}
		return env.Print(rows)
	}

	executor, err := env.Executor(c.Context)
	if err != nil {
		return err
	}
	return env.Print(executor.ListAvailableQueries(c.Context))
}

type batchOutput struct {
	Label  string         `json:"label" yaml:"label"`
	Query  string         `json:"query" yaml:"query"`
	Result *domain.Result `json:"result,omitempty" yaml:"result,omitempty"`
	Error  string         `json:"error,omitempty" yaml:"error,omitempty"`
}

func queryBatch(c *cli.Context) error {
	if err := requireArgs(c, 1, "batch file"); err != nil {
		return err
	}
	items, err := readBatch(c.Args().First())
	if err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	executor, err := env.Executor(c.Context)
	if err != nil {
		return err
	}

	spin := env.Spinner(fmt.Sprintf("Running %d queries", len(items)))
	results, err := executor.ExecuteBatch(c.Context, items, c.Int("parallel"))
	spin.Stop()
	if err != nil {
		return err
	}

	outs := make([]batchOutput, 0, len(results))
	failed := 0
	for _, r := range results {
		out := batchOutput{Label: r.Item.Label, Query: r.Item.Query}
		if out.Label == "" {
			out.Label = r.Item.Query
		}
		if r.Err != nil {
			out.Error = r.Err.Error()
			failed++
		} else {
			out.Result = shape.Sanitize(r.Result)
		}
		outs = append(outs, out)
	}

	if env.Format() != output.FormatTable {
		if err := env.Print(outs); err != nil {
			return err
		}
	} else if err := printBatchTables(env, outs); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d batch queries failed", failed, len(outs))
	}
	return nil
}

func printBatchTables(env *Env, outs []batchOutput) error {
	for i, out := range outs {
		if i > 0 {
			fmt.Fprintln(env.Out)
		}
		fmt.Fprintf(env.Out, "== %s (%s)\n", out.Label, out.Query)
		if out.Error != "" {
			fmt.Fprintf(env.Out, "error: %s\n", out.Error)
			continue
		}
		if err := env.Print(out.Result); err != nil {
			return err
		}
	}
	return nil
}

// readBatch reads a YAML list of batch items.
func readBatch(path string) ([]service.BatchItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("read batch file " + path).WithCause(err)
	}
	var items []service.BatchItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("parse batch file " + path).WithCause(err)
	}
	if len(items) == 0 {
		return nil, domain.ErrMissingArgument.WithDetails("batch file has no queries")
	}
	return items, nil
}
