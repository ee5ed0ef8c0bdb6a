package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// TracerouteCommand returns the traceroute command.
func TracerouteCommand() *cli.Command {
	return &cli.Command{
		Name:    "traceroute",
		Aliases: []string{"trace"},
		Usage:   "Trace flows from a location through the snapshot",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "start",
				Usage:    "Start location (e.g. as1border1 or @enter(r1[Gi0/0]))",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "dst",
				Usage:    "Destination IP or prefix",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "src",
				Usage: "Source IP or prefix",
			},
			&cli.StringSliceFlag{
				Name:  "src-port",
				Usage: "Source port or range (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "dst-port",
				Usage: "Destination port or range (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "application",
				Usage: "Application, e.g. ssh or dns (repeatable)",
			},
			&cli.StringSliceFlag{
				Name:  "protocol",
				Usage: "IP protocol, e.g. tcp (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "bidirectional",
				Aliases: []string{"b"},
				Usage:   "Trace the return flow too",
			},
			&cli.StringFlag{
				Name:    "snapshot",
				Aliases: []string{"s"},
				Usage:   "Snapshot to trace in (default: active snapshot)",
			},
		},
		Action: traceroute,
	}
}

func traceroute(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	executor, err := env.Executor(c.Context)
	if err != nil {
		return err
	}

	req := domain.TraceRequest{
		StartLocation: c.String("start"),
		Headers: domain.HeaderConstraints{
			SrcIPs:       c.String("src"),
			DstIPs:       c.String("dst"),
			SrcPorts:     c.StringSlice("src-port"),
			DstPorts:     c.StringSlice("dst-port"),
			Applications: c.StringSlice("application"),
			IPProtocols:  c.StringSlice("protocol"),
		},
		Bidirectional: c.Bool("bidirectional"),
		Snapshot:      c.String("snapshot"),
	}

	spin := env.Spinner("Tracing from " + req.StartLocation)
	result, err := executor.Traceroute(c.Context, req)
	spin.Stop()
	if err != nil {
		return err
	}
	return env.Print(result)
}
