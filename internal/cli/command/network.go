package command

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

// NetworkCommand returns the network subcommand group.
func NetworkCommand() *cli.Command {
	return &cli.Command{
		Name:    "network",
		Aliases: []string{"net"},
		Usage:   "Manage networks on the engine",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List networks",
				Action:  networkList,
			},
			{
				Name:      "create",
				Usage:     "Create a network",
				ArgsUsage: "NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "use",
						Usage: "Make the new network active",
					},
				},
				Action: networkCreate,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "Delete a network and all its snapshots",
				ArgsUsage: "NAME",
				Action:    networkDelete,
			},
			{
				Name:      "use",
				Usage:     "Set the active network",
				ArgsUsage: "NAME",
				Action:    networkUse,
			},
		},
	}
}

func networkList(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	session, err := env.Session(c.Context)
	if err != nil {
		return err
	}

	names, err := session.ListNetworks(c.Context)
	if err != nil {
		return err
	}
	return env.Print(names)
}

func networkCreate(c *cli.Context) error {
	if err := requireArgs(c, 1, "network name"); err != nil {
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

	name := c.Args().First()
	if err := session.CreateNetwork(c.Context, name); err != nil {
		return err
	}
	if c.Bool("use") {
		if err := session.SelectNetwork(c.Context, name); err != nil {
			return err
		}
	}
	fmt.Fprintf(env.Out, "Network %s created\n", name)
	return nil
}

func networkDelete(c *cli.Context) error {
	if err := requireArgs(c, 1, "network name"); err != nil {
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

	name := c.Args().First()
	if err := session.DeleteNetwork(c.Context, name); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Network %s deleted\n", name)
	return nil
}

func networkUse(c *cli.Context) error {
	if err := requireArgs(c, 1, "network name"); err != nil {
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

	name := c.Args().First()
	if err := session.SelectNetwork(c.Context, name); err != nil {
		return err
	}
	fmt.Fprintf(env.Out, "Active network: %s\n", name)
	return nil
}
