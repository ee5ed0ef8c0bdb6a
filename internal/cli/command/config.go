package command

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/netverify-go/internal/cli/config"
)

// ConfigCommand returns the config subcommand group.
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage CLI configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "reveal",
						Usage: "Show the API key in clear text",
					},
				},
				Action: configShow,
			},
			{
				Name:      "set",
				Usage:     "Set a value in the config file",
				ArgsUsage: "KEY VALUE",
				Description: "Keys: " + strings.Join(config.Keys(), ", ") +
					"\nengine.api_key is stored encrypted.",
				Action: configSet,
			},
			{
				Name:   "path",
				Usage:  "Print the config file path",
				Action: configPath,
			},
		},
	}
}

func configShow(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	values := env.Config.Values()
	if key, _ := values["engine.api_key"].(string); key != "" && !c.Bool("reveal") {
		values["engine.api_key"] = maskSecret(key)
	}
	return env.Print(values)
}

func configSet(c *cli.Context) error {
	if err := requireArgs(c, 2, "KEY VALUE"); err != nil {
		return err
	}
	env, err := envFrom(c)
	if err != nil {
		return err
	}

	key, value := c.Args().Get(0), c.Args().Get(1)
	if _, err := config.Set(env.ConfigPath, key, value); err != nil {
		return err
	}
	if key == "engine.api_key" {
		value = maskSecret(value)
	}
	fmt.Fprintf(env.Out, "%s = %s\n", key, value)
	return nil
}

func configPath(c *cli.Context) error {
	env, err := envFrom(c)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(env.Out, env.ConfigPath)
	return err
}

// maskSecret keeps the last four characters of long secrets.
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return "********" + s[len(s)-4:]
}
