package command

import (
	"context"
	"strings"

	"github.com/urfave/cli/v2"
)

// Run builds the App and runs it with args. Command flags may follow
// positional arguments, as in "snapshot fork S1 S1-fail -N r2".
func Run(ctx context.Context, args []string, opts ...Option) error {
	app := App(opts...)
	return app.RunContext(ctx, reorderArgs(app, args))
}

// reorderArgs moves the flags of every command level ahead of that level's
// positional arguments. urfave/cli stops parsing flags at the first
// positional argument. Everything after "--" is left untouched.
func reorderArgs(app *cli.App, args []string) []string {
	if len(args) == 0 {
		return args
	}

	out := []string{args[0]}
	flags, cmds, rest := app.Flags, app.Commands, args[1:]
	for {
		var (
			leading, positional, tail []string
			next                      *cli.Command
			dashes                    bool
		)
		for i := 0; i < len(rest); i++ {
			arg := rest[i]
			if arg == "--" {
				dashes = true
				tail = rest[i+1:]
				break
			}
			if isFlagArg(arg) {
				leading = append(leading, arg)
				if flagTakesValue(flags, arg) && i+1 < len(rest) {
					i++
					leading = append(leading, rest[i])
				}
				continue
			}
			if len(positional) == 0 {
				if cmd := findCommand(cmds, arg); cmd != nil {
					next = cmd
					tail = rest[i+1:]
					break
				}
			}
			positional = append(positional, arg)
		}

		out = append(out, leading...)
		if next != nil {
			out = append(out, next.Name)
			flags, cmds, rest = next.Flags, next.Subcommands, tail
			continue
		}
		if dashes {
			out = append(out, "--")
		}
		out = append(out, positional...)
		return append(out, tail...)
	}
}

func isFlagArg(arg string) bool {
	return len(arg) > 1 && arg[0] == '-'
}

// flagTakesValue reports whether arg names a flag that consumes the next
// argument. Unknown flags are assumed to be boolean.
func flagTakesValue(flags []cli.Flag, arg string) bool {
	name := strings.TrimLeft(arg, "-")
	if strings.Contains(name, "=") {
		return false
	}
	for _, f := range flags {
		for _, n := range f.Names() {
			if n != name {
				continue
			}
			if v, ok := f.(interface{ TakesValue() bool }); ok {
				return v.TakesValue()
			}
			return true
		}
	}
	return false
}

func findCommand(cmds []*cli.Command, name string) *cli.Command {
	for _, cmd := range cmds {
		if cmd.HasName(name) {
			return cmd
		}
	}
	return nil
}
