// Package repl provides the interactive mode of netverify-cli.
//
// Each line is split with shell quoting rules and handed to an Executor,
// which the CLI binds to its own command tree, so every command works the
// same way in both modes. A line ending in "?" lists the commands that
// complete it. History is kept in ~/.netverify/history.
package repl
