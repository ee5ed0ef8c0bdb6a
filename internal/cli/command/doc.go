// Package command provides the netverify-cli command tree.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: App, global flags, Before/After lifecycle
//   - env.go: per-invocation runtime (config, engine, state, services)
//   - network.go, snapshot.go: session state commands
//   - params.go: query parameter and interface reference parsing
//   - query.go, traceroute.go: query execution and batches
//   - diff.go: ACL comparison and failure-impact analysis
//   - context.go: active context and diagnostics
//   - config.go: CLI configuration
//   - repl.go: interactive mode over the same tree
//
// Commands follow a consistent pattern of parsing flags, calling the
// session, executor or orchestrator service, and formatting output.
package command
