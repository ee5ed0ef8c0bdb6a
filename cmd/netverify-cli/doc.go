// Package main provides the entry point for netverify-cli.
//
// netverify-cli drives a network configuration verification engine:
//
//   - Networks and snapshots (create, init, fork, select)
//   - Queries, traceroutes and batches against the active snapshot
//   - Differential analysis (filter refactoring, failure impact)
//   - Local state: active context and diagnostics of engine failures
//
// Usage:
//
//	netverify-cli network create dc1 --use
//	netverify-cli snapshot init base --dir ./configs
//	netverify-cli query run routes -p nodes=border1 -o json
//	netverify-cli diff run --base base --name fail-r1 -N r1
//	netverify-cli repl
//
// Every command also runs inside the interactive shell.
package main
