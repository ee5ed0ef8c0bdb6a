// Package storage provides local state for netverify-cli.
//
// State is kept in an embedded Badger database under the configured
// state directory:
//
//   - ctx/active: the active network/snapshot pair, so consecutive CLI
//     invocations share a session context
//   - diag/<ulid>: the diagnostics journal of soft-degraded engine calls,
//     expiring after the configured retention
//
// Tests open the store in memory.
package storage
