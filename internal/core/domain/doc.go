// Package domain defines the core domain models for NetVerify.
//
// Domain models are pure value objects without any IO dependencies
// or framework coupling. This package contains:
//
//   - Context: the active (network, snapshot) pair of a session
//   - Result: tabular query results returned by the verification engine
//   - QuerySpec, Params, HeaderConstraints: query requests
//   - ForkSpec, SnapshotInput: snapshot creation requests
//   - Errors: domain-specific error definitions
package domain
