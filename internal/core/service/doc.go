// Package service provides the session-level services of the
// verification client.
//
//   - SessionService: active network/snapshot context, network and
//     snapshot lifecycle
//   - QueryExecutor: allow-listed, table-dispatched query execution
//     with soft degradation, result caching and batch fan-out
//   - Orchestrator: differential workflows (failure forks, ACL
//     comparison, snapshot comparison)
//
// Services depend on the Engine interface, never on a transport.
// Engine failures of query-shaped operations degrade to an empty
// result plus a diagnostic record; validation, not-found and
// context-mutation errors are always returned.
package service
