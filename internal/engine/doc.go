// Package engine provides the transport binding to the remote
// network-configuration verification engine.
//
// The engine is reached over Connect unary RPCs carrying JSON-encoded
// messages:
//
//   - protocol.go: procedure names and wire messages
//   - codec.go: JSON codec for plain Go structs
//   - client.go: typed client, rate limiting, TLS and API key handling
//   - errors.go: translation of RPC errors into domain errors
//   - interceptor.go: request IDs and call logging
//   - archive.go: packaging of configuration directories and texts
//
// The engine itself (graph construction, protocol simulation, ACL
// analysis) is a black box; this package only shapes requests and
// responses.
package engine
