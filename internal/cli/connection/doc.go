// Package connection builds the engine client for netverify-cli from the
// CLI configuration.
//
// The Manager creates the client lazily, so commands that never reach the
// engine (config, diag) work offline. When a client certificate is
// configured it is served from a tlsroots.Watcher and reloaded on change.
package connection
