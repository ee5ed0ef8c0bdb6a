// Package metric provides Prometheus metrics for netverify-cli.
//
// Metrics cover query executions (by query and outcome), query latency,
// soft-degraded operations, result cache hits and snapshot forks. A CLI
// process is short-lived, so metrics are exported to a node_exporter
// textfile instead of being scraped.
package metric
