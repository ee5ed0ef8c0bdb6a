// Package output renders netverify-cli results as table, JSON or YAML.
//
// Query results (*domain.Result) are sanitized with shape.Sanitize before
// rendering in every format. Tables use text/tabwriter; other values are
// rendered by reflection over exported fields.
package output
