// Package logger provides structured logging for netverify-cli.
//
//   - logger.go: slog-based logger, levels and output formats
//   - context.go: request ID and session context propagation
//   - redact.go: masking of API keys, URL credentials and device config secrets
//
// Services take a *slog.Logger; Logger.Slog and FromSlog bridge the two.
// The engine client logs through L(ctx), so each call carries the request
// ID of its command line and the network/snapshot it ran against.
package logger
