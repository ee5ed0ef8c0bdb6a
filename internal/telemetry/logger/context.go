package logger

import "context"

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const (
	loggerKey    contextKey = "netverify.logger"
	requestIDKey contextKey = "netverify.request_id"
	sessionKey   contextKey = "netverify.session"
)

// sessionFields is the network/snapshot pair a call runs against.
type sessionFields struct {
	network  string
	snapshot string
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// HasLogger reports whether ctx carries a logger set by WithLogger.
func HasLogger(ctx context.Context) bool {
	_, ok := ctx.Value(loggerKey).(Logger)
	return ok
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithRequestID adds a request ID to the context.
// Engine calls made with the context carry it as X-Request-Id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithSession records the network and snapshot a call runs against.
func WithSession(ctx context.Context, network, snapshot string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionFields{network: network, snapshot: snapshot})
}

// SessionFromContext returns the network and snapshot recorded by WithSession.
func SessionFromContext(ctx context.Context) (network, snapshot string) {
	if s, ok := ctx.Value(sessionKey).(sessionFields); ok {
		return s.network, s.snapshot
	}
	return "", ""
}

// L is a shorthand for FromContext that also enriches the logger
// with the request ID and session fields from the context.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)

	if reqID := RequestIDFromContext(ctx); reqID != "" {
		l = l.With("request_id", reqID)
	}

	if network, snapshot := SessionFromContext(ctx); network != "" {
		l = l.With("network", network)
		if snapshot != "" {
			l = l.With("snapshot", snapshot)
		}
	}

	return l
}
