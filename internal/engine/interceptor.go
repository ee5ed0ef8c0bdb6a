package engine

import (
	"context"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/oklog/ulid/v2"

	"github.com/yndnr/netverify-go/internal/telemetry/logger"
)

// LoggingInterceptor stamps each engine call with a request ID and logs it.
type LoggingInterceptor struct {
	logger *slog.Logger
}

// NewLoggingInterceptor creates a new logging interceptor.
func NewLoggingInterceptor(l *slog.Logger) *LoggingInterceptor {
	if l == nil {
		l = slog.Default()
	}
	return &LoggingInterceptor{logger: l}
}

// WrapUnary implements connect.Interceptor.
func (i *LoggingInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		requestID := req.Header().Get(HeaderRequestID)
		if requestID == "" {
			requestID = logger.RequestIDFromContext(ctx)
		}
		if requestID == "" {
			requestID = ulid.Make().String()
		}
		if req.Spec().IsClient {
			req.Header().Set(HeaderRequestID, requestID)
		}

		if !logger.HasLogger(ctx) {
			ctx = logger.WithLogger(ctx, logger.FromSlog(i.logger))
		}
		log := logger.L(logger.WithRequestID(ctx, requestID))

		start := time.Now()
		resp, err := next(ctx, req)
		duration := time.Since(start)

		if err != nil {
			log.Debug("engine call failed",
				"procedure", req.Spec().Procedure,
				"code", connect.CodeOf(err).String(),
				"duration_ms", duration.Milliseconds(),
				"error", err)
		} else {
			log.Debug("engine call",
				"procedure", req.Spec().Procedure,
				"duration_ms", duration.Milliseconds())
		}

		return resp, err
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *LoggingInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next // engine procedures are unary
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *LoggingInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}

// apiKeyInterceptor attaches the API key to every outgoing call.
func apiKeyInterceptor(apiKey string) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if req.Spec().IsClient && apiKey != "" {
				req.Header().Set(HeaderAPIKey, apiKey)
			}
			return next(ctx, req)
		}
	}
}
