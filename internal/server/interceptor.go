package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/bid-docs/internal/common"
)

// RequestIDHeader is read from incoming metadata when present.
const RequestIDHeader = "x-request-id"

// UnaryInterceptor tags each call with a request ID, maps application
// errors onto status codes and logs the outcome.
func UnaryInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if ids := md.Get(RequestIDHeader); len(ids) > 0 && ids[0] != "" {
				ctx = common.WithRequestID(ctx, ids[0])
			}
		}
		ctx, requestID := common.EnsureRequestID(ctx)
		log := logger.With("request_id", requestID, "method", info.FullMethod)
		ctx = common.WithLogger(ctx, log)

		start := time.Now()
		resp, err := handler(ctx, req)
		err = common.ToStatus(err)

		code := status.Code(err)
		attrs := []any{"code", code.String(), "elapsed_ms", time.Since(start).Milliseconds()}
		switch {
		case err == nil:
			log.Info("rpc.ok", attrs...)
		case code == codes.Internal || code == codes.Unknown:
			log.Error("rpc.failed", append(attrs, "error", err)...)
		default:
			log.Warn("rpc.rejected", append(attrs, "error", err)...)
		}
		return resp, err
	}
}

func unavailable(what string) error {
	return status.Errorf(codes.Unavailable, "%s is not configured", what)
}
