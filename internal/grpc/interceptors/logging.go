package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"swipr-api/internal/logging"
	"swipr-api/pkg/utils"
)

// LoggingInterceptor returns a gRPC unary interceptor that logs requests and responses
func LoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()

		resp, err := handler(ctx, req)

		logFields := map[string]interface{}{
			"request_id":      requestID,
			"method":          info.FullMethod,
			"processing_time": time.Since(startTime).String(),
			"status_code":     status.Code(err).String(),
			"type":            "grpc_request",
		}

		logger := logging.GetGlobalLogger()
		if err != nil {
			logFields["error"] = err.Error()
			logger.Error("gRPC request failed", logFields)
		} else {
			logger.Debug("gRPC request completed", logFields)
		}

		return resp, err
	}
}

// StreamLoggingInterceptor returns a gRPC streaming interceptor that logs stream
// operations, such as health watches
func StreamLoggingInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()

		logger.Debug("gRPC stream started", map[string]interface{}{
			"request_id": requestID,
			"method":     info.FullMethod,
			"type":       "grpc_stream_start",
		})

		err := handler(srv, ss)

		logFields := map[string]interface{}{
			"request_id":      requestID,
			"method":          info.FullMethod,
			"processing_time": time.Since(startTime).String(),
			"status_code":     status.Code(err).String(),
			"type":            "grpc_stream_complete",
		}
		if err != nil {
			logFields["error"] = err.Error()
			logger.Warn("gRPC stream ended with error", logFields)
		} else {
			logger.Debug("gRPC stream completed", logFields)
		}

		return err
	}
}
