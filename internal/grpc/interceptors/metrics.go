package interceptors

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// Recorder receives one observation per finished call
type Recorder interface {
	RecordGRPCRequest(method, code string)
}

// MetricsInterceptor counts unary calls by method and status code
func MetricsInterceptor(recorder Recorder) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		resp, err := handler(ctx, req)
		recorder.RecordGRPCRequest(info.FullMethod, status.Code(err).String())
		return resp, err
	}
}

// StreamMetricsInterceptor counts streams by method and final status code
func StreamMetricsInterceptor(recorder Recorder) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		err := handler(srv, ss)
		recorder.RecordGRPCRequest(info.FullMethod, status.Code(err).String())
		return err
	}
}
