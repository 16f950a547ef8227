package interceptors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type lastCall struct{ method, code string }

func (l *lastCall) RecordGRPCRequest(method, code string) { l.method, l.code = method, code }

var info = &grpc.UnaryServerInfo{FullMethod: "/swipr.Test/Call"}

func TestRecoveryInterceptorConvertsPanic(t *testing.T) {
	resp, err := RecoveryInterceptor()(context.Background(), nil, info,
		func(context.Context, interface{}) (interface{}, error) { panic("boom") })

	assert.Nil(t, resp)
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "boom")
}

func TestMetricsInterceptorRecordsCode(t *testing.T) {
	rec := &lastCall{}
	_, err := MetricsInterceptor(rec)(context.Background(), nil, info,
		func(context.Context, interface{}) (interface{}, error) {
			return nil, status.Error(codes.NotFound, "missing")
		})

	assert.Error(t, err)
	assert.Equal(t, "/swipr.Test/Call", rec.method)
	assert.Equal(t, "NotFound", rec.code)

	_, _ = MetricsInterceptor(rec)(context.Background(), nil, info,
		func(context.Context, interface{}) (interface{}, error) { return "ok", nil })
	assert.Equal(t, "OK", rec.code)
}

func TestLoggingInterceptorPassesThrough(t *testing.T) {
	want := errors.New("failed")
	resp, err := LoggingInterceptor()(context.Background(), "req", info,
		func(_ context.Context, req interface{}) (interface{}, error) { return req, want })

	assert.Equal(t, "req", resp)
	assert.Same(t, want, err)
}
