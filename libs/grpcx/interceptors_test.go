package grpcx

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

func TestUnaryServerRequestIDInterceptor_UsesIncomingID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "req-123"))

	var seen string
	_, err := UnaryServerRequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"},
		func(ctx context.Context, _ any) (any, error) {
			seen = RequestIDFromContext(ctx)
			return nil, nil
		})
	if err != nil {
		t.Fatalf("interceptor returned error: %v", err)
	}
	if seen != "req-123" {
		t.Fatalf("expected request id req-123, got %q", seen)
	}
}

func TestUnaryServerRequestIDInterceptor_GeneratesID(t *testing.T) {
	var seen string
	_, _ = UnaryServerRequestIDInterceptor()(context.Background(), nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, _ any) (any, error) {
			seen = RequestIDFromContext(ctx)
			return nil, nil
		})
	if len(seen) != 32 {
		t.Fatalf("expected generated 32-char request id, got %q", seen)
	}
}

func TestUnaryServerRequestIDInterceptor_ReplacesInvalidID(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(RequestIDMetadataKey, "bad id\nwith newline"))
	var seen string
	_, _ = UnaryServerRequestIDInterceptor()(ctx, nil, &grpc.UnaryServerInfo{},
		func(ctx context.Context, _ any) (any, error) {
			seen = RequestIDFromContext(ctx)
			return nil, nil
		})
	if len(seen) != 32 {
		t.Fatalf("expected invalid id to be replaced, got %q", seen)
	}
}
