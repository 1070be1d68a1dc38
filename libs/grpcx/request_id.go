package grpcx

import (
	"context"

	"github.com/md-rashed-zaman/salonbook/libs/httpx"
)

type ctxKey struct{}

// RequestIDMetadataKey carries the same id as httpx.RequestIDHeader; gRPC
// metadata keys are lowercase.
const RequestIDMetadataKey = "x-request-id"

func RequestIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKey{}).(string)
	return v
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

// requestIDFrom picks the first valid incoming id, minting one if none is.
func requestIDFrom(candidates []string) string {
	for _, id := range candidates {
		if httpx.ValidRequestID(id) {
			return id
		}
	}
	return httpx.NewRequestID()
}
