package rpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Metadata keys forwarded to the backend.
const (
	RequestIDKey     = "x-request-id"
	AuthorizationKey = "authorization"
)

// Caller identifies the inbound request a backend call is made for.
type Caller struct {
	RequestID     string
	Authorization string
}

type callerKey struct{}

// WithCaller attaches caller details to ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

// CallerFrom returns the caller details attached to ctx, if any.
func CallerFrom(ctx context.Context) Caller {
	c, _ := ctx.Value(callerKey{}).(Caller)
	return c
}

func outgoingContext(ctx context.Context) context.Context {
	c := CallerFrom(ctx)

	var pairs []string
	if c.RequestID != "" {
		pairs = append(pairs, RequestIDKey, c.RequestID)
	}
	if c.Authorization != "" {
		pairs = append(pairs, AuthorizationKey, c.Authorization)
	}
	if len(pairs) == 0 {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}
