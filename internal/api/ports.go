package api

import (
	"context"

	"github.com/library-lending/gateway/internal/rpc"
)

// BackendPort is what the handlers need from the backend adapter.
type BackendPort interface {
	Call(ctx context.Context, method string, payload map[string]any) (rpc.Response, error)
}

var _ BackendPort = (*rpc.Client)(nil)
