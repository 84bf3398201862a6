package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/library-lending/gateway/internal/library"
)

var payloadJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Response holds the populated top-level fields of a backend response,
// JSON-encoded and keyed by proto field name.
type Response map[string]json.RawMessage

// Recorder observes every completed call. err is nil or an *Error.
type Recorder interface {
	RecordCall(ctx context.Context, method string, latency time.Duration, err error)
}

// Client is the backend adapter. It is safe for concurrent use and is not
// reconfigured after construction.
type Client struct {
	conn        *grpc.ClientConn
	target      string
	callTimeout time.Duration
	recorder    Recorder
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithCallTimeout bounds each call. Zero or negative disables the bound.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithRecorder reports every call to r.
func WithRecorder(r Recorder) Option {
	return func(c *Client) { c.recorder = r }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// Dial creates a client for target over an insecure channel. The
// connection is established lazily; an unreachable backend surfaces on
// the first call as codes.Unavailable.
func Dial(target string, opts ...Option) (*Client, error) {
	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to create backend client for %s: %w", target, err)
	}
	c := NewClient(conn, opts...)
	c.target = target
	return c, nil
}

// NewClient wraps an existing connection. The client takes ownership of conn.
func NewClient(conn *grpc.ClientConn, opts ...Option) *Client {
	c := &Client{
		conn:   conn,
		target: conn.Target(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Target returns the backend address.
func (c *Client) Target() string {
	return c.target
}

// WaitForReady starts connecting and blocks until the connection is ready
// or ctx is done.
func (c *Client) WaitForReady(ctx context.Context) error {
	c.conn.Connect()
	for {
		state := c.conn.GetState()
		if state == connectivity.Ready {
			return nil
		}
		if !c.conn.WaitForStateChange(ctx, state) {
			return fmt.Errorf("backend %s not ready (last state %s): %w", c.target, state, ctx.Err())
		}
	}
}

// Close releases the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Call invokes one backend method with a JSON-shaped payload. On success
// it returns the populated response fields; on failure the error is an
// *Error. Each call returns exactly once and is never retried.
func (c *Client) Call(ctx context.Context, method string, payload map[string]any) (Response, error) {
	start := time.Now()

	resp, err := c.invoke(ctx, method, payload)

	var callErr error
	if err != nil {
		normalized := Normalize(err)
		callErr = normalized
		c.logger.Debug("backend call failed",
			"method", method,
			"request_id", CallerFrom(ctx).RequestID,
			"code", normalized.StatusCode().String(),
			"message", normalized.Message)
	}
	if c.recorder != nil {
		c.recorder.RecordCall(ctx, method, time.Since(start), callErr)
	}

	if callErr != nil {
		return nil, callErr
	}
	return resp, nil
}

func (c *Client) invoke(ctx context.Context, method string, payload map[string]any) (Response, error) {
	md, ok := library.Method(method)
	if !ok {
		return nil, localError("unknown backend method %q", method)
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = payloadJSON.Marshal(payload); err != nil {
			return nil, localError("failed to encode %s payload: %v", method, err)
		}
	}

	req, err := library.Decode(md.Input(), body)
	if err != nil {
		return nil, localError("invalid %s payload: %v", method, err)
	}
	out := dynamicpb.NewMessage(md.Output())

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	if err := c.conn.Invoke(outgoingContext(ctx), library.FullMethod(method), req, out); err != nil {
		return nil, err
	}

	fields, err := library.Fields(out)
	if err != nil {
		return nil, localError("failed to decode %s response: %v", method, err)
	}
	return Response(fields), nil
}
