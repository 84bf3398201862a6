package mockbackend

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
)

const bufSize = 1 << 20

// InProcess runs a Service on an in-memory listener so tests can exercise
// the real gRPC transport without a network port.
type InProcess struct {
	Service  *Service
	server   *grpc.Server
	listener *bufconn.Listener
}

// StartInProcess serves svc until Stop is called.
func StartInProcess(svc *Service, opts ...grpc.ServerOption) *InProcess {
	p := &InProcess{
		Service:  svc,
		server:   grpc.NewServer(opts...),
		listener: bufconn.Listen(bufSize),
	}
	svc.Register(p.server)
	go func() {
		_ = p.server.Serve(p.listener)
	}()
	return p
}

// Dial opens a client connection to the in-process server.
func (p *InProcess) Dial() (*grpc.ClientConn, error) {
	return grpc.NewClient("passthrough:///library-mock",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return p.listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

// Stop terminates the server and its listener.
func (p *InProcess) Stop() {
	p.server.Stop()
	_ = p.listener.Close()
}
