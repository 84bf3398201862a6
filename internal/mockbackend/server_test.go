package mockbackend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/library-lending/gateway/internal/library"
)

func startService(t *testing.T) (*Service, *grpc.ClientConn) {
	t.Helper()
	svc := NewService(NewStore())
	p := StartInProcess(svc)
	t.Cleanup(p.Stop)

	conn, err := p.Dial()
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return svc, conn
}

func invoke(t *testing.T, conn *grpc.ClientConn, method, payload string) (*dynamicpb.Message, error) {
	t.Helper()
	md, ok := library.Method(method)
	require.True(t, ok)

	req, err := library.Decode(md.Input(), []byte(payload))
	require.NoError(t, err)
	out := dynamicpb.NewMessage(md.Output())
	err = conn.Invoke(context.Background(), library.FullMethod(method), req, out)
	return out, err
}

func TestServiceCreateAndListBooks(t *testing.T) {
	svc, conn := startService(t)

	out, err := invoke(t, conn, library.CreateBook, `{"book":{"title":"Dune","author":"Herbert","isbn":"123","published_year":1965}}`)
	require.NoError(t, err)

	fields, err := library.Fields(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Dune","author":"Herbert","isbn":"123","published_year":1965}`, string(fields["book"]))

	out, err = invoke(t, conn, library.ListBooks, `{}`)
	require.NoError(t, err)
	fields, err = library.Fields(out)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"title":"Dune","author":"Herbert","isbn":"123","published_year":1965}]`, string(fields["books"]))

	assert.Equal(t, 1, svc.Calls(library.CreateBook))
	assert.Equal(t, 2, svc.TotalCalls())
}

func TestServiceEmptyListOmitsField(t *testing.T) {
	_, conn := startService(t)

	out, err := invoke(t, conn, library.ListMembers, `{}`)
	require.NoError(t, err)

	fields, err := library.Fields(out)
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestServicePropagatesStoreStatus(t *testing.T) {
	_, conn := startService(t)

	_, err := invoke(t, conn, library.ReturnBook, `{"loan_id":3}`)
	require.Error(t, err)
	st := status.Convert(err)
	assert.Equal(t, codes.NotFound, st.Code())
	assert.Equal(t, "loan not found or already returned", st.Message())
}

func TestServiceFaultInjection(t *testing.T) {
	svc, conn := startService(t)
	svc.SetFault(library.ListBooks, status.Error(codes.Unavailable, "database offline"))

	_, err := invoke(t, conn, library.ListBooks, `{}`)
	assert.Equal(t, codes.Unavailable, status.Code(err))

	svc.ClearFaults()
	_, err = invoke(t, conn, library.ListBooks, `{}`)
	assert.NoError(t, err)
}
