package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/library-lending/gateway/internal/library"
)

func TestEndpointTable(t *testing.T) {
	type binding struct {
		rpc      string
		success  int
		failure  int
		field    string
		collects bool
	}
	want := map[string]binding{
		"GET /books":          {library.ListBooks, 200, 500, "books", true},
		"POST /books":         {library.CreateBook, 201, 400, "book", false},
		"PUT /books/{id}":     {library.UpdateBook, 200, 400, "book", false},
		"GET /members":        {library.ListMembers, 200, 500, "members", true},
		"POST /members":       {library.CreateMember, 201, 400, "member", false},
		"PUT /members/{id}":   {library.UpdateMember, 200, 400, "member", false},
		"POST /loans/borrow":  {library.BorrowBook, 201, 400, "loan", false},
		"POST /loans/return":  {library.ReturnBook, 200, 400, "loan", false},
		"GET /loans/borrowed": {library.ListBorrowedBooks, 200, 400, "loans", true},
	}

	require.Len(t, Endpoints, len(want))
	names := make(map[string]bool)
	for _, ep := range Endpoints {
		key := ep.Method + " " + ep.Pattern
		b, ok := want[key]
		require.True(t, ok, "unexpected endpoint %s", key)

		assert.Equal(t, b.rpc, ep.RPC, key)
		assert.Equal(t, b.success, ep.SuccessStatus, key)
		assert.Equal(t, b.failure, ep.FailureStatus, key)
		assert.Equal(t, b.field, ep.ResultField, key)
		assert.Equal(t, b.collects, ep.Collection, key)
		assert.Equal(t, ep.Method != http.MethodGet, ep.ReadsBody, key)
		assert.NotNil(t, ep.Shape, key)

		_, known := library.Method(ep.RPC)
		assert.True(t, known, "%s calls unknown method %s", key, ep.RPC)
		assert.False(t, names[ep.Name], "duplicate endpoint name %s", ep.Name)
		names[ep.Name] = true
	}
}

func TestCoerceInt(t *testing.T) {
	tests := map[string]int64{
		"":      0,
		"   ":   0,
		"abc":   0,
		"NaN":   0,
		"Inf":   0,
		"-Inf":  0,
		"1e400": 0,
		"12":    12,
		" 7 ":   7,
		"3.9":   3,
		"-3.9":  -3,
		"1e3":   1000,
		"007":   7,
		"12abc": 0,
		"0x10":  16,
		"0X1f":  31,
		"0o17":  15,
		"0b101": 5,
		"0x":    0,
		"0x1p4": 0,
		"-0x10": 0,
		"0xg":   0,
		"1_000": 0,
		"inf":   0,
		"08":    8,
		".5":    0,
		"5.":    5,
	}
	for in, want := range tests {
		assert.Equal(t, want, coerceInt(in), "coerceInt(%q)", in)
	}
}

func TestShapes(t *testing.T) {
	body := map[string]any{"title": "Dune", "id": 99}

	assert.Nil(t, noPayload(nil, body))
	assert.Equal(t, body, forwardBody(nil, body))
	assert.Equal(t, map[string]any{"book": body}, wrap("book")(nil, body))

	t.Run("path id replaces body id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/books/5", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "5")
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		got := wrapWithPathID("book")(r, body)
		assert.Equal(t, map[string]any{"book": map[string]any{"title": "Dune", "id": int64(5)}}, got)
		assert.Equal(t, 99, body["id"], "input body must not be modified")
	})

	t.Run("query id", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/loans/borrowed?member_id=4.5", nil)
		assert.Equal(t, map[string]any{"member_id": int64(4)}, queryID("member_id")(r, nil))

		r = httptest.NewRequest(http.MethodGet, "/loans/borrowed", nil)
		assert.Equal(t, map[string]any{"member_id": int64(0)}, queryID("member_id")(r, nil))
	})
}
