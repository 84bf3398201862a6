package api

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/library-lending/gateway/internal/library"
)

// Shape turns an inbound request and its decoded body into the backend
// call payload. body is nil for endpoints that do not read one.
type Shape func(r *http.Request, body map[string]any) map[string]any

// Endpoint binds one REST route to one backend method.
type Endpoint struct {
	Name    string
	Method  string
	Pattern string
	RPC     string

	ReadsBody bool
	Shape     Shape

	// ResultField is the response field returned to the client. When the
	// backend leaves it unset the client gets [] for collections and {}
	// otherwise.
	ResultField string
	Collection  bool

	SuccessStatus int
	FailureStatus int
}

// Endpoints is the complete REST surface, excluding /health.
var Endpoints = []Endpoint{
	{
		Name:    "listBooks",
		Method:  http.MethodGet,
		Pattern: "/books",
		RPC:     library.ListBooks,

		Shape: noPayload,

		ResultField: "books",
		Collection:  true,

		SuccessStatus: http.StatusOK,
		FailureStatus: http.StatusInternalServerError,
	},
	{
		Name:    "createBook",
		Method:  http.MethodPost,
		Pattern: "/books",
		RPC:     library.CreateBook,

		ReadsBody: true,
		Shape:     wrap("book"),

		ResultField: "book",

		SuccessStatus: http.StatusCreated,
		FailureStatus: http.StatusBadRequest,
	},
	{
		Name:    "updateBook",
		Method:  http.MethodPut,
		Pattern: "/books/{id}",
		RPC:     library.UpdateBook,

		ReadsBody: true,
		Shape:     wrapWithPathID("book"),

		ResultField: "book",

		SuccessStatus: http.StatusOK,
		FailureStatus: http.StatusBadRequest,
	},
	{
		Name:    "listMembers",
		Method:  http.MethodGet,
		Pattern: "/members",
		RPC:     library.ListMembers,

		Shape: noPayload,

		ResultField: "members",
		Collection:  true,

		SuccessStatus: http.StatusOK,
		FailureStatus: http.StatusInternalServerError,
	},
	{
		Name:    "createMember",
		Method:  http.MethodPost,
		Pattern: "/members",
		RPC:     library.CreateMember,

		ReadsBody: true,
		Shape:     wrap("member"),

		ResultField: "member",

		SuccessStatus: http.StatusCreated,
		FailureStatus: http.StatusBadRequest,
	},
	{
		Name:    "updateMember",
		Method:  http.MethodPut,
		Pattern: "/members/{id}",
		RPC:     library.UpdateMember,

		ReadsBody: true,
		Shape:     wrapWithPathID("member"),

		ResultField: "member",

		SuccessStatus: http.StatusOK,
		FailureStatus: http.StatusBadRequest,
	},
	{
		Name:    "borrowBook",
		Method:  http.MethodPost,
		Pattern: "/loans/borrow",
		RPC:     library.BorrowBook,

		ReadsBody: true,
		Shape:     forwardBody,

		ResultField: "loan",

		SuccessStatus: http.StatusCreated,
		FailureStatus: http.StatusBadRequest,
	},
	{
		Name:    "returnBook",
		Method:  http.MethodPost,
		Pattern: "/loans/return",
		RPC:     library.ReturnBook,

		ReadsBody: true,
		Shape:     forwardBody,

		ResultField: "loan",

		SuccessStatus: http.StatusOK,
		FailureStatus: http.StatusBadRequest,
	},
	{
		Name:    "listBorrowedBooks",
		Method:  http.MethodGet,
		Pattern: "/loans/borrowed",
		RPC:     library.ListBorrowedBooks,

		Shape: queryID("member_id"),

		ResultField: "loans",
		Collection:  true,

		SuccessStatus: http.StatusOK,
		FailureStatus: http.StatusBadRequest,
	},
}

func noPayload(*http.Request, map[string]any) map[string]any {
	return nil
}

func forwardBody(_ *http.Request, body map[string]any) map[string]any {
	return body
}

// wrap nests the body under field.
func wrap(field string) Shape {
	return func(_ *http.Request, body map[string]any) map[string]any {
		return map[string]any{field: body}
	}
}

// wrapWithPathID nests the body under field after setting its id from the
// {id} path parameter. The path value replaces any id in the body.
func wrapWithPathID(field string) Shape {
	return func(r *http.Request, body map[string]any) map[string]any {
		record := make(map[string]any, len(body)+1)
		for k, v := range body {
			record[k] = v
		}
		record["id"] = coerceInt(chi.URLParam(r, "id"))
		return map[string]any{field: record}
	}
}

// queryID forwards a single numeric query parameter.
func queryID(name string) Shape {
	return func(r *http.Request, _ map[string]any) map[string]any {
		return map[string]any{name: coerceInt(r.URL.Query().Get(name))}
	}
}

// coerceInt converts a path or query value to an integer without failing.
// Decimal input is parsed as a float and truncated toward zero. Unsigned
// 0x, 0o and 0b literals are read as integers. Anything that is not a
// finite number becomes 0.
func coerceInt(raw string) int64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}

	// Prefixed literals take no sign and no fraction or exponent
	if base, digits, ok := radixLiteral(raw); ok {
		n, err := strconv.ParseUint(digits, base, 63)
		if err != nil {
			return 0
		}
		return int64(n)
	}
	if !isDecimalLiteral(raw) {
		return 0
	}

	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = math.Trunc(f)
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return int64(f)
}

// radixLiteral splits a 0x, 0o or 0b literal into its base and digits.
func radixLiteral(raw string) (int, string, bool) {
	if len(raw) < 2 || raw[0] != '0' {
		return 0, "", false
	}
	switch raw[1] {
	case 'x', 'X':
		return 16, raw[2:], true
	case 'o', 'O':
		return 8, raw[2:], true
	case 'b', 'B':
		return 2, raw[2:], true
	}
	return 0, "", false
}

// isDecimalLiteral rejects forms strconv accepts that are not plain numeric
// literals, such as signed hex floats, underscores and "inf"/"nan".
func isDecimalLiteral(raw string) bool {
	if raw == "Infinity" || raw == "+Infinity" || raw == "-Infinity" {
		return true
	}
	for i := 0; i < len(raw); i++ {
		switch c := raw[i]; {
		case c >= '0' && c <= '9', c == '.', c == 'e', c == 'E', c == '+', c == '-':
		default:
			return false
		}
	}
	return true
}
