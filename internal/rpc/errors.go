package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnknownMessage is used when a failure carries no description at all.
const UnknownMessage = "Unknown error"

// Error is the normalized failure of a backend call. Code is the gRPC
// status code and is nil when the failure never reached the backend or
// carried no status.
type Error struct {
	Code    *codes.Code `json:"code,omitempty"`
	Message string      `json:"message"`
}

func (e *Error) Error() string {
	if e.Code == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code.String(), e.Message)
}

// StatusCode returns the gRPC code, or codes.Unknown when none is set.
func (e *Error) StatusCode() codes.Code {
	if e.Code == nil {
		return codes.Unknown
	}
	return *e.Code
}

// Normalize converts any call failure into an *Error. The message falls
// back from the backend's status message to the error text to
// UnknownMessage.
func Normalize(err error) *Error {
	if err == nil {
		return nil
	}

	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		if rpcErr.Message == "" {
			return &Error{Code: rpcErr.Code, Message: UnknownMessage}
		}
		return rpcErr
	}

	if st, ok := status.FromError(err); ok {
		code := st.Code()
		return &Error{Code: &code, Message: firstNonEmpty(st.Message(), err.Error(), UnknownMessage)}
	}

	return &Error{Message: firstNonEmpty(err.Error(), UnknownMessage)}
}

// localError reports a failure that happened before anything was sent.
func localError(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
