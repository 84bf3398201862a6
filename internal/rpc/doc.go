// Package rpc implements the gateway's client adapter for the backend
// LibraryService.
//
// A Client wraps one long-lived gRPC connection and exposes a single call
// primitive parameterized by method name and JSON-shaped payload. Every
// failure leaving this package is an *Error carrying the backend status
// code (when one exists) and the most specific message available.
//
//   - No retries are performed.
//   - No deadline is applied unless a call timeout is configured.
//   - The request ID and Authorization header of the inbound request travel
//     to the backend as gRPC metadata.
package rpc
