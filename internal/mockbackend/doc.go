// Package mockbackend provides an in-memory LibraryService for local
// development and tests.
//
// It serves the same gRPC contract as the real backend and applies the
// same rules: required fields, existence checks, and one active loan per
// book. Fault injection lets tests force any method to fail with a chosen
// status.
package mockbackend
