// Package audit records every backend call the gateway forwards.
//
// Each call produces one JSON line with the request ID, the caller, the
// method, the outcome and the latency. Payload bodies are never written.
// The file is rotated by size.
package audit
