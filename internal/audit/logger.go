//
//
package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/library-lending/gateway/internal/config"
	"github.com/library-lending/gateway/internal/rpc"
)

// FileName is the audit log file created inside the configured directory.
const FileName = "gateway-calls.jsonl"

// Outcomes.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailed  = "FAILED"
)

// Users recorded when no subject can be read from the request.
const (
	UserAnonymous = "anonymous"
	UserUnknown   = "unknown"
)

var entryJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Entry is a single audit log line.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	RequestID string    `json:"requestId,omitempty"`
	User      string    `json:"user"`
	Method    string    `json:"method"`
	Outcome   string    `json:"outcome"`
	Code      string    `json:"code"`
	LatencyMs int64     `json:"latencyMs"`
}

// Logger appends Entry lines to a size-rotated file. It implements
// rpc.Recorder.
type Logger struct {
	mu       sync.Mutex
	filePath string
	out      *lumberjack.Logger
	now      func() time.Time
}

var _ rpc.Recorder = (*Logger)(nil)

// NewLogger opens the audit log under cfg.Dir.
func NewLogger(cfg config.AuditConfig) (*Logger, error) {
	// An empty directory means auditing is disabled
	if cfg.Dir == "" {
		return nil, errors.New("audit directory not configured")
	}
	// Ensure log directory exists
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	// The file itself is opened on first write and rotated by size
	filePath := filepath.Join(cfg.Dir, FileName)
	return &Logger{
		filePath: filePath,
		out: &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		},
		now: time.Now,
	}, nil
}

// RecordCall logs one completed backend call.
func (l *Logger) RecordCall(ctx context.Context, method string, latency time.Duration, err error) {
	// Request ID and credentials travel on the context
	caller := rpc.CallerFrom(ctx)

	// Create audit entry
	entry := Entry{
		Timestamp: l.now().UTC(),
		RequestID: caller.RequestID,
		User:      userFromAuthorization(caller.Authorization),
		Method:    method,
		Outcome:   OutcomeSuccess,
		Code:      "OK",
		LatencyMs: latency.Milliseconds(),
	}
	if err != nil {
		entry.Outcome = OutcomeFailed
		entry.Code = codeFromError(err)
	}

	// Write to log file
	l.writeEntry(entry)
}

func (l *Logger) writeEntry(entry Entry) {
	// Marshal entry to a single JSON line
	line, err := entryJSON.Marshal(entry)
	if err != nil {
		slog.Warn("failed to marshal audit entry", "method", entry.Method, "error", err)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.out.Write(append(line, '\n')); err != nil {
		slog.Warn("failed to write audit entry", "path", l.filePath, "error", err)
	}
}

// userFromAuthorization reads the subject of a bearer token. The token is
// not verified; the value is for attribution only.
func userFromAuthorization(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return UserAnonymous
	}
	// Only bearer tokens carry a subject
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return UserUnknown
	}

	// Read the claims without checking the signature
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return UserUnknown
	}
	if claims.Subject == "" {
		return UserUnknown
	}
	return claims.Subject
}

func codeFromError(err error) string {
	rpcErr := rpc.Normalize(err)
	if rpcErr.Code == nil {
		return "ERROR"
	}
	return rpcErr.Code.String()
}

// FilePath returns the active audit log path.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Rotate closes the current file, moves it aside and starts a new one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.out.Rotate(); err != nil {
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}
	return nil
}

// Close flushes and closes the audit log.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.out.Close()
}
