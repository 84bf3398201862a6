package audit

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"

	"github.com/library-lending/gateway/internal/config"
	"github.com/library-lending/gateway/internal/rpc"
)

func newTestLogger(t *testing.T) *Logger {
	t.Helper()
	logger, err := NewLogger(config.AuditConfig{Dir: t.TempDir(), MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	logger.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { _ = logger.Close() })
	return logger
}

func readEntries(t *testing.T, path string) []Entry {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if line == "" {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("Failed to unmarshal audit entry %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func signedToken(t *testing.T, subject string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: subject}).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("Failed to sign token: %v", err)
	}
	return token
}

func TestNewLogger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "audit")

	logger, err := NewLogger(config.AuditConfig{Dir: dir})
	if err != nil {
		t.Fatalf("NewLogger() failed: %v", err)
	}
	defer func() { _ = logger.Close() }()

	expected := filepath.Join(dir, FileName)
	if logger.FilePath() != expected {
		t.Errorf("Expected file path %s, got %s", expected, logger.FilePath())
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Audit directory was not created: %v", err)
	}
}

func TestNewLoggerRequiresDir(t *testing.T) {
	if _, err := NewLogger(config.AuditConfig{}); err == nil {
		t.Error("Expected error for empty directory")
	}
}

func TestRecordCallSuccess(t *testing.T) {
	logger := newTestLogger(t)
	ctx := rpc.WithCaller(context.Background(), rpc.Caller{RequestID: "req-1"})

	logger.RecordCall(ctx, "ListBooks", 42*time.Millisecond, nil)

	entries := readEntries(t, logger.FilePath())
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Method != "ListBooks" {
		t.Errorf("Expected method 'ListBooks', got '%s'", entry.Method)
	}
	if entry.RequestID != "req-1" {
		t.Errorf("Expected requestId 'req-1', got '%s'", entry.RequestID)
	}
	if entry.Outcome != OutcomeSuccess {
		t.Errorf("Expected outcome %s, got '%s'", OutcomeSuccess, entry.Outcome)
	}
	if entry.Code != "OK" {
		t.Errorf("Expected code 'OK', got '%s'", entry.Code)
	}
	if entry.User != UserAnonymous {
		t.Errorf("Expected user %s, got '%s'", UserAnonymous, entry.User)
	}
	if entry.LatencyMs != 42 {
		t.Errorf("Expected latencyMs 42, got %d", entry.LatencyMs)
	}
	if !entry.Timestamp.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected timestamp %v", entry.Timestamp)
	}
}

func TestRecordCallFailureCodes(t *testing.T) {
	precondition := codes.FailedPrecondition

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend status", &rpc.Error{Code: &precondition, Message: "book already checked out"}, "FailedPrecondition"},
		{"local failure", &rpc.Error{Message: "invalid payload"}, "ERROR"},
		{"plain error", errors.New("boom"), "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := newTestLogger(t)
			logger.RecordCall(context.Background(), "BorrowBook", time.Millisecond, tt.err)

			entries := readEntries(t, logger.FilePath())
			if len(entries) != 1 {
				t.Fatalf("Expected 1 entry, got %d", len(entries))
			}
			if entries[0].Outcome != OutcomeFailed {
				t.Errorf("Expected outcome %s, got '%s'", OutcomeFailed, entries[0].Outcome)
			}
			if entries[0].Code != tt.want {
				t.Errorf("Expected code '%s', got '%s'", tt.want, entries[0].Code)
			}
		})
	}
}

func TestUserFromAuthorization(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"no header", "", UserAnonymous},
		{"bearer token with subject", "Bearer " + signedToken(t, "librarian-7"), "librarian-7"},
		{"lowercase scheme", "bearer " + signedToken(t, "ada"), "ada"},
		{"token without subject", "Bearer " + signedToken(t, ""), UserUnknown},
		{"garbage token", "Bearer not-a-jwt", UserUnknown},
		{"basic auth", "Basic dXNlcjpwYXNz", UserUnknown},
		{"scheme only", "Bearer", UserUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := userFromAuthorization(tt.header); got != tt.want {
				t.Errorf("userFromAuthorization(%q) = %q, want %q", tt.header, got, tt.want)
			}
		})
	}
}

func TestRecordCallNeverWritesPayload(t *testing.T) {
	logger := newTestLogger(t)
	ctx := rpc.WithCaller(context.Background(), rpc.Caller{Authorization: "Bearer " + signedToken(t, "ada")})

	logger.RecordCall(ctx, "CreateMember", time.Millisecond, nil)

	content, err := os.ReadFile(logger.FilePath())
	if err != nil {
		t.Fatalf("Failed to read audit log: %v", err)
	}
	if strings.Contains(string(content), "Bearer") {
		t.Error("Audit log must not contain the raw authorization header")
	}
	if entries := readEntries(t, logger.FilePath()); entries[0].User != "ada" {
		t.Errorf("Expected user 'ada', got '%s'", entries[0].User)
	}
}

func TestRecordCallConcurrent(t *testing.T) {
	logger := newTestLogger(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.RecordCall(context.Background(), "ListMembers", time.Millisecond, nil)
		}()
	}
	wg.Wait()

	if entries := readEntries(t, logger.FilePath()); len(entries) != 20 {
		t.Errorf("Expected 20 entries, got %d", len(entries))
	}
}

func TestRotate(t *testing.T) {
	logger := newTestLogger(t)
	logger.RecordCall(context.Background(), "ListBooks", time.Millisecond, nil)

	if err := logger.Rotate(); err != nil {
		t.Fatalf("Rotate() failed: %v", err)
	}
	logger.RecordCall(context.Background(), "ListMembers", time.Millisecond, nil)

	entries := readEntries(t, logger.FilePath())
	if len(entries) != 1 || entries[0].Method != "ListMembers" {
		t.Errorf("Expected only the post-rotation entry, got %+v", entries)
	}

	files, err := os.ReadDir(filepath.Dir(logger.FilePath()))
	if err != nil {
		t.Fatalf("Failed to list audit directory: %v", err)
	}
	if len(files) != 2 {
		t.Errorf("Expected current file plus one backup, got %d files", len(files))
	}
}
