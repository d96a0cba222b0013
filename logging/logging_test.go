package logging

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"nonsense", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWeekKey(t *testing.T) {
	got := weekKey(time.Date(2025, 10, 7, 12, 0, 0, 0, time.UTC))
	if got != "2025-W41" {
		t.Errorf("Expected 2025-W41, got %s", got)
	}
}

func TestRotatingFileWritesCurrentWeek(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile failed: %v", err)
	}
	defer rf.Close()

	if _, err := rf.Write([]byte("hello\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	path := filepath.Join(dir, filePrefix+weekKey(time.Now())+".log")
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected %s to exist: %v", path, err)
	}
	if string(content) != "hello\n" {
		t.Errorf("Unexpected content %q", content)
	}
}

func TestRotatingFileSizeRotation(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 10)
	if err != nil {
		t.Fatalf("NewRotatingFile failed: %v", err)
	}
	defer rf.Close()

	for i := 0; i < 3; i++ {
		if _, err := rf.Write([]byte("12345678\n")); err != nil {
			t.Fatalf("Write %d failed: %v", i, err)
		}
	}

	week := weekKey(time.Now())
	for _, name := range []string{
		filePrefix + week + ".log",
		filePrefix + week + "_01.log",
		filePrefix + week + "_02.log",
	} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s: %v", name, err)
		}
	}
}

func TestRotatingFileWeekChange(t *testing.T) {
	dir := t.TempDir()
	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile failed: %v", err)
	}
	defer rf.Close()

	next := time.Now().Add(8 * 24 * time.Hour)
	rf.now = func() time.Time { return next }
	if _, err := rf.Write([]byte("later\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filePrefix+weekKey(next)+".log")); err != nil {
		t.Errorf("Expected next week's file: %v", err)
	}
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, filePrefix+"2020-W01.log")
	other := filepath.Join(dir, "unrelated.txt")
	for _, p := range []string{old, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		past := time.Now().Add(-60 * 24 * time.Hour)
		_ = os.Chtimes(p, past, past)
	}

	rf, err := NewRotatingFile(dir, 1, 0)
	if err != nil {
		t.Fatalf("NewRotatingFile failed: %v", err)
	}
	defer rf.Close()

	n, err := rf.Cleanup()
	if err != nil {
		t.Fatalf("Cleanup failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 file removed, got %d", n)
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("Cleanup must only touch log files")
	}
}

func TestInitWritesBothSinks(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	Init(Options{Dir: dir, Level: "warn", Console: &console})
	defer Close()

	Info("quiet on console")
	Warn("loud", "key", "patient-profile")

	if strings.Contains(console.String(), "quiet on console") {
		t.Error("Console should respect the configured level")
	}
	if !strings.Contains(console.String(), "loud") {
		t.Error("Console should show warnings")
	}

	if err := Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	content, _ := os.ReadFile(filepath.Join(dir, filePrefix+weekKey(time.Now())+".log"))
	if !strings.Contains(string(content), `"msg":"quiet on console"`) {
		t.Errorf("File sink should keep debug and info lines, got %s", content)
	}
}

func TestFallbackBeforeInit(t *testing.T) {
	_ = Close()
	if Logger() == nil {
		t.Fatal("Logger should never be nil")
	}
	Info("fallback works")
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := middleware.RequestID(LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("ok"))
	})))

	req := httptest.NewRequest("PUT", "/patient/fields/name?secret=1", strings.NewReader(`{"value":"Alice"}`))
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{`"status_code":201`, `"path":"/patient/fields/name"`, `"bytes_written":2`, `"request_id"`} {
		if !strings.Contains(line, want) {
			t.Errorf("Log line missing %s: %s", want, line)
		}
	}
	if strings.Contains(line, "Alice") || strings.Contains(line, "secret") {
		t.Errorf("Log line leaks request content: %s", line)
	}

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("Health checks should not be logged, got %s", buf.String())
	}
}
