package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		logType   string
		level     string
		wantError bool
	}{
		{"json/info", JSON, "info", false},
		{"text/debug", Text, "debug", false},
		{"tint/warn", Tint, "warn", false},
		{"json/error", JSON, "error", false},
		{"invalid level", JSON, "bogus", true},
		{"unknown type", "unknown", "info", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closer, err := Initialize(tt.logType, tt.level, "")
			if (err != nil) != tt.wantError {
				t.Errorf("Initialize(%q, %q) error = %v, wantError = %v", tt.logType, tt.level, err, tt.wantError)
			}
			if err == nil {
				if cerr := closer.Close(); cerr != nil {
					t.Errorf("Close() error = %v", cerr)
				}
			}
		})
	}
}

func TestInitialize_LogFile(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "logs", "steprunner.log")

	closer, err := Initialize(JSON, "info", logFile)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	id := WithInvocationID()
	slog.Info("hello from test")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(logFile)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "hello from test") {
		t.Errorf("log file missing message:\n%s", content)
	}
	if !strings.Contains(content, id) {
		t.Errorf("log file missing invocation id %s:\n%s", id, content)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("invocation id %q is not a uuid: %v", id, err)
	}
}
