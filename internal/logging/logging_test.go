package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestNew_RespectsLevelAndFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	l := New("warn", "json", &buf)
	l.Info("hidden")
	l.Warn("shown", "id", "a1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked at warn level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"id":"a1"`) {
		t.Errorf("expected JSON warn record, got %s", out)
	}
}

func TestAuditLog_Record(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "converted.log")
	a := NewAuditLog(path)
	a.now = func() time.Time { return time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC) }

	if err := a.Record([]AuditEntry{{Title: "One", URL: "https://a.example/1"}}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := a.Record([]AuditEntry{{Title: "Two", URL: "https://b.example/2"}}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	got := string(data)
	for _, want := range []string{"Articles converted on 2024-03-09:", "One\nhttps://a.example/1", "Two\nhttps://b.example/2"} {
		if !strings.Contains(got, want) {
			t.Errorf("audit log missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "Articles converted on") != 2 {
		t.Errorf("expected two appended sections:\n%s", got)
	}
}

func TestAuditLog_DisabledIsNoop(t *testing.T) {
	t.Parallel()

	var nilLog *AuditLog
	if err := nilLog.Record([]AuditEntry{{Title: "x"}}); err != nil {
		t.Errorf("nil AuditLog Record() error = %v", err)
	}
	if err := NewAuditLog("").Record([]AuditEntry{{Title: "x"}}); err != nil {
		t.Errorf("empty path Record() error = %v", err)
	}
}
