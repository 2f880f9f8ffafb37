package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestToZapLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":  zapcore.DebugLevel,
		"info":   zapcore.InfoLevel,
		" WARN ": zapcore.WarnLevel,
		"error":  zapcore.ErrorLevel,
		"bogus":  zapcore.DebugLevel,
		"":       zapcore.DebugLevel,
	}
	for in, want := range cases {
		if got := toZapLevel(in); got != want {
			t.Errorf("toZapLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewRespectsLevel(t *testing.T) {
	l := New(WarnLevel, FormatConsole)
	if l.Desugar().Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !l.Desugar().Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error should be enabled at warn level")
	}
}

func logLine(t *testing.T, format string) string {
	t.Helper()
	var buf bytes.Buffer
	core := newCore(newEncoder(format), zapcore.AddSync(&buf), zapcore.InfoLevel)
	l := &Logger{SugaredLogger: zap.New(core).Sugar()}
	l.Infow("upload_saved", "user_id", 1, "storage_key", "k.png")
	return strings.TrimSpace(buf.String())
}

func TestEncoders(t *testing.T) {
	var entry map[string]any
	if err := json.Unmarshal([]byte(logLine(t, " JSON ")), &entry); err != nil {
		t.Fatalf("json format is not JSON: %v", err)
	}
	if entry["msg"] != "upload_saved" || entry["level"] != "info" || entry["storage_key"] != "k.png" {
		t.Fatalf("unexpected entry %v", entry)
	}

	line := logLine(t, "something-else")
	if !strings.Contains(line, "INFO") || !strings.Contains(line, "upload_saved") || strings.HasPrefix(line, "{") {
		t.Fatalf("expected console line, got %q", line)
	}
}
