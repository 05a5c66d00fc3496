package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
)

// TestLoggerInitialization tests that logger can be initialized with different log levels
func TestLoggerInitialization(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{name: "Valid DEBUG level", level: "DEBUG", want: logrus.DebugLevel},
		{name: "Valid INFO level", level: "INFO", want: logrus.InfoLevel},
		{name: "Valid WARN level", level: "WARN", want: logrus.WarnLevel},
		{name: "Valid ERROR level", level: "ERROR", want: logrus.ErrorLevel},
		{name: "Invalid level defaults to INFO", level: "INVALID", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitWithOutput(tt.level, &bytes.Buffer{})
			if GetLogger().Level != tt.want {
				t.Errorf("Expected level %v, got %v", tt.want, GetLogger().Level)
			}
		})
	}
}

// TestComponentField tests that component entries carry their tag into the JSON output
func TestComponentField(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("INFO", &buf)

	Component("backend").WithField("path", "/auth/me").Info("request sent")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected a single JSON line, got %q: %v", buf.String(), err)
	}
	if line["component"] != "backend" {
		t.Errorf("component = %v, want backend", line["component"])
	}
	if line["path"] != "/auth/me" {
		t.Errorf("path = %v, want /auth/me", line["path"])
	}
	if line["msg"] != "request sent" {
		t.Errorf("msg = %v", line["msg"])
	}
}

// TestLevelSuppression tests that entries below the configured level are dropped
func TestLevelSuppression(t *testing.T) {
	var buf bytes.Buffer
	InitWithOutput("WARN", &buf)

	Info("hidden")
	Debugf("hidden %s", "too")
	if buf.Len() != 0 {
		t.Errorf("expected no output below WARN, got %q", buf.String())
	}

	Warnf("shown %d", 1)
	if buf.Len() == 0 {
		t.Errorf("expected WARN output")
	}
}
