package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_ParsesValidLevel(t *testing.T) {
	l := New(LoggingConfig{Level: "debug", Format: "text", Output: "stdout"})
	if l.Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", l.Logger.GetLevel())
	}
}

func TestNew_FallsBackToInfoOnInvalidLevel(t *testing.T) {
	l := New(LoggingConfig{Level: "not-a-level"})
	if l.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info fallback", l.Logger.GetLevel())
	}
}

func TestNew_JSONFormatter(t *testing.T) {
	l := New(LoggingConfig{Level: "info", Format: "json"})
	if _, ok := l.Logger.Formatter.(*logrus.JSONFormatter); !ok {
		t.Fatalf("formatter = %T, want *logrus.JSONFormatter", l.Logger.Formatter)
	}
}

func TestNew_DefaultTextFormatter(t *testing.T) {
	l := New(LoggingConfig{Level: "info", Format: "anything-else"})
	if _, ok := l.Logger.Formatter.(*logrus.TextFormatter); !ok {
		t.Fatalf("formatter = %T, want *logrus.TextFormatter", l.Logger.Formatter)
	}
}

func TestWithFields_AttachesStructuredData(t *testing.T) {
	l := New(LoggingConfig{Level: "info"})
	var buf bytes.Buffer
	l.Logger.SetOutput(&buf)
	l.Logger.SetFormatter(&logrus.JSONFormatter{})

	l.WithFields(logrus.Fields{"cycle": 42}).Info("cycle complete")

	if !bytes.Contains(buf.Bytes(), []byte(`"cycle":42`)) {
		t.Fatalf("log output missing structured field: %s", buf.String())
	}
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("validator")
	if l.Logger.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", l.Logger.GetLevel())
	}
}
