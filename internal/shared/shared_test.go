package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	logger.Info("hello", "key", "value")
	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "key=value") {
		t.Errorf("unexpected log output: %q", out)
	}
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := WithLogger(NewLogger(&buf), "component", "test")

	logger.Info("tagged")
	if !strings.Contains(buf.String(), "component=test") {
		t.Errorf("expected the bound field in output: %q", buf.String())
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf)

	SetLogLevel(logger, log.ErrorLevel)
	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Errorf("info output must be suppressed at error level: %q", buf.String())
	}

	logger.Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Errorf("error output must pass: %q", buf.String())
	}
}

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if len(first) != 36 {
		t.Errorf("expected a UUID string, got %q", first)
	}
	if first == second {
		t.Error("consecutive IDs must differ")
	}
}

func TestOpenBrowserUnsupportedPlatform(t *testing.T) {
	original := getRuntime
	getRuntime = func() string { return "plan9" }
	t.Cleanup(func() { getRuntime = original })

	if err := OpenBrowser("http://example.com"); err == nil {
		t.Fatal("expected an error on an unsupported platform")
	}
}
