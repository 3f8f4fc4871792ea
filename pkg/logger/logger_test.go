package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Init("warn")
	if LevelString() != "warn" {
		t.Fatalf("unexpected level: %s", LevelString())
	}

	Debugf("debug line")
	Infof("info line")
	Warnf("warn line")
	Errorf("error line")

	out := buf.String()
	if strings.Contains(out, "debug line") || strings.Contains(out, "info line") {
		t.Fatalf("low-severity lines should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, "warn line") || !strings.Contains(out, "error line") {
		t.Fatalf("expected warn/error lines in output: %q", out)
	}
}

func TestInitDefaultsToInfo(t *testing.T) {
	Init("not-a-level")
	if LevelString() != "info" {
		t.Fatalf("expected fallback to info, got %s", LevelString())
	}
}

func TestHeaderContainsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(&bytes.Buffer{})

	Init("debug")
	Debug("hello")
	if !strings.Contains(buf.String(), "[DEBUG]") {
		t.Fatalf("expected level marker in header: %q", buf.String())
	}
}
