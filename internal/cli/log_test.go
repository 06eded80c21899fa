package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/waygraph/waygraph/pkg/config"
)

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.DebugLevel)

	ctx := withLogger(context.Background(), logger)
	got := loggerFromContext(ctx)
	if got != logger {
		t.Error("loggerFromContext did not return the attached logger")
	}

	got.Debug("probe")
	if !strings.Contains(buf.String(), "probe") {
		t.Errorf("log output = %q, want the probe message", buf.String())
	}
}

func TestLoggerContextFallback(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Error("loggerFromContext without attachment should fall back, not return nil")
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Debug("hidden")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("debug message emitted at info level")
	}
}

func TestSettingsContext(t *testing.T) {
	s := config.Default()
	s.CacheDir = "/custom"

	ctx := withSettings(context.Background(), s)
	if got := settingsFromContext(ctx); got.CacheDir != "/custom" {
		t.Errorf("CacheDir = %q, want the attached settings", got.CacheDir)
	}

	// Without attachment the defaults come back.
	def := settingsFromContext(context.Background())
	if def.Encoding != "utf-8" {
		t.Errorf("fallback Encoding = %q", def.Encoding)
	}
}
