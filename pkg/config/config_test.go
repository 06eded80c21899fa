package config

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/waygraph/waygraph/pkg/errors"
)

func TestDefault(t *testing.T) {
	s := Default()
	if s.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want utf-8", s.Encoding)
	}
	if s.Export.APIVersion != "0.6" {
		t.Errorf("APIVersion = %q, want 0.6", s.Export.APIVersion)
	}
	if s.Export.Precision != 6 {
		t.Errorf("Precision = %d, want 6", s.Export.Precision)
	}
	if len(s.Export.WayTags) == 0 {
		t.Error("WayTags default is empty")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `cache_dir = "/tmp/waygraph-test"

[export]
precision = 2
way_tags = ["highway"]
oneway_default = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path, true)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if s.CacheDir != "/tmp/waygraph-test" {
		t.Errorf("CacheDir = %q", s.CacheDir)
	}
	if s.Export.Precision != 2 {
		t.Errorf("Precision = %d, want the file's 2", s.Export.Precision)
	}
	if !slices.Equal(s.Export.WayTags, []string{"highway"}) {
		t.Errorf("WayTags = %v, want the file's list", s.Export.WayTags)
	}
	if !s.Export.OnewayDefault {
		t.Error("OnewayDefault = false, want the file's true")
	}

	// Fields the file left unset fall back to defaults.
	if s.Export.APIVersion != "0.6" {
		t.Errorf("APIVersion = %q, want default 0.6", s.Export.APIVersion)
	}
	if s.Encoding != "utf-8" {
		t.Errorf("Encoding = %q, want default utf-8", s.Encoding)
	}
	if len(s.Export.NodeAttrs) == 0 {
		t.Error("NodeAttrs lost its default")
	}
}

func TestLoadMissing(t *testing.T) {
	absent := filepath.Join(t.TempDir(), "nope.toml")

	// Default location missing: silently use defaults.
	s, err := Load(absent, false)
	if err != nil {
		t.Fatalf("Load of absent default = %v, want defaults", err)
	}
	if s.Encoding != "utf-8" {
		t.Errorf("Encoding = %q", s.Encoding)
	}

	// Explicitly named file missing: that is an error.
	if _, err := Load(absent, true); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load of absent explicit = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	if err := os.WriteFile(path, []byte("= not toml ="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path, true); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("Load of malformed file = %v, want INVALID_CONFIG", err)
	}
}
