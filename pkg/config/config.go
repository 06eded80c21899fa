// Package config loads the tool's TOML settings file and supplies defaults
// when no file is present.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/waygraph/waygraph/pkg/errors"
	"github.com/waygraph/waygraph/pkg/osmxml"
)

// Settings holds everything the CLI reads from a config file. Zero values
// are filled from Default before use.
type Settings struct {
	// DataDir is the default directory for generated files.
	DataDir string `toml:"data_dir"`

	// CacheDir is the directory for the parse cache. Empty disables caching.
	CacheDir string `toml:"cache_dir"`

	// Encoding is the declared character encoding of written GraphML files.
	Encoding string `toml:"encoding"`

	Export ExportSettings `toml:"export"`
}

// ExportSettings configures the way-schema XML export.
type ExportSettings struct {
	APIVersion    string   `toml:"api_version"`
	Precision     int      `toml:"precision"`
	OnewayDefault bool     `toml:"oneway_default"`
	NodeAttrs     []string `toml:"node_attrs"`
	NodeTags      []string `toml:"node_tags"`
	WayAttrs      []string `toml:"way_attrs"`
	WayTags       []string `toml:"way_tags"`
}

// Default returns the built-in settings used when no config file exists.
func Default() Settings {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = ""
	} else {
		cacheDir = filepath.Join(cacheDir, "waygraph")
	}
	return Settings{
		DataDir:  ".",
		CacheDir: cacheDir,
		Encoding: "utf-8",
		Export: ExportSettings{
			APIVersion:    osmxml.DefaultAPIVersion,
			Precision:     osmxml.DefaultPrecision,
			OnewayDefault: false,
			NodeAttrs:     osmxml.DefaultNodeAttrs,
			NodeTags:      osmxml.DefaultNodeTags,
			WayAttrs:      osmxml.DefaultWayAttrs,
			WayTags:       osmxml.DefaultWayTags,
		},
	}
}

// Load reads a TOML settings file over the defaults. A missing file at the
// default location is fine; a path the caller named explicitly must exist.
func Load(path string, explicit bool) (Settings, error) {
	s := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if explicit {
			return s, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return s, nil
	}
	if err != nil {
		return s, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	if err := toml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}
	s.fillDefaults()
	return s, nil
}

// fillDefaults restores built-in values for fields the file left unset.
func (s *Settings) fillDefaults() {
	def := Default()
	if s.Encoding == "" {
		s.Encoding = def.Encoding
	}
	if s.Export.APIVersion == "" {
		s.Export.APIVersion = def.Export.APIVersion
	}
	if s.Export.Precision == 0 {
		s.Export.Precision = def.Export.Precision
	}
	if s.Export.NodeAttrs == nil {
		s.Export.NodeAttrs = def.Export.NodeAttrs
	}
	if s.Export.NodeTags == nil {
		s.Export.NodeTags = def.Export.NodeTags
	}
	if s.Export.WayAttrs == nil {
		s.Export.WayAttrs = def.Export.WayAttrs
	}
	if s.Export.WayTags == nil {
		s.Export.WayTags = def.Export.WayTags
	}
}

// DefaultPath is where Load looks when the user names no file.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "waygraph.toml"
	}
	return filepath.Join(home, ".config", "waygraph", "config.toml")
}
