// Package config loads the engine-tuning file: store sizing and the
// default log level, independent of the per-world behavior script. It
// follows the reference's config/ package style — a value-receiver
// builder with With* methods — generalized from device construction to
// engine construction.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LogLevel mirrors proto.LogLevel's three canonical levels, kept as its
// own type here so this package doesn't import proto for one enum.
type LogLevel string

const (
	LevelQuiet   LogLevel = "quiet"
	LevelNormal  LogLevel = "normal"
	LevelVerbose LogLevel = "verbose"
)

// Engine holds the tunables read from an engine-config YAML file.
type Engine struct {
	LeafWidth int      `yaml:"leaf_width"`
	MinSize   uint32   `yaml:"min_size"`
	LogLevel  LogLevel `yaml:"log_level"`
}

// defaults mirror the reference's compiled-in constants: a leaf cube of
// 4, a hashmap floor of 8 buckets, normal logging.
func defaults() Engine {
	return Engine{LeafWidth: 4, MinSize: 8, LogLevel: LevelNormal}
}

// EngineBuilder assembles an Engine config, starting from defaults and
// applying a loaded file and/or CLI overrides on top.
type EngineBuilder struct {
	cfg Engine
}

// NewEngineBuilder starts a builder at the compiled-in defaults.
func NewEngineBuilder() EngineBuilder {
	return EngineBuilder{cfg: defaults()}
}

// WithLeafWidth overrides the octree leaf width. A zero value leaves the
// current setting untouched, so callers can apply an optional --leaf-width
// flag unconditionally.
func (b EngineBuilder) WithLeafWidth(width int) EngineBuilder {
	if width != 0 {
		b.cfg.LeafWidth = width
	}
	return b
}

// WithMinSize overrides the hashmap's minimum bucket count.
func (b EngineBuilder) WithMinSize(minSize uint32) EngineBuilder {
	if minSize != 0 {
		b.cfg.MinSize = minSize
	}
	return b
}

// WithLogLevel overrides the default log level.
func (b EngineBuilder) WithLogLevel(level LogLevel) EngineBuilder {
	if level != "" {
		b.cfg.LogLevel = level
	}
	return b
}

// WithFile merges in an engine-config YAML file's fields, skipping any
// field the file leaves zero-valued so that applying a file after
// WithLeafWidth/WithMinSize overrides can't silently blank them back out.
func (b EngineBuilder) WithFile(path string) (EngineBuilder, error) {
	if path == "" {
		return b, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("config: reading engine config %q: %w", path, err)
	}

	var file Engine
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return b, fmt.Errorf("config: parsing engine config %q: %w", path, err)
	}

	if file.LeafWidth != 0 {
		b.cfg.LeafWidth = file.LeafWidth
	}
	if file.MinSize != 0 {
		b.cfg.MinSize = file.MinSize
	}
	if file.LogLevel != "" {
		b.cfg.LogLevel = file.LogLevel
	}
	return b, nil
}

// Build validates and returns the assembled Engine config.
func (b EngineBuilder) Build() (Engine, error) {
	if b.cfg.LeafWidth <= 0 || b.cfg.LeafWidth&(b.cfg.LeafWidth-1) != 0 {
		return Engine{}, fmt.Errorf("config: leaf_width must be a power of two, got %d", b.cfg.LeafWidth)
	}
	if b.cfg.MinSize == 0 || b.cfg.MinSize&(b.cfg.MinSize-1) != 0 {
		return Engine{}, fmt.Errorf("config: min_size must be a power of two, got %d", b.cfg.MinSize)
	}
	switch b.cfg.LogLevel {
	case LevelQuiet, LevelNormal, LevelVerbose:
	default:
		return Engine{}, fmt.Errorf("config: unknown log_level %q", b.cfg.LogLevel)
	}
	return b.cfg, nil
}
