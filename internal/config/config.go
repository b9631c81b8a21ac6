// Package config loads run settings from an HCL file.
//
// A minimal file looks like:
//
//	input = "games/Diagonal.pgn"
//
//	engine {
//	  path    = "engine/stockfish"
//	  options = { Hash = "128" }
//	}
//
//	output {
//	  dir    = "results"
//	  format = "png"
//	}
//
// Everything not set keeps the value from Default.
package config

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"

	"github.com/hailam/staticeval/internal/chart"
	"github.com/hailam/staticeval/internal/eval"
)

// EngineConfig describes the engine process.
type EngineConfig struct {
	Path    string            `hcl:"path,optional"`
	Args    []string          `hcl:"args,optional"`
	Trace   bool              `hcl:"trace,optional"`
	Options map[string]string `hcl:"options,optional"`
}

// OutputConfig describes where charts are written.
type OutputConfig struct {
	Dir    string `hcl:"dir,optional"`
	Format string `hcl:"format,optional"`
}

// CacheConfig controls the evaluation cache.
type CacheConfig struct {
	Disabled bool   `hcl:"disabled,optional"`
	Dir      string `hcl:"dir,optional"`
}

// Config is the complete run configuration.
type Config struct {
	Input    string
	Mode     string
	Archive  string
	LogLevel string
	Engine   EngineConfig
	Output   OutputConfig
	Cache    CacheConfig
}

// hclFile mirrors the file layout; absent blocks stay nil.
type hclFile struct {
	Input    string        `hcl:"input,optional"`
	Mode     string        `hcl:"mode,optional"`
	Archive  string        `hcl:"archive,optional"`
	LogLevel string        `hcl:"log_level,optional"`
	Engine   *EngineConfig `hcl:"engine,block"`
	Output   *OutputConfig `hcl:"output,block"`
	Cache    *CacheConfig  `hcl:"cache,block"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Mode:     eval.Split.String(),
		LogLevel: zerolog.InfoLevel.String(),
		Engine: EngineConfig{
			Path:    "stockfish",
			Options: map[string]string{},
		},
		Output: OutputConfig{
			Dir:    "results",
			Format: string(chart.HTML),
		},
	}
}

// Load reads path on top of Default.
func Load(path string) (*Config, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: parse %s: %w", path, diags)
	}

	var file hclFile
	if diags := gohcl.DecodeBody(f.Body, nil, &file); diags.HasErrors() {
		return nil, fmt.Errorf("config: decode %s: %w", path, diags)
	}

	cfg := Default()
	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(f *hclFile) {
	setString(&c.Input, f.Input)
	setString(&c.Mode, f.Mode)
	setString(&c.Archive, f.Archive)
	setString(&c.LogLevel, f.LogLevel)

	if e := f.Engine; e != nil {
		setString(&c.Engine.Path, e.Path)
		if len(e.Args) > 0 {
			c.Engine.Args = e.Args
		}
		c.Engine.Trace = c.Engine.Trace || e.Trace
		for k, v := range e.Options {
			c.Engine.Options[k] = v
		}
	}
	if o := f.Output; o != nil {
		setString(&c.Output.Dir, o.Dir)
		setString(&c.Output.Format, o.Format)
	}
	if cc := f.Cache; cc != nil {
		c.Cache.Disabled = c.Cache.Disabled || cc.Disabled
		setString(&c.Cache.Dir, cc.Dir)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Validate checks the values that can be checked before starting the engine.
func (c *Config) Validate() error {
	var errs []error
	if c.Engine.Path == "" {
		errs = append(errs, errors.New("engine path is empty"))
	}
	if _, err := eval.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := chart.ParseFormat(c.Output.Format); err != nil {
		errs = append(errs, err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log level: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// EvalMode returns the parsed evaluation mode.
func (c *Config) EvalMode() eval.Mode {
	m, _ := eval.ParseMode(c.Mode)
	return m
}

// Format returns the parsed output format.
func (c *Config) Format() chart.Format {
	f, _ := chart.ParseFormat(c.Output.Format)
	return f
}

// Level returns the parsed log level; trace forces debug.
func (c *Config) Level() zerolog.Level {
	if c.Engine.Trace {
		return zerolog.DebugLevel
	}
	l, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return l
}
