// Package config loads sketchgraph settings. Values come from code
// defaults, then an optional HCL file, then SKETCHGRAPH_* environment
// variables, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "SKETCHGRAPH_"

// Config holds the tunables shared by the CLI, the engine and the store.
type Config struct {
	SnapRadius  float64       `env:"SNAP_RADIUS"`
	MeshCells   int           `env:"MESH_CELLS"`
	Thickness   float64       `env:"THICKNESS"`
	EvalTimeout time.Duration `env:"EVAL_TIMEOUT"`
	StorePath   string        `env:"STORE_PATH"`
	LogLevel    string        `env:"LOG_LEVEL"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SnapRadius:  0.01,
		MeshCells:   200,
		Thickness:   1.0,
		EvalTimeout: 5 * time.Second,
		StorePath:   "sketchgraph.db",
		LogLevel:    "info",
	}
}

// hclConfigFile is the on-disk shape of sketchgraph.hcl. Every attribute
// is optional; absent ones keep the default.
type hclConfigFile struct {
	SnapRadius  *float64 `hcl:"snap_radius,optional"`
	MeshCells   *int     `hcl:"mesh_cells,optional"`
	Thickness   *float64 `hcl:"thickness,optional"`
	EvalTimeout *string  `hcl:"eval_timeout,optional"`
	StorePath   *string  `hcl:"store_path,optional"`
	LogLevel    *string  `hcl:"log_level,optional"`
}

// Load builds a Config from defaults, the HCL file at path (skipped when
// path is empty) and the environment, then validates it.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var parsed hclConfigFile
	diags = gohcl.DecodeBody(file.Body, nil, &parsed)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	if parsed.SnapRadius != nil {
		c.SnapRadius = *parsed.SnapRadius
	}
	if parsed.MeshCells != nil {
		c.MeshCells = *parsed.MeshCells
	}
	if parsed.Thickness != nil {
		c.Thickness = *parsed.Thickness
	}
	if parsed.EvalTimeout != nil {
		d, err := time.ParseDuration(*parsed.EvalTimeout)
		if err != nil {
			return fmt.Errorf("%s: eval_timeout: %w", path, err)
		}
		c.EvalTimeout = d
	}
	if parsed.StorePath != nil {
		c.StorePath = *parsed.StorePath
	}
	if parsed.LogLevel != nil {
		c.LogLevel = *parsed.LogLevel
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.SnapRadius <= 0 {
		errs = append(errs, fmt.Errorf("snap radius must be positive, got %g", c.SnapRadius))
	}
	if c.MeshCells <= 0 {
		errs = append(errs, fmt.Errorf("mesh cells must be positive, got %d", c.MeshCells))
	}
	if c.Thickness <= 0 {
		errs = append(errs, fmt.Errorf("thickness must be positive, got %g", c.Thickness))
	}
	if c.EvalTimeout <= 0 {
		errs = append(errs, fmt.Errorf("eval timeout must be positive, got %s", c.EvalTimeout))
	}
	if c.StorePath == "" {
		errs = append(errs, errors.New("store path is empty"))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Level parses LogLevel ("debug", "info", "warn", "error").
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
