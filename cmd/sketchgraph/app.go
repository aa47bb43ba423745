package main

import (
	"log/slog"

	"github.com/chazu/lignin-sketch/pkg/config"
	"github.com/chazu/lignin-sketch/pkg/coord"
	"github.com/chazu/lignin-sketch/pkg/engine"
	"github.com/chazu/lignin-sketch/pkg/kernel"
	"github.com/chazu/lignin-sketch/pkg/kernel/sdfx"
	"github.com/chazu/lignin-sketch/pkg/sketch"
	"github.com/chazu/lignin-sketch/pkg/tessellate"
)

// colorPalette is a default palette used to assign distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App wires the engine, the geometry kernel and tessellation together.
type App struct {
	cfg    config.Config
	logger *slog.Logger
	engine *engine.Engine
	kernel kernel.Kernel
}

// MeshData is the JSON-serializable mesh format written by `run -json`.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the full result of evaluating a script.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`

	// Sketch is nil whenever Errors is non-empty.
	Sketch *sketch.Sketch `json:"-"`
}

// NewApp creates an App from cfg using the sdfx kernel.
func NewApp(cfg config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		engine: engine.NewEngine(
			engine.WithTimeout(cfg.EvalTimeout),
			engine.WithLogger(logger),
			engine.WithSketchOptions(coord.WithSnapRadius(cfg.SnapRadius)),
		),
		kernel: sdfx.NewWithCells(cfg.MeshCells),
	}
}

// SketchOptions returns the coordinate options used for loaded sketches.
func (a *App) SketchOptions() []coord.Option {
	return []coord.Option{coord.WithSnapRadius(a.cfg.SnapRadius), coord.WithLogger(a.logger)}
}

// Evaluate runs source and, when meshes is set, tessellates the result.
func (a *App) Evaluate(source string, meshes bool) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.logger.Error("evaluate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}
	if !meshes {
		result.Sketch = s
		return result
	}

	ms, err := tessellate.Tessellate(s, a.kernel, tessellate.Options{Thickness: a.cfg.Thickness})
	if err != nil {
		a.logger.Error("tessellate failed", "error", err)
		result.Errors = append(result.Errors, EvalErrorData{
			Message: "tessellation failed: " + err.Error(),
		})
		return result
	}
	for i, m := range ms {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	result.Sketch = s
	return result
}
