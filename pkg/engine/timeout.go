package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/chazu/lignin-sketch/pkg/sketch"
)

// EvalTimeout is the default hard limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrEvalTimeout is returned when a script runs past the engine timeout.
	ErrEvalTimeout = errors.New("evaluation timed out")

	// ErrSuperseded is returned for a run overtaken by a later Evaluate call.
	ErrSuperseded = errors.New("evaluation superseded by newer request")
)

type evalResult struct {
	sketch *sketch.Sketch
	errors []EvalError
	err    error
}

func (e *Engine) currentGeneration() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// await blocks until run gen reports on ch or the engine timeout fires.
// A timed out run keeps going in the background and its late result is
// dropped with the channel.
func (e *Engine) await(ch <-chan evalResult, gen uint64) (*sketch.Sketch, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil, nil, fmt.Errorf("%w after %s", ErrEvalTimeout, e.timeout)
	case res := <-ch:
		if latest := e.currentGeneration(); latest != gen {
			return nil, nil, fmt.Errorf("run %d, latest %d: %w", gen, latest, ErrSuperseded)
		}
		return res.sketch, res.errors, res.err
	}
}
