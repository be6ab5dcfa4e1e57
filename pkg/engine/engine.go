// Package engine evaluates solid recipes written in a small Lisp. It wraps
// zygomys in a sandboxed environment and produces an sdfx solid plus the
// cube it should be sampled over.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/deadsy/sdfx/sdf"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/voronize/pkg/frep"
	"github.com/chazu/voronize/pkg/grid"
	"github.com/chazu/voronize/pkg/logging"
)

// EvalError is a non-fatal error in user code, such as a parse error or a
// bad builtin argument.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// boundsMargin pads an inferred sampling cube on every side.
const boundsMargin = 0.1

// Recipe is an evaluated solid and the cube [Min, Max]^3 it is sampled
// over.
type Recipe struct {
	Solid    sdf.SDF3
	Min, Max float64
}

// Frame returns the sampling frame for a res^3 grid.
func (r *Recipe) Frame(res int) frep.Frame {
	return frep.Linspace(r.Min, r.Max, res)
}

// Field samples the recipe onto a res^3 grid. Values are in voxels and
// the field scale is the voxel edge in model units.
func (r *Recipe) Field(res int) *grid.Field {
	fr := r.Frame(res)
	f := frep.Sample(r.Solid, grid.Cube(res), fr)
	f.Scale.X, f.Scale.Y, f.Scale.Z = fr.Step, fr.Step, fr.Step
	return f
}

// Engine evaluates recipes. It is safe for concurrent use; each call to
// Evaluate runs in a fresh sandbox.
type Engine struct {
	// Timeout bounds each evaluation. Zero means EvalTimeout.
	Timeout time.Duration

	evaluations atomic.Uint64
}

// NewEngine creates a new Engine.
func NewEngine() *Engine {
	return &Engine{Timeout: EvalTimeout}
}

// Evaluate runs recipe source. The value of the last expression must be a
// solid.
//
// Return semantics:
//   - On success: recipe + nil errors + nil error
//   - On parse/eval failure: nil recipe + eval errors + nil error
//   - On fatal failure (timeout, cancellation, panic): nil + nil + error
func (e *Engine) Evaluate(ctx context.Context, source string) (*Recipe, []EvalError, error) {
	n := e.evaluations.Add(1)
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}

	ch := make(chan evalResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()
		r, evalErrs, err := e.evaluate(source)
		ch <- evalResult{recipe: r, errors: evalErrs, err: err}
	}()

	r, evalErrs, err := await(ctx, ch, timeout)
	logging.Logger().Debug("recipe evaluation", "n", n, "ok", r != nil, "eval_errors", len(evalErrs))
	return r, evalErrs, err
}

func (e *Engine) evaluate(source string) (*Recipe, []EvalError, error) {
	if strings.TrimSpace(source) == "" {
		return nil, []EvalError{{Message: "empty recipe"}}, nil
	}

	// Sandbox mode denies user code filesystem and syscall access.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := &builder{}
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	out, err := env.Run()
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	solid, ok := out.(*sexpSolid)
	if !ok {
		return nil, []EvalError{{Message: fmt.Sprintf("recipe must end with a solid, got %s", out.SexpString(nil))}}, nil
	}
	r := &Recipe{Solid: solid.solid}
	if b.bounds != nil {
		r.Min, r.Max = b.bounds[0], b.bounds[1]
	} else {
		r.Min, r.Max = inferBounds(solid.solid.BoundingBox())
	}
	logging.Logger().Debug("evaluated recipe", "solids", b.solids, "result", solid.desc, "min", r.Min, "max", r.Max)
	return r, nil, nil
}

// inferBounds returns a cube containing bb with a margin on every side.
func inferBounds(bb sdf.Box3) (lo, hi float64) {
	lo = min(bb.Min.X, bb.Min.Y, bb.Min.Z)
	hi = max(bb.Max.X, bb.Max.Y, bb.Max.Z)
	pad := (hi - lo) * boundsMargin
	return lo - pad, hi + pad
}

// linePattern matches zygomys messages such as "Error on line N: ...".
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches "line N: ...".
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into EvalErrors, extracting
// the line number when the message carries one.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()
	for _, p := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := p.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
