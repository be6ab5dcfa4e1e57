package engine

import (
	"context"
	"math"
	"strings"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ---------------------------------------------------------------------------
// Preprocessing tests
// ---------------------------------------------------------------------------

func TestPreprocessKeywords(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{
			name:   "simple keyword",
			input:  `(sphere :r 40)`,
			expect: `(sphere "__kw_r" 40)`,
		},
		{
			name:   "multiple keywords",
			input:  `(cylinder :axis :x :from -40)`,
			expect: `(cylinder "__kw_axis" "__kw_x" "__kw_from" -40)`,
		},
		{
			name:   "keyword in string preserved",
			input:  `"thing with :keyword inside"`,
			expect: `"thing with :keyword inside"`,
		},
		{
			name:   "assignment operator preserved",
			input:  `(def x := 10)`,
			expect: `(def x := 10)`,
		},
		{
			name:   "kebab-case identifier",
			input:  `(def outer-shell (sphere 1))`,
			expect: `(def outer_shell (sphere 1))`,
		},
		{
			name:   "minus operator preserved",
			input:  `(- 10 5)`,
			expect: `(- 10 5)`,
		},
		{
			name:   "comment converted to // style",
			input:  `;; comment with :keyword`,
			expect: `// comment with :keyword`,
		},
		{
			name:   "single semicolon comment",
			input:  `; simple comment`,
			expect: `// simple comment`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preprocessSource(tt.input); got != tt.expect {
				t.Errorf("preprocessSource(%q) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Solid builtins
// ---------------------------------------------------------------------------

func mustEval(t *testing.T, source string) *Recipe {
	t.Helper()
	r, evalErrs, err := NewEngine().Evaluate(context.Background(), source)
	if err != nil {
		t.Fatalf("fatal error: %v", err)
	}
	if len(evalErrs) > 0 {
		t.Fatalf("eval errors: %v", evalErrs)
	}
	return r
}

func TestBuiltinsContainment(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		inside  []v3.Vec
		outside []v3.Vec
	}{
		{
			name:    "sphere positional",
			source:  `(sphere 10)`,
			inside:  []v3.Vec{{}, {X: 9}},
			outside: []v3.Vec{{X: 11}},
		},
		{
			name:    "sphere keyword",
			source:  `(sphere :r 5)`,
			inside:  []v3.Vec{{Y: 4}},
			outside: []v3.Vec{{Y: 6}},
		},
		{
			name:    "cube",
			source:  `(box 20)`,
			inside:  []v3.Vec{{X: 9, Y: 9, Z: 9}},
			outside: []v3.Vec{{X: 11}},
		},
		{
			name:    "box keywords",
			source:  `(box :x 40 :y 10 :z 10)`,
			inside:  []v3.Vec{{X: 19}},
			outside: []v3.Vec{{Y: 6}},
		},
		{
			name:    "cylinder along x",
			source:  `(cylinder :axis :x :from 0 :to 30 :r 5)`,
			inside:  []v3.Vec{{X: 29}, {X: 1, Y: 4}},
			outside: []v3.Vec{{X: -1}, {X: 10, Z: 6}},
		},
		{
			name:    "translate",
			source:  `(translate (sphere 2) 10 0 0)`,
			inside:  []v3.Vec{{X: 10}},
			outside: []v3.Vec{{}},
		},
		{
			name:    "union",
			source:  `(union (sphere 2) (translate (sphere 2) 10 0 0))`,
			inside:  []v3.Vec{{}, {X: 10}},
			outside: []v3.Vec{{X: 5}},
		},
		{
			name:    "difference removes later solids",
			source:  `(difference (box 20) (sphere 8))`,
			inside:  []v3.Vec{{X: 9, Y: 9, Z: 9}},
			outside: []v3.Vec{{}},
		},
		{
			name:    "intersection",
			source:  `(intersection (box 20) (translate (box 20) 10 0 0))`,
			inside:  []v3.Vec{{X: 5}},
			outside: []v3.Vec{{X: -5}, {X: 15}},
		},
		{
			name:    "kebab-case variables",
			source:  "(def inner-ball (sphere 3))\n(def outer-ball (sphere 6))\n(difference outer-ball inner-ball)",
			inside:  []v3.Vec{{X: 5}},
			outside: []v3.Vec{{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustEval(t, tt.source)
			for _, p := range tt.inside {
				if v := r.Solid.Evaluate(p); v >= 0 {
					t.Errorf("%v = %v, want inside", p, v)
				}
			}
			for _, p := range tt.outside {
				if v := r.Solid.Evaluate(p); v <= 0 {
					t.Errorf("%v = %v, want outside", p, v)
				}
			}
		})
	}
}

func TestBoundsInferredWithMargin(t *testing.T) {
	r := mustEval(t, `(box 40 20 10)`)
	// Longest side spans [-20, 20]; a 10% margin widens it by 4.
	if math.Abs(r.Min+24) > 1e-9 || math.Abs(r.Max-24) > 1e-9 {
		t.Errorf("bounds = [%v, %v], want [-24, 24]", r.Min, r.Max)
	}
}

func TestBoundsExplicit(t *testing.T) {
	r := mustEval(t, "(bounds -50 50)\n(sphere 40)")
	if r.Min != -50 || r.Max != 50 {
		t.Errorf("bounds = [%v, %v], want [-50, 50]", r.Min, r.Max)
	}
	f := r.Field(11)
	if f.Scale.X != 10 {
		t.Errorf("voxel size = %v, want 10", f.Scale.X)
	}
	// Centre voxel sits 40 units (4 voxels) inside the surface.
	if v := f.At(5, 5, 5); math.Abs(float64(v)+4) > 1e-4 {
		t.Errorf("centre = %v voxels, want -4", v)
	}
	if v := f.At(0, 0, 0); v <= 0 {
		t.Errorf("corner = %v, want outside", v)
	}
}

func TestBuiltinErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"sphere without radius", `(sphere)`, "missing radius"},
		{"negative radius", `(sphere -1)`, "sphere"},
		{"box missing z", `(box 1 2)`, "missing z"},
		{"bad axis", `(cylinder :axis :w :from 0 :to 1 :r 1)`, "axis"},
		{"empty cylinder", `(cylinder :from 1 :to 0 :r 1)`, "empty"},
		{"union of numbers", `(union 1 2)`, "expected solid"},
		{"translate arity", `(translate (sphere 1) 1 2)`, "3 offsets"},
		{"empty bounds", "(bounds 5 5)\n(sphere 1)", "empty range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, evalErrs, err := NewEngine().Evaluate(context.Background(), tt.source)
			if err != nil {
				t.Fatalf("fatal error: %v", err)
			}
			if r != nil {
				t.Fatal("expected nil recipe")
			}
			if len(evalErrs) == 0 {
				t.Fatal("expected eval errors")
			}
			if !strings.Contains(evalErrs[0].Message, tt.want) {
				t.Errorf("message = %q, want containing %q", evalErrs[0].Message, tt.want)
			}
		})
	}
}

func TestHeartAndEgg(t *testing.T) {
	for _, src := range []string{"(heart)", "(egg)"} {
		r := mustEval(t, src)
		if v := r.Solid.Evaluate(v3.Vec{}); v >= 0 {
			t.Errorf("%s: origin = %v, want inside", src, v)
		}
	}
}
