package engine

import (
	"fmt"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/voronize/pkg/frep"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites recipe source before handing it to zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords need
//     no global symbols and cannot clash with user variables.
//  2. ; line comments become // comments.
//  3. kebab-case identifiers become snake_case, since zygomys reads a
//     hyphen inside an identifier as subtraction.
//
// String literals are copied through untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"' || b[i] == '`':
			quote := b[i]
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != quote {
				if quote == '"' && b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
		case b[i] == ';':
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, b[i], b[i+1])
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isLetter(b[i+1]):
			result = append(result, '_')
			i++
		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Solid values
// ---------------------------------------------------------------------------

// sexpSolid carries an sdfx solid between builtins.
type sexpSolid struct {
	solid sdf.SDF3
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpSolid) Type() *zygo.RegisteredType           { return nil }

// ---------------------------------------------------------------------------
// Argument parsing
// ---------------------------------------------------------------------------

const kwPrefix = "__kw_"

func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds a mixed positional and keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// number returns keyword key if present, else positional argument pos.
func (a kwArgs) number(key string, pos int) (float64, bool, error) {
	if v, ok := a.kw[key]; ok {
		f, err := toFloat64(v)
		return f, true, err
	}
	if pos >= 0 && pos < len(a.positional) {
		f, err := toFloat64(a.positional[pos])
		return f, true, err
	}
	return 0, false, nil
}

func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString accepts a keyword (:z) or a plain string ("z").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

func toAxis(s zygo.Sexp) (frep.Axis, error) {
	name, err := toKeywordString(s)
	if err != nil {
		return 0, fmt.Errorf("expected axis keyword (:x, :y, :z): %w", err)
	}
	return frep.ParseAxis(name)
}

func toSolid(s zygo.Sexp) (sdf.SDF3, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected solid, got %T (%s)", s, s.SexpString(nil))
}

func toSolids(fn string, args []zygo.Sexp) ([]sdf.SDF3, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("%s requires at least one solid", fn)
	}
	out := make([]sdf.SDF3, len(args))
	for i, a := range args {
		s, err := toSolid(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %d: %w", fn, i+1, err)
		}
		out[i] = s
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// builder accumulates recipe state that is not carried by return values.
type builder struct {
	bounds *[2]float64
	solids int
}

func (b *builder) solid(s sdf.SDF3, desc string) *sexpSolid {
	b.solids++
	return &sexpSolid{solid: s, desc: desc}
}

// registerBuiltins installs the recipe vocabulary into env. Source must be
// preprocessed so :keyword tokens are recognizable.
func registerBuiltins(env *zygo.Zlisp, b *builder) {
	type builtin func(args []zygo.Sexp) (zygo.Sexp, error)
	add := func(name string, fn builtin) {
		env.AddFunction(name, func(env *zygo.Zlisp, _ string, args []zygo.Sexp) (zygo.Sexp, error) {
			out, err := fn(args)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			return out, nil
		})
	}

	// (sphere 40) or (sphere :r 40)
	add("sphere", func(args []zygo.Sexp) (zygo.Sexp, error) {
		r, ok, err := parseArgs(args).number("r", 0)
		if err != nil || !ok {
			return nil, orMissing(err, "radius")
		}
		s, err := frep.Sphere(r)
		if err != nil {
			return nil, err
		}
		return b.solid(s, fmt.Sprintf("(sphere %g)", r)), nil
	})

	// (box 80) for a cube, (box 80 40 20) or (box :x 80 :y 40 :z 20)
	add("box", func(args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		x, ok, err := pa.number("x", 0)
		if err != nil || !ok {
			return nil, orMissing(err, "size")
		}
		y, z := x, x
		if len(pa.positional) != 1 || len(pa.kw) > 0 {
			if y, ok, err = pa.number("y", 1); err != nil || !ok {
				return nil, orMissing(err, "y")
			}
			if z, ok, err = pa.number("z", 2); err != nil || !ok {
				return nil, orMissing(err, "z")
			}
		}
		s, err := frep.Rect(x, y, z)
		if err != nil {
			return nil, err
		}
		return b.solid(s, fmt.Sprintf("(box %g %g %g)", x, y, z)), nil
	})

	// (cylinder :axis :x :from -40 :to 40 :r 40)
	add("cylinder", func(args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		axis := frep.AxisZ
		if v, ok := pa.kw["axis"]; ok {
			a, err := toAxis(v)
			if err != nil {
				return nil, err
			}
			axis = a
		}
		vals := map[string]float64{}
		for i, key := range []string{"from", "to", "r"} {
			v, ok, err := pa.number(key, i)
			if err != nil || !ok {
				return nil, orMissing(err, key)
			}
			vals[key] = v
		}
		s, err := frep.Cylinder(axis, vals["from"], vals["to"], vals["r"])
		if err != nil {
			return nil, err
		}
		return b.solid(s, fmt.Sprintf("(cylinder %g..%g r=%g)", vals["from"], vals["to"], vals["r"])), nil
	})

	add("heart", func(args []zygo.Sexp) (zygo.Sexp, error) {
		return b.solid(frep.Heart(), "(heart)"), nil
	})

	add("egg", func(args []zygo.Sexp) (zygo.Sexp, error) {
		return b.solid(frep.Egg(), "(egg)"), nil
	})

	// (translate solid dx dy dz)
	add("translate", func(args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 4 {
			return nil, fmt.Errorf("expected a solid and 3 offsets, got %d arguments", len(args))
		}
		s, err := toSolid(args[0])
		if err != nil {
			return nil, err
		}
		var d [3]float64
		for i := range d {
			if d[i], err = toFloat64(args[i+1]); err != nil {
				return nil, err
			}
		}
		m := sdf.Translate3d(v3.Vec{X: d[0], Y: d[1], Z: d[2]})
		return b.solid(sdf.Transform3D(s, m), fmt.Sprintf("(translate %g %g %g)", d[0], d[1], d[2])), nil
	})

	add("union", func(args []zygo.Sexp) (zygo.Sexp, error) {
		ss, err := toSolids("union", args)
		if err != nil {
			return nil, err
		}
		return b.solid(sdf.Union3D(ss...), fmt.Sprintf("(union of %d)", len(ss))), nil
	})

	add("intersection", func(args []zygo.Sexp) (zygo.Sexp, error) {
		ss, err := toSolids("intersection", args)
		if err != nil {
			return nil, err
		}
		s := ss[0]
		for _, o := range ss[1:] {
			s = sdf.Intersect3D(s, o)
		}
		return b.solid(s, fmt.Sprintf("(intersection of %d)", len(ss))), nil
	})

	// (difference a b c) removes b and c from a.
	add("difference", func(args []zygo.Sexp) (zygo.Sexp, error) {
		ss, err := toSolids("difference", args)
		if err != nil {
			return nil, err
		}
		s := ss[0]
		for _, o := range ss[1:] {
			s = sdf.Difference3D(s, o)
		}
		return b.solid(s, fmt.Sprintf("(difference of %d)", len(ss))), nil
	})

	// (bounds -50 50) fixes the sampled cube.
	add("bounds", func(args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		lo, ok1, err1 := pa.number("min", 0)
		hi, ok2, err2 := pa.number("max", 1)
		if err1 != nil || err2 != nil || !ok1 || !ok2 {
			return nil, orMissing(firstErr(err1, err2), "min and max")
		}
		if hi <= lo {
			return nil, fmt.Errorf("empty range [%g, %g]", lo, hi)
		}
		b.bounds = &[2]float64{lo, hi}
		return zygo.SexpNull, nil
	})
}

func orMissing(err error, what string) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("missing %s", what)
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}
