package mapping

import (
	"strings"

	"github.com/dukex/operion-canvas/pkg/value"
)

// Context holds produced data keyed by node id.
type Context map[string]value.Value

// Resolve returns the value a mapping source stands for. Template strings are looked
// up in ctx; everything else is a literal and is returned unchanged. A lookup miss
// is value.Undef(), never an error.
func Resolve(source value.Value, ctx Context) value.Value {
	s, ok := source.Str()
	if !ok || !LooksLikeTemplate(s) {
		return source
	}

	ref, ok := ParseTemplate(s)
	if !ok {
		return value.Undef()
	}

	return Lookup(ref, ctx)
}

// ResolveString resolves a template string, or returns s as a string literal.
func ResolveString(s string, ctx Context) value.Value {
	return Resolve(value.StringOf(s), ctx)
}

// Lookup walks ctx along ref.
func Lookup(ref Ref, ctx Context) value.Value {
	root, ok := ctx[ref.NodeID]
	if !ok {
		return value.Undef()
	}

	return walk(root, ref.Path)
}

// ApplyMappings builds a fresh object from spec, setting every target path to the
// resolved source (Undefined included). An empty spec passes input through unchanged.
func ApplyMappings(spec Spec, ctx Context, input value.Value) value.Value {
	if spec.Len() == 0 {
		return input
	}

	result := value.MapOf(nil)
	for _, e := range spec.entries {
		result = SetPath(result, e.Target, Resolve(e.Source, ctx).Clone())
	}

	return result
}

// ApplyOutputMapping reshapes a node's own output: each target receives the value at
// the source path inside output. Sources may be bare paths or `{{path}}`.
func ApplyOutputMapping(spec Spec, output value.Value) value.Value {
	if spec.Len() == 0 {
		return output
	}

	result := value.MapOf(nil)

	for _, e := range spec.entries {
		s, ok := e.Source.Str()
		if !ok {
			result = SetPath(result, e.Target, e.Source)

			continue
		}

		s = strings.TrimSpace(s)
		if LooksLikeTemplate(s) {
			s = strings.TrimSpace(s[len(openDelim) : len(s)-len(closeDelim)])
		}

		result = SetPath(result, e.Target, GetPath(output, s).Clone())
	}

	return result
}

// RenderValue resolves templates found in string leaves of v. A string that is a whole
// template is replaced by the resolved value; templates embedded in longer strings
// are substituted textually, misses rendering as empty text.
func RenderValue(v value.Value, ctx Context) value.Value {
	switch v.Kind() {
	case value.String:
		s, _ := v.Str()
		if LooksLikeTemplate(s) && !strings.Contains(strings.TrimSpace(s)[len(openDelim):], openDelim) {
			return ResolveString(s, ctx)
		}

		return value.StringOf(RenderString(s, ctx))
	case value.List:
		items := v.Items()
		out := make([]value.Value, len(items))

		for i, item := range items {
			out[i] = RenderValue(item, ctx)
		}

		return value.ListOf(out...)
	case value.Map:
		obj := value.NewObject()
		v.Object().Range(func(key string, item value.Value) bool {
			obj.Set(key, RenderValue(item, ctx))

			return true
		})

		return value.MapOf(obj)
	default:
		return v
	}
}

// RenderString substitutes every `{{...}}` occurrence in s.
func RenderString(s string, ctx Context) string {
	var b strings.Builder

	rest := s

	for {
		start := strings.Index(rest, openDelim)
		if start < 0 {
			b.WriteString(rest)

			break
		}

		end := strings.Index(rest[start:], closeDelim)
		if end < 0 {
			b.WriteString(rest)

			break
		}

		end += start + len(closeDelim)

		b.WriteString(rest[:start])

		resolved := ResolveString(rest[start:end], ctx)
		if !resolved.IsUndefined() && resolved.Kind() != value.Null {
			b.WriteString(resolved.String())
		}

		rest = rest[end:]
	}

	return b.String()
}

// References lists the node ids a spec's templates point at, in first-seen order.
func References(spec Spec) []string {
	seen := make(map[string]bool)

	var out []string

	for _, e := range spec.entries {
		s, ok := e.Source.Str()
		if !ok {
			continue
		}

		ref, ok := ParseTemplate(s)
		if !ok || seen[ref.NodeID] {
			continue
		}

		seen[ref.NodeID] = true
		out = append(out, ref.NodeID)
	}

	return out
}
