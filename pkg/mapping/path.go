package mapping

import (
	"github.com/dukex/operion-canvas/pkg/value"
)

// GetPath walks v along a dotted path. Any miss yields value.Undef().
func GetPath(v value.Value, path string) value.Value {
	segments, ok := ParsePath(path)
	if !ok {
		return value.Undef()
	}

	return walk(v, segments)
}

func walk(v value.Value, segments []Segment) value.Value {
	current := v

	for _, seg := range segments {
		next, ok := step(current, seg)
		if !ok {
			return value.Undef()
		}

		current = next
	}

	return current
}

func step(v value.Value, seg Segment) (value.Value, bool) {
	switch v.Kind() {
	case value.Map:
		return v.Get(seg.Key)
	case value.List:
		if !seg.IsIndex {
			return value.Undef(), false
		}

		return v.Index(seg.Index)
	default:
		return value.Undef(), false
	}
}

// SetPath writes leaf at the dotted path inside root and returns the updated root.
// Missing or scalar intermediates are replaced by empty maps; a non-map root is
// replaced by a fresh map. Existing lists below the root are never replaced: an
// in-range index is written through, any other segment leaves the list unchanged.
func SetPath(root value.Value, path string, leaf value.Value) value.Value {
	segments, ok := ParsePath(path)
	if !ok || len(segments) == 0 {
		return root
	}

	if root.Kind() != value.Map {
		root = value.MapOf(nil)
	}

	return set(root, segments, leaf)
}

func set(container value.Value, segments []Segment, leaf value.Value) value.Value {
	seg := segments[0]
	last := len(segments) == 1

	if container.Kind() == value.List {
		if !seg.IsIndex || seg.Index >= container.Len() {
			return container
		}

		items := container.Items()
		if last {
			items[seg.Index] = leaf
		} else {
			items[seg.Index] = set(descendable(items[seg.Index]), segments[1:], leaf)
		}

		return container
	}

	if container.Kind() != value.Map {
		container = value.MapOf(nil)
	}

	obj := container.Object()
	if last {
		obj.Set(seg.Key, leaf)

		return container
	}

	child, _ := obj.Get(seg.Key)
	obj.Set(seg.Key, set(descendable(child), segments[1:], leaf))

	return container
}

func descendable(v value.Value) value.Value {
	if v.IsContainer() {
		return v
	}

	return value.MapOf(nil)
}
