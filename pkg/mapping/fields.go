package mapping

import (
	"strconv"

	"github.com/dukex/operion-canvas/pkg/value"
)

// DataKey is the context key under which a node's produced data is exposed.
const DataKey = "data"

// FieldPaths lists the template paths (without delimiters) a user can pick from a
// node's produced data, e.g. "n1.data.user.name". Lists contribute the list itself and
// the keys of their first element.
func FieldPaths(nodeID string, data value.Value) []string {
	var out []string

	collectFields(nodeID+"."+DataKey, data, &out)

	return out
}

func collectFields(prefix string, v value.Value, out *[]string) {
	switch v.Kind() {
	case value.Map:
		v.Object().Range(func(key string, item value.Value) bool {
			path := prefix + "." + key
			if item.IsContainer() {
				collectFields(path, item, out)
			} else {
				*out = append(*out, path)
			}

			return true
		})
	case value.List:
		*out = append(*out, prefix)

		first, ok := v.Index(0)
		if ok && first.Kind() == value.Map {
			collectFields(prefix+"."+strconv.Itoa(0), first, out)
		}
	default:
		*out = append(*out, prefix)
	}
}

// Template wraps a path in template delimiters.
func Template(path string) string {
	return openDelim + path + closeDelim
}
