package mapping

import (
	"strconv"
	"strings"
)

const (
	openDelim  = "{{"
	closeDelim = "}}"
)

// Segment is one step of a dotted path: an object key, or a non-negative list index.
// Index segments can still address object keys made of digits.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

// Ref is a parsed template: the producing node and the path into its context entry.
type Ref struct {
	NodeID string
	Path   []Segment
}

func (r Ref) String() string {
	var b strings.Builder

	b.WriteString(openDelim)
	b.WriteString(r.NodeID)

	for _, seg := range r.Path {
		b.WriteByte('.')
		b.WriteString(seg.Key)
	}

	b.WriteString(closeDelim)

	return b.String()
}

// IsTemplate reports whether s is a whole-string template (`{{...}}`).
func IsTemplate(s string) bool {
	_, ok := ParseTemplate(s)

	return ok
}

// LooksLikeTemplate reports whether s uses the template delimiters at all, valid or not.
func LooksLikeTemplate(s string) bool {
	s = strings.TrimSpace(s)

	return strings.HasPrefix(s, openDelim) && strings.HasSuffix(s, closeDelim)
}

// ParseTemplate parses `{{nodeId(.segment)*}}`. Whitespace around the expression
// inside the delimiters is ignored.
func ParseTemplate(s string) (Ref, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, openDelim) || !strings.HasSuffix(s, closeDelim) || len(s) < len(openDelim)+len(closeDelim) {
		return Ref{}, false
	}

	expr := strings.TrimSpace(s[len(openDelim) : len(s)-len(closeDelim)])
	if expr == "" || strings.ContainsAny(expr, "{} \t\n") {
		return Ref{}, false
	}

	parts := strings.Split(expr, ".")

	segments, ok := parseSegments(parts[1:])
	if !ok || !validName(parts[0]) {
		return Ref{}, false
	}

	return Ref{NodeID: parts[0], Path: segments}, true
}

// ParsePath splits a dotted path into segments. An empty path yields no segments.
func ParsePath(path string) ([]Segment, bool) {
	if path == "" {
		return nil, true
	}

	return parseSegments(strings.Split(path, "."))
}

func parseSegments(parts []string) ([]Segment, bool) {
	segments := make([]Segment, 0, len(parts))

	for _, part := range parts {
		if !validName(part) {
			return nil, false
		}

		seg := Segment{Key: part}
		if isDigits(part) {
			idx, err := strconv.Atoi(part)
			if err == nil {
				seg.Index = idx
				seg.IsIndex = true
			}
		}

		segments = append(segments, seg)
	}

	return segments, true
}

func validName(s string) bool {
	if s == "" {
		return false
	}

	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-', r == '$', r == ':':
		default:
			return false
		}
	}

	return true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}

	return s != ""
}
