package mapping

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dukex/operion-canvas/pkg/value"
	"github.com/xeipuuv/gojsonschema"
)

// ErrParse marks mapping text that could not be committed.
var ErrParse = errors.New("mapping parse error")

// ParseError describes why mapping text was rejected.
type ParseError struct {
	Field string // target path at fault, when known
	Msg   string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", ErrParse.Error(), e.Field, e.Msg)
	}

	return fmt.Sprintf("%s: %s", ErrParse.Error(), e.Msg)
}

func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}

	return []error{ErrParse, e.Err}
}

// IsParseError reports whether err is a rejected mapping edit.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParse)
}

const specSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"propertyNames": {
		"pattern": "^[A-Za-z0-9_$:-]+(\\.[A-Za-z0-9_$:-]+)*$"
	}
}`

var specSchemaLoader = gojsonschema.NewStringLoader(specSchema)

// ParseSpecText parses mapping text typed by a user: a JSON object whose keys are
// dotted target paths and whose values are literals or templates. Blank text is an
// empty spec. Any error leaves nothing partially parsed.
func ParseSpecText(text string) (Spec, error) {
	if strings.TrimSpace(text) == "" {
		return Spec{}, nil
	}

	parsed, err := value.Parse([]byte(text))
	if err != nil {
		return Spec{}, &ParseError{Msg: "invalid JSON", Err: err}
	}

	result, err := gojsonschema.Validate(specSchemaLoader, gojsonschema.NewGoLoader(parsed.ToAny()))
	if err != nil {
		return Spec{}, &ParseError{Msg: "schema validation failed", Err: err}
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}

		return Spec{}, &ParseError{Msg: strings.Join(msgs, "; ")}
	}

	spec, err := SpecFromValue(parsed)
	if err != nil {
		return Spec{}, &ParseError{Msg: err.Error()}
	}

	for _, e := range spec.entries {
		s, ok := e.Source.Str()
		if !ok || !strings.Contains(s, openDelim) {
			continue
		}

		if LooksLikeTemplate(s) && !IsTemplate(s) {
			return Spec{}, &ParseError{Field: e.Target, Msg: fmt.Sprintf("malformed template %q", s)}
		}
	}

	return spec, nil
}
