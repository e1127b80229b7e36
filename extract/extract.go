package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
)

var (
	// ErrEmptyInput is returned for an empty input string.
	ErrEmptyInput = fmt.Errorf("empty input")
	// ErrNotString is returned by Any when the value is not a string.
	ErrNotString = fmt.Errorf("input is not a string")
)

// ParseError reports that the text still failed strict JSON parsing after
// fence stripping and trailing-comma repair. It wraps the underlying
// encoding/json error.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse failure: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

var (
	// Opening fence: three or more backticks with an optional language tag,
	// anchored to the start. Closing fence anchored to the end. Both
	// case-insensitive and tolerant of surrounding whitespace/newlines.
	fenceOpen  = regexp.MustCompile("(?i)^\\s*```+(?:json)?\\s*")
	fenceClose = regexp.MustCompile("(?i)\\s*```+\\s*$")

	// Comma followed (across whitespace, including newlines) by a closing
	// brace or bracket. The most common defect in model-produced JSON.
	trailingComma = regexp.MustCompile(`,([ \t\r\n]*[}\]])`)
)

// Repair applies fence stripping, trimming and trailing-comma removal
// without parsing. Exposed for callers that want to inspect or log the
// repaired text on parse failure.
func Repair(text string) string {
	// Anchored patterns strip only the outermost fence pair; inner fences
	// inside the payload are left untouched.
	text = fenceOpen.ReplaceAllString(text, "")
	text = fenceClose.ReplaceAllString(text, "")
	return trailingComma.ReplaceAllString(text, "$1")
}

// JSON extracts a structured value from best-effort model output. The result
// mirrors encoding/json's generic decoding: map[string]any, []any, string,
// float64, bool or nil. Bare scalars are valid input. All failure paths
// return a typed error (ErrEmptyInput or *ParseError); the function never
// panics on any input.
func JSON(text string) (any, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	var v any
	if err := json.Unmarshal([]byte(Repair(text)), &v); err != nil {
		return nil, &ParseError{Err: err}
	}
	return v, nil
}

// Any is the dynamically-typed entry point for callers holding an arbitrary
// value from a provider SDK. Non-string input fails with ErrNotString
// instead of crashing; string input behaves exactly like JSON.
func Any(v any) (any, error) {
	s, ok := v.(string)
	if !ok {
		return nil, ErrNotString
	}
	return JSON(s)
}

// Into extracts and decodes the repaired text directly into target, which
// must be a non-nil pointer. Used by callers that expect a known payload
// shape (quizzes, lesson plans) rather than a generic value.
func Into(text string, target any) error {
	if text == "" {
		return ErrEmptyInput
	}
	if err := json.Unmarshal([]byte(Repair(text)), target); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
