package properties

import (
	"errors"
	"fmt"
)

var (
	// ErrUnreadable is returned when a resource exists but cannot be read.
	ErrUnreadable = errors.New("unreadable configuration source")
	// ErrMalformedLine is returned when a line has no '=' delimiter or an empty key.
	ErrMalformedLine = errors.New("malformed properties line")
)

// ParseError locates a malformed line inside a resource.
type ParseError struct {
	Source string
	Line   int
	Text   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %v: %q", e.Source, e.Line, ErrMalformedLine, e.Text)
}

// Unwrap allows errors.Is(err, ErrMalformedLine).
func (e *ParseError) Unwrap() error {
	return ErrMalformedLine
}
