package expr

import (
	"errors"
	"fmt"
)

// ErrSyntax is the sentinel wrapped by every ParseError.
var ErrSyntax = errors.New("route expression syntax error")

// ParseError describes where parsing failed.
type ParseError struct {
	// Input is the route text being parsed (query and fragment removed).
	Input string
	// Pos is the byte offset of the failure.
	Pos int
	// Message describes what was expected.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s at position %d in %q: %s", ErrSyntax.Error(), e.Pos, e.Input, e.Message)
}

// Unwrap returns ErrSyntax for errors.Is support.
func (e *ParseError) Unwrap() error {
	return ErrSyntax
}
