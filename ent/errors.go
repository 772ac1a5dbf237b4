package ent

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMissingRecipe   = errors.New("missing recipe")
	ErrMalformedInput  = errors.New("malformed input")
	ErrIOFailure       = errors.New("io failure")
	ErrNotFound        = errors.New("not found")
)

// ParseError reports the first malformed line of an import.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Reason)
	}
	return "malformed input: " + e.Reason
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedInput
}

type MissingRecipeError struct {
	RecipeID int64
}

func (e *MissingRecipeError) Error() string {
	return fmt.Sprintf("missing recipe %d", e.RecipeID)
}

func (e *MissingRecipeError) Unwrap() error {
	return ErrMissingRecipe
}

// IOError wraps failures of the underlying reader or writer.
func IOError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrIOFailure, err)
}
