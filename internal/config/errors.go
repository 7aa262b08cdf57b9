package config

import (
	"errors"
	"fmt"

	"github.com/dshills/piecetree/internal/config/loader"
)

var (
	// ErrSettingNotFound is returned by Get for a path no layer defines.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrTypeMismatch matches every TypeError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed matches every ValidationError.
	ErrValidationFailed = errors.New("validation failed")
)

// ParseError reports a malformed configuration file.
type ParseError = loader.ParseError

// ValidationError is a setting whose value is out of range.
type ValidationError struct {
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// TypeError is a setting holding a value of the wrong kind, such as a
// string where a number belongs.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrTypeMismatch
}
