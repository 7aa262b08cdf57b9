package piecetree

import (
	"errors"
	"fmt"
)

// ErrInvariant is wrapped by every error the consistency checker reports.
var ErrInvariant = errors.New("piecetree: invariant violation")

func wrapInvariant(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)
}
