package primitive

import (
	"errors"
	"fmt"
)

// ErrUnknownPrimitive is the sentinel wrapped by [*UnknownPrimitiveError].
var ErrUnknownPrimitive = errors.New("primitive: unknown primitive")

// UnknownPrimitiveError reports a lookup of a name outside the closed set.
// Validated callers never see it; it signals a programming defect.
type UnknownPrimitiveError struct {
	Name Name
}

func (e *UnknownPrimitiveError) Error() string {
	return fmt.Sprintf("primitive: unknown primitive %q", string(e.Name))
}

func (e *UnknownPrimitiveError) Unwrap() error { return ErrUnknownPrimitive }
