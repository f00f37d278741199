package greenpatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnrecognizedOption is wrapped by [*UnrecognizedOptionError].
	ErrUnrecognizedOption = errors.New("greenpatch: unrecognized option")

	// ErrUnknownUnit is returned when a load names a unit missing from the catalog.
	ErrUnknownUnit = errors.New("greenpatch: unknown unit")

	// ErrDuplicateUnit is returned by [Catalog.Register] for a name already taken.
	ErrDuplicateUnit = errors.New("greenpatch: unit already registered")

	// ErrImplementationType is returned when a bound implementation does not
	// satisfy the capability interface the caller asked for.
	ErrImplementationType = errors.New("greenpatch: implementation type mismatch")

	// ErrImportCycle is wrapped by [*ImportCycleError].
	ErrImportCycle = errors.New("greenpatch: import cycle")
)

// UnrecognizedOptionError reports an activation key outside the closed set
// of primitive names and the wildcard.
type UnrecognizedOptionError struct {
	Key string
}

func (e *UnrecognizedOptionError) Error() string {
	return fmt.Sprintf("greenpatch: activation got an unexpected option %q", e.Key)
}

func (e *UnrecognizedOptionError) Unwrap() error { return ErrUnrecognizedOption }

// IsUnrecognizedOption reports whether err (or any error in its chain) is
// an [*UnrecognizedOptionError].
func IsUnrecognizedOption(err error) bool {
	var ue *UnrecognizedOptionError
	return errors.As(err, &ue)
}

// OptionOf extracts the offending key from the first
// [*UnrecognizedOptionError] in err's chain.
func OptionOf(err error) (string, bool) {
	var ue *UnrecognizedOptionError
	if errors.As(err, &ue) {
		return ue.Key, true
	}
	return "", false
}

// ImportCycleError reports a unit that requires itself, directly or through
// other units. Units lists the cycle, starting and ending with the same unit.
type ImportCycleError struct {
	Units []string
}

func (e *ImportCycleError) Error() string {
	return fmt.Sprintf("greenpatch: import cycle: %s", strings.Join(e.Units, " -> "))
}

func (e *ImportCycleError) Unwrap() error { return ErrImportCycle }
