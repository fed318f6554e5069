package detective

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownAttribute is returned when a name is not in the vocabulary.
	ErrUnknownAttribute = errors.New("detective: unknown attribute")

	// ErrInvalidDetective is returned when a detective declaration is malformed
	// (nil, empty ID, no outputs, duplicated names).
	ErrInvalidDetective = errors.New("detective: invalid detective")

	// ErrDuplicateDetective is returned when two detectives share an ID.
	ErrDuplicateDetective = errors.New("detective: duplicate detective id")

	// ErrOverlappingIO is returned when a detective both requires and
	// produces the same attribute.
	ErrOverlappingIO = errors.New("detective: inputs and outputs overlap")

	// ErrCyclicDependency is returned when detectives depend on each other's
	// outputs in a cycle.
	ErrCyclicDependency = errors.New("detective: cyclic dependency")

	// ErrNoConvergence is returned when detectives are still ready to run
	// after the configured number of passes.
	ErrNoConvergence = errors.New("detective: no convergence within pass limit")

	// ErrEmptyRegistry is returned when an engine is built without detectives.
	ErrEmptyRegistry = errors.New("detective: no detectives registered")
)

// RegistrationError reports why a detective was refused by the registry.
type RegistrationError struct {
	Detective string
	Err       error
	Detail    string
}

func (e *RegistrationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("register %q: %v", e.Detective, e.Err)
	}
	return fmt.Sprintf("register %q: %v: %s", e.Detective, e.Err, e.Detail)
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// CycleError carries the detective IDs forming a dependency cycle.
// The first and last elements of Path are the same detective.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%v: %s", ErrCyclicDependency, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicDependency }
