package simulator

import (
	"errors"
	"fmt"
)

// Configuration error kinds. A SimError matches its kind via errors.Is.
var (
	ErrTopology        = errors.New("invalid topology")
	ErrCycle           = errors.New("cycle detected")
	ErrParameterBounds = errors.New("parameter out of bounds")
)

// SimError is a custom error type for simulation errors
type SimError struct {
	Kind    error
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("simulation error: %s", e.Message)
}

// Unwrap exposes the error kind so callers can use errors.Is.
func (e SimError) Unwrap() error {
	return e.Kind
}

// ErrInvalidConfig creates an error for an out-of-bounds configuration value
func ErrInvalidConfig(msg string) error {
	return SimError{Kind: ErrParameterBounds, Message: fmt.Sprintf("invalid config: %s", msg)}
}

// ErrInvalidTopology creates an error for a malformed station graph
func ErrInvalidTopology(msg string) error {
	return SimError{Kind: ErrTopology, Message: fmt.Sprintf("invalid topology: %s", msg)}
}

func errCycleAt(name string) error {
	return SimError{Kind: ErrCycle, Message: fmt.Sprintf("cycle detected at station %q", name)}
}
