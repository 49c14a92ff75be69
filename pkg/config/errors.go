package config

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched by every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigTypeError reports a field whose value has the wrong kind.
type ConfigTypeError struct {
	Field string
	Want  string
	Got   any
}

// Error implements the error interface.
func (e *ConfigTypeError) Error() string {
	return fmt.Sprintf("config: %q should be %s, got %T (%v)", e.Field, e.Want, e.Got, e.Got)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *ConfigTypeError) Unwrap() error {
	return ErrInvalidConfig
}

// InvalidTargetError reports a target address that does not match the listing site pattern.
type InvalidTargetError struct {
	Target string
}

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("config: invalid target URL %q", e.Target)
}

// Unwrap lets errors.Is match ErrInvalidConfig.
func (e *InvalidTargetError) Unwrap() error {
	return ErrInvalidConfig
}
