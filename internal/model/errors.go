package model

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for missing fetch parameters and non-positive windows.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDivisionByZero is returned when a ratio's denominator is exactly zero.
	ErrDivisionByZero = errors.New("division by zero")
)

// ProviderError wraps a failure reported by a market-data provider.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
