package cryptbackend

import (
	"errors"
	"fmt"
)

// Error categories. Every error returned by this package matches exactly one
// of them with errors.Is, and Code maps them to the fixed negative codes the
// header layer keys its recovery logic off.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnsupported     = errors.New("operation not supported")
	ErrOutOfMemory     = errors.New("out of memory")
	ErrProviderFailure = errors.New("crypto provider failure")
)

// Specific sentinel errors, each wrapping its category
var (
	ErrNotInitialized    = fmt.Errorf("%w: crypto backend not initialized", ErrInvalidArgument)
	ErrUnknownAlgorithm  = fmt.Errorf("%w: unknown hash algorithm", ErrInvalidArgument)
	ErrInvalidLength     = fmt.Errorf("%w: invalid output length", ErrInvalidArgument)
	ErrInvalidKeyLength  = fmt.Errorf("%w: invalid key length for cipher mode", ErrInvalidArgument)
	ErrUnsupportedKdf    = fmt.Errorf("%w: unsupported key derivation function", ErrInvalidArgument)
	ErrNilBuffer         = fmt.Errorf("%w: buffer cannot be nil", ErrInvalidArgument)
	ErrNilConfig         = fmt.Errorf("%w: config cannot be nil", ErrInvalidArgument)
	ErrDestroyed         = fmt.Errorf("%w: context already destroyed", ErrInvalidArgument)
	ErrUnsupportedCipher = fmt.Errorf("%w: unsupported cipher", ErrUnsupported)
	ErrUnsupportedMode   = fmt.Errorf("%w: unsupported cipher mode", ErrUnsupported)
	ErrUnknownProvider   = fmt.Errorf("%w: unknown crypto provider", ErrUnsupported)
	ErrFailedTransform   = fmt.Errorf("%w: cipher transform failed", ErrProviderFailure)
	ErrRngFailure        = fmt.Errorf("%w: random number generator failed", ErrProviderFailure)
)

// Error codes returned by Code. The values are the Linux errno numbers,
// negated, which is what callers of the C backends have always seen.
const (
	CodeInvalidArgument = -22
	CodeUnsupported     = -95
	CodeOutOfMemory     = -12
)

// ArgumentError represents a caller logic error: a bad name, length or
// parameter. It is never worth retrying.
type ArgumentError struct {
	Op      string // Operation that rejected the argument, e.g. "hash_final"
	Field   string // The argument that failed validation
	Value   any    // The offending value, never key material
	Message string // Human-readable error message
	Err     error  // Underlying sentinel
}

func (e *ArgumentError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ArgumentError) Unwrap() error {
	if e.Err == nil {
		return ErrInvalidArgument
	}
	return e.Err
}

// UnsupportedError represents a well-formed request that the selected
// provider cannot serve.
type UnsupportedError struct {
	Op       string // Operation name
	Provider string // Provider that refused the request
	Name     string // Algorithm, mode or provider name that is not supported
	Err      error  // Underlying sentinel
}

func (e *UnsupportedError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %v: %q not supported by %s provider", e.Op, e.Unwrap(), e.Name, e.Provider)
	}
	return fmt.Sprintf("%s: %v: %q", e.Op, e.Unwrap(), e.Name)
}

func (e *UnsupportedError) Unwrap() error {
	if e.Err == nil {
		return ErrUnsupported
	}
	return e.Err
}

// ProviderError represents a failure of the underlying cryptographic call
// itself. The current operation produced no usable output.
type ProviderError struct {
	Op       string // Operation name, e.g. "cipher_encrypt"
	Provider string // Provider name
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *ProviderError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s (%s provider): %s", e.Op, e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ProviderError) Unwrap() error {
	if e.Err == nil {
		return ErrProviderFailure
	}
	return e.Err
}

// Helper functions for creating structured errors

// NewArgumentError creates a new argument error wrapping sentinel.
func NewArgumentError(op, field string, value any, sentinel error, message string) error {
	return &ArgumentError{
		Op:      op,
		Field:   field,
		Value:   value,
		Message: message,
		Err:     sentinel,
	}
}

// NewUnsupportedError creates a new unsupported error wrapping sentinel.
func NewUnsupportedError(op, provider, name string, sentinel error) error {
	return &UnsupportedError{
		Op:       op,
		Provider: provider,
		Name:     name,
		Err:      sentinel,
	}
}

// NewProviderError creates a new provider error. The cause err is joined
// with sentinel so both survive errors.Is.
func NewProviderError(op, provider string, sentinel, err error) error {
	pe := &ProviderError{
		Op:       op,
		Provider: provider,
		Err:      sentinel,
	}
	if err != nil {
		pe.Message = err.Error()
		if !errors.Is(err, sentinel) {
			pe.Err = errors.Join(sentinel, err)
		} else {
			pe.Err = err
		}
	} else {
		pe.Message = sentinel.Error()
	}
	return pe
}

// Error checking helpers

// IsArgumentError checks if an error is an argument error
func IsArgumentError(err error) bool {
	var ae *ArgumentError
	return errors.As(err, &ae)
}

// IsUnsupportedError checks if an error is an unsupported error
func IsUnsupportedError(err error) bool {
	var ue *UnsupportedError
	return errors.As(err, &ue)
}

// IsProviderError checks if an error is a provider error
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// Code maps err to one of the fixed negative error codes. Provider failures
// report as invalid argument, as the C providers do. Nil maps to 0.
func Code(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrOutOfMemory):
		return CodeOutOfMemory
	case errors.Is(err, ErrUnsupported):
		return CodeUnsupported
	default:
		return CodeInvalidArgument
	}
}
