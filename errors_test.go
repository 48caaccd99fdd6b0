package cryptbackend

import (
	"errors"
	"fmt"
	"testing"
)

func TestArgumentError(t *testing.T) {
	tests := []struct {
		name    string
		err     *ArgumentError
		wantMsg string
		wantIs  error
	}{
		{
			name: "with field",
			err: &ArgumentError{
				Op:      "hash_final",
				Field:   "length",
				Value:   33,
				Message: "sha256 digest is 32 bytes, requested 33",
				Err:     ErrInvalidLength,
			},
			wantMsg: "hash_final: invalid length: sha256 digest is 32 bytes, requested 33",
			wantIs:  ErrInvalidLength,
		},
		{
			name: "without field",
			err: &ArgumentError{
				Op:      "hash_init",
				Message: "crypto backend not initialized",
				Err:     ErrNotInitialized,
			},
			wantMsg: "hash_init: crypto backend not initialized",
			wantIs:  ErrNotInitialized,
		},
		{
			name: "no sentinel",
			err: &ArgumentError{
				Op:      "derive_key",
				Field:   "salt",
				Message: "too short",
			},
			wantMsg: "derive_key: invalid salt: too short",
			wantIs:  ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("ArgumentError.Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, tt.wantIs) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.wantIs)
			}
			if !errors.Is(tt.err, ErrInvalidArgument) {
				t.Error("ArgumentError should be in the invalid argument category")
			}
		})
	}
}

func TestUnsupportedError(t *testing.T) {
	tests := []struct {
		name    string
		err     *UnsupportedError
		wantMsg string
	}{
		{
			name: "with provider",
			err: &UnsupportedError{
				Op:       "cipher_init",
				Provider: "go",
				Name:     "serpent",
				Err:      ErrUnsupportedCipher,
			},
			wantMsg: `cipher_init: operation not supported: unsupported cipher: "serpent" not supported by go provider`,
		},
		{
			name: "without provider",
			err: &UnsupportedError{
				Op:   "config",
				Name: "openssl",
				Err:  ErrUnknownProvider,
			},
			wantMsg: `config: operation not supported: unknown crypto provider: "openssl"`,
		},
		{
			name: "no sentinel",
			err: &UnsupportedError{
				Op:   "cipher_init",
				Name: "gcm",
			},
			wantMsg: `cipher_init: operation not supported: "gcm"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("UnsupportedError.Error() = %q, want %q", got, tt.wantMsg)
			}
			if !errors.Is(tt.err, ErrUnsupported) {
				t.Error("UnsupportedError should be in the unsupported category")
			}
		})
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("sendmsg: bad file descriptor")

	err := NewProviderError("cipher_encrypt", "kernel", ErrFailedTransform, cause)
	if got, want := err.Error(), "cipher_encrypt (kernel provider): sendmsg: bad file descriptor"; got != want {
		t.Errorf("ProviderError.Error() = %q, want %q", got, want)
	}
	for _, target := range []error{ErrFailedTransform, ErrProviderFailure, cause} {
		if !errors.Is(err, target) {
			t.Errorf("errors.Is(err, %v) = false", target)
		}
	}

	// An already categorized cause keeps its own chain
	wrapped := fmt.Errorf("%w: short read", ErrRngFailure)
	err = NewProviderError("random_bytes", "go", ErrRngFailure, wrapped)
	if !errors.Is(err, ErrRngFailure) {
		t.Error("errors.Is(err, ErrRngFailure) = false")
	}

	err = NewProviderError("cipher_init", "", ErrProviderFailure, nil)
	if got, want := err.Error(), "cipher_init: crypto provider failure"; got != want {
		t.Errorf("ProviderError.Error() = %q, want %q", got, want)
	}
}

// Every sentinel belongs to exactly one category
func TestSentinelCategories(t *testing.T) {
	categories := []error{ErrInvalidArgument, ErrUnsupported, ErrOutOfMemory, ErrProviderFailure}

	tests := []struct {
		err  error
		want error
	}{
		{ErrNotInitialized, ErrInvalidArgument},
		{ErrUnknownAlgorithm, ErrInvalidArgument},
		{ErrInvalidLength, ErrInvalidArgument},
		{ErrInvalidKeyLength, ErrInvalidArgument},
		{ErrUnsupportedKdf, ErrInvalidArgument},
		{ErrNilBuffer, ErrInvalidArgument},
		{ErrNilConfig, ErrInvalidArgument},
		{ErrDestroyed, ErrInvalidArgument},
		{ErrUnsupportedCipher, ErrUnsupported},
		{ErrUnsupportedMode, ErrUnsupported},
		{ErrUnknownProvider, ErrUnsupported},
		{ErrFailedTransform, ErrProviderFailure},
		{ErrRngFailure, ErrProviderFailure},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			for _, c := range categories {
				if got, want := errors.Is(tt.err, c), c == tt.want; got != want {
					t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, c, got, want)
				}
			}
		})
	}
}

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"invalid argument", ErrInvalidArgument, CodeInvalidArgument},
		{"unknown algorithm", NewArgumentError("hash_init", "name", "md4", ErrUnknownAlgorithm, "unknown"), CodeInvalidArgument},
		{"unsupported kdf", ErrUnsupportedKdf, CodeInvalidArgument},
		{"unsupported mode", NewUnsupportedError("cipher_init", "go", "ctr", ErrUnsupportedMode), CodeUnsupported},
		{"out of memory", NewArgumentError("derive_key", "memory", 1, ErrOutOfMemory, "too big"), CodeOutOfMemory},
		{"provider failure", NewProviderError("cipher_encrypt", "go", ErrFailedTransform, nil), CodeInvalidArgument},
		{"foreign error", errors.New("something else"), CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.want {
				t.Errorf("Code(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestErrorCheckers(t *testing.T) {
	ae := NewArgumentError("op", "f", nil, ErrInvalidArgument, "test")
	ue := NewUnsupportedError("op", "go", "x", ErrUnsupported)
	pe := NewProviderError("op", "go", ErrProviderFailure, nil)
	genericErr := errors.New("generic error")
	wrapped := fmt.Errorf("context: %w", ae)

	tests := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"IsArgumentError with ArgumentError", ae, IsArgumentError, true},
		{"IsArgumentError with wrapped ArgumentError", wrapped, IsArgumentError, true},
		{"IsArgumentError with other error", genericErr, IsArgumentError, false},
		{"IsUnsupportedError with UnsupportedError", ue, IsUnsupportedError, true},
		{"IsUnsupportedError with ArgumentError", ae, IsUnsupportedError, false},
		{"IsProviderError with ProviderError", pe, IsProviderError, true},
		{"IsProviderError with other error", genericErr, IsProviderError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("error checker = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	t.Run("NewArgumentError", func(t *testing.T) {
		err := NewArgumentError("cipher_init", "key", 48, ErrInvalidKeyLength, "bad key")
		ae, ok := err.(*ArgumentError)
		if !ok {
			t.Fatalf("NewArgumentError returned %T", err)
		}
		if ae.Op != "cipher_init" || ae.Field != "key" || ae.Value != 48 || ae.Err != ErrInvalidKeyLength {
			t.Errorf("NewArgumentError fields incorrect: %+v", ae)
		}
	})

	t.Run("NewUnsupportedError", func(t *testing.T) {
		err := NewUnsupportedError("cipher_init", "kernel", "cbc", ErrUnsupportedMode)
		ue, ok := err.(*UnsupportedError)
		if !ok {
			t.Fatalf("NewUnsupportedError returned %T", err)
		}
		if ue.Provider != "kernel" || ue.Name != "cbc" {
			t.Errorf("NewUnsupportedError fields incorrect: %+v", ue)
		}
	})
}
