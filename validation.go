package cryptbackend

import (
	"crypto/aes"
	"fmt"
	"math"
	"slices"
)

// Argument checks shared by every provider. Providers call these before
// touching their own primitives so that unsupported and malformed requests
// fail identically whichever provider is linked in.

// Argon2 limits of the reference implementation
const (
	argon2MinSalt       = 8
	argon2MinOutput     = 4
	argon2MaxParallel   = 255
	argon2BlocksPerLane = 8
)

// checkCipherParams validates a cipher request against the support matrix
func checkCipherParams(op, provider, name, mode string, keyLen int) error {
	if name != CipherAES {
		return NewUnsupportedError(op, provider, name, ErrUnsupportedCipher)
	}
	sizes, ok := cipherKeySizes[mode]
	if !ok {
		return NewUnsupportedError(op, provider, mode, ErrUnsupportedMode)
	}
	if !slices.Contains(sizes, keyLen) {
		return NewArgumentError(op, "key", keyLen, ErrInvalidKeyLength,
			fmt.Sprintf("aes-%s accepts %v byte keys, got %d", mode, sizes, keyLen))
	}
	return nil
}

// ivSize returns the IV length a mode consumes
func ivSize(mode string) int {
	if mode == ModeECB {
		return 0
	}
	return aes.BlockSize
}

// checkTransform validates the per-call cipher arguments. A length that is
// not a whole number of blocks is reported as a failed transform, not as a
// bad argument, because that is how the C providers surface it.
func checkTransform(op, provider, mode string, dst, src, iv []byte) error {
	if len(dst) < len(src) {
		return NewArgumentError(op, "dst", len(dst), ErrInvalidLength,
			fmt.Sprintf("output buffer holds %d bytes, input is %d", len(dst), len(src)))
	}
	if n := ivSize(mode); n > 0 && len(iv) != n {
		return NewArgumentError(op, "iv", len(iv), ErrInvalidArgument,
			fmt.Sprintf("aes-%s needs a %d byte iv, got %d", mode, n, len(iv)))
	}
	if len(src)%aes.BlockSize != 0 {
		return NewProviderError(op, provider, ErrFailedTransform,
			fmt.Errorf("length %d is not a multiple of the %d byte block", len(src), aes.BlockSize))
	}
	if mode == ModeXTS && len(src) == 0 {
		return NewProviderError(op, provider, ErrFailedTransform,
			fmt.Errorf("xts needs at least one block"))
	}
	if inexactOverlap(dst[:len(src)], src) {
		return NewArgumentError(op, "dst", nil, ErrInvalidArgument,
			"dst and src overlap without being identical")
	}
	return nil
}

// checkPBKDF2 validates the iteration count. x/crypto/pbkdf2 takes an int,
// so counts above math.MaxInt are rejected on 32-bit platforms.
func checkPBKDF2(op string, req *KDFRequest) error {
	if req.Iterations < 1 {
		return NewArgumentError(op, "iterations", req.Iterations, ErrInvalidArgument,
			"pbkdf2 needs at least one iteration")
	}
	if uint64(req.Iterations) > math.MaxInt {
		return NewArgumentError(op, "iterations", req.Iterations, ErrInvalidArgument,
			fmt.Sprintf("pbkdf2 iteration count exceeds %d", math.MaxInt))
	}
	return nil
}

// checkArgon2 validates the Argon2 cost triple, salt and output length
func checkArgon2(op string, req *KDFRequest, keyLen int, maxMemoryKiB uint32) error {
	switch {
	case req.Iterations < 1:
		return NewArgumentError(op, "iterations", req.Iterations, ErrInvalidArgument,
			"argon2 time cost must be at least 1")
	case req.Parallel < 1 || req.Parallel > argon2MaxParallel:
		return NewArgumentError(op, "parallel", req.Parallel, ErrInvalidArgument,
			fmt.Sprintf("argon2 parallelism must be between 1 and %d", argon2MaxParallel))
	case uint64(req.Memory) < argon2BlocksPerLane*uint64(req.Parallel):
		return NewArgumentError(op, "memory", req.Memory, ErrInvalidArgument,
			fmt.Sprintf("argon2 memory cost must be at least %d KiB per lane", argon2BlocksPerLane))
	case req.Memory > maxMemoryKiB:
		return NewArgumentError(op, "memory", req.Memory, ErrOutOfMemory,
			fmt.Sprintf("argon2 memory cost %d KiB exceeds limit of %d KiB", req.Memory, maxMemoryKiB))
	case len(req.Salt) < argon2MinSalt:
		return NewArgumentError(op, "salt", len(req.Salt), ErrInvalidArgument,
			fmt.Sprintf("argon2 salt must be at least %d bytes", argon2MinSalt))
	case keyLen < argon2MinOutput || uint64(keyLen) > math.MaxUint32:
		return NewArgumentError(op, "length", keyLen, ErrInvalidLength,
			fmt.Sprintf("argon2 output must be between %d and %d bytes", argon2MinOutput, uint32(math.MaxUint32)))
	}
	return nil
}
