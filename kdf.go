package cryptbackend

import (
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// deriveKey dispatches req to its KDF family and fills out. Both families
// end up behind one call shape: PBKDF2 reads only Iterations, Argon2 reads
// Iterations as its time cost plus Memory and Parallel.
//
// out is written only on success; the intermediate key is wiped before
// returning.
func deriveKey(req *KDFRequest, out []byte, maxMemoryKiB uint32) error {
	const op = "derive_key"

	if req == nil {
		return NewArgumentError(op, "request", nil, ErrInvalidArgument, "request cannot be nil")
	}
	if len(out) == 0 {
		return NewArgumentError(op, "length", 0, ErrInvalidLength, "output length cannot be zero")
	}

	var derive func() []byte
	switch {
	case req.KDF == KDFPBKDF2:
		alg, ok := lookupHash(req.Hash)
		if !ok {
			return unknownHash(op, req.Hash)
		}
		if err := checkPBKDF2(op, req); err != nil {
			return err
		}
		derive = func() []byte {
			return pbkdf2.Key(req.Password, req.Salt, int(req.Iterations), len(out), alg.newHash)
		}

	case strings.HasPrefix(req.KDF, argon2Prefix):
		var fn func(password, salt []byte, time, memory uint32, threads uint8, keyLen uint32) []byte
		switch req.KDF {
		case KDFArgon2i:
			fn = argon2.Key
		case KDFArgon2id:
			fn = argon2.IDKey
		default:
			return NewArgumentError(op, "kdf", req.KDF, ErrUnsupportedKdf,
				fmt.Sprintf("unsupported argon2 variant %q", req.KDF))
		}
		if err := checkArgon2(op, req, len(out), maxMemoryKiB); err != nil {
			return err
		}
		derive = func() []byte {
			return fn(req.Password, req.Salt, req.Iterations, req.Memory, uint8(req.Parallel), uint32(len(out)))
		}

	default:
		return NewArgumentError(op, "kdf", req.KDF, ErrUnsupportedKdf,
			fmt.Sprintf("unsupported key derivation function %q", req.KDF))
	}

	key := derive()
	defer Wipe(key)
	copy(out, key)
	return nil
}

// DeriveKey derives len(out) bytes of key material
func (p *goProvider) DeriveKey(req *KDFRequest, out []byte) error {
	return deriveKey(req, out, p.maxKDFMemoryKiB)
}
