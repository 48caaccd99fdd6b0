// Package cryptbackend is the cryptographic backend of a full-disk-encryption
// management tool. It gives the volume-header and key-slot code one set of
// primitives (digest, HMAC, block cipher, key derivation, random bytes)
// whatever provider is actually doing the work.
//
// # Overview
//
// A Backend wraps one Provider selected by name. The caller creates it once,
// calls Init, and then opens contexts as needed:
//
//	b, err := cryptbackend.New(&cryptbackend.Config{Provider: "go"})
//	if err != nil {
//	    return err
//	}
//	if err := b.Init(); err != nil {
//	    return err
//	}
//	defer b.Destroy()
//
//	key := make([]byte, 64)
//	err = b.DeriveKey(&cryptbackend.KDFRequest{
//	    KDF:        "argon2id",
//	    Password:   passphrase,
//	    Salt:       salt,
//	    Iterations: 4,
//	    Memory:     1024 * 1024, // KiB
//	    Parallel:   4,
//	}, key)
//
//	c, err := b.NewCipher("aes", "xts", key)
//	...
//	err = c.Decrypt(plain, sealed, iv)
//
// # Providers
//
//   - "go": crypto/* and golang.org/x/crypto. Always available.
//   - "kernel": AES through the Linux kernel crypto API (AF_ALG); digests,
//     HMAC, KDF and random bytes come from the Go provider. Init fails with
//     ErrUnsupported where AF_ALG is missing.
//
// Every provider accepts the same requests, returns the same output lengths
// and reports the same error categories.
//
// # Digest and HMAC
//
// Final writes the first len(out) bytes of the digest and restarts the
// context, so one context can checksum many independent messages without
// looking the algorithm up again. HMAC contexts restart with the original
// key.
//
// Supported digests: sha1, sha224, sha256, sha384, sha512, sha3-224,
// sha3-256, sha3-384, sha3-512, blake2b-512, blake2s-256, ripemd160.
//
// # Ciphers
//
// Only "aes" is supported, with padding always off:
//
//	mode  key lengths (bytes)
//	xts   32, 64
//	cbc   16, 24, 32
//	ecb   16, 24, 32
//
// The IV is passed on every call and never stored. For XTS the 16-byte IV
// is the tweak, normally the sector number in little-endian order.
//
// # Key Derivation
//
// DeriveKey accepts "pbkdf2" (with any supported digest), "argon2i" and
// "argon2id". Argon2 memory is expressed in KiB.
//
// # Errors
//
// Errors match one of ErrInvalidArgument, ErrUnsupported, ErrOutOfMemory or
// ErrProviderFailure with errors.Is, and Code returns the matching negative
// errno value.
//
// # Memory Hygiene
//
// Scratch buffers holding digests, MACs or derived keys are wiped before
// the call returns, on success and on failure. The Go runtime may still
// hold copies made by the garbage collector or stack growth; Wipe narrows
// the window, it does not close it.
//
// HMAC contexts are the same. crypto/hmac keeps the key-derived inner and
// outer pad states in unexported fields, so Destroy resets the hash and
// drops the reference but cannot zero those states. They stay in memory
// until the collector reclaims them.
package cryptbackend
