package cryptbackend

import (
	"io"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Flags reports provider capability bits
type Flags uint32

const (
	// FlagArgon2 is set when the memory-hard KDF family is available
	FlagArgon2 Flags = 1 << iota
	// FlagKernelCipher is set when ciphers run in the kernel crypto API
	FlagKernelCipher
	// FlagFIPSRandom is set when the random source honors the FIPS hint
	FlagFIPSRandom
)

// Has reports whether all bits in other are set
func (f Flags) Has(other Flags) bool {
	return f&other == other
}

// String returns a comma separated list of the set flags
func (f Flags) String() string {
	var names []string
	if f.Has(FlagArgon2) {
		names = append(names, "argon2")
	}
	if f.Has(FlagKernelCipher) {
		names = append(names, "kernel-cipher")
	}
	if f.Has(FlagFIPSRandom) {
		names = append(names, "fips-random")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Quality is an advisory hint for the random source
type Quality uint8

const (
	// RandomNormal is for IVs, nonces and anti-forensic stripes
	RandomNormal Quality = iota
	// RandomSalt is for KDF salts
	RandomSalt
	// RandomKey is for volume and key-slot keys
	RandomKey
)

// String returns the string representation of the quality hint
func (q Quality) String() string {
	switch q {
	case RandomNormal:
		return "normal"
	case RandomSalt:
		return "salt"
	case RandomKey:
		return "key"
	default:
		return "unknown"
	}
}

// Cipher names and modes accepted by NewCipher
const (
	CipherAES = "aes"

	ModeXTS = "xts"
	ModeCBC = "cbc"
	ModeECB = "ecb"
)

// KDF selectors accepted by DeriveKey
const (
	KDFPBKDF2   = "pbkdf2"
	KDFArgon2i  = "argon2i"
	KDFArgon2id = "argon2id"

	argon2Prefix = "argon2"
)

// DefaultMaxKDFMemoryKiB caps the Argon2 memory cost (4 GiB)
const DefaultMaxKDFMemoryKiB = 4 * 1024 * 1024

// KDFRequest describes one key derivation. Cost fields are interpreted only
// by the family KDF selects: Iterations is the PBKDF2 iteration count or the
// Argon2 time cost; Memory (KiB) and Parallel are Argon2-only.
type KDFRequest struct {
	KDF        string // "pbkdf2", "argon2i" or "argon2id"
	Hash       string // Digest name, PBKDF2 only
	Password   []byte
	Salt       []byte
	Iterations uint32
	Memory     uint32
	Parallel   uint32
}

// Hash is a restartable digest or HMAC context. It is not safe for
// concurrent use.
type Hash interface {
	// Write appends p to the running digest. It never returns an error
	// for a live context.
	io.Writer

	// Final writes the first len(out) bytes of the digest to out and
	// restarts the context. len(out) must not exceed Size.
	Final(out []byte) error

	// Size returns the native digest length in bytes
	Size() int

	// Algorithm returns the canonical algorithm name
	Algorithm() string

	// Destroy releases the context and wipes any key material it holds
	Destroy()
}

// Cipher is a block cipher context with independent encrypt and decrypt
// sub-states bound to one key. It is not safe for concurrent use.
type Cipher interface {
	// Encrypt transforms len(src) bytes of src into dst using iv for this
	// call only
	Encrypt(dst, src, iv []byte) error

	// Decrypt transforms len(src) bytes of src into dst using iv for this
	// call only
	Decrypt(dst, src, iv []byte) error

	// BlockSize returns the cipher block size in bytes
	BlockSize() int

	// IVSize returns the IV length the mode expects, 0 for ECB
	IVSize() int

	// Destroy releases both sub-states. It is safe to call more than once.
	Destroy() error
}

// Provider is one concrete cryptographic implementation. Every provider
// must produce byte-identical results and the same error categories.
type Provider interface {
	Name() string
	Init() error
	Flags() Flags
	Version() string

	HashSize(name string) (int, error)
	NewHash(name string) (Hash, error)
	NewHMAC(name string, key []byte) (Hash, error)
	NewCipher(name, mode string, key []byte) (Cipher, error)
	DeriveKey(req *KDFRequest, out []byte) error
	RandomBytes(buf []byte, quality Quality, fips bool) error
}

// ProviderOptions are handed to a provider factory
type ProviderOptions struct {
	Logger          hclog.Logger
	Rand            io.Reader
	MaxKDFMemoryKiB uint32
}

// Config contains configuration for a Backend
type Config struct {
	// Provider selects the implementation by registered name. Empty
	// selects "go".
	Provider string

	// Logger receives lifecycle and failure events. Nil discards them.
	Logger hclog.Logger

	// Rand overrides the entropy source. Nil uses crypto/rand.
	Rand io.Reader

	// MaxKDFMemoryKiB caps the Argon2 memory cost. Zero uses
	// DefaultMaxKDFMemoryKiB.
	MaxKDFMemoryKiB uint32
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c == nil {
		return ErrNilConfig
	}
	name := c.Provider
	if name == "" {
		name = DefaultProvider
	}
	if !isRegistered(name) {
		return NewUnsupportedError("config", "", name, ErrUnknownProvider)
	}
	return nil
}
