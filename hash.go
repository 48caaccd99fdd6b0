package cryptbackend

import (
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/blake2s"
	"golang.org/x/crypto/ripemd160"
	"golang.org/x/crypto/sha3"
)

// maxDigestSize is the largest digest in the algorithm table
const maxDigestSize = 64

// hashAlgorithm binds a digest name to its constructor
type hashAlgorithm struct {
	name    string
	size    int
	newHash func() hash.Hash
}

var hashAlgorithms = map[string]hashAlgorithm{
	"sha1":        {"sha1", sha1.Size, sha1.New},
	"sha224":      {"sha224", sha256.Size224, sha256.New224},
	"sha256":      {"sha256", sha256.Size, sha256.New},
	"sha384":      {"sha384", sha512.Size384, sha512.New384},
	"sha512":      {"sha512", sha512.Size, sha512.New},
	"sha3-224":    {"sha3-224", 28, func() hash.Hash { return sha3.New224() }},
	"sha3-256":    {"sha3-256", 32, func() hash.Hash { return sha3.New256() }},
	"sha3-384":    {"sha3-384", 48, func() hash.Hash { return sha3.New384() }},
	"sha3-512":    {"sha3-512", 64, func() hash.Hash { return sha3.New512() }},
	"blake2b-512": {"blake2b-512", blake2b.Size, newBlake2b512},
	"blake2s-256": {"blake2s-256", blake2s.Size, newBlake2s256},
	"ripemd160":   {"ripemd160", ripemd160.Size, ripemd160.New},
}

func newBlake2b512() hash.Hash {
	// Only fails for keys longer than 64 bytes.
	h, _ := blake2b.New512(nil)
	return h
}

func newBlake2s256() hash.Hash {
	h, _ := blake2s.New256(nil)
	return h
}

// lookupHash resolves a digest name, ignoring case
func lookupHash(name string) (hashAlgorithm, bool) {
	alg, ok := hashAlgorithms[strings.ToLower(name)]
	return alg, ok
}

// HashAlgorithms returns the sorted names of all supported digests
func HashAlgorithms() []string {
	names := make([]string, 0, len(hashAlgorithms))
	for name := range hashAlgorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func unknownHash(op, name string) error {
	return NewArgumentError(op, "hash", name, ErrUnknownAlgorithm,
		fmt.Sprintf("unknown hash algorithm %q", name))
}

// goHash implements Hash for both plain digests and HMAC. For HMAC, Reset
// on the underlying state restores the keyed initial state, so a restart
// reuses the original key.
type goHash struct {
	alg  hashAlgorithm
	h    hash.Hash
	kind string // "hash" or "hmac", used in error ops
}

func (g *goHash) Write(p []byte) (int, error) {
	if g == nil {
		return 0, NewArgumentError("hash_write", "", nil, ErrDestroyed, "context already destroyed")
	}
	if g.h == nil {
		return 0, NewArgumentError(g.kind+"_write", "", nil, ErrDestroyed, "context already destroyed")
	}
	return g.h.Write(p)
}

func (g *goHash) Final(out []byte) error {
	if g == nil {
		return NewArgumentError("hash_final", "", nil, ErrDestroyed, "context already destroyed")
	}
	op := g.kind + "_final"
	if g.h == nil {
		return NewArgumentError(op, "", nil, ErrDestroyed, "context already destroyed")
	}
	if len(out) > g.alg.size {
		return NewArgumentError(op, "length", len(out), ErrInvalidLength,
			fmt.Sprintf("requested %d bytes, %s produces %d", len(out), g.alg.name, g.alg.size))
	}

	return withScratch(maxDigestSize, func(tmp []byte) error {
		sum := g.h.Sum(tmp[:0])
		if len(sum) < len(out) {
			return NewProviderError(op, ProviderGo, ErrProviderFailure,
				fmt.Errorf("short digest: %d bytes", len(sum)))
		}
		copy(out, sum)
		g.h.Reset()
		return nil
	})
}

func (g *goHash) Size() int {
	return g.alg.size
}

func (g *goHash) Algorithm() string {
	return g.alg.name
}

// Destroy releases the context. For HMAC the pad states inside crypto/hmac
// are unreachable from here and are left to the garbage collector.
func (g *goHash) Destroy() {
	if g == nil || g.h == nil {
		return
	}
	g.h.Reset()
	g.h = nil
}

// HashSize returns the digest length of name
func (p *goProvider) HashSize(name string) (int, error) {
	alg, ok := lookupHash(name)
	if !ok {
		return 0, unknownHash("hash_size", name)
	}
	return alg.size, nil
}

// NewHash creates a digest context bound to name
func (p *goProvider) NewHash(name string) (Hash, error) {
	alg, ok := lookupHash(name)
	if !ok {
		return nil, unknownHash("hash_init", name)
	}
	return &goHash{alg: alg, h: alg.newHash(), kind: "hash"}, nil
}
