package cryptbackend

import (
	"io"
)

// readRandom fills buf completely from r. On a short read the buffer is
// wiped so no partially filled or stale bytes reach the caller.
func readRandom(provider string, r io.Reader, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	if _, err := io.ReadFull(r, buf); err != nil {
		Wipe(buf)
		return NewProviderError("random_bytes", provider, ErrRngFailure, err)
	}
	return nil
}

// RandomBytes fills buf from the provider's generator. There is a single
// generator, so quality is ignored; when the Go runtime runs in FIPS 140-3
// mode crypto/rand already draws from the validated DRBG, which is what the
// fips hint asks for.
func (p *goProvider) RandomBytes(buf []byte, quality Quality, fips bool) error {
	return readRandom(ProviderGo, p.rand, buf)
}
