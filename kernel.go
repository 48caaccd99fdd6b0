package cryptbackend

import (
	"fmt"
)

// kernelProvider runs block ciphers through the kernel crypto API and
// delegates digests, HMAC, key derivation and random bytes to the Go
// provider, which is what the kernel backend of the C tool does too.
type kernelProvider struct {
	*goProvider
}

func newKernelProvider(opts ProviderOptions) (Provider, error) {
	return &kernelProvider{goProvider: newGoProvider(opts)}, nil
}

func (p *kernelProvider) Name() string {
	return ProviderKernel
}

// Init probes for a usable AF_ALG skcipher socket
func (p *kernelProvider) Init() error {
	if err := kernelCipherProbe(); err != nil {
		p.logger.Debug("kernel crypto API unavailable", "error", err)
		return &UnsupportedError{
			Op:       "backend_init",
			Provider: ProviderKernel,
			Name:     "af_alg",
			Err:      fmt.Errorf("%w: %w", ErrUnsupported, err),
		}
	}
	return p.goProvider.Init()
}

func (p *kernelProvider) Flags() Flags {
	return p.goProvider.Flags() | FlagKernelCipher
}

func (p *kernelProvider) Version() string {
	return fmt.Sprintf("kernel crypto API %s, %s", kernelRelease(), p.goProvider.Version())
}

// NewCipher creates a cipher context backed by two kernel operation
// sockets, one per direction
func (p *kernelProvider) NewCipher(name, mode string, key []byte) (Cipher, error) {
	const op = "cipher_init"
	if err := checkCipherParams(op, ProviderKernel, name, mode, len(key)); err != nil {
		return nil, err
	}
	c, err := newKernelCipher(mode, key)
	if err != nil {
		return nil, NewProviderError(op, ProviderKernel, ErrProviderFailure, err)
	}
	p.logger.Trace("kernel cipher ready", "algorithm", kernelAlgName(mode), "key_bits", len(key)*8)
	return c, nil
}

// kernelAlgName maps a mode to its kernel crypto API template name
func kernelAlgName(mode string) string {
	return mode + "(" + CipherAES + ")"
}
