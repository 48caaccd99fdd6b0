package cryptbackend

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
)

// Backend is the lifecycle handle the header and key-slot layers hold. It
// gates every engine on a successful Init and forwards to the selected
// provider.
//
// Init and Destroy are serialized, but Destroy must not be called while
// other goroutines still use contexts created through the Backend.
type Backend struct {
	id       uuid.UUID
	provider Provider
	logger   hclog.Logger

	mu    sync.Mutex
	ready atomic.Bool
}

// New creates a Backend for the provider named in config. The provider is
// not initialized until Init is called.
func New(config *Config) (*Backend, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	name := config.Provider
	if name == "" {
		name = DefaultProvider
	}

	id := uuid.New()
	logger := config.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	logger = logger.Named("cryptbackend").With("backend_id", id.String(), "provider", name)

	provider, err := newProvider(name, ProviderOptions{
		Logger:          logger,
		Rand:            config.Rand,
		MaxKDFMemoryKiB: config.MaxKDFMemoryKiB,
	})
	if err != nil {
		return nil, err
	}

	return &Backend{
		id:       id,
		provider: provider,
		logger:   logger,
	}, nil
}

// Init performs provider setup. Calling it again after success is a no-op.
// A failed Init leaves the Backend unusable until a later Init succeeds.
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready.Load() {
		return nil
	}
	if err := b.provider.Init(); err != nil {
		b.logger.Error("backend init failed", "error", err)
		return err
	}
	b.ready.Store(true)
	b.logger.Debug("backend initialized", "version", b.provider.Version(), "flags", b.provider.Flags().String())
	return nil
}

// IsReady reports whether Init has succeeded since the last Destroy
func (b *Backend) IsReady() bool {
	return b.ready.Load()
}

// Destroy clears the initialized state. Init may be called again afterwards.
func (b *Backend) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ready.Swap(false) {
		b.logger.Debug("backend destroyed")
	}
}

// ID returns the instance identifier used in log lines
func (b *Backend) ID() uuid.UUID {
	return b.id
}

// ProviderName returns the name of the selected provider
func (b *Backend) ProviderName() string {
	return b.provider.Name()
}

// Flags reports provider capability bits
func (b *Backend) Flags() Flags {
	return b.provider.Flags()
}

// Version returns a human-readable provider identity for diagnostics
func (b *Backend) Version() string {
	return b.provider.Version()
}

func (b *Backend) check(op string) error {
	if !b.ready.Load() {
		return NewArgumentError(op, "", nil, ErrNotInitialized, "crypto backend not initialized")
	}
	return nil
}

// failed logs a failed operation and returns err unchanged. Only error
// categories are logged, never buffers.
func (b *Backend) failed(op string, err error) error {
	b.logger.Debug("operation failed", "op", op, "code", Code(err), "error", err)
	return err
}

// HashSize returns the native digest length of the named algorithm
func (b *Backend) HashSize(name string) (int, error) {
	const op = "hash_size"
	if err := b.check(op); err != nil {
		return 0, err
	}
	n, err := b.provider.HashSize(name)
	if err != nil {
		return 0, b.failed(op, err)
	}
	return n, nil
}

// HMACSize returns the MAC length of the named algorithm
func (b *Backend) HMACSize(name string) (int, error) {
	return b.HashSize(name)
}

// NewHash creates a restartable digest context
func (b *Backend) NewHash(name string) (Hash, error) {
	const op = "hash_init"
	if err := b.check(op); err != nil {
		return nil, err
	}
	h, err := b.provider.NewHash(name)
	if err != nil {
		return nil, b.failed(op, err)
	}
	return h, nil
}

// NewHMAC creates a restartable HMAC context keyed with key
func (b *Backend) NewHMAC(name string, key []byte) (Hash, error) {
	const op = "hmac_init"
	if err := b.check(op); err != nil {
		return nil, err
	}
	h, err := b.provider.NewHMAC(name, key)
	if err != nil {
		return nil, b.failed(op, err)
	}
	return h, nil
}

// NewCipher creates a cipher context for name in mode with key
func (b *Backend) NewCipher(name, mode string, key []byte) (Cipher, error) {
	const op = "cipher_init"
	if err := b.check(op); err != nil {
		return nil, err
	}
	c, err := b.provider.NewCipher(name, mode, key)
	if err != nil {
		return nil, b.failed(op, err)
	}
	return c, nil
}

// DestroyCipher releases c. A nil c is a no-op.
func DestroyCipher(c Cipher) error {
	if c == nil {
		return nil
	}
	return c.Destroy()
}

// DeriveKey derives len(out) bytes from req. On failure out is unchanged.
func (b *Backend) DeriveKey(req *KDFRequest, out []byte) error {
	const op = "derive_key"
	if err := b.check(op); err != nil {
		return err
	}
	if err := b.provider.DeriveKey(req, out); err != nil {
		return b.failed(op, err)
	}
	return nil
}

// RandomBytes fills buf with cryptographically strong random bytes. quality
// and fips are hints a provider may use to pick its entropy path.
func (b *Backend) RandomBytes(buf []byte, quality Quality, fips bool) error {
	const op = "random_bytes"
	if err := b.check(op); err != nil {
		return err
	}
	if err := b.provider.RandomBytes(buf, quality, fips); err != nil {
		return b.failed(op, err)
	}
	return nil
}
