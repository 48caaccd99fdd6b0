package cryptbackend

import (
	"crypto/fips140"
	"crypto/rand"
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Built-in provider names
const (
	// ProviderGo is the userspace provider built on crypto/* and
	// golang.org/x/crypto
	ProviderGo = "go"
	// ProviderKernel runs ciphers in the Linux kernel crypto API and
	// everything else in userspace
	ProviderKernel = "kernel"

	// DefaultProvider is used when Config.Provider is empty
	DefaultProvider = ProviderGo
)

// ProviderFactory creates a provider instance
type ProviderFactory func(opts ProviderOptions) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]ProviderFactory{
		ProviderGo:     func(opts ProviderOptions) (Provider, error) { return newGoProvider(opts), nil },
		ProviderKernel: newKernelProvider,
	}
)

// RegisterProvider makes a provider available by name. Registering a name
// twice replaces the earlier factory.
func RegisterProvider(name string, factory ProviderFactory) error {
	if name == "" {
		return NewArgumentError("register_provider", "name", name, ErrInvalidArgument, "provider name cannot be empty")
	}
	if factory == nil {
		return NewArgumentError("register_provider", "factory", nil, ErrInvalidArgument, "provider factory cannot be nil")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
	return nil
}

// Providers returns the sorted names of all registered providers
func Providers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isRegistered(name string) bool {
	registryMu.RLock()
	defer registryMu.RUnlock()
	_, ok := registry[name]
	return ok
}

func newProvider(name string, opts ProviderOptions) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, NewUnsupportedError("backend_init", "", name, ErrUnknownProvider)
	}
	return factory(opts)
}

// goProvider is the reference provider
type goProvider struct {
	logger          hclog.Logger
	rand            io.Reader
	maxKDFMemoryKiB uint32
}

func newGoProvider(opts ProviderOptions) *goProvider {
	p := &goProvider{
		logger:          opts.Logger,
		rand:            opts.Rand,
		maxKDFMemoryKiB: opts.MaxKDFMemoryKiB,
	}
	if p.logger == nil {
		p.logger = hclog.NewNullLogger()
	}
	if p.rand == nil {
		p.rand = rand.Reader
	}
	if p.maxKDFMemoryKiB == 0 {
		p.maxKDFMemoryKiB = DefaultMaxKDFMemoryKiB
	}
	return p
}

func (p *goProvider) Name() string {
	return ProviderGo
}

// Init has nothing to set up: the algorithm tables are static
func (p *goProvider) Init() error {
	p.logger.Trace("provider ready", "hashes", len(hashAlgorithms))
	return nil
}

func (p *goProvider) Flags() Flags {
	flags := FlagArgon2
	if fips140.Enabled() {
		flags |= FlagFIPSRandom
	}
	return flags
}

func (p *goProvider) Version() string {
	return fmt.Sprintf("%s crypto, golang.org/x/crypto", runtime.Version())
}
