//go:build !linux

package cryptbackend

import (
	"errors"
	"runtime"
)

var errNoAFALG = errors.New("kernel crypto API requires linux, running on " + runtime.GOOS)

// kernelCipher is never constructed off linux
type kernelCipher struct{ goCipher }

func newKernelCipher(mode string, key []byte) (*kernelCipher, error) {
	return nil, errNoAFALG
}

func kernelCipherProbe() error {
	return errNoAFALG
}

func kernelRelease() string {
	return runtime.GOOS
}
