package cryptbackend

import (
	"crypto/subtle"
	"runtime"
)

// Wipe overwrites b with zeros.
//
// The Go runtime may have copied the data elsewhere (stack growth, GC), so
// this is not a guarantee that no copy survives, but it clears the buffers
// this package owns.
func Wipe(b []byte) {
	if len(b) == 0 {
		return
	}
	subtle.ConstantTimeCopy(1, b, make([]byte, len(b)))
	runtime.KeepAlive(b)
}

// WipeAll wipes every slice in bs
func WipeAll(bs ...[]byte) {
	for _, b := range bs {
		Wipe(b)
	}
}

// withScratch hands fn a size-byte scratch buffer and wipes it after fn
// returns, on every path including a panic.
func withScratch(size int, fn func(scratch []byte) error) error {
	scratch := make([]byte, size)
	defer Wipe(scratch)
	return fn(scratch)
}
