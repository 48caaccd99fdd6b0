package cryptbackend

import (
	"crypto/aes"
	"crypto/cipher"
	"unsafe"
)

// xtsCrypt runs XTS (IEEE P1619) over whole blocks. Unlike
// golang.org/x/crypto/xts, which takes a 64-bit sector number, the tweak is
// the full 16-byte IV the caller passed, so IV generators that fill the high
// half (plain64be, essiv-style tweaks) work unchanged.
func xtsCrypt(data, tweakCipher cipher.Block, dst, src, iv []byte, decrypt bool) {
	var tweak [aes.BlockSize]byte
	tweakCipher.Encrypt(tweak[:], iv)

	var buf [aes.BlockSize]byte
	for i := 0; i < len(src); i += aes.BlockSize {
		for j := range buf {
			buf[j] = src[i+j] ^ tweak[j]
		}
		if decrypt {
			data.Decrypt(buf[:], buf[:])
		} else {
			data.Encrypt(buf[:], buf[:])
		}
		for j := range buf {
			dst[i+j] = buf[j] ^ tweak[j]
		}
		mul2(&tweak)
	}

	Wipe(tweak[:])
	Wipe(buf[:])
}

// mul2 multiplies tweak by x in GF(2¹²⁸) modulo x¹²⁸ + x⁷ + x² + x + 1,
// little-endian byte order.
func mul2(tweak *[aes.BlockSize]byte) {
	var carryIn byte
	for j := range tweak {
		carryOut := tweak[j] >> 7
		tweak[j] = (tweak[j] << 1) + carryIn
		carryIn = carryOut
	}
	if carryIn != 0 {
		tweak[0] ^= 1<<7 | 1<<2 | 1<<1 | 1
	}
}

// ecbCrypt encrypts or decrypts each block independently. The standard
// library deliberately has no ECB BlockMode.
func ecbCrypt(block cipher.Block, dst, src []byte, decrypt bool) {
	bs := block.BlockSize()
	for i := 0; i < len(src); i += bs {
		if decrypt {
			block.Decrypt(dst[i:i+bs], src[i:i+bs])
		} else {
			block.Encrypt(dst[i:i+bs], src[i:i+bs])
		}
	}
}

// inexactOverlap reports whether x and y share memory at any non-matching
// offset. Identical slices are fine for in-place operation.
func inexactOverlap(x, y []byte) bool {
	if len(x) == 0 || len(y) == 0 || &x[0] == &y[0] {
		return false
	}
	return uintptr(unsafe.Pointer(&x[0])) <= uintptr(unsafe.Pointer(&y[len(y)-1])) &&
		uintptr(unsafe.Pointer(&y[0])) <= uintptr(unsafe.Pointer(&x[len(x)-1]))
}
