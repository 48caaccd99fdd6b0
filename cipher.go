package cryptbackend

import (
	"crypto/aes"
	"crypto/cipher"
	"slices"
)

// cipherKeySizes is the mode/key-length compatibility matrix for AES.
// XTS keys are two AES keys back to back.
var cipherKeySizes = map[string][]int{
	ModeXTS: {32, 64},
	ModeCBC: {16, 24, 32},
	ModeECB: {16, 24, 32},
}

// CipherKeySizes returns the key lengths, in bytes, allowed for mode. It
// returns nil for an unsupported mode.
func CipherKeySizes(mode string) []int {
	return slices.Clone(cipherKeySizes[mode])
}

// CipherModes returns the supported cipher modes
func CipherModes() []string {
	return []string{ModeXTS, ModeCBC, ModeECB}
}

// blockState is one direction of a cipher context
type blockState struct {
	mode    string
	decrypt bool
	data    cipher.Block
	tweak   cipher.Block // xts only
}

func newBlockState(mode string, key []byte, decrypt bool) (*blockState, error) {
	s := &blockState{mode: mode, decrypt: decrypt}

	dataKey := key
	if mode == ModeXTS {
		dataKey = key[:len(key)/2]
		tweak, err := aes.NewCipher(key[len(key)/2:])
		if err != nil {
			return nil, err
		}
		s.tweak = tweak
	}

	data, err := aes.NewCipher(dataKey)
	if err != nil {
		return nil, err
	}
	s.data = data
	return s, nil
}

// transform runs the mode over src. The arguments have been checked.
func (s *blockState) transform(dst, src, iv []byte) {
	switch s.mode {
	case ModeXTS:
		xtsCrypt(s.data, s.tweak, dst, src, iv, s.decrypt)
	case ModeCBC:
		var bm cipher.BlockMode
		if s.decrypt {
			bm = cipher.NewCBCDecrypter(s.data, iv)
		} else {
			bm = cipher.NewCBCEncrypter(s.data, iv)
		}
		bm.CryptBlocks(dst, src)
	case ModeECB:
		ecbCrypt(s.data, dst, src, s.decrypt)
	}
}

// goCipher implements Cipher with crypto/aes. The IV is applied to a fresh
// mode instance on every call; nothing but the expanded key outlives a call.
type goCipher struct {
	mode string
	enc  *blockState
	dec  *blockState
}

// NewCipher creates a cipher context with padding disabled
func (p *goProvider) NewCipher(name, mode string, key []byte) (Cipher, error) {
	const op = "cipher_init"
	if err := checkCipherParams(op, ProviderGo, name, mode, len(key)); err != nil {
		return nil, err
	}

	enc, err := newBlockState(mode, key, false)
	if err != nil {
		return nil, NewProviderError(op, ProviderGo, ErrProviderFailure, err)
	}
	dec, err := newBlockState(mode, key, true)
	if err != nil {
		return nil, NewProviderError(op, ProviderGo, ErrProviderFailure, err)
	}

	return &goCipher{mode: mode, enc: enc, dec: dec}, nil
}

func (c *goCipher) Encrypt(dst, src, iv []byte) error {
	return c.crypt("cipher_encrypt", false, dst, src, iv)
}

func (c *goCipher) Decrypt(dst, src, iv []byte) error {
	return c.crypt("cipher_decrypt", true, dst, src, iv)
}

func (c *goCipher) crypt(op string, decrypt bool, dst, src, iv []byte) error {
	var s *blockState
	if c != nil {
		s = c.enc
		if decrypt {
			s = c.dec
		}
	}
	if s == nil {
		return NewArgumentError(op, "", nil, ErrDestroyed, "context already destroyed")
	}
	if err := checkTransform(op, ProviderGo, c.mode, dst, src, iv); err != nil {
		return err
	}
	s.transform(dst[:len(src)], src, iv)
	return nil
}

func (c *goCipher) BlockSize() int {
	return aes.BlockSize
}

func (c *goCipher) IVSize() int {
	if c == nil {
		return 0
	}
	return ivSize(c.mode)
}

// Destroy drops both sub-states. The expanded AES key schedules are owned
// by crypto/aes and become unreachable here.
func (c *goCipher) Destroy() error {
	if c == nil {
		return nil
	}
	c.enc = nil
	c.dec = nil
	return nil
}
