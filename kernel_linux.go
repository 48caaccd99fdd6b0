//go:build linux

package cryptbackend

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sys/unix"
)

// kernelCipher holds one AF_ALG transform socket with the key set and two
// operation sockets accepted from it, so encrypt and decrypt never share
// state. The op and IV travel with every sendmsg as control messages.
type kernelCipher struct {
	mode string
	tfm  int
	enc  int
	dec  int
}

func newKernelCipher(mode string, key []byte) (*kernelCipher, error) {
	tfm, err := bindSkcipher(kernelAlgName(mode))
	if err != nil {
		return nil, err
	}
	c := &kernelCipher{mode: mode, tfm: tfm, enc: -1, dec: -1}

	if err := setKey(tfm, key); err != nil {
		_ = c.Destroy()
		return nil, fmt.Errorf("set key: %w", err)
	}
	if c.enc, err = acceptOp(tfm); err != nil {
		_ = c.Destroy()
		return nil, fmt.Errorf("accept encrypt socket: %w", err)
	}
	if c.dec, err = acceptOp(tfm); err != nil {
		_ = c.Destroy()
		return nil, fmt.Errorf("accept decrypt socket: %w", err)
	}
	return c, nil
}

func bindSkcipher(name string) (int, error) {
	fd, err := unix.Socket(unix.AF_ALG, unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("af_alg socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrALG{Type: "skcipher", Name: name}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind %s: %w", name, err)
	}
	return fd, nil
}

// setKey passes the key by pointer; SetsockoptString would leave an
// unwipeable string copy behind.
func setKey(fd int, key []byte) error {
	_, _, errno := unix.Syscall6(unix.SYS_SETSOCKOPT, uintptr(fd), unix.SOL_ALG, unix.ALG_SET_KEY,
		uintptr(unsafe.Pointer(&key[0])), uintptr(len(key)), 0)
	if errno != 0 {
		return errno
	}
	return nil
}

// acceptOp accepts an operation socket. unix.Accept4 cannot be used: the
// kernel returns no peer address for AF_ALG and the sockaddr conversion
// fails.
func acceptOp(tfm int) (int, error) {
	fd, _, errno := unix.Syscall6(unix.SYS_ACCEPT4, uintptr(tfm), 0, 0, unix.SOCK_CLOEXEC, 0, 0)
	if errno != 0 {
		return -1, errno
	}
	return int(fd), nil
}

// algControl builds the ALG_SET_OP and, when iv is non-empty, ALG_SET_IV
// control messages for one operation.
func algControl(algOp uint32, iv []byte) []byte {
	opSpace := unix.CmsgSpace(4)
	size := opSpace
	if len(iv) > 0 {
		size += unix.CmsgSpace(4 + len(iv))
	}
	oob := make([]byte, size)

	h := (*unix.Cmsghdr)(unsafe.Pointer(&oob[0]))
	h.Level = unix.SOL_ALG
	h.Type = unix.ALG_SET_OP
	h.SetLen(unix.CmsgLen(4))
	binary.NativeEndian.PutUint32(oob[unix.CmsgLen(0):], algOp)

	if len(iv) > 0 {
		h = (*unix.Cmsghdr)(unsafe.Pointer(&oob[opSpace]))
		h.Level = unix.SOL_ALG
		h.Type = unix.ALG_SET_IV
		h.SetLen(unix.CmsgLen(4 + len(iv)))
		data := oob[opSpace+unix.CmsgLen(0):]
		binary.NativeEndian.PutUint32(data, uint32(len(iv)))
		copy(data[4:], iv)
	}
	return oob
}

func (c *kernelCipher) Encrypt(dst, src, iv []byte) error {
	return c.crypt("cipher_encrypt", false, dst, src, iv)
}

func (c *kernelCipher) Decrypt(dst, src, iv []byte) error {
	return c.crypt("cipher_decrypt", true, dst, src, iv)
}

func (c *kernelCipher) crypt(op string, decrypt bool, dst, src, iv []byte) error {
	if c == nil || c.tfm < 0 {
		return NewArgumentError(op, "", nil, ErrDestroyed, "context already destroyed")
	}
	if err := checkTransform(op, ProviderKernel, c.mode, dst, src, iv); err != nil {
		return err
	}
	if len(src) == 0 {
		return nil
	}

	fd, algOp := c.enc, uint32(unix.ALG_OP_ENCRYPT)
	if decrypt {
		fd, algOp = c.dec, uint32(unix.ALG_OP_DECRYPT)
	}
	if ivSize(c.mode) == 0 {
		iv = nil
	}

	oob := algControl(algOp, iv)
	defer Wipe(oob)

	// One request per call, bounded by the socket send buffer. MSG_DONTWAIT
	// turns an oversized request into a short send instead of a hang.
	n, err := unix.SendmsgN(fd, src, oob, nil, unix.MSG_DONTWAIT)
	if err != nil {
		return NewProviderError(op, ProviderKernel, ErrFailedTransform, fmt.Errorf("sendmsg: %w", err))
	}
	if n != len(src) {
		drainRequest(fd, n)
		return NewProviderError(op, ProviderKernel, ErrFailedTransform,
			fmt.Errorf("sendmsg accepted %d of %d bytes", n, len(src)))
	}

	out := dst[:len(src)]
	n, err = unix.Read(fd, out)
	if err != nil || n != len(out) {
		Wipe(out)
		if err == nil {
			drainRequest(fd, len(out)-n)
			err = fmt.Errorf("read returned %d of %d bytes", n, len(out))
		}
		return NewProviderError(op, ProviderKernel, ErrFailedTransform, err)
	}
	return nil
}

// drainRequest reads back the n bytes of a partially sent request so the
// next call starts on an empty socket
func drainRequest(fd, n int) {
	if n <= 0 {
		return
	}
	scratch := make([]byte, n)
	_, _ = unix.Read(fd, scratch)
	Wipe(scratch)
}

func (c *kernelCipher) BlockSize() int {
	return 16
}

func (c *kernelCipher) IVSize() int {
	if c == nil {
		return 0
	}
	return ivSize(c.mode)
}

// Destroy closes both operation sockets and the transform socket. The
// kernel zeroes the key when the transform is freed.
func (c *kernelCipher) Destroy() error {
	if c == nil || c.tfm < 0 {
		return nil
	}
	var result *multierror.Error
	for _, fd := range []int{c.enc, c.dec, c.tfm} {
		if fd < 0 {
			continue
		}
		if err := unix.Close(fd); err != nil {
			result = multierror.Append(result, fmt.Errorf("close fd %d: %w", fd, err))
		}
	}
	c.enc, c.dec, c.tfm = -1, -1, -1
	return result.ErrorOrNil()
}

// kernelCipherProbe checks that AF_ALG is available and knows AES
func kernelCipherProbe() error {
	fd, err := bindSkcipher(kernelAlgName(ModeECB))
	if err != nil {
		return err
	}
	return unix.Close(fd)
}

func kernelRelease() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "linux"
	}
	return "linux " + unix.ByteSliceToString(uts.Release[:])
}
