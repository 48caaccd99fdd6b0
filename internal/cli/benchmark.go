package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/absfs/cryptbackend"
	"github.com/spf13/cobra"
)

// cipherThroughput encrypts and decrypts size-byte buffers for roughly d
// and returns the MiB/s for each direction
func cipherThroughput(b *cryptbackend.Backend, mode string, keyLen, size int, d time.Duration) (enc, dec float64, err error) {
	if size <= 0 {
		return 0, 0, cryptbackend.NewArgumentError("benchmark", "size", size, cryptbackend.ErrInvalidLength,
			fmt.Sprintf("buffer size must be positive, got %d", size))
	}
	key := make([]byte, keyLen)
	if err := b.RandomBytes(key, cryptbackend.RandomKey, false); err != nil {
		return 0, 0, err
	}
	defer cryptbackend.Wipe(key)

	c, err := b.NewCipher(cryptbackend.CipherAES, mode, key)
	if err != nil {
		return 0, 0, err
	}
	defer c.Destroy()

	buf := make([]byte, size)
	iv := make([]byte, c.IVSize())

	measure := func(fn func(dst, src, iv []byte) error) (float64, error) {
		var total int
		start := time.Now()
		for time.Since(start) < d {
			if err := fn(buf, buf, iv); err != nil {
				return 0, err
			}
			total += size
		}
		return float64(total) / (1 << 20) / time.Since(start).Seconds(), nil
	}

	if enc, err = measure(c.Encrypt); err != nil {
		return 0, 0, err
	}
	if dec, err = measure(c.Decrypt); err != nil {
		return 0, 0, err
	}
	return enc, dec, nil
}

// pbkdf2Rate returns PBKDF2 iterations per second for hash
func pbkdf2Rate(b *cryptbackend.Backend, hash string, d time.Duration) (float64, error) {
	const iterations = 1000
	req := &cryptbackend.KDFRequest{
		KDF:        cryptbackend.KDFPBKDF2,
		Hash:       hash,
		Password:   []byte("benchmark passphrase"),
		Salt:       make([]byte, 32),
		Iterations: iterations,
	}
	out := make([]byte, 32)

	var total int
	start := time.Now()
	for time.Since(start) < d {
		if err := b.DeriveKey(req, out); err != nil {
			return 0, err
		}
		total += iterations
	}
	return float64(total) / time.Since(start).Seconds(), nil
}

func newBenchmarkCommand(a *app) *cobra.Command {
	var (
		size     int
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Measure cipher and PBKDF2 throughput of the selected provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', tabwriter.AlignRight)

			fmt.Fprintln(w, "PBKDF2\titerations/s\t")
			for _, hash := range []string{"sha1", "sha256", "sha512"} {
				rate, err := pbkdf2Rate(a.backend, hash, duration)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "%s\t%.0f\t\n", hash, rate)
			}

			fmt.Fprintln(w, "\t\t\t")
			fmt.Fprintln(w, "Cipher\tKey bits\tEncryption\tDecryption\t")
			for _, mode := range cryptbackend.CipherModes() {
				for _, keyLen := range cryptbackend.CipherKeySizes(mode) {
					enc, dec, err := cipherThroughput(a.backend, mode, keyLen, size, duration)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "aes-%s\t%d\t%.1f MiB/s\t%.1f MiB/s\t\n", mode, keyLen*8, enc, dec)
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&size, "size", "s", 64*1024, "buffer size in bytes, a multiple of 16")
	cmd.Flags().DurationVarP(&duration, "duration", "d", 200*time.Millisecond, "time spent per measurement")
	return cmd
}
