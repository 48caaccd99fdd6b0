package cli

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/absfs/cryptbackend"
	"github.com/spf13/cobra"
)

func newVersionCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show tool and provider versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cryptbackend %s\n", Version)
			fmt.Fprintf(out, "provider:   %s\n", a.backend.ProviderName())
			fmt.Fprintf(out, "version:    %s\n", a.backend.Version())
			fmt.Fprintf(out, "flags:      %s\n", a.backend.Flags())
			fmt.Fprintf(out, "backend id: %s\n", a.backend.ID())
			return nil
		},
	}
}

func newListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List providers, digests, cipher modes and KDFs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)

			fmt.Fprintln(w, "PROVIDERS")
			for _, name := range cryptbackend.Providers() {
				marker := ""
				if name == a.backend.ProviderName() {
					marker = "(selected)"
				}
				fmt.Fprintf(w, "  %s\t%s\n", name, marker)
			}

			fmt.Fprintln(w, "DIGESTS")
			for _, name := range cryptbackend.HashAlgorithms() {
				size, err := a.backend.HashSize(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "  %s\t%d bytes\n", name, size)
			}

			fmt.Fprintln(w, "CIPHERS")
			for _, mode := range cryptbackend.CipherModes() {
				var bits []string
				for _, n := range cryptbackend.CipherKeySizes(mode) {
					bits = append(bits, fmt.Sprintf("%d", n*8))
				}
				fmt.Fprintf(w, "  %s-%s\t%s bit keys\n", cryptbackend.CipherAES, mode, strings.Join(bits, ", "))
			}

			fmt.Fprintln(w, "KDFS")
			fmt.Fprintf(w, "  %s\tany digest above\n", cryptbackend.KDFPBKDF2)
			if a.backend.Flags().Has(cryptbackend.FlagArgon2) {
				fmt.Fprintf(w, "  %s\tmemory-hard\n", cryptbackend.KDFArgon2i)
				fmt.Fprintf(w, "  %s\tmemory-hard\n", cryptbackend.KDFArgon2id)
			}
			return w.Flush()
		},
	}
}

func newHashCommand(a *app) *cobra.Command {
	var (
		algorithm string
		hmacKey   string
		length    int
	)

	cmd := &cobra.Command{
		Use:   "hash [file...]",
		Short: "Print the digest or HMAC of files or standard input",
		Long: `hash prints one line per input: the hex digest followed by the file name.
With no files, or with "-", standard input is read. --hmac-key switches to
HMAC keyed with the given hex bytes.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				h   cryptbackend.Hash
				err error
			)
			if cmd.Flags().Changed("hmac-key") {
				key, derr := hex.DecodeString(hmacKey)
				if derr != nil {
					return fmt.Errorf("invalid --hmac-key: %w", derr)
				}
				h, err = a.backend.NewHMAC(algorithm, key)
				cryptbackend.Wipe(key)
			} else {
				h, err = a.backend.NewHash(algorithm)
			}
			if err != nil {
				return err
			}
			defer h.Destroy()

			switch {
			case length < 0:
				return cryptbackend.NewArgumentError("hash_final", "length", length, cryptbackend.ErrInvalidLength,
					fmt.Sprintf("--length must not be negative, got %d", length))
			case length == 0:
				length = h.Size()
			}
			sum := make([]byte, length)

			if len(args) == 0 {
				args = []string{"-"}
			}
			for _, name := range args {
				if err := digestInput(cmd, h, name); err != nil {
					return err
				}
				if err := h.Final(sum); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%x  %s\n", sum, name)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&algorithm, "algorithm", "a", "sha256", "digest algorithm")
	cmd.Flags().StringVar(&hmacKey, "hmac-key", "", "HMAC key in hex")
	cmd.Flags().IntVarP(&length, "length", "l", 0, "output length in bytes (default: full digest)")
	return cmd
}

// digestInput streams one named input into h
func digestInput(cmd *cobra.Command, h cryptbackend.Hash, name string) error {
	if name == "-" {
		_, err := io.Copy(h, cmd.InOrStdin())
		return err
	}
	f, err := os.Open(name)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(h, f)
	return err
}

func newKDFCommand(a *app) *cobra.Command {
	var (
		req     cryptbackend.KDFRequest
		saltHex string
		length  int
	)

	cmd := &cobra.Command{
		Use:   "kdf",
		Short: "Derive a key from a passphrase read on standard input",
		Long: `kdf reads the passphrase from the first line of standard input and prints
the derived key in hex. Without --salt a random salt is generated and
printed before the key.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if length < 1 {
				return cryptbackend.NewArgumentError("derive_key", "length", length, cryptbackend.ErrInvalidLength,
					fmt.Sprintf("--length must be at least 1, got %d", length))
			}

			if saltHex != "" {
				salt, err := hex.DecodeString(saltHex)
				if err != nil {
					return fmt.Errorf("invalid --salt: %w", err)
				}
				req.Salt = salt
			} else {
				req.Salt = make([]byte, 32)
				if err := a.backend.RandomBytes(req.Salt, cryptbackend.RandomSalt, false); err != nil {
					return err
				}
				fmt.Fprintf(out, "salt: %x\n", req.Salt)
			}

			password, err := readPassphrase(cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer cryptbackend.Wipe(password)
			req.Password = password

			key := make([]byte, length)
			defer cryptbackend.Wipe(key)
			if err := a.backend.DeriveKey(&req, key); err != nil {
				return err
			}
			if saltHex == "" {
				fmt.Fprintf(out, "key:  %x\n", key)
			} else {
				fmt.Fprintf(out, "%x\n", key)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&req.KDF, "kdf", "k", cryptbackend.KDFArgon2id, "key derivation function (pbkdf2, argon2i, argon2id)")
	flags.StringVar(&req.Hash, "hash", "sha256", "pbkdf2 digest")
	flags.StringVar(&saltHex, "salt", "", "salt in hex (default: random)")
	flags.Uint32VarP(&req.Iterations, "iterations", "i", 4, "pbkdf2 iterations or argon2 time cost")
	flags.Uint32VarP(&req.Memory, "memory", "m", 64*1024, "argon2 memory cost in KiB")
	flags.Uint32Var(&req.Parallel, "parallel", 4, "argon2 parallelism")
	flags.IntVarP(&length, "length", "l", 32, "key length in bytes")
	return cmd
}

// readPassphrase returns the first line of r without its line ending
func readPassphrase(r io.Reader) ([]byte, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read passphrase: %w", err)
	}
	line = bytes.TrimRight(line, "\r\n")
	pass := make([]byte, len(line))
	copy(pass, line)
	cryptbackend.Wipe(line)
	return pass, nil
}
