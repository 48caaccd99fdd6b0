// Package cli implements the cryptbackend diagnostic tool: inspecting
// providers, hashing input, deriving keys, running known-answer tests and
// measuring throughput.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/absfs/cryptbackend"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Version of the tool, set at build time with -ldflags
var Version = "0.1.0-dev"

// app carries the state shared by every subcommand once the persistent
// pre-run has loaded the settings
type app struct {
	configFile string
	settings   *Settings
	logger     hclog.Logger
	backend    *cryptbackend.Backend
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cryptbackend",
		Short: "Inspect and exercise the disk-encryption crypto backend",
		Long: `cryptbackend drives the pluggable crypto backend used by the volume
header and key-slot code. It lists what a provider supports, hashes input,
derives keys, runs known-answer self tests and measures throughput.

Settings come from flags, CRYPTBACKEND_* environment variables and an
optional cryptbackend.yaml, in that order of precedence.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.backend != nil {
				a.backend.Destroy()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: search ./, ~/.config/cryptbackend, /etc/cryptbackend)")
	flags.StringP("provider", "p", cryptbackend.DefaultProvider, "crypto provider (go, kernel)")
	flags.String("log-level", "warn", "log level (trace, debug, info, warn, error)")
	flags.Bool("log-json", false, "log in JSON format")
	flags.Uint32("max-kdf-memory", cryptbackend.DefaultMaxKDFMemoryKiB, "argon2 memory cap in KiB")

	root.AddCommand(
		newVersionCommand(a),
		newListCommand(a),
		newHashCommand(a),
		newKDFCommand(a),
		newSelftestCommand(a),
		newBenchmarkCommand(a),
	)
	return root
}

// setup loads the settings and brings up the backend
func (a *app) setup(cmd *cobra.Command) error {
	settings, err := LoadSettings(viper.New(), cmd.Flags(), a.configFile)
	if err != nil {
		return err
	}
	a.settings = settings
	a.logger = settings.NewLogger(cmd.ErrOrStderr())

	b, err := cryptbackend.New(settings.BackendConfig(a.logger))
	if err != nil {
		return err
	}
	if err := b.Init(); err != nil {
		return fmt.Errorf("initialize %s provider: %w", settings.Provider, err)
	}
	a.backend = b
	a.logger.Debug("backend ready", "id", b.ID(), "provider", b.ProviderName())
	return nil
}

// Execute runs the tool and returns the process exit status. The status is
// the negated backend error code, so scripts see the same values the
// library reports.
func Execute(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitStatus(err)
	}
	return 0
}

func exitStatus(err error) int {
	for _, category := range []error{
		cryptbackend.ErrInvalidArgument,
		cryptbackend.ErrUnsupported,
		cryptbackend.ErrOutOfMemory,
		cryptbackend.ErrProviderFailure,
	} {
		if errors.Is(err, category) {
			return -cryptbackend.Code(err)
		}
	}
	return 1
}
