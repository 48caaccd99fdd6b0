package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/absfs/cryptbackend"
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CRYPTBACKEND_PROVIDER=kernel
const EnvPrefix = "CRYPTBACKEND"

// Settings holds the tool configuration after flags, environment and the
// optional config file have been merged
type Settings struct {
	Provider        string `mapstructure:"provider"`
	LogLevel        string `mapstructure:"log_level"`
	LogJSON         bool   `mapstructure:"log_json"`
	MaxKDFMemoryKiB uint32 `mapstructure:"max_kdf_memory_kib"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"provider":       "provider",
	"log-level":      "log_level",
	"log-json":       "log_json",
	"max-kdf-memory": "max_kdf_memory_kib",
}

// LoadSettings merges defaults, the config file, CRYPTBACKEND_* variables
// and flags, in increasing order of precedence. An empty configFile
// searches the usual locations and tolerates a missing file; an explicit
// path must exist.
func LoadSettings(v *viper.Viper, flags *pflag.FlagSet, configFile string) (*Settings, error) {
	v.SetDefault("provider", cryptbackend.DefaultProvider)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_json", false)
	v.SetDefault("max_kdf_memory_kib", cryptbackend.DefaultMaxKDFMemoryKiB)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("cryptbackend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/cryptbackend")
		v.AddConfigPath("/etc/cryptbackend")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks the merged settings
func (s *Settings) Validate() error {
	if hclog.LevelFromString(s.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	return (&cryptbackend.Config{Provider: s.Provider}).Validate()
}

// NewLogger builds the tool logger writing to w
func (s *Settings) NewLogger(w io.Writer) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:       "cryptbackend",
		Level:      hclog.LevelFromString(s.LogLevel),
		Output:     w,
		JSONFormat: s.LogJSON,
	})
}

// BackendConfig converts the settings into a library Config
func (s *Settings) BackendConfig(logger hclog.Logger) *cryptbackend.Config {
	return &cryptbackend.Config{
		Provider:        s.Provider,
		Logger:          logger,
		MaxKDFMemoryKiB: s.MaxKDFMemoryKiB,
	}
}
