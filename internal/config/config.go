package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIURL   = "https://api.memberfolio.dev"
	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "warn"

	envPrefix = "FOLIO"
)

// Config is the effective client configuration. APIURL is the BASE_API
// every endpoint is resolved against.
type Config struct {
	APIURL   string        `mapstructure:"api_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	LogLevel string        `mapstructure:"log_level"`

	// File is the config file that was read, empty if none.
	File string `mapstructure:"-"`
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"api-url":   "api_url",
	"timeout":   "timeout",
	"log-level": "log_level",
}

func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".folio", "config.yaml")
}

// Load resolves configuration from, lowest to highest priority: defaults,
// the config file, FOLIO_* environment variables and flags. An explicit
// configFile must exist; the default one is optional.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("log_level", DefaultLogLevel)

	file, err := readConfigFile(v, configFile)
	if err != nil {
		return nil, err
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.File = file
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func readConfigFile(v *viper.Viper, configFile string) (string, error) {
	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigPath()
		if configFile == "" {
			return "", nil
		}
		if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
	}

	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}
	return configFile, nil
}

// Validate checks the values Load cannot coerce.
func (c *Config) Validate() error {
	if !IsAllowedAPIURL(c.APIURL) {
		return fmt.Errorf("api_url %q must use https (plain http is only allowed for localhost)", c.APIURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	return nil
}

// IsAllowedAPIURL returns true if the URL uses HTTPS or targets localhost.
func IsAllowedAPIURL(u string) bool {
	if strings.HasPrefix(u, "https://") {
		return true
	}
	if strings.HasPrefix(u, "http://localhost") ||
		strings.HasPrefix(u, "http://127.0.0.1") ||
		strings.HasPrefix(u, "http://[::1]") {
		return true
	}
	return false
}

type fileView struct {
	APIURL   string `yaml:"api_url"`
	Timeout  string `yaml:"timeout"`
	LogLevel string `yaml:"log_level"`
}

// YAML renders the config in the same shape the config file uses.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(fileView{
		APIURL:   c.APIURL,
		Timeout:  c.Timeout.String(),
		LogLevel: c.LogLevel,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(out), nil
}
