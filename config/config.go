// Package config loads web3tools settings from an optional config file and
// WEB3TOOLS_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"web3tools/ethclient"
	"web3tools/logging"
)

// EnvPrefix is prepended to every environment variable name, with nested
// keys joined by underscores: WEB3TOOLS_PROVIDER_URL, WEB3TOOLS_LOG_LEVEL.
const EnvPrefix = "WEB3TOOLS"

// DefaultProviderURL is a local node's default HTTP endpoint.
const DefaultProviderURL = "http://localhost:8545"

type Config struct {
	ProviderURL  string         `mapstructure:"provider_url"`
	Timeout      time.Duration  `mapstructure:"timeout"`
	PollInterval time.Duration  `mapstructure:"poll_interval"`
	Log          logging.Config `mapstructure:"log"`
}

func setDefaults(v *viper.Viper) {
	logDefaults := logging.DefaultConfig()

	v.SetDefault("provider_url", DefaultProviderURL)
	v.SetDefault("timeout", ethclient.DefaultTimeout)
	v.SetDefault("poll_interval", ethclient.DefaultPollInterval)
	v.SetDefault("log.level", logDefaults.Level)
	v.SetDefault("log.format", logDefaults.Format)
	v.SetDefault("log.file", logDefaults.File)
	v.SetDefault("log.max_size", logDefaults.MaxSize)
	v.SetDefault("log.max_age", logDefaults.MaxAge)
	v.SetDefault("log.max_backups", logDefaults.MaxBackups)
	v.SetDefault("log.compress", logDefaults.Compress)
}

// Load reads the configuration. path may be empty, in which case only
// defaults and the environment apply. The file type follows the extension
// (yaml, toml, json, ...).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the client cannot work with. The provider URL
// itself is left for the transport to judge.
func (c *Config) Validate() error {
	if c.ProviderURL == "" {
		return errors.New("provider_url must not be empty")
	}
	if c.Timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.PollInterval <= 0 {
		return errors.Errorf("poll_interval must be positive, got %s", c.PollInterval)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ClientConfig returns the ethclient settings.
func (c *Config) ClientConfig() ethclient.Config {
	return ethclient.Config{
		Timeout:      c.Timeout,
		PollInterval: c.PollInterval,
	}
}
