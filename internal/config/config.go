package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: SHARDQL_LOG_LEVEL sets log.level
const EnvPrefix = "SHARDQL"

// Shard is one configured shard. Exactly one of File and DSN is set.
type Shard struct {
	Name string `mapstructure:"name"`
	File string `mapstructure:"file"`
	DSN  string `mapstructure:"dsn"`
}

// Log holds logger settings
type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config is the CLI configuration
type Config struct {
	Format      string        `mapstructure:"format"`
	Concurrency int           `mapstructure:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Log         Log           `mapstructure:"log"`
	Shards      []Shard       `mapstructure:"shards"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("format", "jsonl")
	v.SetDefault("concurrency", 4)
	v.SetDefault("timeout", "30s")
	v.SetDefault("log.level", "INFO")
	v.SetDefault("log.format", "text")
}

// Load reads the config file at path, when path is not empty, and applies
// SHARDQL_ environment overrides on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings a run depends on
func (c *Config) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}

	seen := make(map[string]bool, len(c.Shards))
	for i, s := range c.Shards {
		if s.Name == "" {
			return fmt.Errorf("shard %d has no name", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("shard %q is defined twice", s.Name)
		}
		seen[s.Name] = true
		if (s.File == "") == (s.DSN == "") {
			return fmt.Errorf("shard %q needs exactly one of file or dsn", s.Name)
		}
	}
	return nil
}
