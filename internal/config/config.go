package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds the process configuration. Every field has a default so
// the binary runs with no config file at all.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Endpoints EndpointsConfig `mapstructure:"endpoints"`
	Commands  CommandsConfig  `mapstructure:"commands"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	// MatchMethod keys endpoints by HTTP method; off, all methods are
	// served identically from one path table.
	MatchMethod bool `mapstructure:"match_method"`
	// VerboseNotFound answers misses with a descriptive JSON body.
	VerboseNotFound bool `mapstructure:"verbose_not_found"`
	Metrics         bool `mapstructure:"metrics"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
	// Buffer is the relay capacity in records.
	Buffer int `mapstructure:"buffer"`
	// Scrollback bounds the log pane's display buffer in lines.
	Scrollback int `mapstructure:"scrollback"`
}

type EndpointsConfig struct {
	// File seeds the registry from a YAML endpoints file at startup.
	File string `mapstructure:"file"`
	// Watch hot-reloads the file on change.
	Watch bool `mapstructure:"watch"`
}

type CommandsConfig struct {
	// Unknown selects how unrecognized input is reported: "error",
	// "warn" or "ignore".
	Unknown string `mapstructure:"unknown"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_addr", "127.0.0.1:3000")
	v.SetDefault("server.match_method", false)
	v.SetDefault("server.verbose_not_found", false)
	v.SetDefault("server.metrics", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.buffer", 1024)
	v.SetDefault("logging.scrollback", 1000)
	v.SetDefault("endpoints.watch", true)
	v.SetDefault("commands.unknown", "error")
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "decoy")
	v.SetDefault("tracing.endpoint", "localhost:4318")
}

// Load reads configuration from path. A missing file is not an error;
// defaults apply. A present but malformed file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}
