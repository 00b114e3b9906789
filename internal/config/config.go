// Package config loads the server's runtime configuration from environment
// variables and an optional YAML file, the way 0xtitan6-polymarket-mm wires
// viper: defaults set in code, overridable by file, overridable again by
// environment.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything cmd/server needs to stand up the engine and its
// transports.
type Config struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	HTTPPort  int    `mapstructure:"http_port"`
	Symbol    string `mapstructure:"symbol"`
	MaxMakers int    `mapstructure:"max_makers"`
	LogLevel  string `mapstructure:"log_level"`
}

// Load reads configuration from (in increasing precedence) built-in
// defaults, an optional config file at path (if non-empty), and FENRIR_*
// environment variables.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 9090)
	v.SetDefault("http_port", 8080)
	v.SetDefault("symbol", "FEN")
	v.SetDefault("max_makers", 20)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("FENRIR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
