// Package config loads photo-editor settings from defaults, an optional config
// file and PHOTO_* environment variables, in increasing order of precedence.
// A .env file in the working directory is loaded into the environment first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, with dots in keys
// replaced by underscores: server.addr is PHOTO_SERVER_ADDR.
const EnvPrefix = "PHOTO"

// Front ends selectable with server.frontend.
const (
	FrontendHTTP = "http"
	FrontendEcho = "echo"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	// HTTP listen address, e.g. ":8000"
	Addr            string        `mapstructure:"addr"`
	Frontend        string        `mapstructure:"frontend"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type StorageConfig struct {
	UploadDir    string `mapstructure:"upload_dir"`
	ProcessedDir string `mapstructure:"processed_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Options controls where Load looks for its inputs.
type Options struct {
	// ConfigFile is an explicit config file path. When empty, the value of
	// PHOTO_CONFIG is used, then photo-editor.{toml,yaml,json} in SearchDir.
	ConfigFile string

	// SearchDir is where the default config file and .env are looked up.
	// Defaults to the working directory.
	SearchDir string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.frontend", FrontendHTTP)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.max_upload_bytes", int64(32<<20))
	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.processed_dir", "processed")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("metrics.enabled", true)
}

// Load assembles the configuration and validates it.
func Load(opts Options) (Config, error) {
	dir := opts.SearchDir
	if dir == "" {
		dir = "."
	}

	// Load .env if available; ignore error if file does not exist
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	file := opts.ConfigFile
	if file == "" {
		file = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	} else {
		v.SetConfigName("photo-editor")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first setting that cannot be served.
func (c Config) Validate() error {
	switch {
	case c.Server.Addr == "":
		return errors.New("server.addr must not be empty")
	case c.Server.Frontend != FrontendHTTP && c.Server.Frontend != FrontendEcho:
		return fmt.Errorf("server.frontend must be %q or %q, got %q", FrontendHTTP, FrontendEcho, c.Server.Frontend)
	case c.Server.MaxUploadBytes <= 0:
		return fmt.Errorf("server.max_upload_bytes must be positive, got %d", c.Server.MaxUploadBytes)
	case c.Server.ShutdownTimeout < 0:
		return fmt.Errorf("server.shutdown_timeout must not be negative, got %s", c.Server.ShutdownTimeout)
	case c.Storage.UploadDir == "" || c.Storage.ProcessedDir == "":
		return errors.New("storage.upload_dir and storage.processed_dir must not be empty")
	case c.Storage.UploadDir == c.Storage.ProcessedDir:
		return fmt.Errorf("storage.upload_dir and storage.processed_dir must differ, both are %q", c.Storage.UploadDir)
	case c.Log.Format != "console" && c.Log.Format != "json":
		return fmt.Errorf("log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}
