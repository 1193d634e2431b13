// Package config loads client configuration from defaults, an optional config
// file, ZENDASH_* environment variables and command-line flags using Viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix — префикс переменных окружения (ZENDASH_SERVER, ZENDASH_STORAGE_DRIVER, ...)
const EnvPrefix = "ZENDASH"

// Ключи конфигурации
const (
	KeyServer            = "server"
	KeyStorageDriver     = "storage.driver"
	KeyStoragePath       = "storage.path"
	KeyStoragePassphrase = "storage.passphrase"
	KeyLogLevel          = "log.level"
	KeyHTTPTimeout       = "http.timeout"
)

// Драйверы локального хранилища
const (
	DriverBoltDB = "boltdb"
	DriverSQLite = "sqlite"
)

// Config holds the client configuration.
type Config struct {
	Server  string        `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`
	HTTP    HTTPConfig    `mapstructure:"http"`
}

// StorageConfig — локальное хранилище сессии
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	// Passphrase enables encryption of tokens at rest when non-empty
	Passphrase string `mapstructure:"passphrase"`
}

// LogConfig — уровень логирования
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// HTTPConfig — параметры HTTP клиента
type HTTPConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers default values on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyServer, "http://localhost:8000")
	v.SetDefault(KeyStorageDriver, DriverBoltDB)
	v.SetDefault(KeyStoragePath, "zendash.db")
	v.SetDefault(KeyStoragePassphrase, "")
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyHTTPTimeout, 30*time.Second)
}

// BindFlags registers the global flags on fs and binds them to v.
// Flag names use dashes: --server, --storage-driver, --log-level, ...
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("server", "http://localhost:8000", "Backend base URL")
	fs.String("storage-driver", DriverBoltDB, "Local storage driver (boltdb|sqlite)")
	fs.String("storage-path", "zendash.db", "Path to local session database")
	fs.String("log-level", "warn", "Log level (debug|info|warn|error)")
	fs.Duration("http-timeout", 30*time.Second, "HTTP request timeout")

	bindings := map[string]string{
		KeyServer:        "server",
		KeyStorageDriver: "storage-driver",
		KeyStoragePath:   "storage-path",
		KeyLogLevel:      "log-level",
		KeyHTTPTimeout:   "http-timeout",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("failed to bind flag %s: %w", flag, err)
		}
	}
	return nil
}

// New creates a viper instance with defaults and environment lookup
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and builds a validated Config.
// An empty file path means no config file.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values that would break startup
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: server must be an http(s) URL, got %q", c.Server)
	}

	switch c.Storage.Driver {
	case DriverBoltDB, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Path == "" {
		return errors.New("config: storage path must be set")
	}
	if c.HTTP.Timeout <= 0 {
		return errors.New("config: http timeout must be positive")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel maps log.level to slog.Level
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("config: invalid log level %q", c.Log.Level)
	}
	return level, nil
}
