package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Server)
	assert.Equal(t, DriverBoltDB, cfg.Storage.Driver)
	assert.Equal(t, "zendash.db", cfg.Storage.Path)
	assert.Empty(t, cfg.Storage.Passphrase)
	assert.Equal(t, 30*time.Second, cfg.HTTP.Timeout)

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("ZENDASH_SERVER", "https://dash.example.com")
	t.Setenv("ZENDASH_STORAGE_DRIVER", "sqlite")
	t.Setenv("ZENDASH_STORAGE_PASSPHRASE", "correct horse")
	t.Setenv("ZENDASH_HTTP_TIMEOUT", "5s")
	t.Setenv("ZENDASH_LOG_LEVEL", "debug")

	cfg, err := Load(New(), "")
	require.NoError(t, err)

	assert.Equal(t, "https://dash.example.com", cfg.Server)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "correct horse", cfg.Storage.Passphrase)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zendash.yaml")
	content := "server: https://file.example.com\nstorage:\n  driver: sqlite\n  path: /tmp/z.db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(New(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://file.example.com", cfg.Server)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/z.db", cfg.Storage.Path)

	_, err = Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("ZENDASH_SERVER", "https://env.example.com")

	v := New()
	fs := pflag.NewFlagSet("zendash", pflag.ContinueOnError)
	require.NoError(t, BindFlags(v, fs))
	require.NoError(t, fs.Parse([]string{"--server", "http://flag.example.com:9000", "--storage-driver", "sqlite"}))

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "http://flag.example.com:9000", cfg.Server)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  "http://localhost:8000",
			Storage: StorageConfig{Driver: DriverBoltDB, Path: "z.db"},
			Log:     LogConfig{Level: "info"},
			HTTP:    HTTPConfig{Timeout: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "relative server", mutate: func(c *Config) { c.Server = "localhost:8000" }, wantErr: true},
		{name: "ftp server", mutate: func(c *Config) { c.Server = "ftp://example.com" }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "redis" }, wantErr: true},
		{name: "empty path", mutate: func(c *Config) { c.Storage.Path = "" }, wantErr: true},
		{name: "zero timeout", mutate: func(c *Config) { c.HTTP.Timeout = 0 }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
