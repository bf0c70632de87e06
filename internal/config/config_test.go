package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/bouncetimer/internal/factory"
	"github.com/mcoot/bouncetimer/internal/services/auth"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		ConfigFileEnv, "STORAGE_TYPE", "STORE_FILE", "REDIS_URL", "LOG_LEVEL", "STATIC_DIR",
		"PORT", "SESSION_DURATION", "REDIS_SNAPSHOT_TTL", "ALLOWED_ORIGINS",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "EMPLOYEE_USERNAME", "EMPLOYEE_PASSWORD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, factory.StorageTypeMemory, cfg.StorageType)
	assert.Equal(t, 12*time.Hour, cfg.SessionDuration)
	assert.Len(t, cfg.Operators, 2)
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("STORAGE_TYPE", "redis")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("REDIS_SNAPSHOT_TTL", "24h")
	t.Setenv("ALLOWED_ORIGINS", "http://a.local, http://b.local")
	t.Setenv("ADMIN_PASSWORD", "s3cret")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"http://a.local", "http://b.local"}, cfg.AllowedOrigins)
	assert.Equal(t, auth.Operator{Username: "admin", Password: "s3cret", Role: auth.RoleAdmin}, cfg.Operators[0])

	fc := cfg.Factory(nil)
	require.NotNil(t, fc.RedisConfig)
	assert.Equal(t, "redis://cache:6379/1", fc.RedisConfig.URL)
	assert.Equal(t, 24*time.Hour, fc.RedisConfig.SnapshotTTL)
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bouncetimer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 7000
storage_type: file
store_file: /var/lib/bouncetimer/store.json
session_duration: 8h
operators:
  - username: boss
    password: pw
    role: admin
`), 0o600))
	t.Setenv(ConfigFileEnv, path)
	t.Setenv("PORT", "7001")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Port, "env wins over the file")
	assert.Equal(t, factory.StorageTypeFile, cfg.StorageType)
	assert.Equal(t, "/var/lib/bouncetimer/store.json", cfg.StoreFile)
	assert.Equal(t, 8*time.Hour, cfg.SessionDuration)
	assert.Equal(t, []auth.Operator{{Username: "boss", Password: "pw", Role: auth.RoleAdmin}}, cfg.Operators)
	assert.Nil(t, cfg.Factory(nil).RedisConfig)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv does not override variables that are already set, even empty ones
	require.NoError(t, os.Unsetenv("STORAGE_TYPE"))
	require.NoError(t, os.Unsetenv("STORE_FILE"))
	t.Cleanup(func() {
		_ = os.Unsetenv("STORAGE_TYPE")
		_ = os.Unsetenv("STORE_FILE")
	})

	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("STORAGE_TYPE=file\nSTORE_FILE=/tmp/players.json\n"), 0o600))

	cfg, err := Load(envFile)
	require.NoError(t, err)

	assert.Equal(t, factory.StorageTypeFile, cfg.StorageType)
	assert.Equal(t, "/tmp/players.json", cfg.StoreFile)
}

func TestLoadMissingDotEnvIsFine(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"unknown storage": func(c *Config) { c.StorageType = "postgres" },
		"bad port":        func(c *Config) { c.Port = 0 },
		"no operators":    func(c *Config) { c.Operators = nil },
		"file no path":    func(c *Config) { c.StorageType = factory.StorageTypeFile; c.StoreFile = "" },
		"redis no url":    func(c *Config) { c.StorageType = factory.StorageTypeRedis; c.Redis.URL = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestInvalidPortEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "eighty")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, "DEBUG", Config{LogLevel: "debug"}.Level().String())
	assert.Equal(t, "INFO", Config{LogLevel: "nonsense"}.Level().String())
}
