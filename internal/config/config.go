package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mcoot/bouncetimer/internal/factory"
	"github.com/mcoot/bouncetimer/internal/services/auth"
	"github.com/mcoot/bouncetimer/internal/storage/file"
	redisstorage "github.com/mcoot/bouncetimer/internal/storage/redis"
)

// ConfigFileEnv names the optional YAML config file
const ConfigFileEnv = "BOUNCETIMER_CONFIG"

// RedisConfig holds the redis medium settings
type RedisConfig struct {
	URL         string        `yaml:"url"`
	SnapshotTTL time.Duration `yaml:"snapshot_ttl"`
}

// Config is the server configuration
type Config struct {
	Port            int             `yaml:"port"`
	LogLevel        string          `yaml:"log_level"`
	StorageType     string          `yaml:"storage_type"`
	StoreFile       string          `yaml:"store_file"`
	Redis           RedisConfig     `yaml:"redis"`
	SessionDuration time.Duration   `yaml:"session_duration"`
	Operators       []auth.Operator `yaml:"operators"`
	AllowedOrigins  []string        `yaml:"allowed_origins"`
	StaticDir       string          `yaml:"static_dir"`
}

// Default returns the configuration used when nothing is set
func Default() Config {
	authCfg := auth.DefaultConfig()
	return Config{
		Port:            8080,
		LogLevel:        "info",
		StorageType:     factory.StorageTypeMemory,
		StoreFile:       file.DefaultPath,
		Redis:           RedisConfig{URL: redisstorage.DefaultConfig().URL},
		SessionDuration: authCfg.SessionDuration,
		Operators:       authCfg.Operators,
		StaticDir:       "internal/web/static",
	}
}

// Load reads envFile (if present), then the YAML file named by
// BOUNCETIMER_CONFIG, then environment overrides.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.StorageType = getEnv("STORAGE_TYPE", c.StorageType)
	c.StoreFile = getEnv("STORE_FILE", c.StoreFile)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		c.Port = port
	}
	if v := os.Getenv("SESSION_DURATION"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid SESSION_DURATION %q: %w", v, err)
		}
		c.SessionDuration = d
	}
	if v := os.Getenv("REDIS_SNAPSHOT_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_SNAPSHOT_TTL %q: %w", v, err)
		}
		c.Redis.SnapshotTTL = d
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		c.AllowedOrigins = splitList(v)
	}

	c.overrideOperator(auth.RoleAdmin, os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD"))
	c.overrideOperator(auth.RoleEmployee, os.Getenv("EMPLOYEE_USERNAME"), os.Getenv("EMPLOYEE_PASSWORD"))
	return nil
}

// overrideOperator replaces the credentials of the first operator with role
func (c *Config) overrideOperator(role auth.Role, username, password string) {
	if username == "" && password == "" {
		return
	}
	for i, op := range c.Operators {
		if op.Role != role {
			continue
		}
		if username != "" {
			c.Operators[i].Username = username
		}
		if password != "" {
			c.Operators[i].Password = password
		}
		return
	}
	if username != "" && password != "" {
		c.Operators = append(c.Operators, auth.Operator{Username: username, Password: password, Role: role})
	}
}

// Validate checks the configuration for missing or conflicting values
func (c Config) Validate() error {
	switch c.StorageType {
	case factory.StorageTypeMemory:
	case factory.StorageTypeFile:
		if c.StoreFile == "" {
			return errors.New("STORE_FILE required when STORAGE_TYPE=file")
		}
	case factory.StorageTypeRedis:
		if c.Redis.URL == "" {
			return errors.New("REDIS_URL required when STORAGE_TYPE=redis")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q: must be memory, file or redis", c.StorageType)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if len(c.Operators) == 0 {
		return errors.New("at least one operator is required")
	}
	return nil
}

// Addr is the listen address
func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// Level parses LogLevel, defaulting to info
func (c Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Factory converts the configuration into factory settings
func (c Config) Factory(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: c.StorageType,
		StoreFile:   c.StoreFile,
		AuthConfig: auth.Config{
			SessionDuration: c.SessionDuration,
			Operators:       c.Operators,
		},
	}
	if c.StorageType == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.Redis.URL
		redisCfg.SnapshotTTL = c.Redis.SnapshotTTL
		fc.RedisConfig = &redisCfg
	}
	return fc
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
