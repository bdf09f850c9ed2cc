package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/modelserve/internal/domain/forest"
	"github.com/kailas-cloud/modelserve/internal/domain/model/kind"
)

// Storage drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds the modelserve configuration.
type Config struct {
	HTTP    HTTPConfig    `yaml:"http"`
	Storage StorageConfig `yaml:"storage"`
	Models  ModelsConfig  `yaml:"models"`
	Predict PredictConfig `yaml:"predict"`
	Auth    AuthConfig    `yaml:"auth"`
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string        `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File  LogFileConfig `yaml:"file"`
}

// LogFileConfig enables a rotating JSON log file next to the console output.
type LogFileConfig struct {
	Path       string `yaml:"path"` // empty disables the file sink
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// StorageConfig holds artifact store connection settings.
type StorageConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, sqlite, memory (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	SQLitePath       string   `yaml:"sqlite_path"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// ModelsConfig holds registry settings.
type ModelsConfig struct {
	CacheSize   int             `yaml:"cache_size"`
	CacheTTLSec int             `yaml:"cache_ttl_sec"` // 0 keeps models until evicted
	Dir         string          `yaml:"dir"`           // directory source, optional
	Watch       bool            `yaml:"watch"`
	Preload     []PreloadConfig `yaml:"preload"`
	Required    []string        `yaml:"required"` // models reported by /health
	// Compat maps a model_architecture name to a registered model for POST /predict.
	Compat map[string]string `yaml:"compat"`
}

// PreloadConfig is an artifact file registered at startup.
type PreloadConfig struct {
	Name         string   `yaml:"name"`
	Path         string   `yaml:"path"`
	Kind         string   `yaml:"kind"`
	Vote         string   `yaml:"vote"`
	FeatureNames []string `yaml:"feature_names"`
}

// PredictConfig holds prediction service settings.
type PredictConfig struct {
	Workers      int `yaml:"workers"` // 0 = GOMAXPROCS
	MaxBatchSize int `yaml:"max_batch_size"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads, expands, defaults and validates a configuration file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 32 << 20
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverValkey
	}
	if c.Storage.ReadinessTimeout <= 0 {
		c.Storage.ReadinessTimeout = 10
	}
	if c.Models.CacheSize <= 0 {
		c.Models.CacheSize = 128
	}
	if c.Predict.MaxBatchSize <= 0 {
		c.Predict.MaxBatchSize = 1000
	}
	if c.Logging.File.Path != "" {
		if c.Logging.File.MaxSizeMB <= 0 {
			c.Logging.File.MaxSizeMB = 100
		}
		if c.Logging.File.MaxBackups <= 0 {
			c.Logging.File.MaxBackups = 5
		}
		if c.Logging.File.MaxAgeDays <= 0 {
			c.Logging.File.MaxAgeDays = 28
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Storage.validate(); err != nil {
		return err
	}
	if err := c.Models.validate(); err != nil {
		return err
	}
	if c.Predict.Workers < 0 {
		return fmt.Errorf("predict.workers must not be negative, got %d", c.Predict.Workers)
	}
	return nil
}

func (s StorageConfig) validate() error {
	switch s.Driver {
	case DriverValkey, DriverRedis:
		if len(s.Addrs) == 0 {
			return fmt.Errorf("storage.addrs is required for driver %q", s.Driver)
		}
	case DriverSQLite:
		if s.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for driver %q", s.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of valkey, redis, sqlite, memory, got %q", s.Driver)
	}
	return nil
}

func (m ModelsConfig) validate() error {
	if m.CacheTTLSec < 0 {
		return fmt.Errorf("models.cache_ttl_sec must not be negative, got %d", m.CacheTTLSec)
	}
	if m.Watch && m.Dir == "" {
		return fmt.Errorf("models.watch requires models.dir")
	}
	for i, p := range m.Preload {
		if p.Name == "" || p.Path == "" {
			return fmt.Errorf("models.preload[%d]: name and path are required", i)
		}
		if _, err := kind.Parse(p.Kind); err != nil {
			return fmt.Errorf("models.preload[%d].kind: %w", i, err)
		}
		if _, err := forest.ParseVote(p.Vote); err != nil {
			return fmt.Errorf("models.preload[%d].vote: %w", i, err)
		}
	}
	for arch, name := range m.Compat {
		k, err := kind.Parse(arch)
		if err != nil || k == "" {
			return fmt.Errorf("models.compat: unknown architecture %q", arch)
		}
		if name == "" {
			return fmt.Errorf("models.compat.%s: model name is required", arch)
		}
	}
	return nil
}

// CompatKinds resolves the compat mapping to model kinds. Call after Validate.
func (m ModelsConfig) CompatKinds() map[kind.Kind]string {
	out := make(map[kind.Kind]string, len(m.Compat))
	for arch, name := range m.Compat {
		if k, err := kind.Parse(arch); err == nil && k != "" {
			out[k] = name
		}
	}
	return out
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
