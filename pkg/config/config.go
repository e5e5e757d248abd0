package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/plugload/pkg/loader"
	"github.com/platinummonkey/plugload/pkg/namespace"
	"github.com/platinummonkey/plugload/pkg/plugins"
	"github.com/platinummonkey/plugload/pkg/plugins/objectstore"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config holds loader configuration
type Config struct {
	// Loader settings
	Bases             []string `yaml:"bases"`
	Strict            bool     `yaml:"strict"`
	Exclude           []string `yaml:"exclude"`
	FailOnBrokenUnits bool     `yaml:"fail_on_broken_units"`

	// Plugin sources
	Roots       []string            `yaml:"roots"`
	ObjectStore *objectstore.Config `yaml:"object_store"`

	// Manifest cache
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`

	LogLevel string `yaml:"log_level"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Roots:     plugins.DefaultRoots(),
		CacheSize: plugins.DefaultCacheSize,
		LogLevel:  "info",
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	return Load("")
}

// Load is Read followed by Validate.
func Load(path string) (*Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Read reads the YAML file at path, when given, over the defaults and then
// applies environment overrides. The result is not validated, so callers can
// layer more settings on top first.
func Read(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Bases = getEnvList("PLUGLOAD_BASES", c.Bases)
	c.Strict = getEnvBool("PLUGLOAD_STRICT", c.Strict)
	c.Exclude = getEnvList("PLUGLOAD_EXCLUDE", c.Exclude)
	c.FailOnBrokenUnits = getEnvBool("PLUGLOAD_FAIL_ON_BROKEN_UNITS", c.FailOnBrokenUnits)
	if roots := getEnv("PLUGLOAD_ROOTS", ""); roots != "" {
		c.Roots = filepath.SplitList(roots)
	}
	c.CacheSize = getEnvInt("PLUGLOAD_CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getEnvDuration("PLUGLOAD_CACHE_TTL", c.CacheTTL)
	c.LogLevel = getEnv("PLUGLOAD_LOG_LEVEL", c.LogLevel)

	if bucket := getEnv("PLUGLOAD_S3_BUCKET", ""); bucket != "" {
		if c.ObjectStore == nil {
			c.ObjectStore = &objectstore.Config{}
		}
		c.ObjectStore.Bucket = bucket
	}
	if s := c.ObjectStore; s != nil {
		s.Prefix = getEnv("PLUGLOAD_S3_PREFIX", s.Prefix)
		s.Region = getEnv("PLUGLOAD_S3_REGION", s.Region)
		s.Endpoint = getEnv("PLUGLOAD_S3_ENDPOINT", s.Endpoint)
		s.AccessKey = getEnv("PLUGLOAD_S3_ACCESS_KEY", s.AccessKey)
		s.SecretKey = getEnv("PLUGLOAD_S3_SECRET_KEY", s.SecretKey)
		s.UsePathStyle = getEnvBool("PLUGLOAD_S3_USE_PATH_STYLE", s.UsePathStyle)
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Bases) == 0 {
		return fmt.Errorf("at least one base is required")
	}
	for _, base := range c.Bases {
		if len(namespace.Split(base)) == 0 {
			return fmt.Errorf("invalid base %q", base)
		}
	}

	if len(c.Roots) == 0 && c.ObjectStore == nil {
		return fmt.Errorf("at least one plugin root or an object store is required")
	}
	if c.ObjectStore != nil {
		if err := c.ObjectStore.Validate(); err != nil {
			return fmt.Errorf("object store: %w", err)
		}
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must not be negative: %d", c.CacheSize)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache ttl must not be negative: %s", c.CacheTTL)
	}

	if c.LogLevel != "" {
		if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid log level %q", c.LogLevel)
		}
	}
	return nil
}

// Options converts the configuration into loader options. The resolver,
// logger and metrics are left to the caller.
func (c *Config) Options() []loader.Option {
	opts := []loader.Option{
		loader.WithBases(c.Bases...),
		loader.WithStrict(c.Strict),
	}
	if len(c.Exclude) > 0 {
		opts = append(opts, loader.WithExclude(c.Exclude...))
	}
	if c.FailOnBrokenUnits {
		opts = append(opts, loader.WithFailOnBrokenUnits())
	}
	return opts
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvList returns a comma separated environment variable or a default.
// Blank items are dropped.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
