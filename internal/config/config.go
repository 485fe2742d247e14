package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/fjod/go_cart/storefront/internal/storage"
	"gopkg.in/yaml.v3"
)

// Config is the storefront process configuration. Values come from the
// defaults below, then an optional YAML file named by STOREFRONT_CONFIG,
// then the environment.
type Config struct {
	HTTPPort          string         `yaml:"http_port"`
	APIBaseURL        string         `yaml:"api_base_url"`
	Storage           storage.Config `yaml:"storage"`
	ClearCartOnLogout bool           `yaml:"clear_cart_on_logout"`
	MirrorServerCart  bool           `yaml:"mirror_server_cart"`
	CircuitBreaker    bool           `yaml:"api_circuit_breaker"`
	HandlerTimeout    time.Duration  `yaml:"handler_timeout"`
	ShutdownTimeout   time.Duration  `yaml:"shutdown_timeout"`
}

func defaults() *Config {
	return &Config{
		HTTPPort:   "8080",
		APIBaseURL: "http://localhost:3000/api",
		Storage: storage.Config{
			Driver:    storage.DriverFile,
			Path:      "./data/storefront.json",
			RedisAddr: "localhost:6379",
		},
		ClearCartOnLogout: true,
		HandlerTimeout:    30 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("STOREFRONT_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
		log.Printf("Loaded config file %s", path)
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) loadEnv() error {
	c.HTTPPort = getEnv("HTTP_PORT", c.HTTPPort)
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.Path = getEnv("STORAGE_PATH", c.Storage.Path)
	c.Storage.RedisAddr = getEnv("REDIS_ADDR", c.Storage.RedisAddr)
	c.Storage.RedisPassword = getEnv("REDIS_PASSWORD", c.Storage.RedisPassword)

	var err error
	if c.Storage.RedisDB, err = getEnvInt("REDIS_DB", c.Storage.RedisDB); err != nil {
		return err
	}
	if c.ClearCartOnLogout, err = getEnvBool("CLEAR_CART_ON_LOGOUT", c.ClearCartOnLogout); err != nil {
		return err
	}
	if c.MirrorServerCart, err = getEnvBool("MIRROR_SERVER_CART", c.MirrorServerCart); err != nil {
		return err
	}
	if c.CircuitBreaker, err = getEnvBool("API_CIRCUIT_BREAKER", c.CircuitBreaker); err != nil {
		return err
	}
	if c.HandlerTimeout, err = getEnvDuration("HANDLER_TIMEOUT", c.HandlerTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the storefront cannot start with.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return errors.New("config: http port is required")
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: invalid api base url %q", c.APIBaseURL)
	}
	switch c.Storage.Driver {
	case storage.DriverMemory, storage.DriverRedis:
	case storage.DriverFile:
		if c.Storage.Path == "" {
			return errors.New("config: storage path is required for the file driver")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if c.HandlerTimeout <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("config: timeouts must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("config: %s: %w", key, err)
	}
	return b, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	return d, nil
}
