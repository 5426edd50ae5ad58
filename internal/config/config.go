package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bz888/gramfix/internal/api/server"
	"github.com/bz888/gramfix/internal/api/server/client"
	"github.com/bz888/gramfix/internal/api/server/handlers"
	"github.com/bz888/gramfix/internal/session"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "GRAMFIX_"

type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

type Config struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	BaseURL         string        `yaml:"base_url"`
	UpstreamTimeout time.Duration `yaml:"upstream_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

type ClientConfig struct {
	GatewayURL string    `yaml:"gateway_url"`
	Store      StoreKind `yaml:"store"`
	StorePath  string    `yaml:"store_path"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "localhost",
			Port:         8080,
			Provider:     string(client.ProviderGemini),
			MaxBodyBytes: handlers.DefaultMaxBodyBytes,
		},
		Client: ClientConfig{
			GatewayURL: "http://localhost:8080",
			Store:      StoreFile,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (if it
// exists), a .env file in the working directory and GRAMFIX_* variables, in
// that order.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(envPrefix + "HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv(envPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT: %w", envPrefix, err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv(envPrefix + "PROVIDER"); v != "" {
		c.Server.Provider = v
	}
	if v := os.Getenv(envPrefix + "MODEL"); v != "" {
		c.Server.Model = v
	}
	if v := os.Getenv(envPrefix + "BASE_URL"); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv(envPrefix + "UPSTREAM_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %sUPSTREAM_TIMEOUT: %w", envPrefix, err)
		}
		c.Server.UpstreamTimeout = d
	}
	if v := os.Getenv(envPrefix + "MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMAX_BODY_BYTES: %w", envPrefix, err)
		}
		c.Server.MaxBodyBytes = n
	}
	if v := os.Getenv(envPrefix + "GATEWAY_URL"); v != "" {
		c.Client.GatewayURL = v
	}
	if v := os.Getenv(envPrefix + "STORE"); v != "" {
		c.Client.Store = StoreKind(v)
	}
	if v := os.Getenv(envPrefix + "STORE_PATH"); v != "" {
		c.Client.StorePath = v
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch client.Provider(strings.ToLower(c.Server.Provider)) {
	case client.ProviderGemini, client.ProviderOpenAI, client.ProviderOllama:
	default:
		return fmt.Errorf("unknown server.provider %q", c.Server.Provider)
	}
	if c.Server.UpstreamTimeout < 0 {
		return fmt.Errorf("server.upstream_timeout must not be negative")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive")
	}
	switch c.Client.Store {
	case StoreFile, StoreSQLite, StoreMemory:
	default:
		return fmt.Errorf("unknown client.store %q", c.Client.Store)
	}
	return nil
}

func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Host:            c.Server.Host,
		Port:            c.Server.Port,
		Provider:        client.Provider(strings.ToLower(c.Server.Provider)),
		Model:           c.Server.Model,
		BaseURL:         c.Server.BaseURL,
		UpstreamTimeout: c.Server.UpstreamTimeout,
		MaxBodyBytes:    c.Server.MaxBodyBytes,
	}
}

// DefaultUserConfigPath is where the config file is looked for when no
// --config flag is given.
func DefaultUserConfigPath() string {
	return filepath.Join(userDir(), "config.yaml")
}

func userDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".gramfix"
	}
	return filepath.Join(dir, "gramfix")
}

func (c *Config) storePath() string {
	if c.Client.StorePath != "" {
		return c.Client.StorePath
	}
	if c.Client.Store == StoreSQLite {
		return filepath.Join(userDir(), "state.db")
	}
	return filepath.Join(userDir(), "state.json")
}

// OpenStore opens the configured client store. The returned func releases the
// backend and is never nil.
func (c *Config) OpenStore() (*session.Store, func() error, error) {
	noop := func() error { return nil }

	switch c.Client.Store {
	case StoreMemory:
		return session.NewStore(session.NewMemoryKV()), noop, nil
	case StoreSQLite:
		path := c.storePath()
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, nil, fmt.Errorf("failed to create store directory: %w", err)
		}
		kv, err := session.NewSQLiteKV(path)
		if err != nil {
			return nil, nil, err
		}
		return session.NewStore(kv), kv.Close, nil
	default:
		kv, err := session.NewFileKV(c.storePath())
		if err != nil {
			return nil, nil, err
		}
		return session.NewStore(kv), noop, nil
	}
}
