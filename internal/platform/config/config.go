package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultShutdownTimeout  = 10 * time.Second
	defaultPokeAPIBaseURL   = "https://pokeapi.co/api/v2"
	defaultFakeStoreBaseURL = "https://fakestoreapi.com"
	defaultClientTimeout    = 10 * time.Second
	defaultStoragePath      = "pokemarket.db"
	defaultManifestPath     = "data/shop-items.json"
	defaultRosterPath       = "data/pokedex.json"
	defaultContentDir       = "content"
	defaultTaxRate          = 0.07
	defaultCurrency         = "P"
	defaultSearchDebounce   = 200 * time.Millisecond
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	PokeAPI   UpstreamConfig
	FakeStore UpstreamConfig
	Storage   StorageConfig
	Shop      ShopConfig
	Pokedex   PokedexConfig
	Content   ContentConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// UpstreamConfig describes an upstream HTTP API the service consumes.
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// StorageConfig controls the embedded key/value store.
type StorageConfig struct {
	Path     string
	InMemory bool
}

// ShopConfig configures the storefront catalog and checkout.
type ShopConfig struct {
	ManifestPath string
	TaxRate      float64
	Currency     string
}

// PokedexConfig configures the pokedex roster and search behaviour.
type PokedexConfig struct {
	RosterPath     string
	SearchDebounce time.Duration
}

// ContentConfig points at the markdown content directory.
type ContentConfig struct {
	Dir string
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// and environment variables.
func Load(opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            stringWithDefault(lookup, "MARKET_SERVER_PORT", defaultPort),
			ReadTimeout:     durationWithDefault(lookup, "MARKET_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout:    durationWithDefault(lookup, "MARKET_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:     durationWithDefault(lookup, "MARKET_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			ShutdownTimeout: durationWithDefault(lookup, "MARKET_SERVER_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		},
		PokeAPI: UpstreamConfig{
			BaseURL: stringWithDefault(lookup, "MARKET_POKEAPI_BASE_URL", defaultPokeAPIBaseURL),
			Timeout: durationWithDefault(lookup, "MARKET_POKEAPI_TIMEOUT", defaultClientTimeout),
		},
		FakeStore: UpstreamConfig{
			BaseURL: stringWithDefault(lookup, "MARKET_FAKESTORE_BASE_URL", defaultFakeStoreBaseURL),
			Timeout: durationWithDefault(lookup, "MARKET_FAKESTORE_TIMEOUT", defaultClientTimeout),
		},
		Storage: StorageConfig{
			Path:     stringWithDefault(lookup, "MARKET_STORAGE_PATH", defaultStoragePath),
			InMemory: boolWithDefault(lookup, "MARKET_STORAGE_IN_MEMORY", false),
		},
		Shop: ShopConfig{
			ManifestPath: stringWithDefault(lookup, "MARKET_SHOP_MANIFEST_PATH", defaultManifestPath),
			TaxRate:      floatWithDefault(lookup, "MARKET_SHOP_TAX_RATE", defaultTaxRate),
			Currency:     stringWithDefault(lookup, "MARKET_SHOP_CURRENCY", defaultCurrency),
		},
		Pokedex: PokedexConfig{
			RosterPath:     stringWithDefault(lookup, "MARKET_POKEDEX_ROSTER_PATH", defaultRosterPath),
			SearchDebounce: durationWithDefault(lookup, "MARKET_POKEDEX_SEARCH_DEBOUNCE", defaultSearchDebounce),
		},
		Content: ContentConfig{
			Dir: stringWithDefault(lookup, "MARKET_CONTENT_DIR", defaultContentDir),
		},
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.PokeAPI.BaseURL == "" {
		missing = append(missing, "PokeAPI.BaseURL")
	}
	if cfg.PokeAPI.Timeout <= 0 {
		missing = append(missing, "PokeAPI.Timeout")
	}
	if cfg.FakeStore.BaseURL == "" {
		missing = append(missing, "FakeStore.BaseURL")
	}
	if cfg.FakeStore.Timeout <= 0 {
		missing = append(missing, "FakeStore.Timeout")
	}
	if !cfg.Storage.InMemory && cfg.Storage.Path == "" {
		missing = append(missing, "Storage.Path")
	}
	if cfg.Shop.ManifestPath == "" {
		missing = append(missing, "Shop.ManifestPath")
	}
	if cfg.Shop.TaxRate < 0 || cfg.Shop.TaxRate >= 1 {
		missing = append(missing, "Shop.TaxRate")
	}
	if cfg.Shop.Currency == "" {
		missing = append(missing, "Shop.Currency")
	}
	if cfg.Pokedex.RosterPath == "" {
		missing = append(missing, "Pokedex.RosterPath")
	}
	if cfg.Pokedex.SearchDebounce <= 0 {
		missing = append(missing, "Pokedex.SearchDebounce")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "export ") {
			line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		value = strings.Trim(value, "\"'")
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		d, err := time.ParseDuration(value)
		if err == nil {
			return d
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}
