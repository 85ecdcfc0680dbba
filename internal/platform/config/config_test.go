package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(WithEnvMap(nil), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.PokeAPI.BaseURL != defaultPokeAPIBaseURL {
		t.Errorf("expected default pokeapi base url, got %s", cfg.PokeAPI.BaseURL)
	}
	if cfg.FakeStore.BaseURL != defaultFakeStoreBaseURL {
		t.Errorf("expected default fakestore base url, got %s", cfg.FakeStore.BaseURL)
	}
	if cfg.PokeAPI.Timeout != defaultClientTimeout {
		t.Errorf("unexpected pokeapi timeout: %s", cfg.PokeAPI.Timeout)
	}
	if cfg.Storage.Path != defaultStoragePath {
		t.Errorf("unexpected storage path: %s", cfg.Storage.Path)
	}
	if cfg.Storage.InMemory {
		t.Error("expected persistent storage by default")
	}
	if cfg.Shop.TaxRate != defaultTaxRate {
		t.Errorf("unexpected tax rate: %f", cfg.Shop.TaxRate)
	}
	if cfg.Shop.Currency != "P" {
		t.Errorf("unexpected currency: %s", cfg.Shop.Currency)
	}
	if cfg.Pokedex.SearchDebounce != 200*time.Millisecond {
		t.Errorf("unexpected search debounce: %s", cfg.Pokedex.SearchDebounce)
	}
	if cfg.Content.Dir != defaultContentDir {
		t.Errorf("unexpected content dir: %s", cfg.Content.Dir)
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"MARKET_SERVER_PORT":             "9090",
		"MARKET_SERVER_READ_TIMEOUT":     "20s",
		"MARKET_SERVER_WRITE_TIMEOUT":    "25s",
		"MARKET_SERVER_IDLE_TIMEOUT":     "2m",
		"MARKET_POKEAPI_BASE_URL":        "http://localhost:9001/api/v2",
		"MARKET_POKEAPI_TIMEOUT":         "3s",
		"MARKET_FAKESTORE_BASE_URL":      "http://localhost:9002",
		"MARKET_STORAGE_PATH":            "/tmp/market.db",
		"MARKET_STORAGE_IN_MEMORY":       "true",
		"MARKET_SHOP_MANIFEST_PATH":      "testdata/items.json",
		"MARKET_SHOP_TAX_RATE":           "0.1",
		"MARKET_SHOP_CURRENCY":           "G",
		"MARKET_POKEDEX_ROSTER_PATH":     "testdata/roster.json",
		"MARKET_POKEDEX_SEARCH_DEBOUNCE": "150ms",
		"MARKET_CONTENT_DIR":             "/srv/content",
	}

	cfg, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("unexpected port: %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.PokeAPI.BaseURL != "http://localhost:9001/api/v2" {
		t.Errorf("unexpected pokeapi base url: %s", cfg.PokeAPI.BaseURL)
	}
	if cfg.PokeAPI.Timeout != 3*time.Second {
		t.Errorf("unexpected pokeapi timeout: %s", cfg.PokeAPI.Timeout)
	}
	if !cfg.Storage.InMemory {
		t.Error("expected in-memory storage")
	}
	if cfg.Shop.TaxRate != 0.1 {
		t.Errorf("unexpected tax rate: %f", cfg.Shop.TaxRate)
	}
	if cfg.Shop.Currency != "G" {
		t.Errorf("unexpected currency: %s", cfg.Shop.Currency)
	}
	if cfg.Pokedex.SearchDebounce != 150*time.Millisecond {
		t.Errorf("unexpected search debounce: %s", cfg.Pokedex.SearchDebounce)
	}
}

func TestLoadReadsDotEnvWithLowerPrecedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	contents := "MARKET_SERVER_PORT=7000\nexport MARKET_SHOP_CURRENCY=\"Z\"\n# comment\n"
	if err := os.WriteFile(envFile, []byte(contents), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(
		WithEnvFile(envFile),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"MARKET_SHOP_CURRENCY": "Y"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7000" {
		t.Errorf("expected dotenv port 7000, got %s", cfg.Server.Port)
	}
	if cfg.Shop.Currency != "Y" {
		t.Errorf("expected env map to win over dotenv, got %s", cfg.Shop.Currency)
	}
}

func TestLoadValidatesFields(t *testing.T) {
	env := map[string]string{
		"MARKET_SHOP_TAX_RATE": "1.5",
	}

	_, err := Load(WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := vErr.Fields()
	if len(fields) != 1 || fields[0] != "Shop.TaxRate" {
		t.Fatalf("unexpected invalid fields: %v", fields)
	}
}
