package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/poke-market/api/internal/storage"
)

var errPrefsStoreRequired = errors.New("preferences service: store is required")

// ErrPrefsInvalidInput indicates an unsupported preference value.
var ErrPrefsInvalidInput = errors.New("preferences service: invalid input")

const (
	themeKey   = "mode"
	themeLight = "light"
	themeDark  = "dark"
)

// PreferencesServiceDeps wires preference persistence.
type PreferencesServiceDeps struct {
	Store  storage.Store
	Logger func(context.Context, string, map[string]any)
}

type preferencesService struct {
	store  storage.Store
	logger func(context.Context, string, map[string]any)
}

// NewPreferencesService constructs a PreferencesService enforcing dependency validation.
func NewPreferencesService(deps PreferencesServiceDeps) (PreferencesService, error) {
	if deps.Store == nil {
		return nil, errPrefsStoreRequired
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &preferencesService{store: deps.Store, logger: logger}, nil
}

// Theme returns the persisted theme. Absent or unrecognised values fall back
// to light.
func (s *preferencesService) Theme(ctx context.Context) (string, error) {
	raw, err := s.store.Get(ctx, storage.NamespaceTheme, themeKey)
	if err != nil {
		s.logger(ctx, "prefs.theme_read_failed", map[string]any{"error": err.Error()})
		return themeLight, nil
	}
	if theme := strings.TrimSpace(string(raw)); theme == themeDark {
		return themeDark, nil
	}
	return themeLight, nil
}

// SetTheme persists the theme choice.
func (s *preferencesService) SetTheme(ctx context.Context, theme string) error {
	theme = strings.ToLower(strings.TrimSpace(theme))
	if theme != themeLight && theme != themeDark {
		return fmt.Errorf("%w: theme %q", ErrPrefsInvalidInput, theme)
	}
	if err := s.store.Put(ctx, storage.NamespaceTheme, themeKey, []byte(theme)); err != nil {
		return fmt.Errorf("preferences service: persist theme: %w", err)
	}
	s.logger(ctx, "prefs.theme_updated", map[string]any{"theme": theme})
	return nil
}
