package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/poke-market/api/internal/clients/pokeapi"
	"github.com/poke-market/api/internal/storage"
)

var (
	errPokedexRosterRequired = errors.New("pokedex service: roster path is required")
	errPokedexClientRequired = errors.New("pokedex service: pokeapi client is required")
	errPokedexStoreRequired  = errors.New("pokedex service: store is required")
)

const (
	filterStateKey         = "state"
	noDescriptionAvailable = "No description available"
	unknownGenerationOrder = 999
)

// ErrPokedexUnavailable indicates the collection could not be loaded; any
// previously hydrated collection stays in place.
var ErrPokedexUnavailable = errors.New("pokedex service: unavailable")

// ErrPokedexNotFound indicates the requested entry is not in the collection.
var ErrPokedexNotFound = errors.New("pokedex service: not found")

// PokemonCatalog fetches the remote resources that hydrate a pokedex entry.
type PokemonCatalog interface {
	PokemonByURL(ctx context.Context, resourceURL string) (pokeapi.Pokemon, error)
	SpeciesByURL(ctx context.Context, resourceURL string) (pokeapi.Species, error)
	EvolutionChainByURL(ctx context.Context, resourceURL string) (pokeapi.EvolutionChain, error)
}

// PokedexServiceDeps wires the roster, the remote catalog, and filter-state
// persistence.
type PokedexServiceDeps struct {
	RosterPath string
	PokeAPI    PokemonCatalog
	Store      storage.Store
	Sanitizer  *bluemonday.Policy
	Logger     func(context.Context, string, map[string]any)
}

type pokedexService struct {
	rosterPath string
	pokeapi    PokemonCatalog
	store      storage.Store
	sanitizer  *bluemonday.Policy
	logger     func(context.Context, string, map[string]any)

	mu         sync.Mutex
	entries    []PokedexEntry
	loaded     bool
	generation uint64
}

// NewPokedexService constructs a PokedexService enforcing dependency validation.
func NewPokedexService(deps PokedexServiceDeps) (PokedexService, error) {
	if strings.TrimSpace(deps.RosterPath) == "" {
		return nil, errPokedexRosterRequired
	}
	if deps.PokeAPI == nil {
		return nil, errPokedexClientRequired
	}
	if deps.Store == nil {
		return nil, errPokedexStoreRequired
	}

	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &pokedexService{
		rosterPath: deps.RosterPath,
		pokeapi:    deps.PokeAPI,
		store:      deps.Store,
		sanitizer:  sanitizer,
		logger:     logger,
	}, nil
}

// Entries returns the hydrated collection, loading it on first use.
func (s *pokedexService) Entries(ctx context.Context) ([]PokedexEntry, error) {
	s.mu.Lock()
	if s.loaded {
		entries := copyPokedexEntries(s.entries)
		s.mu.Unlock()
		return entries, nil
	}
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Reload rebuilds the collection from the roster. Each entry fans out to the
// pokemon, species, and evolution-chain resources; any failure aborts the
// whole load and keeps the previous collection. A load overtaken by a newer
// one is discarded.
func (s *pokedexService) Reload(ctx context.Context) ([]PokedexEntry, error) {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	roster, err := s.readRoster()
	if err != nil {
		return nil, err
	}

	hydrated := make([]PokedexEntry, len(roster.Pokemon))
	group, groupCtx := errgroup.WithContext(ctx)
	for i := range roster.Pokemon {
		group.Go(func() error {
			entry, err := s.hydrateEntry(groupCtx, roster.Pokemon[i])
			if err != nil {
				return err
			}
			hydrated[i] = entry
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		s.logger(ctx, "pokedex.load_failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrPokedexUnavailable, err)
	}

	s.mu.Lock()
	if generation != s.generation {
		current := copyPokedexEntries(s.entries)
		s.mu.Unlock()
		s.logger(ctx, "pokedex.load_superseded", map[string]any{"generation": generation})
		return current, nil
	}
	s.entries = hydrated
	s.loaded = true
	s.mu.Unlock()

	s.logger(ctx, "pokedex.collection_loaded", map[string]any{"entries": len(hydrated), "generation": generation})
	return copyPokedexEntries(hydrated), nil
}

// Search applies the given filter state to the loaded collection.
func (s *pokedexService) Search(ctx context.Context, state FilterState) ([]PokedexEntry, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilters(entries, state), nil
}

// Entry resolves a single entry by decimal id or case-insensitive name.
func (s *pokedexService) Entry(ctx context.Context, identifier string) (PokedexEntry, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" {
		return PokedexEntry{}, fmt.Errorf("%w: empty identifier", ErrPokedexNotFound)
	}

	entries, err := s.Entries(ctx)
	if err != nil {
		return PokedexEntry{}, err
	}
	for _, entry := range entries {
		if strconv.Itoa(entry.ID) == identifier || strings.ToLower(entry.Name) == identifier {
			return entry, nil
		}
	}
	return PokedexEntry{}, fmt.Errorf("%w: %s", ErrPokedexNotFound, identifier)
}

// TypeOptions lists the distinct types across the collection in
// lexicographic order.
func (s *pokedexService) TypeOptions(ctx context.Context) ([]string, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	options := []string{}
	for _, entry := range entries {
		for _, t := range entry.Types {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			options = append(options, t)
		}
	}
	sort.Strings(options)
	return options, nil
}

// GenerationOptions lists the distinct generations in canonical release
// order, unknown generations last.
func (s *pokedexService) GenerationOptions(ctx context.Context) ([]string, error) {
	entries, err := s.Entries(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	options := []string{}
	for _, entry := range entries {
		if entry.Generation == "" {
			continue
		}
		if _, ok := seen[entry.Generation]; ok {
			continue
		}
		seen[entry.Generation] = struct{}{}
		options = append(options, entry.Generation)
	}
	sort.SliceStable(options, func(i, j int) bool {
		return generationOrder(options[i]) < generationOrder(options[j])
	})
	return options, nil
}

// SaveFilterState persists the filter selections.
func (s *pokedexService) SaveFilterState(ctx context.Context, state FilterState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("%w: encode filter state: %v", ErrPokedexUnavailable, err)
	}
	if err := s.store.Put(ctx, storage.NamespaceFilters, filterStateKey, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrPokedexUnavailable, err)
	}
	return nil
}

// LoadFilterState restores the persisted selections. Missing or corrupt
// state yields the zero value, never an error.
func (s *pokedexService) LoadFilterState(ctx context.Context) (FilterState, error) {
	raw, err := s.store.Get(ctx, storage.NamespaceFilters, filterStateKey)
	if err != nil || raw == nil {
		if err != nil {
			s.logger(ctx, "pokedex.filter_read_failed", map[string]any{"error": err.Error()})
		}
		return FilterState{}, nil
	}

	var state FilterState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger(ctx, "pokedex.filter_state_corrupt", map[string]any{"error": err.Error()})
		return FilterState{}, nil
	}
	return state, nil
}

// ApplyFilters evaluates the filter state against the collection, preserving
// order. The search term matches the name or the decimal id; every selected
// type must be present; the generation must be one of the selected ones.
// Empty facets match everything.
func ApplyFilters(entries []PokedexEntry, state FilterState) []PokedexEntry {
	term := strings.ToLower(strings.TrimSpace(state.SearchTerm))

	filtered := make([]PokedexEntry, 0, len(entries))
	for _, entry := range entries {
		if term != "" &&
			!strings.Contains(strings.ToLower(entry.Name), term) &&
			!strings.Contains(strconv.Itoa(entry.ID), term) {
			continue
		}
		if !containsAllTypes(entry.Types, state.Types) {
			continue
		}
		if len(state.Generations) > 0 && !containsString(state.Generations, entry.Generation) {
			continue
		}
		filtered = append(filtered, entry)
	}
	return filtered
}

func (s *pokedexService) hydrateEntry(ctx context.Context, ref PokedexRosterEntry) (PokedexEntry, error) {
	pokemon, err := s.pokeapi.PokemonByURL(ctx, ref.PokemonURL)
	if err != nil {
		return PokedexEntry{}, err
	}
	species, err := s.pokeapi.SpeciesByURL(ctx, ref.SpeciesURL)
	if err != nil {
		return PokedexEntry{}, err
	}
	chain, err := s.pokeapi.EvolutionChainByURL(ctx, species.EvolutionChain.URL)
	if err != nil {
		return PokedexEntry{}, err
	}

	description := species.EnglishFlavorText()
	if description == "" {
		description = noDescriptionAvailable
	}
	description = strings.TrimSpace(s.sanitizer.Sanitize(description))

	return PokedexEntry{
		ID:          ref.ID,
		Name:        capitalize(pokemon.Name),
		Types:       pokemon.TypeNames(),
		Image:       pokemon.ImageURL(),
		Abilities:   pokemon.AbilityNames(),
		Height:      pokemon.Height,
		Weight:      pokemon.Weight,
		Description: description,
		Generation:  species.Generation.Name,
		Color:       species.Color.Name,
		Evolutions:  ResolveEvolutionChain(chain.Chain),
	}, nil
}

func (s *pokedexService) readRoster() (PokedexRoster, error) {
	raw, err := os.ReadFile(s.rosterPath)
	if err != nil {
		return PokedexRoster{}, fmt.Errorf("%w: read roster: %v", ErrPokedexUnavailable, err)
	}
	var roster PokedexRoster
	if err := json.Unmarshal(raw, &roster); err != nil {
		return PokedexRoster{}, fmt.Errorf("%w: parse roster: %v", ErrPokedexUnavailable, err)
	}
	return roster, nil
}

func containsAllTypes(have, want []string) bool {
	for _, w := range want {
		if !containsString(have, w) {
			return false
		}
	}
	return true
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

func capitalize(value string) string {
	if value == "" {
		return ""
	}
	return strings.ToUpper(value[:1]) + value[1:]
}

func generationOrder(value string) int {
	order := map[string]int{
		"generation-i":    1,
		"generation-ii":   2,
		"generation-iii":  3,
		"generation-iv":   4,
		"generation-v":    5,
		"generation-vi":   6,
		"generation-vii":  7,
		"generation-viii": 8,
		"generation-ix":   9,
	}
	if rank, ok := order[value]; ok {
		return rank
	}
	return unknownGenerationOrder
}

func copyPokedexEntries(entries []PokedexEntry) []PokedexEntry {
	out := make([]PokedexEntry, len(entries))
	copy(out, entries)
	return out
}
