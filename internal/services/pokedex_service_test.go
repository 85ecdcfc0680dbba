package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/poke-market/api/internal/clients/pokeapi"
	"github.com/poke-market/api/internal/storage"
)

type stubPokemonCatalog struct {
	pokemon func(ctx context.Context, url string) (pokeapi.Pokemon, error)
	species func(ctx context.Context, url string) (pokeapi.Species, error)
	chain   func(ctx context.Context, url string) (pokeapi.EvolutionChain, error)
}

func (s *stubPokemonCatalog) PokemonByURL(ctx context.Context, url string) (pokeapi.Pokemon, error) {
	return s.pokemon(ctx, url)
}

func (s *stubPokemonCatalog) SpeciesByURL(ctx context.Context, url string) (pokeapi.Species, error) {
	return s.species(ctx, url)
}

func (s *stubPokemonCatalog) EvolutionChainByURL(ctx context.Context, url string) (pokeapi.EvolutionChain, error) {
	return s.chain(ctx, url)
}

func pokemonFromJSON(t *testing.T, raw string) pokeapi.Pokemon {
	t.Helper()
	var pokemon pokeapi.Pokemon
	if err := json.Unmarshal([]byte(raw), &pokemon); err != nil {
		t.Fatalf("unmarshal pokemon: %v", err)
	}
	return pokemon
}

func speciesFromJSON(t *testing.T, raw string) pokeapi.Species {
	t.Helper()
	var species pokeapi.Species
	if err := json.Unmarshal([]byte(raw), &species); err != nil {
		t.Fatalf("unmarshal species: %v", err)
	}
	return species
}

func evolutionChainFromJSON(t *testing.T, raw string) pokeapi.EvolutionChain {
	t.Helper()
	var chain pokeapi.EvolutionChain
	if err := json.Unmarshal([]byte(raw), &chain); err != nil {
		t.Fatalf("unmarshal evolution chain: %v", err)
	}
	return chain
}

func writeRoster(t *testing.T, raw string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pokedex.json")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write roster: %v", err)
	}
	return path
}

const testRoster = `{
	"pokemon": [
		{"id": 1, "pokemonUrl": "https://pokeapi.co/api/v2/pokemon/1/", "speciesUrl": "https://pokeapi.co/api/v2/pokemon-species/1/"},
		{"id": 133, "pokemonUrl": "https://pokeapi.co/api/v2/pokemon/133/", "speciesUrl": "https://pokeapi.co/api/v2/pokemon-species/133/"}
	]
}`

func testPokedexCatalog(t *testing.T) *stubPokemonCatalog {
	t.Helper()

	pokemons := map[string]pokeapi.Pokemon{
		"https://pokeapi.co/api/v2/pokemon/1/": pokemonFromJSON(t, `{
			"name": "bulbasaur",
			"height": 7,
			"weight": 69,
			"sprites": {"other": {"official-artwork": {"front_default": "https://img.example/bulbasaur.png"}}},
			"types": [{"type": {"name": "grass"}}, {"type": {"name": "poison"}}],
			"abilities": [{"ability": {"name": "overgrow"}}]
		}`),
		"https://pokeapi.co/api/v2/pokemon/133/": pokemonFromJSON(t, `{
			"name": "eevee",
			"height": 3,
			"weight": 65,
			"sprites": {"front_default": "https://img.example/eevee.png"},
			"types": [{"type": {"name": "normal"}}],
			"abilities": [{"ability": {"name": "run-away"}}]
		}`),
	}
	species := map[string]pokeapi.Species{
		"https://pokeapi.co/api/v2/pokemon-species/1/": speciesFromJSON(t, `{
			"flavor_text_entries": [{"flavor_text": "A strange seed was\nplanted at birth.", "language": {"name": "en"}}],
			"generation": {"name": "generation-i"},
			"color": {"name": "green"},
			"evolution_chain": {"url": "https://pokeapi.co/api/v2/evolution-chain/1/"}
		}`),
		"https://pokeapi.co/api/v2/pokemon-species/133/": speciesFromJSON(t, `{
			"flavor_text_entries": [],
			"generation": {"name": "generation-i"},
			"color": {"name": "brown"},
			"evolution_chain": {"url": "https://pokeapi.co/api/v2/evolution-chain/67/"}
		}`),
	}
	chains := map[string]pokeapi.EvolutionChain{
		"https://pokeapi.co/api/v2/evolution-chain/1/": evolutionChainFromJSON(t, `{
			"id": 1,
			"chain": {
				"species": {"name": "bulbasaur", "url": "https://pokeapi.co/api/v2/pokemon-species/1/"},
				"evolves_to": [{
					"species": {"name": "ivysaur", "url": "https://pokeapi.co/api/v2/pokemon-species/2/"},
					"evolves_to": []
				}]
			}
		}`),
		"https://pokeapi.co/api/v2/evolution-chain/67/": evolutionChainFromJSON(t, `{
			"id": 67,
			"chain": {
				"species": {"name": "eevee", "url": "https://pokeapi.co/api/v2/pokemon-species/133/"},
				"evolves_to": []
			}
		}`),
	}

	return &stubPokemonCatalog{
		pokemon: func(_ context.Context, url string) (pokeapi.Pokemon, error) {
			p, ok := pokemons[url]
			if !ok {
				return pokeapi.Pokemon{}, errors.New("unknown pokemon url " + url)
			}
			return p, nil
		},
		species: func(_ context.Context, url string) (pokeapi.Species, error) {
			s, ok := species[url]
			if !ok {
				return pokeapi.Species{}, errors.New("unknown species url " + url)
			}
			return s, nil
		},
		chain: func(_ context.Context, url string) (pokeapi.EvolutionChain, error) {
			c, ok := chains[url]
			if !ok {
				return pokeapi.EvolutionChain{}, errors.New("unknown chain url " + url)
			}
			return c, nil
		},
	}
}

func newTestPokedexService(t *testing.T, catalog PokemonCatalog) (PokedexService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })

	service, err := NewPokedexService(PokedexServiceDeps{
		RosterPath: writeRoster(t, testRoster),
		PokeAPI:    catalog,
		Store:      store,
	})
	if err != nil {
		t.Fatalf("unexpected error constructing pokedex service: %v", err)
	}
	return service, store
}

func TestPokedexServiceHydratesEntries(t *testing.T) {
	service, _ := newTestPokedexService(t, testPokedexCatalog(t))

	entries, err := service.Entries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	bulbasaur := entries[0]
	if bulbasaur.ID != 1 || bulbasaur.Name != "Bulbasaur" {
		t.Fatalf("unexpected first entry: %+v", bulbasaur)
	}
	if len(bulbasaur.Types) != 2 || bulbasaur.Types[0] != "grass" || bulbasaur.Types[1] != "poison" {
		t.Fatalf("unexpected types: %v", bulbasaur.Types)
	}
	if bulbasaur.Image != "https://img.example/bulbasaur.png" {
		t.Fatalf("unexpected image: %s", bulbasaur.Image)
	}
	if bulbasaur.Description != "A strange seed was planted at birth." {
		t.Fatalf("unexpected description: %q", bulbasaur.Description)
	}
	if bulbasaur.Generation != "generation-i" || bulbasaur.Color != "green" {
		t.Fatalf("unexpected species fields: %+v", bulbasaur)
	}
	if bulbasaur.Evolutions.Branching || len(bulbasaur.Evolutions.Sequence) != 2 {
		t.Fatalf("unexpected evolutions: %+v", bulbasaur.Evolutions)
	}
	if bulbasaur.Evolutions.Sequence[1].Name != "ivysaur" || bulbasaur.Evolutions.Sequence[1].ID != 2 {
		t.Fatalf("unexpected evolution node: %+v", bulbasaur.Evolutions.Sequence[1])
	}

	eevee := entries[1]
	if eevee.Description != "No description available" {
		t.Fatalf("expected fallback description, got %q", eevee.Description)
	}
	if eevee.Image != "https://img.example/eevee.png" {
		t.Fatalf("expected front_default fallback image, got %s", eevee.Image)
	}
}

func TestPokedexServiceEntryLookup(t *testing.T) {
	service, _ := newTestPokedexService(t, testPokedexCatalog(t))
	ctx := context.Background()

	byID, err := service.Entry(ctx, "133")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byID.Name != "Eevee" {
		t.Fatalf("unexpected entry by id: %+v", byID)
	}

	byName, err := service.Entry(ctx, "  BULBASAUR ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if byName.ID != 1 {
		t.Fatalf("unexpected entry by name: %+v", byName)
	}

	if _, err := service.Entry(ctx, "mewthree"); !errors.Is(err, ErrPokedexNotFound) {
		t.Fatalf("expected ErrPokedexNotFound, got %v", err)
	}
	if _, err := service.Entry(ctx, "   "); !errors.Is(err, ErrPokedexNotFound) {
		t.Fatalf("expected ErrPokedexNotFound for blank identifier, got %v", err)
	}
}

func TestApplyFilters(t *testing.T) {
	entries := []PokedexEntry{
		{ID: 1, Name: "Bulbasaur", Types: []string{"grass", "poison"}, Generation: "generation-i"},
		{ID: 6, Name: "Charizard", Types: []string{"fire", "flying"}, Generation: "generation-i"},
		{ID: 252, Name: "Treecko", Types: []string{"grass"}, Generation: "generation-iii"},
	}

	tests := []struct {
		name  string
		state FilterState
		want  []int
	}{
		{name: "empty state matches all", state: FilterState{}, want: []int{1, 6, 252}},
		{name: "term matches name", state: FilterState{SearchTerm: "char"}, want: []int{6}},
		{name: "term matches id digits", state: FilterState{SearchTerm: "25"}, want: []int{252}},
		{name: "every selected type must be present", state: FilterState{Types: []string{"grass", "poison"}}, want: []int{1}},
		{name: "single type matches both holders", state: FilterState{Types: []string{"grass"}}, want: []int{1, 252}},
		{name: "generation membership", state: FilterState{Generations: []string{"generation-iii"}}, want: []int{252}},
		{name: "facets combine", state: FilterState{SearchTerm: "e", Types: []string{"grass"}, Generations: []string{"generation-iii"}}, want: []int{252}},
		{name: "no match", state: FilterState{SearchTerm: "zzz"}, want: []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFilters(entries, tt.state)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Fatalf("expected id %d at position %d, got %d", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestPokedexServiceFacetOptions(t *testing.T) {
	service, _ := newTestPokedexService(t, testPokedexCatalog(t))
	ctx := context.Background()

	types, err := service.TypeOptions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"grass", "normal", "poison"}
	if len(types) != len(want) {
		t.Fatalf("unexpected type options: %v", types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, types)
		}
	}

	generations, err := service.GenerationOptions(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(generations) != 1 || generations[0] != "generation-i" {
		t.Fatalf("unexpected generation options: %v", generations)
	}
}

func TestGenerationOrderPlacesUnknownLast(t *testing.T) {
	if generationOrder("generation-i") >= generationOrder("generation-ix") {
		t.Fatal("expected generation-i to rank before generation-ix")
	}
	if generationOrder("generation-ix") >= generationOrder("generation-mystery") {
		t.Fatal("expected unknown generations to rank last")
	}
}

func TestPokedexServiceFilterStateRoundTrip(t *testing.T) {
	service, store := newTestPokedexService(t, testPokedexCatalog(t))
	ctx := context.Background()

	saved := FilterState{SearchTerm: "bulba", Types: []string{"grass"}, Generations: []string{"generation-i"}}
	if err := service.SaveFilterState(ctx, saved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	loaded, err := service.LoadFilterState(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded.SearchTerm != "bulba" || len(loaded.Types) != 1 || len(loaded.Generations) != 1 {
		t.Fatalf("unexpected restored state: %+v", loaded)
	}

	if err := store.Put(ctx, storage.NamespaceFilters, "state", []byte("{corrupt")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tolerant, err := service.LoadFilterState(ctx)
	if err != nil {
		t.Fatalf("expected corrupt state to be tolerated, got %v", err)
	}
	if tolerant.SearchTerm != "" || tolerant.Types != nil || tolerant.Generations != nil {
		t.Fatalf("expected zero state, got %+v", tolerant)
	}
}

func TestPokedexServiceFailedReloadKeepsPreviousCollection(t *testing.T) {
	catalog := testPokedexCatalog(t)
	var fail atomic.Bool
	pokemonFn := catalog.pokemon
	catalog.pokemon = func(ctx context.Context, url string) (pokeapi.Pokemon, error) {
		if fail.Load() {
			return pokeapi.Pokemon{}, errors.New("upstream down")
		}
		return pokemonFn(ctx, url)
	}

	service, _ := newTestPokedexService(t, catalog)
	ctx := context.Background()

	if _, err := service.Reload(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fail.Store(true)
	if _, err := service.Reload(ctx); !errors.Is(err, ErrPokedexUnavailable) {
		t.Fatalf("expected ErrPokedexUnavailable, got %v", err)
	}

	entries, err := service.Entries(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected previous collection retained, got %d entries", len(entries))
	}
}
