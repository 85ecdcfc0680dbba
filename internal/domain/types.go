package domain

// CartLineItem is one distinct product entry in the cart with its own quantity.
// Line items are unique by ID; merging happens on add.
type CartLineItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
}

// CartSummary is derived from the current cart contents on every read; it is
// never persisted.
type CartSummary struct {
	Items     []CartLineItem `json:"items"`
	ItemCount int            `json:"itemCount"`
	Subtotal  float64        `json:"subtotal"`
	Taxes     float64        `json:"taxes"`
	Total     float64        `json:"total"`
}

// OrderSummary is the snapshot written once at checkout and read once on the
// confirmation page. Each checkout overwrites the previous snapshot.
type OrderSummary struct {
	OrderID    string `json:"orderId"`
	TotalLabel string `json:"totalLabel"`
}

// ShopCategory enumerates the derived shop item categories.
type ShopCategory string

const (
	// CategoryPokeball groups throwable capture items.
	CategoryPokeball ShopCategory = "Pokeball"
	// CategoryConsumable groups everything else.
	CategoryConsumable ShopCategory = "Consumable"
)

// ShopItemSource records where an aggregated shop item was joined from.
type ShopItemSource struct {
	PokeURL     string `json:"pokeUrl"`
	FakeStoreID *int   `json:"fakeStoreId"`
}

// ShopItem is the unified shop model built by joining a manifest entry with at
// most one record from each remote catalog. The collection is rebuilt wholesale
// on every refresh and never partially mutated.
type ShopItem struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Price       float64        `json:"price"`
	Currency    string         `json:"currency"`
	Category    ShopCategory   `json:"category"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	Rating      *float64       `json:"rating"`
	Source      ShopItemSource `json:"source"`
}

// PokedexEntry is the fully hydrated encyclopedia record for one species,
// immutable after construction.
type PokedexEntry struct {
	ID          int            `json:"id"`
	Name        string         `json:"name"`
	Types       []string       `json:"types"`
	Image       string         `json:"image"`
	Abilities   []string       `json:"abilities"`
	Height      int            `json:"height"`
	Weight      int            `json:"weight"`
	Description string         `json:"description"`
	Generation  string         `json:"generation"`
	Color       string         `json:"color"`
	Evolutions  EvolutionChain `json:"evolutions"`
}

// EvolutionNode identifies one species within an evolution chain.
type EvolutionNode struct {
	Name string `json:"name"`
	ID   int    `json:"id"`
}

// EvolutionChain is the display structure resolved from the recursive
// species-evolution graph. A root with more than one direct successor forces
// the branching form; otherwise the chain is a flat sequence.
type EvolutionChain struct {
	Branching bool              `json:"isBranching"`
	Sequence  []EvolutionNode   `json:"list,omitempty"`
	Root      EvolutionNode     `json:"root,omitempty"`
	Branches  [][]EvolutionNode `json:"branches,omitempty"`
}

// FilterState captures the Pokédex search term and multi-select facets. It is
// persisted on every change and restored before the first render.
type FilterState struct {
	SearchTerm  string   `json:"searchTerm"`
	Types       []string `json:"types"`
	Generations []string `json:"generations"`
}

// ShopManifestEntry is one row of the static shop manifest joined against the
// remote catalogs.
type ShopManifestEntry struct {
	ID       string  `json:"id"`
	Name     string  `json:"name,omitempty"`
	Price    float64 `json:"price"`
	Currency string  `json:"currency,omitempty"`
	APIURL   string  `json:"apiUrl"`
}

// ShopManifest is the static local listing of shop items.
type ShopManifest struct {
	Items []ShopManifestEntry `json:"items"`
}

// PokedexRosterEntry points at the remote resources for one roster species.
type PokedexRosterEntry struct {
	ID         int    `json:"id"`
	PokemonURL string `json:"pokemonUrl"`
	SpeciesURL string `json:"speciesUrl"`
}

// PokedexRoster is the static local listing of species to hydrate.
type PokedexRoster struct {
	Pokemon []PokedexRosterEntry `json:"pokemon"`
}

// ContentPage is a rendered static page sourced from local markdown.
type ContentPage struct {
	Slug    string `json:"slug"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Body    string `json:"body"`
}
