package services

import (
	"context"

	domain "github.com/poke-market/api/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	CartLineItem       = domain.CartLineItem
	CartSummary        = domain.CartSummary
	OrderSummary       = domain.OrderSummary
	ShopItem           = domain.ShopItem
	ShopCategory       = domain.ShopCategory
	ShopItemSource     = domain.ShopItemSource
	ShopManifest       = domain.ShopManifest
	ShopManifestEntry  = domain.ShopManifestEntry
	PokedexEntry       = domain.PokedexEntry
	PokedexRoster      = domain.PokedexRoster
	PokedexRosterEntry = domain.PokedexRosterEntry
	EvolutionChain     = domain.EvolutionChain
	EvolutionNode      = domain.EvolutionNode
	FilterState        = domain.FilterState
	ContentPage        = domain.ContentPage
)

const (
	CategoryPokeball   = domain.CategoryPokeball
	CategoryConsumable = domain.CategoryConsumable
)

// CartService manages the persisted cart and order snapshot.
type CartService interface {
	Items(ctx context.Context) ([]CartLineItem, error)
	Add(ctx context.Context, item CartLineItem, quantity int) ([]CartLineItem, error)
	Remove(ctx context.Context, itemID string) ([]CartLineItem, error)
	UpdateQuantity(ctx context.Context, itemID string, quantity float64) ([]CartLineItem, error)
	Clear(ctx context.Context) error
	Summary(ctx context.Context) (CartSummary, error)
	SaveOrderSummary(ctx context.Context, summary OrderSummary) error
	OrderSummary(ctx context.Context) (*OrderSummary, error)
}

// ShopService aggregates the storefront catalog from the manifest and the
// remote item and product APIs.
type ShopService interface {
	Items(ctx context.Context) ([]ShopItem, error)
	Reload(ctx context.Context) ([]ShopItem, error)
	Categories(ctx context.Context) ([]string, error)
	Filter(ctx context.Context, category, term string) ([]ShopItem, error)
	Subscribe(fn func([]ShopItem))
}

// PokedexService aggregates the pokedex collection and evaluates facet filters.
type PokedexService interface {
	Entries(ctx context.Context) ([]PokedexEntry, error)
	Reload(ctx context.Context) ([]PokedexEntry, error)
	Search(ctx context.Context, state FilterState) ([]PokedexEntry, error)
	Entry(ctx context.Context, identifier string) (PokedexEntry, error)
	TypeOptions(ctx context.Context) ([]string, error)
	GenerationOptions(ctx context.Context) ([]string, error)
	SaveFilterState(ctx context.Context, state FilterState) error
	LoadFilterState(ctx context.Context) (FilterState, error)
}

// CheckoutService snapshots the cart into an order confirmation.
type CheckoutService interface {
	Checkout(ctx context.Context) (OrderSummary, error)
	Order(ctx context.Context) (*OrderSummary, error)
}

// ContentService serves the static markdown-backed pages.
type ContentService interface {
	Page(ctx context.Context, slug string) (ContentPage, error)
	Pages(ctx context.Context) ([]ContentPage, error)
}

// PreferencesService persists small per-installation display preferences.
type PreferencesService interface {
	Theme(ctx context.Context) (string, error)
	SetTheme(ctx context.Context, theme string) error
}
