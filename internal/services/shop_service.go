package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"

	"github.com/poke-market/api/internal/clients/fakestore"
	"github.com/poke-market/api/internal/clients/pokeapi"
	"github.com/poke-market/api/internal/platform/sched"
)

var (
	errShopManifestRequired  = errors.New("shop service: manifest path is required")
	errShopPokeAPIRequired   = errors.New("shop service: pokeapi client is required")
	errShopFakeStoreRequired = errors.New("shop service: fakestore client is required")
)

const (
	defaultItemDescription = "A trusted item for trainers."
	placeholderImagePath   = "/images/placeholder.png"
)

// ErrShopUnavailable indicates the catalog could not be loaded; any previously
// aggregated catalog stays in place.
var ErrShopUnavailable = errors.New("shop service: unavailable")

// PokeItemFetcher fetches item resources referenced by the shop manifest.
type PokeItemFetcher interface {
	ItemByURL(ctx context.Context, resourceURL string) (pokeapi.Item, error)
}

// ProductLister fetches the FakeStore product batch joined into the catalog.
type ProductLister interface {
	Products(ctx context.Context, query fakestore.ProductQuery) ([]fakestore.Product, error)
}

// ShopServiceDeps wires the manifest and remote catalog dependencies.
type ShopServiceDeps struct {
	ManifestPath    string
	PokeAPI         PokeItemFetcher
	FakeStore       ProductLister
	Sanitizer       *bluemonday.Policy
	DefaultCurrency string
	NotifyDelay     time.Duration
	Logger          func(context.Context, string, map[string]any)
}

type shopService struct {
	manifestPath string
	pokeapi      PokeItemFetcher
	fakestore    ProductLister
	sanitizer    *bluemonday.Policy
	currency     string
	logger       func(context.Context, string, map[string]any)
	debounce     *sched.Debouncer

	mu         sync.Mutex
	items      []ShopItem
	loaded     bool
	generation uint64
	listeners  []func([]ShopItem)
}

// NewShopService constructs a ShopService enforcing dependency validation.
func NewShopService(deps ShopServiceDeps) (ShopService, error) {
	if strings.TrimSpace(deps.ManifestPath) == "" {
		return nil, errShopManifestRequired
	}
	if deps.PokeAPI == nil {
		return nil, errShopPokeAPIRequired
	}
	if deps.FakeStore == nil {
		return nil, errShopFakeStoreRequired
	}

	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.StrictPolicy()
	}

	currency := strings.TrimSpace(deps.DefaultCurrency)
	if currency == "" {
		currency = defaultCurrency
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &shopService{
		manifestPath: deps.ManifestPath,
		pokeapi:      deps.PokeAPI,
		fakestore:    deps.FakeStore,
		sanitizer:    sanitizer,
		currency:     currency,
		logger:       logger,
		debounce:     sched.NewDebouncer(deps.NotifyDelay),
	}, nil
}

// Items returns the aggregated catalog, loading it on first use.
func (s *shopService) Items(ctx context.Context) ([]ShopItem, error) {
	s.mu.Lock()
	if s.loaded {
		items := copyShopItems(s.items)
		s.mu.Unlock()
		return items, nil
	}
	s.mu.Unlock()

	return s.Reload(ctx)
}

// Reload rebuilds the catalog from the manifest and both remote APIs. The
// join is positional: manifest entry i pairs with the i-th fetched item and
// the i-th FakeStore product. A failed load leaves the previous catalog in
// place; a load overtaken by a newer one is discarded.
func (s *shopService) Reload(ctx context.Context) ([]ShopItem, error) {
	s.mu.Lock()
	s.generation++
	generation := s.generation
	s.mu.Unlock()

	manifest, err := s.readManifest()
	if err != nil {
		return nil, err
	}

	entries := manifest.Items
	pokeItems := make([]pokeapi.Item, len(entries))
	var products []fakestore.Product

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		fetched, err := s.fakestore.Products(groupCtx, fakestore.ProductQuery{Limit: len(entries)})
		if err != nil {
			return err
		}
		products = fetched
		return nil
	})
	for i := range entries {
		group.Go(func() error {
			item, err := s.pokeapi.ItemByURL(groupCtx, entries[i].APIURL)
			if err != nil {
				return err
			}
			pokeItems[i] = item
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		s.logger(ctx, "shop.load_failed", map[string]any{"error": err.Error()})
		return nil, fmt.Errorf("%w: %v", ErrShopUnavailable, err)
	}

	built := make([]ShopItem, 0, len(entries))
	for i, entry := range entries {
		var product *fakestore.Product
		if i < len(products) {
			product = &products[i]
		}
		built = append(built, s.buildShopItem(entry, pokeItems[i], product))
	}

	s.mu.Lock()
	if generation != s.generation {
		current := copyShopItems(s.items)
		s.mu.Unlock()
		s.logger(ctx, "shop.load_superseded", map[string]any{"generation": generation})
		return current, nil
	}
	s.items = built
	s.loaded = true
	listeners := append([]func([]ShopItem){}, s.listeners...)
	snapshot := copyShopItems(built)
	s.mu.Unlock()

	s.logger(ctx, "shop.catalog_loaded", map[string]any{"items": len(built), "generation": generation})

	if len(listeners) > 0 {
		s.debounce.Trigger(func() {
			for _, fn := range listeners {
				fn(snapshot)
			}
		})
	}
	return copyShopItems(built), nil
}

// Categories lists the distinct item categories, capture items first. An
// empty catalog still advertises both.
func (s *shopService) Categories(ctx context.Context) ([]string, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	categories := make([]string, 0, 2)
	for _, item := range items {
		name := string(item.Category)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		categories = append(categories, name)
	}
	if len(categories) == 0 {
		return []string{string(CategoryPokeball), string(CategoryConsumable)}, nil
	}

	order := map[string]int{string(CategoryPokeball): 0, string(CategoryConsumable): 1}
	sort.SliceStable(categories, func(i, j int) bool {
		return order[categories[i]] < order[categories[j]]
	})
	return categories, nil
}

// Filter narrows the catalog by category equality and a case-insensitive
// substring match on name or description. Empty arguments match everything.
func (s *shopService) Filter(ctx context.Context, category, term string) ([]ShopItem, error) {
	items, err := s.Items(ctx)
	if err != nil {
		return nil, err
	}

	category = strings.TrimSpace(category)
	term = strings.ToLower(strings.TrimSpace(term))

	filtered := make([]ShopItem, 0, len(items))
	for _, item := range items {
		if category != "" && string(item.Category) != category {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(item.Name), term) &&
			!strings.Contains(strings.ToLower(item.Description), term) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

// Subscribe registers a listener invoked (debounced) after each successful
// catalog reload.
func (s *shopService) Subscribe(fn func([]ShopItem)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *shopService) readManifest() (ShopManifest, error) {
	raw, err := os.ReadFile(s.manifestPath)
	if err != nil {
		return ShopManifest{}, fmt.Errorf("%w: read manifest: %v", ErrShopUnavailable, err)
	}
	var manifest ShopManifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return ShopManifest{}, fmt.Errorf("%w: parse manifest: %v", ErrShopUnavailable, err)
	}
	return manifest, nil
}

func (s *shopService) buildShopItem(entry ShopManifestEntry, item pokeapi.Item, product *fakestore.Product) ShopItem {
	name := strings.TrimSpace(entry.Name)
	if name == "" {
		source := item.Name
		if source == "" {
			source = entry.ID
		}
		name = formatResourceName(source)
	}

	currency := strings.TrimSpace(entry.Currency)
	if currency == "" {
		currency = s.currency
	}

	description := item.EnglishShortEffect()
	if description == "" {
		description = item.EnglishFlavorText()
	}
	if description == "" {
		description = defaultItemDescription
	}
	description = strings.TrimSpace(s.sanitizer.Sanitize(description))

	image := strings.TrimSpace(item.Sprites.Default)
	if image == "" && product != nil {
		image = strings.TrimSpace(product.Image)
	}
	if image == "" {
		image = placeholderImagePath
	}

	var rating *float64
	var fakeStoreID *int
	if product != nil {
		if product.Rating.Rate > 0 {
			rate := product.Rating.Rate
			rating = &rate
		}
		if product.ID > 0 {
			id := product.ID
			fakeStoreID = &id
		}
	}

	price := entry.Price
	if price < 0 {
		price = 0
	}

	return ShopItem{
		ID:          entry.ID,
		Name:        name,
		Price:       price,
		Currency:    currency,
		Category:    deriveCategory(entry.ID, item.Name),
		Description: description,
		Image:       image,
		Rating:      rating,
		Source: ShopItemSource{
			PokeURL:     entry.APIURL,
			FakeStoreID: fakeStoreID,
		},
	}
}

// deriveCategory buckets anything whose id or name mentions "ball" as a
// capture item.
func deriveCategory(entryID, itemName string) ShopCategory {
	name := strings.ToLower(strings.TrimSpace(entryID))
	if name == "" {
		name = strings.ToLower(strings.TrimSpace(itemName))
	}
	if strings.Contains(name, "ball") {
		return CategoryPokeball
	}
	return CategoryConsumable
}

// formatResourceName turns a dashed resource slug into a display name.
func formatResourceName(value string) string {
	if value == "" {
		return ""
	}
	words := strings.Split(value, "-")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

func copyShopItems(items []ShopItem) []ShopItem {
	out := make([]ShopItem, len(items))
	copy(out, items)
	return out
}
