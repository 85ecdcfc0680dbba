package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/poke-market/api/internal/storage"
)

var errCartStoreRequired = errors.New("cart service: store is required")

const (
	cartItemsKey    = "items"
	latestOrderKey  = "latest"
	defaultTaxRate  = 0.07
	defaultCurrency = "P"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart service: invalid input")

// ErrCartUnavailable indicates the cart state could not be persisted.
var ErrCartUnavailable = errors.New("cart service: unavailable")

// CartServiceDeps wires the storage and pricing parameters for cart operations.
type CartServiceDeps struct {
	Store           storage.Store
	TaxRate         float64
	DefaultCurrency string
	Logger          func(context.Context, string, map[string]any)
}

type cartService struct {
	store    storage.Store
	taxRate  float64
	currency string
	logger   func(context.Context, string, map[string]any)
}

// NewCartService constructs a CartService enforcing dependency validation.
func NewCartService(deps CartServiceDeps) (CartService, error) {
	if deps.Store == nil {
		return nil, errCartStoreRequired
	}

	taxRate := deps.TaxRate
	if taxRate <= 0 || taxRate >= 1 {
		taxRate = defaultTaxRate
	}

	currency := strings.TrimSpace(deps.DefaultCurrency)
	if currency == "" {
		currency = defaultCurrency
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &cartService{
		store:    deps.Store,
		taxRate:  taxRate,
		currency: currency,
		logger:   logger,
	}, nil
}

// Items returns the persisted cart lines. Missing or corrupt state yields an
// empty cart, never an error.
func (s *cartService) Items(ctx context.Context) ([]CartLineItem, error) {
	return s.readItems(ctx), nil
}

// Add merges the item into the cart, incrementing the quantity when a line
// with the same id already exists.
func (s *cartService) Add(ctx context.Context, item CartLineItem, quantity int) ([]CartLineItem, error) {
	id := strings.TrimSpace(item.ID)
	if id == "" {
		return nil, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}
	if quantity < 1 {
		quantity = 1
	}

	items := s.readItems(ctx)

	merged := false
	for i := range items {
		if items[i].ID == id {
			items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		currency := strings.TrimSpace(item.Currency)
		if currency == "" {
			currency = s.currency
		}
		items = append(items, CartLineItem{
			ID:       id,
			Name:     strings.TrimSpace(item.Name),
			Price:    item.Price,
			Currency: currency,
			Image:    strings.TrimSpace(item.Image),
			Quantity: quantity,
		})
	}

	if err := s.writeItems(ctx, items); err != nil {
		return nil, err
	}
	s.logger(ctx, "cart.item_added", map[string]any{"item_id": id, "quantity": quantity, "merged": merged})
	return items, nil
}

// Remove drops the line with the given id. Removing an absent id is a no-op.
func (s *cartService) Remove(ctx context.Context, itemID string) ([]CartLineItem, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return nil, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	items := s.readItems(ctx)
	kept := items[:0]
	for _, item := range items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}

	if err := s.writeItems(ctx, kept); err != nil {
		return nil, err
	}
	return kept, nil
}

// UpdateQuantity sets the quantity for an existing line. Non-finite or
// sub-unit values clamp to 1; an unknown id leaves the cart untouched.
func (s *cartService) UpdateQuantity(ctx context.Context, itemID string, quantity float64) ([]CartLineItem, error) {
	id := strings.TrimSpace(itemID)
	if id == "" {
		return nil, fmt.Errorf("%w: item id is required", ErrCartInvalidInput)
	}

	items := s.readItems(ctx)

	target := -1
	for i := range items {
		if items[i].ID == id {
			target = i
			break
		}
	}
	if target < 0 {
		return items, nil
	}

	safe := 1
	if !math.IsNaN(quantity) && !math.IsInf(quantity, 0) {
		if truncated := int(math.Trunc(quantity)); truncated > 1 {
			safe = truncated
		}
	}
	items[target].Quantity = safe

	if err := s.writeItems(ctx, items); err != nil {
		return nil, err
	}
	s.logger(ctx, "cart.quantity_updated", map[string]any{"item_id": id, "quantity": safe})
	return items, nil
}

// Clear empties the cart.
func (s *cartService) Clear(ctx context.Context) error {
	if err := s.writeItems(ctx, []CartLineItem{}); err != nil {
		return err
	}
	s.logger(ctx, "cart.cleared", nil)
	return nil
}

// Summary derives totals from the current cart at the configured tax rate.
func (s *cartService) Summary(ctx context.Context) (CartSummary, error) {
	items := s.readItems(ctx)

	var subtotal float64
	var itemCount int
	for _, item := range items {
		subtotal += item.Price * float64(item.Quantity)
		itemCount += item.Quantity
	}
	taxes := subtotal * s.taxRate
	return CartSummary{
		Items:     items,
		ItemCount: itemCount,
		Subtotal:  subtotal,
		Taxes:     taxes,
		Total:     subtotal + taxes,
	}, nil
}

// SaveOrderSummary persists the order snapshot written at checkout.
func (s *cartService) SaveOrderSummary(ctx context.Context, summary OrderSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("%w: encode order summary: %v", ErrCartUnavailable, err)
	}
	if err := s.store.Put(ctx, storage.NamespaceOrder, latestOrderKey, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return nil
}

// OrderSummary returns the last persisted snapshot, or nil when absent or
// unreadable.
func (s *cartService) OrderSummary(ctx context.Context) (*OrderSummary, error) {
	raw, err := s.store.Get(ctx, storage.NamespaceOrder, latestOrderKey)
	if err != nil || raw == nil {
		if err != nil {
			s.logger(ctx, "cart.order_read_failed", map[string]any{"error": err.Error()})
		}
		return nil, nil
	}
	var summary OrderSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		s.logger(ctx, "cart.order_corrupt", map[string]any{"error": err.Error()})
		return nil, nil
	}
	return &summary, nil
}

func (s *cartService) readItems(ctx context.Context) []CartLineItem {
	raw, err := s.store.Get(ctx, storage.NamespaceCart, cartItemsKey)
	if err != nil {
		s.logger(ctx, "cart.read_failed", map[string]any{"error": err.Error()})
		return []CartLineItem{}
	}
	if raw == nil {
		return []CartLineItem{}
	}

	var items []CartLineItem
	if err := json.Unmarshal(raw, &items); err != nil {
		s.logger(ctx, "cart.state_corrupt", map[string]any{"error": err.Error()})
		return []CartLineItem{}
	}
	if items == nil {
		return []CartLineItem{}
	}
	return items
}

func (s *cartService) writeItems(ctx context.Context, items []CartLineItem) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("%w: encode cart: %v", ErrCartUnavailable, err)
	}
	if err := s.store.Put(ctx, storage.NamespaceCart, cartItemsKey, payload); err != nil {
		return fmt.Errorf("%w: %v", ErrCartUnavailable, err)
	}
	return nil
}
