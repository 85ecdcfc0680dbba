package services

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var errCheckoutCartRequired = errors.New("checkout service: cart service is required")

// ErrCartEmpty indicates checkout was attempted with no items in the cart.
var ErrCartEmpty = errors.New("checkout service: cart is empty")

// CheckoutServiceDeps wires the cart dependency and id generation.
type CheckoutServiceDeps struct {
	Cart        CartService
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type checkoutService struct {
	cart    CartService
	newID   func() string
	printer *message.Printer
	logger  func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Cart == nil {
		return nil, errCheckoutCartRequired
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		cart:    deps.Cart,
		newID:   idGen,
		printer: message.NewPrinter(language.English),
		logger:  logger,
	}, nil
}

// Checkout derives the current cart totals and writes the order snapshot the
// confirmation read serves. Each checkout overwrites the previous snapshot.
func (s *checkoutService) Checkout(ctx context.Context) (OrderSummary, error) {
	summary, err := s.cart.Summary(ctx)
	if err != nil {
		return OrderSummary{}, err
	}
	if len(summary.Items) == 0 {
		return OrderSummary{}, ErrCartEmpty
	}

	currency := defaultCurrency
	if len(summary.Items) > 0 && summary.Items[0].Currency != "" {
		currency = summary.Items[0].Currency
	}

	order := OrderSummary{
		OrderID:    formatOrderID(s.newID()),
		TotalLabel: s.printer.Sprintf("%v %s", number.Decimal(summary.Total, number.Scale(2)), currency),
	}
	if err := s.cart.SaveOrderSummary(ctx, order); err != nil {
		return OrderSummary{}, err
	}

	s.logger(ctx, "checkout.completed", map[string]any{
		"order_id": order.OrderID,
		"items":    summary.ItemCount,
		"total":    summary.Total,
	})
	return order, nil
}

// Order returns the last checkout snapshot, or nil when none exists.
func (s *checkoutService) Order(ctx context.Context) (*OrderSummary, error) {
	return s.cart.OrderSummary(ctx)
}

// formatOrderID folds a ULID into the six-digit display id shown on the
// confirmation page.
func formatOrderID(id string) string {
	var seed uint32
	if parsed, err := ulid.Parse(id); err == nil {
		seed = binary.BigEndian.Uint32(parsed[12:16])
	} else {
		h := fnv.New32a()
		_, _ = h.Write([]byte(id))
		seed = h.Sum32()
	}
	return fmt.Sprintf("#%06d", seed%1000000)
}
