package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poke-market/api/internal/platform/httpx"
	"github.com/poke-market/api/internal/services"
)

// CheckoutHandlers exposes the checkout, order confirmation, and theme
// preference endpoints registered at the API root.
type CheckoutHandlers struct {
	checkout services.CheckoutService
	prefs    services.PreferencesService
}

const maxThemeBodySize = 1024

// NewCheckoutHandlers constructs handlers backed by the checkout and
// preferences services.
func NewCheckoutHandlers(checkout services.CheckoutService, prefs services.PreferencesService) *CheckoutHandlers {
	return &CheckoutHandlers{checkout: checkout, prefs: prefs}
}

// Routes wires the endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/checkout", h.placeOrder)
	r.Get("/order", h.latestOrder)
	r.Get("/theme", h.getTheme)
	r.Put("/theme", h.putTheme)
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.checkout.Checkout(ctx)
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusCreated, orderResponse{Order: order})
}

func (h *CheckoutHandlers) latestOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.checkout.Order(ctx)
	if err != nil {
		h.writeCheckoutError(ctx, w, err)
		return
	}
	if order == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "no completed order", http.StatusNotFound))
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: *order})
}

func (h *CheckoutHandlers) getTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.prefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_service_unavailable", "preferences service is unavailable", http.StatusServiceUnavailable))
		return
	}

	theme, err := h.prefs.Theme(ctx)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_error", "failed to load theme", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *CheckoutHandlers) putTheme(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.prefs == nil {
		httpx.WriteError(ctx, w, httpx.NewError("preferences_service_unavailable", "preferences service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxThemeBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req themeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	theme := strings.ToLower(strings.TrimSpace(req.Theme))
	if err := h.prefs.SetTheme(ctx, theme); err != nil {
		if errors.Is(err, services.ErrPrefsInvalidInput) {
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError("preferences_error", "failed to store theme", http.StatusInternalServerError))
		return
	}
	writeJSONResponse(w, http.StatusOK, themeResponse{Theme: theme})
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartEmpty):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cannot check out an empty cart", http.StatusConflict))
	case errors.Is(err, services.ErrCartUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("cart_service_unavailable", "cart service is unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout", http.StatusInternalServerError))
	}
}

type orderResponse struct {
	Order services.OrderSummary `json:"order"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

type themeResponse struct {
	Theme string `json:"theme"`
}
