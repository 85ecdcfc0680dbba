package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poke-market/api/internal/platform/httpx"
	"github.com/poke-market/api/internal/services"
)

// ShopHandlers exposes the aggregated shop catalog endpoints.
type ShopHandlers struct {
	shop services.ShopService
}

// NewShopHandlers constructs handlers backed by the shop service.
func NewShopHandlers(shop services.ShopService) *ShopHandlers {
	return &ShopHandlers{shop: shop}
}

// Routes wires the /shop endpoints onto the provided router.
func (h *ShopHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listItems)
	r.Get("/categories", h.listCategories)
	r.Post("/reload", h.reload)
}

func (h *ShopHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shop == nil {
		httpx.WriteError(ctx, w, httpx.NewError("shop_service_unavailable", "shop service is unavailable", http.StatusServiceUnavailable))
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	term := strings.TrimSpace(r.URL.Query().Get("q"))

	items, err := h.shop.Filter(ctx, category, term)
	if err != nil {
		h.writeShopError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, shopItemsResponse{Items: items})
}

func (h *ShopHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shop == nil {
		httpx.WriteError(ctx, w, httpx.NewError("shop_service_unavailable", "shop service is unavailable", http.StatusServiceUnavailable))
		return
	}

	categories, err := h.shop.Categories(ctx)
	if err != nil {
		h.writeShopError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, shopCategoriesResponse{Categories: categories})
}

func (h *ShopHandlers) reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.shop == nil {
		httpx.WriteError(ctx, w, httpx.NewError("shop_service_unavailable", "shop service is unavailable", http.StatusServiceUnavailable))
		return
	}

	items, err := h.shop.Reload(ctx)
	if err != nil {
		h.writeShopError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, shopItemsResponse{Items: items})
}

func (h *ShopHandlers) writeShopError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrShopUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "shop catalog could not be loaded", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("shop_error", "failed to process shop request", http.StatusInternalServerError))
	}
}

type shopItemsResponse struct {
	Items []services.ShopItem `json:"items"`
}

type shopCategoriesResponse struct {
	Categories []string `json:"categories"`
}
