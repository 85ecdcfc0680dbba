package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/poke-market/api/internal/platform/httpx"
	"github.com/poke-market/api/internal/services"
)

// PublicHandlers exposes the unauthenticated content and newsletter endpoints.
type PublicHandlers struct {
	content services.ContentService
}

const maxNewsletterBodySize = 4 * 1024

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewPublicHandlers constructs handlers backed by the content service.
func NewPublicHandlers(content services.ContentService) *PublicHandlers {
	return &PublicHandlers{content: content}
}

// Routes wires the /public endpoints onto the provided router.
func (h *PublicHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/pages", h.listPages)
	r.Get("/pages/{slug}", h.getPage)
	r.Post("/newsletter", h.subscribe)
}

func (h *PublicHandlers) listPages(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_service_unavailable", "content service is unavailable", http.StatusServiceUnavailable))
		return
	}

	pages, err := h.content.Pages(ctx)
	if err != nil {
		h.writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pagesResponse{Pages: pages})
}

func (h *PublicHandlers) getPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.content == nil {
		httpx.WriteError(ctx, w, httpx.NewError("content_service_unavailable", "content service is unavailable", http.StatusServiceUnavailable))
		return
	}

	slug := strings.TrimSpace(chi.URLParam(r, "slug"))
	page, err := h.content.Page(ctx, slug)
	if err != nil {
		h.writeContentError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pageResponse{Page: page})
}

// subscribe validates the address and acknowledges the signup; there is no
// delivery backend behind it.
func (h *PublicHandlers) subscribe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := readLimitedBody(r, maxNewsletterBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req newsletterRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	email := strings.TrimSpace(req.Email)
	if !emailPattern.MatchString(email) {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_email", "a valid email address is required", http.StatusBadRequest))
		return
	}

	writeJSONResponse(w, http.StatusAccepted, newsletterResponse{
		Subscribed: true,
		Email:      email,
	})
}

func (h *PublicHandlers) writeContentError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrContentNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("page_not_found", "no such page", http.StatusNotFound))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("content_error", "failed to load content", http.StatusInternalServerError))
	}
}

type pagesResponse struct {
	Pages []services.ContentPage `json:"pages"`
}

type pageResponse struct {
	Page services.ContentPage `json:"page"`
}

type newsletterRequest struct {
	Email string `json:"email"`
}

type newsletterResponse struct {
	Subscribed bool   `json:"subscribed"`
	Email      string `json:"email"`
}
