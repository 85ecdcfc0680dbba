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

// PokedexHandlers exposes the pokedex collection and filter endpoints.
type PokedexHandlers struct {
	pokedex services.PokedexService
}

const maxFilterBodySize = 8 * 1024

// NewPokedexHandlers constructs handlers backed by the pokedex service.
func NewPokedexHandlers(pokedex services.PokedexService) *PokedexHandlers {
	return &PokedexHandlers{pokedex: pokedex}
}

// Routes wires the /pokedex endpoints onto the provided router.
func (h *PokedexHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.search)
	r.Get("/facets", h.facets)
	r.Get("/filters", h.getFilters)
	r.Put("/filters", h.putFilters)
	r.Post("/reload", h.reload)
	r.Get("/{idOrName}", h.entry)
}

// search filters the loaded collection with the persisted filter state. Each
// of the q, types, and generations query parameters overrides its persisted
// counterpart when present.
func (h *PokedexHandlers) search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pokedex == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_service_unavailable", "pokedex service is unavailable", http.StatusServiceUnavailable))
		return
	}

	state, err := h.pokedex.LoadFilterState(ctx)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	query := r.URL.Query()
	if query.Has("q") {
		state.SearchTerm = strings.TrimSpace(query.Get("q"))
	}
	if query.Has("types") {
		state.Types = splitFacet(query.Get("types"))
	}
	if query.Has("generations") {
		state.Generations = splitFacet(query.Get("generations"))
	}

	entries, err := h.pokedex.Search(ctx, state)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pokedexEntriesResponse{Entries: entries})
}

func (h *PokedexHandlers) facets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pokedex == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_service_unavailable", "pokedex service is unavailable", http.StatusServiceUnavailable))
		return
	}

	types, err := h.pokedex.TypeOptions(ctx)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	generations, err := h.pokedex.GenerationOptions(ctx)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pokedexFacetsResponse{Types: types, Generations: generations})
}

func (h *PokedexHandlers) getFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pokedex == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_service_unavailable", "pokedex service is unavailable", http.StatusServiceUnavailable))
		return
	}

	state, err := h.pokedex.LoadFilterState(ctx)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pokedexFiltersResponse{Filters: state})
}

func (h *PokedexHandlers) putFilters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pokedex == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_service_unavailable", "pokedex service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxFilterBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var state services.FilterState
	if err := json.Unmarshal(body, &state); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	if err := h.pokedex.SaveFilterState(ctx, state); err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pokedexFiltersResponse{Filters: state})
}

func (h *PokedexHandlers) reload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pokedex == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_service_unavailable", "pokedex service is unavailable", http.StatusServiceUnavailable))
		return
	}

	entries, err := h.pokedex.Reload(ctx)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pokedexEntriesResponse{Entries: entries})
}

func (h *PokedexHandlers) entry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.pokedex == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_service_unavailable", "pokedex service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identifier := strings.TrimSpace(chi.URLParam(r, "idOrName"))
	entry, err := h.pokedex.Entry(ctx, identifier)
	if err != nil {
		h.writePokedexError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, pokedexEntryResponse{Entry: entry})
}

func (h *PokedexHandlers) writePokedexError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrPokedexNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_entry_not_found", "no matching pokedex entry", http.StatusNotFound))
	case errors.Is(err, services.ErrPokedexUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("upstream_unavailable", "pokedex collection could not be loaded", http.StatusBadGateway))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("pokedex_error", "failed to process pokedex request", http.StatusInternalServerError))
	}
}

func splitFacet(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type pokedexEntriesResponse struct {
	Entries []services.PokedexEntry `json:"entries"`
}

type pokedexEntryResponse struct {
	Entry services.PokedexEntry `json:"entry"`
}

type pokedexFacetsResponse struct {
	Types       []string `json:"types"`
	Generations []string `json:"generations"`
}

type pokedexFiltersResponse struct {
	Filters services.FilterState `json:"filters"`
}
