package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/poke-market/api/internal/services"
)

type stubContentService struct {
	page  func(ctx context.Context, slug string) (services.ContentPage, error)
	pages func(ctx context.Context) ([]services.ContentPage, error)
}

func (s *stubContentService) Page(ctx context.Context, slug string) (services.ContentPage, error) {
	return s.page(ctx, slug)
}

func (s *stubContentService) Pages(ctx context.Context) ([]services.ContentPage, error) {
	return s.pages(ctx)
}

func newPublicRouter(content services.ContentService) chi.Router {
	r := chi.NewRouter()
	NewPublicHandlers(content).Routes(r)
	return r
}

func TestPublicHandlersGetPage(t *testing.T) {
	svc := &stubContentService{
		page: func(_ context.Context, slug string) (services.ContentPage, error) {
			return services.ContentPage{Slug: slug, Title: "Home", Body: "<p>Welcome</p>"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/pages/home", nil)
	rr := httptest.NewRecorder()
	newPublicRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Page services.ContentPage `json:"page"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Page.Slug != "home" || body.Page.Title != "Home" {
		t.Fatalf("unexpected page: %+v", body.Page)
	}
}

func TestPublicHandlersPageNotFound(t *testing.T) {
	svc := &stubContentService{
		page: func(context.Context, string) (services.ContentPage, error) {
			return services.ContentPage{}, services.ErrContentNotFound
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/pages/missing", nil)
	rr := httptest.NewRecorder()
	newPublicRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestPublicHandlersListPages(t *testing.T) {
	svc := &stubContentService{
		pages: func(context.Context) ([]services.ContentPage, error) {
			return []services.ContentPage{{Slug: "about"}, {Slug: "home"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/pages", nil)
	rr := httptest.NewRecorder()
	newPublicRouter(svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Pages []services.ContentPage `json:"pages"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(body.Pages) != 2 {
		t.Fatalf("unexpected pages: %+v", body.Pages)
	}
}

func TestPublicHandlersNewsletterSubscribe(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader(`{"email": "ash@pallet.town"}`))
	rr := httptest.NewRecorder()
	newPublicRouter(&stubContentService{}).ServeHTTP(rr, req)

	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rr.Code, rr.Body.String())
	}
	var body struct {
		Subscribed bool   `json:"subscribed"`
		Email      string `json:"email"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Subscribed || body.Email != "ash@pallet.town" {
		t.Fatalf("unexpected response: %+v", body)
	}
}

func TestPublicHandlersNewsletterRejectsInvalidEmail(t *testing.T) {
	for _, email := range []string{"", "not-an-email", "a b@example.com", "ash@pallet"} {
		payload := `{"email": "` + email + `"}`
		req := httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader(payload))
		rr := httptest.NewRecorder()
		newPublicRouter(&stubContentService{}).ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Fatalf("expected 400 for %q, got %d: %s", email, rr.Code, rr.Body.String())
		}
	}
}
