package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

var errContentDirRequired = errors.New("content service: directory is required")

// ErrContentNotFound indicates the requested page does not exist.
var ErrContentNotFound = errors.New("content service: not found")

type contentFrontMatter struct {
	Title   string `yaml:"title"`
	Summary string `yaml:"summary"`
}

// ContentServiceDeps wires the markdown source directory and rendering policy.
type ContentServiceDeps struct {
	Dir       string
	Sanitizer *bluemonday.Policy
	Logger    func(context.Context, string, map[string]any)
}

type contentService struct {
	dir       string
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
	logger    func(context.Context, string, map[string]any)
}

// NewContentService constructs a ContentService enforcing dependency validation.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if strings.TrimSpace(deps.Dir) == "" {
		return nil, errContentDirRequired
	}

	sanitizer := deps.Sanitizer
	if sanitizer == nil {
		sanitizer = bluemonday.UGCPolicy()
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &contentService{
		dir:       deps.Dir,
		markdown:  goldmark.New(),
		sanitizer: sanitizer,
		logger:    logger,
	}, nil
}

// Page loads and renders a single markdown page by slug.
func (s *contentService) Page(ctx context.Context, slug string) (ContentPage, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" || strings.ContainsAny(slug, "./\\") {
		return ContentPage{}, fmt.Errorf("%w: %q", ErrContentNotFound, slug)
	}

	page, err := s.readPage(slug)
	if err != nil {
		return ContentPage{}, err
	}
	s.logger(ctx, "content.page_served", map[string]any{"slug": slug})
	return page, nil
}

// Pages lists every available page, sorted by slug.
func (s *contentService) Pages(ctx context.Context) ([]ContentPage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []ContentPage{}, nil
		}
		return nil, fmt.Errorf("content service: read dir %s: %w", s.dir, err)
	}

	pages := make([]ContentPage, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".md")
		page, err := s.readPage(slug)
		if err != nil {
			s.logger(ctx, "content.page_skipped", map[string]any{"slug": slug, "error": err.Error()})
			continue
		}
		pages = append(pages, page)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages, nil
}

func (s *contentService) readPage(slug string) (ContentPage, error) {
	file := filepath.Join(s.dir, slug+".md")
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ContentPage{}, fmt.Errorf("%w: %s", ErrContentNotFound, slug)
		}
		return ContentPage{}, fmt.Errorf("content service: read %s: %w", file, err)
	}

	fm, body := splitFrontMatter(string(data))
	front := contentFrontMatter{}
	if strings.TrimSpace(fm) != "" {
		if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
			return ContentPage{}, fmt.Errorf("content service: parse front matter %s: %w", file, err)
		}
	}

	var rendered bytes.Buffer
	if err := s.markdown.Convert([]byte(body), &rendered); err != nil {
		return ContentPage{}, fmt.Errorf("content service: render %s: %w", file, err)
	}

	title := strings.TrimSpace(front.Title)
	if title == "" {
		title = prettifySlug(slug)
	}

	return ContentPage{
		Slug:    slug,
		Title:   title,
		Summary: strings.TrimSpace(front.Summary),
		Body:    s.sanitizer.Sanitize(rendered.String()),
	}, nil
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\uFEFF")
	lines := strings.Split(input, "\n")
	if len(lines) == 0 {
		return "", ""
	}
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

func prettifySlug(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool { return r == '-' || r == '_' })
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}
