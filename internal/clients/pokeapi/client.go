// Package pokeapi provides a read-only client for the PokéAPI REST service.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ErrNotFound is returned when the upstream resource does not exist.
var ErrNotFound = errors.New("pokeapi: resource not found")

// Client issues requests against a PokéAPI-compatible endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs a client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: timeout,
		},
	}
}

// NamedResource is the ubiquitous {name, url} pair in PokéAPI payloads.
type NamedResource struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Pokemon mirrors the subset of the pokemon payload the service consumes.
type Pokemon struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Height int    `json:"height"`
	Weight int    `json:"weight"`
	Types  []struct {
		Type NamedResource `json:"type"`
	} `json:"types"`
	Abilities []struct {
		Ability NamedResource `json:"ability"`
	} `json:"abilities"`
	Stats []struct {
		BaseStat int           `json:"base_stat"`
		Stat     NamedResource `json:"stat"`
	} `json:"stats"`
	Sprites PokemonSprites `json:"sprites"`
	Species NamedResource  `json:"species"`
}

// PokemonSprites carries the sprite URLs, including the official artwork set.
type PokemonSprites struct {
	FrontDefault string `json:"front_default"`
	Other        struct {
		OfficialArtwork struct {
			FrontDefault string `json:"front_default"`
		} `json:"official-artwork"`
	} `json:"other"`
}

// ImageURL returns the best available image, preferring official artwork.
func (p Pokemon) ImageURL() string {
	if artwork := strings.TrimSpace(p.Sprites.Other.OfficialArtwork.FrontDefault); artwork != "" {
		return artwork
	}
	return strings.TrimSpace(p.Sprites.FrontDefault)
}

// TypeNames lists the pokemon's type slot names in order.
func (p Pokemon) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, slot := range p.Types {
		if name := strings.TrimSpace(slot.Type.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// AbilityNames lists the pokemon's ability names in order.
func (p Pokemon) AbilityNames() []string {
	names := make([]string, 0, len(p.Abilities))
	for _, slot := range p.Abilities {
		if name := strings.TrimSpace(slot.Ability.Name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Species mirrors the subset of the pokemon-species payload the service consumes.
type Species struct {
	FlavorTextEntries []struct {
		FlavorText string        `json:"flavor_text"`
		Language   NamedResource `json:"language"`
	} `json:"flavor_text_entries"`
	Generation     NamedResource `json:"generation"`
	Color          NamedResource `json:"color"`
	EvolutionChain struct {
		URL string `json:"url"`
	} `json:"evolution_chain"`
}

var flavorWhitespace = regexp.MustCompile(`[\n\f]+`)

// EnglishFlavorText returns the first English flavor text with form feeds and
// newlines collapsed to spaces, or the empty string when none exists.
func (s Species) EnglishFlavorText() string {
	for _, entry := range s.FlavorTextEntries {
		if entry.Language.Name != "en" {
			continue
		}
		text := flavorWhitespace.ReplaceAllString(entry.FlavorText, " ")
		text = strings.ReplaceAll(text, "POKéMON", "POKÉMON")
		return strings.TrimSpace(text)
	}
	return ""
}

// EvolutionChain mirrors the evolution-chain payload.
type EvolutionChain struct {
	ID    int       `json:"id"`
	Chain ChainLink `json:"chain"`
}

// ChainLink is one node in the evolution tree.
type ChainLink struct {
	Species   NamedResource `json:"species"`
	EvolvesTo []ChainLink   `json:"evolves_to"`
}

// Item mirrors the subset of the item payload the storefront consumes.
type Item struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Cost    int    `json:"cost"`
	Sprites struct {
		Default string `json:"default"`
	} `json:"sprites"`
	EffectEntries []struct {
		ShortEffect string        `json:"short_effect"`
		Language    NamedResource `json:"language"`
	} `json:"effect_entries"`
	FlavorTextEntries []struct {
		Text     string        `json:"text"`
		Language NamedResource `json:"language"`
	} `json:"flavor_text_entries"`
	Category NamedResource `json:"category"`
}

// EnglishShortEffect returns the first English short effect, or "".
func (i Item) EnglishShortEffect() string {
	for _, entry := range i.EffectEntries {
		if entry.Language.Name == "en" {
			return strings.TrimSpace(entry.ShortEffect)
		}
	}
	return ""
}

// EnglishFlavorText returns the first English flavor text with whitespace
// collapsed, or "".
func (i Item) EnglishFlavorText() string {
	for _, entry := range i.FlavorTextEntries {
		if entry.Language.Name == "en" {
			return strings.Join(strings.Fields(entry.Text), " ")
		}
	}
	return ""
}

var speciesIDPattern = regexp.MustCompile(`pokemon-species/(\d+)/`)

// SpeciesIDFromURL extracts the numeric species id from a pokemon-species
// resource URL. It returns 0 when the URL does not carry one.
func SpeciesIDFromURL(resourceURL string) int {
	match := speciesIDPattern.FindStringSubmatch(resourceURL)
	if len(match) != 2 {
		return 0
	}
	id, err := strconv.Atoi(match[1])
	if err != nil {
		return 0
	}
	return id
}

// PokemonByURL fetches a pokemon resource from an absolute URL, typically one
// recorded in the roster file.
func (c *Client) PokemonByURL(ctx context.Context, resourceURL string) (Pokemon, error) {
	var out Pokemon
	if err := c.get(ctx, resourceURL, &out); err != nil {
		return Pokemon{}, err
	}
	return out, nil
}

// Pokemon fetches a pokemon by numeric id or name.
func (c *Client) Pokemon(ctx context.Context, identifier string) (Pokemon, error) {
	endpoint, err := c.endpoint("pokemon", identifier)
	if err != nil {
		return Pokemon{}, err
	}
	return c.PokemonByURL(ctx, endpoint)
}

// SpeciesByURL fetches a pokemon-species resource from an absolute URL.
func (c *Client) SpeciesByURL(ctx context.Context, resourceURL string) (Species, error) {
	var out Species
	if err := c.get(ctx, resourceURL, &out); err != nil {
		return Species{}, err
	}
	return out, nil
}

// EvolutionChainByURL fetches an evolution chain from an absolute URL.
func (c *Client) EvolutionChainByURL(ctx context.Context, resourceURL string) (EvolutionChain, error) {
	var out EvolutionChain
	if err := c.get(ctx, resourceURL, &out); err != nil {
		return EvolutionChain{}, err
	}
	return out, nil
}

// ItemByURL fetches an item resource from an absolute URL, typically one
// recorded in the shop manifest.
func (c *Client) ItemByURL(ctx context.Context, resourceURL string) (Item, error) {
	var out Item
	if err := c.get(ctx, resourceURL, &out); err != nil {
		return Item{}, err
	}
	return out, nil
}

func (c *Client) endpoint(parts ...string) (string, error) {
	if c == nil || c.baseURL == "" {
		return "", fmt.Errorf("pokeapi: base url not configured")
	}
	joined, err := url.JoinPath(c.baseURL, parts...)
	if err != nil {
		return "", fmt.Errorf("pokeapi: build endpoint: %w", err)
	}
	return joined, nil
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fmt.Errorf("pokeapi: empty endpoint")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("pokeapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pokeapi: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, endpoint)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("pokeapi: status %d for %s: %s", resp.StatusCode, endpoint, drainError(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pokeapi: decode %s: %w", endpoint, err)
	}
	return nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}
