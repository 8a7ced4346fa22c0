// Package pagination walks page-token paginated commerce API endpoints.
package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Config holds fetcher configuration.
type Config struct {
	// MaxPages caps the number of pages fetched per walk. Guards against
	// endpoints that hand back a token loop.
	MaxPages int
	// Timeout per page fetch.
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration.
func DefaultConfig() Config {
	return Config{
		MaxPages: 400,
		Timeout:  15 * time.Second,
	}
}

// PageFetcher fetches a single page of an endpoint. An empty pageToken
// requests the first page. The returned nextToken is empty on the last page.
type PageFetcher interface {
	FetchPage(ctx context.Context, endpoint string, pageToken string) (data []byte, nextToken string, err error)
}

// Page is one fetched page and the token that requested it.
type Page struct {
	Token string
	Data  []byte
}

// Fetcher walks all pages of a token-paginated endpoint.
type Fetcher struct {
	fetcher PageFetcher
	config  Config
}

// NewFetcher creates a new fetcher.
func NewFetcher(fetcher PageFetcher, config Config) *Fetcher {
	if config.MaxPages <= 0 {
		config.MaxPages = 400
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &Fetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchAll fetches every page of an endpoint in order, following page tokens
// until the API stops returning one. On a mid-walk error the pages fetched so
// far are returned alongside the error.
func (f *Fetcher) FetchAll(ctx context.Context, endpoint string) ([]Page, error) {
	start := time.Now()

	var pages []Page
	seen := make(map[string]bool)
	token := ""

	for {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		if len(pages) >= f.config.MaxPages {
			return pages, fmt.Errorf("page limit reached after %d pages", len(pages))
		}

		pageCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
		data, nextToken, err := f.fetcher.FetchPage(pageCtx, endpoint, token)
		cancel()

		if err != nil {
			log.Warn().
				Err(err).
				Str("endpoint", endpoint).
				Int("fetched_pages", len(pages)).
				Msg("Page fetch failed - returning partial results")
			return pages, fmt.Errorf("fetch page %q (partial data: %d pages): %w", token, len(pages), err)
		}

		pages = append(pages, Page{Token: token, Data: data})

		// Progress logging every 50 pages
		if len(pages)%50 == 0 {
			log.Info().
				Str("endpoint", endpoint).
				Int("fetched", len(pages)).
				Msg("Fetch progress")
		}

		if nextToken == "" {
			break
		}
		if seen[nextToken] {
			return pages, fmt.Errorf("page token cycle detected at %q", nextToken)
		}
		seen[nextToken] = true
		token = nextToken
	}

	log.Info().
		Str("endpoint", endpoint).
		Int("pages", len(pages)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return pages, nil
}
