package myfin

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sig-0/bankrates/storage/types"
)

const (
	DefaultPageCount   = 4
	DefaultConcurrency = 4
)

// Fetcher fetches the raw markup of a single page
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Collector fetches and parses all listing pages
type Collector struct {
	logger  *slog.Logger
	fetcher Fetcher
	parser  *Parser

	pages       []string
	concurrency int
}

// NewCollector creates a new listing collector
func NewCollector(fetcher Fetcher, parser *Parser, opts ...Option) *Collector {
	c := &Collector{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		fetcher:     fetcher,
		parser:      parser,
		pages:       ListingPages(DefaultSiteBase, DefaultPageCount),
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// ListingPages returns the listing page URLs for the given site base.
// The first page has no page parameter
func ListingPages(siteBase string, count int) []string {
	base := strings.TrimRight(siteBase, "/") + "/currency"

	pages := make([]string, 0, count)

	for page := 1; page <= count; page++ {
		if page == 1 {
			pages = append(pages, base)

			continue
		}

		pages = append(pages, fmt.Sprintf("%s?page=%d", base, page))
	}

	return pages
}

// Collect fetches and parses every listing page concurrently,
// returning the quotes in page order. If any page fails,
// the whole collection fails
func (c *Collector) Collect(ctx context.Context) ([]*types.Quote, error) {
	var (
		results = make([][]*types.Quote, len(c.pages))
		g       errgroup.Group
	)

	g.SetLimit(c.concurrency)

	for i, page := range c.pages {
		g.Go(func() error {
			body, err := c.fetcher.Fetch(ctx, page)
			if err != nil {
				return fmt.Errorf("unable to fetch page %s: %w", page, err)
			}

			results[i] = c.parser.Parse(body)

			c.logger.Debug(
				"listing page parsed",
				"url", page,
				"quotes", len(results[i]),
			)

			return nil
		})
	}

	// All pages are awaited, even after a failure
	if err := g.Wait(); err != nil {
		return nil, err
	}

	quotes := make([]*types.Quote, 0)

	for _, result := range results {
		quotes = append(quotes, result...)
	}

	return quotes, nil
}
