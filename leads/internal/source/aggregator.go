package source

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/hazyhaar/leadscout/leads/internal/apifetch"
	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// Link-aggregator defaults (Algolia Hacker News search).
const (
	DefaultAggregatorAPI  = "https://hn.algolia.com/api/v1/search"
	DefaultAggregatorItem = "https://news.ycombinator.com/item?id="
)

// AggregatorConfig configures the link-aggregator adapter.
type AggregatorConfig struct {
	SearchURL string // default DefaultAggregatorAPI
	// ItemURL prefixes the item id for hits without an outbound link.
	ItemURL    string
	SnippetMax int
	API        apifetch.Config
}

// Aggregator searches a link aggregator's JSON API. Hits without an
// outbound URL point to the discussion page.
type Aggregator struct {
	fetcher *fetch.Fetcher
	cfg     AggregatorConfig
}

// NewAggregator creates the adapter. A zero API config reads Algolia's
// "hits" array with objectID as the id.
func NewAggregator(f *fetch.Fetcher, cfg AggregatorConfig) *Aggregator {
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultAggregatorAPI
	}
	if cfg.ItemURL == "" {
		cfg.ItemURL = DefaultAggregatorItem
	}
	if cfg.API.ResultPath == "" {
		cfg.API.ResultPath = "hits"
	}
	if cfg.API.Fields == nil {
		cfg.API.Fields = map[string]string{"id": "objectID", "title": "title", "url": "url", "text": "story_text"}
	}
	return &Aggregator{fetcher: f, cfg: cfg}
}

func (a *Aggregator) Name() string { return "aggregator" }
func (a *Aggregator) Kind() string { return store.SourceHN }

func (a *Aggregator) Search(ctx context.Context, query string, limit int) Outcome {
	if limit <= 0 {
		limit = 5
	}
	sep := "?"
	if strings.Contains(a.cfg.SearchURL, "?") {
		sep = "&"
	}
	u := a.cfg.SearchURL + sep + "query=" + url.QueryEscape(query) + "&tags=story"

	results, err := apifetch.Fetch(ctx, a.fetcher, u, a.cfg.API)
	if err != nil {
		return failed(fmt.Errorf("aggregator: %w", err))
	}

	var out Outcome
	for _, r := range results {
		link := strings.TrimSpace(r.URL)
		if link == "" {
			if r.ID == "" {
				continue
			}
			link = a.cfg.ItemURL + r.ID
		}
		title := strings.TrimSpace(r.Title)
		out.Hits = append(out.Hits, Hit{
			URL:     link,
			Title:   title,
			Snippet: snippet(title, a.cfg.SnippetMax),
		})
		if len(out.Hits) == limit {
			break
		}
	}
	return out
}
