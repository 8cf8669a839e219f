package source

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hazyhaar/leadscout/leads/internal/feed"
	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// FeedConfig configures the feed adapter.
type FeedConfig struct {
	// Keywords gate relevance: an entry is kept only when its title plus
	// summary text contains one of them. Empty keeps every entry.
	Keywords   []string
	SnippetMax int
}

// Feed pulls an RSS/Atom document. Its query is the feed URL.
type Feed struct {
	fetcher  *fetch.Fetcher
	cfg      FeedConfig
	sanitize *bluemonday.Policy
}

// NewFeed creates the adapter.
func NewFeed(f *fetch.Fetcher, cfg FeedConfig) *Feed {
	cfg.Keywords = append([]string(nil), cfg.Keywords...)
	return &Feed{fetcher: f, cfg: cfg, sanitize: bluemonday.StrictPolicy()}
}

func (f *Feed) Name() string { return "feed" }
func (f *Feed) Kind() string { return store.SourceRSS }

// Search reads the first limit entries of the feed at feedURL and returns
// the relevant ones.
func (f *Feed) Search(ctx context.Context, feedURL string, limit int) Outcome {
	if limit <= 0 {
		limit = 5
	}
	header := http.Header{"Accept": {"application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.5"}}
	res, err := f.fetcher.Get(ctx, feedURL, header)
	if err != nil {
		return failed(fmt.Errorf("feed: %w", err))
	}
	doc, err := feed.Parse(res.Body)
	if err != nil {
		return failed(err)
	}

	entries := doc.Entries
	if len(entries) > limit {
		entries = entries[:limit]
	}
	var out Outcome
	for _, e := range entries {
		if e.Link == "" {
			continue
		}
		text := f.plainText(e.Summary)
		if len(f.cfg.Keywords) > 0 && !ContainsAny(e.Title+" "+text, f.cfg.Keywords) {
			continue
		}
		out.Hits = append(out.Hits, Hit{
			URL:     e.Link,
			Title:   e.Title,
			Snippet: snippet(text, f.cfg.SnippetMax),
		})
	}
	return out
}

// plainText strips all markup from an HTML summary.
func (f *Feed) plainText(s string) string {
	return html.UnescapeString(f.sanitize.Sanitize(s))
}
