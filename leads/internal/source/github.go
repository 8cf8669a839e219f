package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// DefaultGitHubAPI is the production code-forge API base.
const DefaultGitHubAPI = "https://api.github.com"

// GitHubConfig configures the issue-search adapter.
type GitHubConfig struct {
	BaseURL    string // default DefaultGitHubAPI
	Token      string // optional bearer token
	SnippetMax int
}

// GitHub searches issues and pull requests through the REST search API.
type GitHub struct {
	fetcher *fetch.Fetcher
	cfg     GitHubConfig
}

// NewGitHub creates the adapter.
func NewGitHub(f *fetch.Fetcher, cfg GitHubConfig) *GitHub {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGitHubAPI
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &GitHub{fetcher: f, cfg: cfg}
}

func (g *GitHub) Name() string { return "github" }
func (g *GitHub) Kind() string { return store.SourceGitHub }

type ghSearchResponse struct {
	Items []struct {
		HTMLURL string `json:"html_url"`
		Title   string `json:"title"`
		Body    string `json:"body"`
	} `json:"items"`
}

func (g *GitHub) Search(ctx context.Context, query string, limit int) Outcome {
	if limit <= 0 {
		limit = 5
	}
	u := fmt.Sprintf("%s/search/issues?q=%s&per_page=%d&sort=updated",
		g.cfg.BaseURL, url.QueryEscape(query), limit)

	header := http.Header{}
	header.Set("Accept", "application/vnd.github+json")
	header.Set("X-GitHub-Api-Version", "2022-11-28")
	if g.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	res, err := g.fetcher.Get(ctx, u, header)
	if err != nil {
		return failed(fmt.Errorf("github: %w", err))
	}
	var body ghSearchResponse
	if err := json.Unmarshal(res.Body, &body); err != nil {
		return failed(fmt.Errorf("github: decode: %w", err))
	}

	var out Outcome
	for _, it := range body.Items {
		if it.HTMLURL == "" {
			continue
		}
		out.Hits = append(out.Hits, Hit{
			URL:     it.HTMLURL,
			Title:   strings.TrimSpace(it.Title),
			Snippet: snippet(it.Body, g.cfg.SnippetMax),
		})
		if len(out.Hits) == limit {
			break
		}
	}
	return out
}
