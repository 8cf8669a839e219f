// Package enrich profiles the organisation behind each signal by fetching
// well-known paths of its website.
//
// Everything is best-effort: a path that cannot be fetched contributes
// nothing, and a domain with no readable page ends up with empty hints,
// size "unknown" and no roles.
package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/hazyhaar/leadscout/extract"
	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
	"github.com/hazyhaar/leadscout/leads/internal/vocab"
	"github.com/hazyhaar/leadscout/urlguard"
)

// Config is the engine's immutable configuration. Zero fields take the
// defaults listed beside them.
type Config struct {
	Limit       int                 // most recent signals processed; 100
	SignalDelay time.Duration       // pause between enriched signals; 0 disables
	Scheme      string              // "https"
	TechPaths   []string            // "", /login, /auth, OIDC discovery, AASA
	SizePaths   []string            // /team then /about; first readable wins
	CareerPaths []string            // /careers, /jobs, /about, /team
	Tech        []vocab.TechPattern // vocab.TechPatterns()
	SizeWords   []string            // vocab.SizeKeywords()
	Roles       []string            // vocab.HiringRoles()
}

func (c *Config) defaults() {
	if c.Limit <= 0 {
		c.Limit = 100
	}
	if c.SignalDelay < 0 {
		c.SignalDelay = 0
	}
	if c.Scheme == "" {
		c.Scheme = "https"
	}
	if c.TechPaths == nil {
		c.TechPaths = []string{"", "/login", "/auth", "/.well-known/openid-configuration", "/.well-known/apple-app-site-association"}
	}
	if c.SizePaths == nil {
		c.SizePaths = []string{"/team", "/about"}
	}
	if c.CareerPaths == nil {
		c.CareerPaths = []string{"/careers", "/jobs", "/about", "/team"}
	}
	if c.Tech == nil {
		c.Tech = vocab.TechPatterns()
	}
	if c.SizeWords == nil {
		c.SizeWords = vocab.SizeKeywords()
	}
	if c.Roles == nil {
		c.Roles = vocab.HiringRoles()
	}
}

type techRule struct {
	name string
	re   *regexp.Regexp
}

// Result aggregates one enrichment pass.
type Result struct {
	Signals int `json:"signals"`
	Skipped int `json:"skipped"`
	Written int `json:"written"`
	Domains int `json:"domains"`
	Unknown int `json:"unknown_size"`
}

// Engine fetches prospect pages and writes enrichments.
type Engine struct {
	store   *store.Store
	fetcher *fetch.Fetcher
	cfg     Config
	tech    []techRule
	logger  *slog.Logger
	sleep   func(context.Context, time.Duration) error
}

// New creates an Engine. It fails when a tech pattern does not compile.
func New(st *store.Store, f *fetch.Fetcher, cfg Config, logger *slog.Logger) (*Engine, error) {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{store: st, fetcher: f, cfg: cfg, logger: logger, sleep: sleepCtx}
	for _, tp := range cfg.Tech {
		re, err := regexp.Compile("(?i)" + tp.Pattern)
		if err != nil {
			return nil, fmt.Errorf("enrich: tech pattern %s: %w", tp.Name, err)
		}
		e.tech = append(e.tech, techRule{name: tp.Name, re: re})
	}
	return e, nil
}

// Run enriches the most recent signals. A domain shared by several signals
// is fetched once per run. Store errors abort the pass.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	signals, err := e.store.FetchSignals(ctx, e.cfg.Limit)
	if err != nil {
		return nil, err
	}

	res := &Result{Signals: len(signals)}
	profiles := map[string]*store.Enrichment{}
	for _, sig := range signals {
		domain := sig.DetectedDomain
		if domain == "" {
			domain = urlguard.Host(sig.URL)
		}
		if domain == "" {
			res.Skipped++
			continue
		}

		p, ok := profiles[domain]
		if !ok {
			if len(profiles) > 0 {
				if err := e.sleep(ctx, e.cfg.SignalDelay); err != nil {
					return res, err
				}
			}
			p = e.Profile(ctx, domain)
			profiles[domain] = p
			if p.CompanySizeHint == store.SizeUnknown {
				res.Unknown++
			}
		}

		en := *p
		en.SignalURL = sig.URL
		if err := e.store.UpsertEnrichment(ctx, &en); err != nil {
			return res, err
		}
		res.Written++
	}
	res.Domains = len(profiles)
	e.logger.Info("enrich: done", "signals", res.Signals, "written", res.Written,
		"domains", res.Domains, "skipped", res.Skipped)
	return res, nil
}

// Profile fetches the pages of domain and returns its enrichment without a signal URL.
func (e *Engine) Profile(ctx context.Context, domain string) *store.Enrichment {
	pages := &pageCache{engine: e, domain: domain, bodies: map[string][]byte{}}
	p := &store.Enrichment{
		Domain:          domain,
		TechHints:       e.techHints(ctx, pages),
		CompanySizeHint: e.sizeHint(ctx, pages),
		HiringRoles:     e.hiringRoles(ctx, pages),
	}
	e.logger.Debug("enrich: profiled", "domain", domain, "tech", p.TechHints,
		"size", p.CompanySizeHint, "roles", p.HiringRoles, "fetches", pages.fetches)
	return p
}

// techHints adds one per fetched page matching each technology.
func (e *Engine) techHints(ctx context.Context, pages *pageCache) map[string]int {
	hints := map[string]int{}
	for _, path := range e.cfg.TechPaths {
		body, ok := pages.get(ctx, path)
		if !ok {
			continue
		}
		for _, t := range e.tech {
			if t.re.Match(body) {
				hints[t.name]++
			}
		}
	}
	return hints
}

func (e *Engine) sizeHint(ctx context.Context, pages *pageCache) string {
	for _, path := range e.cfg.SizePaths {
		body, ok := pages.get(ctx, path)
		if !ok {
			continue
		}
		text := strings.ToLower(extract.VisibleText(body))
		return SizeBucket(CountWords(text, e.cfg.SizeWords))
	}
	return store.SizeUnknown
}

func (e *Engine) hiringRoles(ctx context.Context, pages *pageCache) []string {
	seen := map[string]bool{}
	for _, path := range e.cfg.CareerPaths {
		body, ok := pages.get(ctx, path)
		if !ok {
			continue
		}
		text := strings.ToLower(extract.VisibleText(body))
		for _, role := range e.cfg.Roles {
			if strings.Contains(text, role) {
				seen[role] = true
			}
		}
	}
	roles := make([]string, 0, len(seen))
	for r := range seen {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// CountWords sums the non-overlapping substring occurrences of every word in text.
func CountWords(text string, words []string) int {
	n := 0
	for _, w := range words {
		if w != "" {
			n += strings.Count(text, w)
		}
	}
	return n
}

// SizeBucket maps a role-word count to an organisation size bucket.
// Thresholds are strict: 200 maps to "251-1000", 201 to ">1000".
func SizeBucket(count int) string {
	switch {
	case count > 200:
		return ">1000"
	case count > 80:
		return "251-1000"
	case count > 30:
		return "51-250"
	case count > 10:
		return "11-50"
	case count > 3:
		return "2-10"
	}
	return "1"
}

// pageCache fetches each path of one domain at most once per profile. An
// empty body counts as unreadable.
type pageCache struct {
	engine  *Engine
	domain  string
	bodies  map[string][]byte
	fetches int
}

func (p *pageCache) get(ctx context.Context, path string) ([]byte, bool) {
	if body, ok := p.bodies[path]; ok {
		return body, len(body) > 0
	}
	p.fetches++
	url := p.engine.cfg.Scheme + "://" + p.domain + path
	res, err := p.engine.fetcher.Get(ctx, url, nil)
	if err != nil {
		p.engine.logger.Debug("enrich: page fetch failed", "url", url, "error", err)
		p.bodies[path] = nil
		return nil, false
	}
	p.bodies[path] = res.Body
	return res.Body, len(res.Body) > 0
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
