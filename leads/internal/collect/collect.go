// Package collect runs the signal sources and upserts their hits.
package collect

import (
	"context"
	"log/slog"
	"time"

	"github.com/hazyhaar/leadscout/leads/internal/source"
	"github.com/hazyhaar/leadscout/leads/internal/store"
	"github.com/hazyhaar/leadscout/urlguard"
)

// Config is the collector's immutable configuration.
type Config struct {
	Queries   []string      // phrases sent to every search source
	Feeds     []string      // URLs passed to the feed source
	PerQuery  int           // hit cap per call; default 5
	CallDelay time.Duration // pause between external calls; 0 disables
}

// Result aggregates one collection pass.
type Result struct {
	Calls      int `json:"calls"`
	Failures   int `json:"failures"`
	Hits       int `json:"hits"`
	NewSignals int `json:"new_signals"`
}

// Collector fans queries out to search sources and feeds to the feed source.
type Collector struct {
	store    *store.Store
	searches []source.Source
	feed     source.Source
	cfg      Config
	logger   *slog.Logger
	sleep    func(context.Context, time.Duration) error
}

// New creates a Collector. feed may be nil when no feeds are configured.
func New(st *store.Store, searches []source.Source, feed source.Source, cfg Config, logger *slog.Logger) *Collector {
	if cfg.PerQuery <= 0 {
		cfg.PerQuery = 5
	}
	if cfg.CallDelay < 0 {
		cfg.CallDelay = 0
	}
	cfg.Queries = append([]string(nil), cfg.Queries...)
	cfg.Feeds = append([]string(nil), cfg.Feeds...)
	if logger == nil {
		logger = slog.Default()
	}
	return &Collector{
		store:    st,
		searches: searches,
		feed:     feed,
		cfg:      cfg,
		logger:   logger,
		sleep:    sleepCtx,
	}
}

// Run executes every query against every search source, then every feed.
// Source failures are logged and counted; store errors abort the pass.
func (c *Collector) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	for _, q := range c.cfg.Queries {
		for _, src := range c.searches {
			if err := c.call(ctx, src, q, res); err != nil {
				return res, err
			}
		}
	}
	if c.feed != nil {
		for _, u := range c.cfg.Feeds {
			if err := c.call(ctx, c.feed, u, res); err != nil {
				return res, err
			}
		}
	}
	c.logger.Info("collect: done",
		"calls", res.Calls, "hits", res.Hits, "new", res.NewSignals, "failures", res.Failures)
	return res, nil
}

func (c *Collector) call(ctx context.Context, src source.Source, query string, res *Result) error {
	if res.Calls > 0 {
		if err := c.sleep(ctx, c.cfg.CallDelay); err != nil {
			return err
		}
	}
	res.Calls++

	out := src.Search(ctx, query, c.cfg.PerQuery)
	if out.Failed() {
		res.Failures++
		c.logger.Warn("collect: source failed", "source", src.Name(), "query", query, "error", out.Err)
		return nil
	}
	for _, h := range out.Hits {
		created, err := c.store.UpsertSignal(ctx, src.Kind(), h.URL, h.Title, h.Snippet, "", urlguard.Host(h.URL))
		if err != nil {
			return err
		}
		res.Hits++
		if created {
			res.NewSignals++
		}
	}
	c.logger.Debug("collect: query done", "source", src.Name(), "query", query, "hits", len(out.Hits))
	return nil
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
