// Package leads finds organisations publicly struggling with authentication
// and ranks them as sales prospects.
//
// The pipeline:
//
//	sources → collect → signals → enrich → score → Ranked → outreach
//
// Bootstrap runs collect, enrich and score in sequence. RunDemo runs the
// outreach consumers (drafts, notifications, CRM export) over the ranked
// view. Every run is recorded in the runs table.
//
// Usage:
//
//	svc, err := leads.New(cfg, logger)
//	defer svc.Close()
//	run, err := svc.Bootstrap(ctx)
//	top, err := svc.Ranked(ctx, 20)
//	svc.RegisterMCP(mcpServer)
//	http.ListenAndServe(cfg.HTTP.Addr, svc.Router())
package leads

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/hazyhaar/leadscout/idgen"
	"github.com/hazyhaar/leadscout/kit"
	"github.com/hazyhaar/leadscout/leads/internal/collect"
	"github.com/hazyhaar/leadscout/leads/internal/enrich"
	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/outreach"
	"github.com/hazyhaar/leadscout/leads/internal/score"
	"github.com/hazyhaar/leadscout/leads/internal/source"
	"github.com/hazyhaar/leadscout/leads/internal/store"
	"github.com/hazyhaar/leadscout/shield"
	"github.com/hazyhaar/leadscout/urlguard"
)

// Run modes recorded in the runs table.
const (
	ModeBootstrap = "bootstrap"
	ModeDemo      = "demo"
)

// Lead is the joined signal/enrichment/score view returned by Ranked.
type Lead = store.Lead

// Run is one recorded pipeline execution.
type Run = store.Run

// Stats holds per-table counters.
type Stats = store.Stats

// DemoResult describes one outreach pass.
type DemoResult struct {
	Run        *Run   `json:"run"`
	ExportPath string `json:"export_path"`
	Exported   int    `json:"exported"`
}

// Service is the leadscout orchestrator.
type Service struct {
	store  *store.Store
	config *Config
	logger *slog.Logger
	newID  idgen.Generator

	collector *collect.Collector
	enricher  *enrich.Engine
	scorer    *score.Engine
	drafter   *outreach.Drafter
	notifier  *outreach.Notifier
	exporter  *outreach.Exporter
	limiter   *shield.RateLimiter
}

// New opens the database and wires every pipeline stage. cfg is completed
// with defaults and environment overrides in place.
func New(cfg *Config, logger *slog.Logger) (*Service, error) {
	cfg.defaults()
	cfg.applyEnv()
	if logger == nil {
		logger = slog.Default()
	}

	limiter, err := newLimiter(cfg.HTTP.RateLimit)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	var validator urlguard.Validator = urlguard.ValidateURL
	if cfg.Fetch.AllowPrivate {
		validator = urlguard.AllowAll
	}
	newFetcher := func(timeout time.Duration) *fetch.Fetcher {
		return fetch.New(fetch.Config{
			Timeout:   timeout,
			MaxBytes:  cfg.Fetch.MaxBytes,
			UserAgent: cfg.Fetch.UserAgent,
			Validator: validator,
		})
	}
	searchFetcher := newFetcher(cfg.Fetch.Timeout)
	siteFetcher := newFetcher(cfg.Fetch.SiteTimeout)
	webhookFetcher := newFetcher(cfg.Fetch.WebhookTimeout)

	searches := []source.Source{
		source.NewGitHub(searchFetcher, source.GitHubConfig{
			BaseURL:    cfg.Collect.GitHubAPI,
			Token:      cfg.Collect.GitHubToken,
			SnippetMax: cfg.Collect.SnippetMax,
		}),
		source.NewAggregator(searchFetcher, source.AggregatorConfig{
			SearchURL:  cfg.Collect.AggregatorAPI,
			ItemURL:    cfg.Collect.AggregatorItemURL,
			SnippetMax: cfg.Collect.SnippetMax,
			API:        cfg.Collect.AggregatorFields,
		}),
	}
	feed := source.NewFeed(searchFetcher, source.FeedConfig{
		Keywords:   cfg.Collect.FeedKeywords,
		SnippetMax: cfg.Collect.SnippetMax,
	})

	collector := collect.New(st, searches, feed, collect.Config{
		Queries:   cfg.Collect.Queries,
		Feeds:     cfg.Collect.Feeds,
		PerQuery:  cfg.Collect.PerQuery,
		CallDelay: *cfg.Collect.CallDelay,
	}, logger.With("component", "collect"))

	enricher, err := enrich.New(st, siteFetcher, enrich.Config{
		Limit:       cfg.Enrich.Limit,
		SignalDelay: *cfg.Enrich.SignalDelay,
		Scheme:      cfg.Enrich.Scheme,
		Tech:        cfg.Enrich.TechPatterns,
	}, logger.With("component", "enrich"))
	if err != nil {
		st.Close()
		return nil, err
	}

	insights := outreach.NewInsights(siteFetcher)
	insights.SetScheme(cfg.Enrich.Scheme)

	return &Service{
		store:     st,
		config:    cfg,
		logger:    logger,
		newID:     idgen.Prefixed("run_", idgen.Default),
		collector: collector,
		enricher:  enricher,
		scorer:    score.New(st, cfg.Rules, logger.With("component", "score")),
		drafter: outreach.NewDrafter(st, outreach.DraftConfig{
			Product: cfg.Outreach.Product,
			Sender:  cfg.Outreach.Sender,
		}, logger.With("component", "outreach")),
		notifier: outreach.NewNotifier(st, webhookFetcher, cfg.Outreach.WebhookURL, logger.With("component", "outreach")),
		exporter: outreach.NewExporter(st, insights,
			outreach.NewOnePager(filepath.Dir(cfg.Outreach.ExportPath), cfg.Outreach.Product)),
		limiter: limiter,
	}, nil
}

// newLimiter returns nil when rate limiting is off. Health checks and metric
// scrapes are never limited.
func newLimiter(cfg shield.RateLimitConfig) (*shield.RateLimiter, error) {
	if cfg.MaxRequests <= 0 {
		return nil, nil
	}
	return shield.NewRateLimiter(cfg, "/healthz", "/metrics")
}

// Close closes the database.
func (s *Service) Close() error {
	return s.store.Close()
}

// Config returns the effective configuration.
func (s *Service) Config() *Config {
	return s.config
}

// Bootstrap runs collect, enrich and score once and records the run.
// Source failures only increase the failure count; a store error marks the
// run failed and is returned together with the partial run.
func (s *Service) Bootstrap(ctx context.Context) (*Run, error) {
	run, ctx, logger, err := s.startRun(ctx, ModeBootstrap)
	if err != nil {
		return nil, err
	}

	err = func() error {
		cres, err := s.collector.Run(ctx)
		if cres != nil {
			run.Signals = cres.Hits
			run.NewSignals = cres.NewSignals
			run.Failures = cres.Failures
		}
		if err != nil {
			return fmt.Errorf("collect: %w", err)
		}

		eres, err := s.enricher.Run(ctx)
		if eres != nil {
			run.Enrichments = eres.Written
		}
		if err != nil {
			return fmt.Errorf("enrich: %w", err)
		}

		sres, err := s.scorer.Run(ctx)
		if sres != nil {
			run.Scores = sres.Scored
		}
		return err
	}()
	return s.finishRun(run, logger, err)
}

// RunDemo drafts emails for leads scoring at least Outreach.MinScore,
// notifies the top Outreach.NotifyTop above Outreach.NotifyMinScore and
// writes the CRM export of the top Outreach.ExportTop leads.
func (s *Service) RunDemo(ctx context.Context) (*DemoResult, error) {
	run, ctx, logger, err := s.startRun(ctx, ModeDemo)
	if err != nil {
		return nil, err
	}
	oc := s.config.Outreach
	res := &DemoResult{Run: run, ExportPath: oc.ExportPath}

	err = func() error {
		drafts, err := s.drafter.Run(ctx, *oc.MinScore)
		run.Drafts = drafts
		if err != nil {
			return fmt.Errorf("draft: %w", err)
		}

		notified, err := s.notifier.Run(ctx, *oc.NotifyMinScore, oc.NotifyTop)
		run.Notified = notified
		if err != nil {
			return fmt.Errorf("notify: %w", err)
		}

		records, err := s.exporter.Records(ctx, *oc.MinScore, oc.ExportTop)
		if err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := outreach.WriteFile(oc.ExportPath, records); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		res.Exported = len(records)
		return nil
	}()
	_, err = s.finishRun(run, logger, err)
	return res, err
}

func (s *Service) startRun(ctx context.Context, mode string) (*Run, context.Context, *slog.Logger, error) {
	id := s.newID()
	run, err := s.store.InsertRun(ctx, id, mode)
	if err != nil {
		return nil, ctx, nil, err
	}
	ctx = kit.WithRunID(ctx, id)
	logger := s.logger.With(append(kit.ContextAttrs(ctx), "mode", mode)...)
	logger.Info("leads: run started")
	return run, ctx, logger, nil
}

func (s *Service) finishRun(run *Run, logger *slog.Logger, runErr error) (*Run, error) {
	if runErr != nil {
		run.Error = runErr.Error()
	}
	// The run row is closed even when the caller's context was cancelled.
	if err := s.store.FinishRun(context.Background(), run); err != nil {
		if runErr == nil {
			runErr = err
		}
		logger.Error("leads: finish run", "error", err)
	}
	if runErr != nil {
		logger.Error("leads: run failed", "error", runErr, "failures", run.Failures)
		return run, runErr
	}
	logger.Info("leads: run done",
		"signals", run.Signals, "new", run.NewSignals, "enrichments", run.Enrichments,
		"scores", run.Scores, "drafts", run.Drafts, "notified", run.Notified, "failures", run.Failures)
	return run, nil
}

// Ranked returns every lead whose score is at least minScore, or that was
// never scored, highest score first.
func (s *Service) Ranked(ctx context.Context, minScore int) ([]*Lead, error) {
	if minScore < 0 {
		return nil, fmt.Errorf("%w: min_score %d", ErrInvalidInput, minScore)
	}
	return s.store.FetchJoined(ctx, minScore)
}

// Lead returns the joined view of one signal.
func (s *Service) Lead(ctx context.Context, url string) (*Lead, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty url", ErrInvalidInput)
	}
	l, err := s.store.FetchLead(ctx, url)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, url)
	}
	return l, nil
}

// Stats returns per-table counters.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// Runs lists recorded runs, newest first.
func (s *Service) Runs(ctx context.Context, limit int) ([]*Run, error) {
	return s.store.ListRuns(ctx, limit)
}

// GetRun returns one recorded run by id.
func (s *Service) GetRun(ctx context.Context, id string) (*Run, error) {
	if _, err := idgen.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	r, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: run %s", ErrNotFound, id)
	}
	return r, nil
}

// Ping checks that the database answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.DB.PingContext(ctx)
}
