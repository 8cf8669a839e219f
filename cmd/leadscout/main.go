// Command leadscout collects public auth pain-point signals, enriches and
// scores the organisations behind them, and serves the ranked leads.
//
// Usage:
//
//	leadscout -db leads.db -bootstrap          # collect, enrich, score
//	leadscout -db leads.db -run-demo           # draft, notify, export
//	leadscout -db leads.db -ranked -min-score 20
//	leadscout -db leads.db -stats
//	leadscout -config leadscout.yaml -serve    # HTTP API + /metrics
//	leadscout -db leads.db -mcp                # MCP tools over stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/leadscout/leads"
)

type options struct {
	configPath string
	dbPath     string
	addr       string
	minScore   int
	bootstrap  bool
	runDemo    bool
	ranked     bool
	stats      bool
	serve      bool
	mcp        bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to leadscout.yaml config file")
	flag.StringVar(&o.dbPath, "db", "", "path to SQLite database (overrides config)")
	flag.StringVar(&o.addr, "addr", "", "HTTP listen address for -serve (overrides config)")
	flag.IntVar(&o.minScore, "min-score", 0, "minimum score for -ranked")
	flag.BoolVar(&o.bootstrap, "bootstrap", false, "collect, enrich and score once")
	flag.BoolVar(&o.runDemo, "run-demo", false, "draft outreach, notify and export the top leads")
	flag.BoolVar(&o.ranked, "ranked", false, "print ranked leads as JSON and exit")
	flag.BoolVar(&o.stats, "stats", false, "print table counts and exit")
	flag.BoolVar(&o.serve, "serve", false, "serve the HTTP API until interrupted")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio until interrupted")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("leadscout: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if !o.bootstrap && !o.runDemo && !o.ranked && !o.stats && !o.serve && !o.mcp {
		fmt.Fprintln(os.Stderr, "usage: leadscout [-config <file>] [-db <path>] -bootstrap | -run-demo | -ranked | -stats | -serve | -mcp")
		return errors.New("no command given")
	}

	cfg, err := resolveConfig(o)
	if err != nil {
		return err
	}

	svc, err := leads.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer svc.Close()

	// Commands compose in pipeline order: -bootstrap -run-demo -ranked runs all three.
	if o.bootstrap {
		r, err := svc.Bootstrap(ctx)
		if err != nil {
			return fmt.Errorf("bootstrap: %w", err)
		}
		fmt.Fprintf(os.Stderr, "bootstrap %s: %d signals (%d new), %d enriched, %d scored, %d source failures\n",
			r.ID, r.Signals, r.NewSignals, r.Enrichments, r.Scores, r.Failures)
	}

	if o.runDemo {
		res, err := svc.RunDemo(ctx)
		if err != nil {
			return fmt.Errorf("run-demo: %w", err)
		}
		fmt.Fprintf(os.Stderr, "demo %s: %d drafts, %d notified, %d exported to %s\n",
			res.Run.ID, res.Run.Drafts, res.Run.Notified, res.Exported, res.ExportPath)
	}

	if o.ranked {
		ranked, err := svc.Ranked(ctx, o.minScore)
		if err != nil {
			return fmt.Errorf("ranked: %w", err)
		}
		if err := printJSON(ranked); err != nil {
			return err
		}
	}

	if o.stats {
		st, err := svc.Stats(ctx)
		if err != nil {
			return fmt.Errorf("stats: %w", err)
		}
		if err := printJSON(st); err != nil {
			return err
		}
	}

	switch {
	case o.mcp:
		return serveMCP(ctx, logger, svc)
	case o.serve:
		return serveHTTP(ctx, logger, svc, cfg.HTTP.Addr)
	}
	return nil
}

func resolveConfig(o options) (*leads.Config, error) {
	cfg := &leads.Config{}
	if o.configPath != "" {
		loaded, err := leads.LoadConfigFile(o.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
	}
	if o.addr != "" {
		cfg.HTTP.Addr = o.addr
	}
	return cfg, nil
}

func serveHTTP(ctx context.Context, logger *slog.Logger, svc *leads.Service, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           svc.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("leadscout: listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("leadscout: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func serveMCP(ctx context.Context, logger *slog.Logger, svc *leads.Service) error {
	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "leadscout",
		Version: "1.0.0",
	}, nil)
	svc.RegisterMCP(srv)

	logger.Info("leadscout: mcp on stdio")
	if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp: %w", err)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
