package outreach

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// Notifier announces the best leads to a chat webhook. Without a webhook it
// only logs what it would have sent.
type Notifier struct {
	store   *store.Store
	fetcher *fetch.Fetcher
	webhook string
	logger  *slog.Logger
}

// NewNotifier creates a Notifier. An empty webhook selects log-only delivery.
func NewNotifier(st *store.Store, f *fetch.Fetcher, webhook string, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: st, fetcher: f, webhook: webhook, logger: logger}
}

// Message renders the chat text for l.
func Message(l *store.Lead) string {
	score := "n/a"
	if l.Score != nil {
		score = fmt.Sprint(*l.Score)
	}
	return fmt.Sprintf("*New High-Fit Lead*\nScore: %s | Domain: %s\nTitle: %s\nURL: %s\n",
		score, l.DetectedDomain, l.Title, l.URL)
}

// Run notifies the top topN leads at or above minScore and returns how many
// were delivered. Webhook failures are logged, recorded as failed outreach
// and never abort the run.
func (n *Notifier) Run(ctx context.Context, minScore, topN int) (int, error) {
	leads, err := n.store.FetchJoined(ctx, minScore)
	if err != nil {
		return 0, err
	}
	if topN > 0 && len(leads) > topN {
		leads = leads[:topN]
	}

	delivered := 0
	for _, l := range leads {
		text := Message(l)
		if n.webhook == "" {
			n.logger.Info("outreach: mock notification", "url", l.URL, "text", text)
			delivered++
			continue
		}

		status := store.StatusSent
		if err := n.fetcher.PostJSON(ctx, n.webhook, map[string]string{"text": text}); err != nil {
			status = store.StatusFailed
			n.logger.Warn("outreach: webhook failed", "url", l.URL, "error", err)
		} else {
			delivered++
		}
		o := &store.Outreach{SignalURL: l.URL, Channel: ChannelChat, Message: text, Status: status}
		if err := n.store.InsertOutreach(ctx, o); err != nil {
			return delivered, err
		}
	}
	return delivered, nil
}
