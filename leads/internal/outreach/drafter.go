// Package outreach turns ranked leads into drafts, notifications and CRM
// exports. Everything here only reads leads; the sole write is appending
// outreach rows.
package outreach

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// Channels recorded on outreach rows.
const (
	ChannelEmail = "email"
	ChannelChat  = "chat"
)

// DraftConfig configures the email template.
type DraftConfig struct {
	Product string // pitched product; default "Descope"
	Sender  string // signature; default "the leadscout team"
}

// Drafter writes one templated email draft per lead.
type Drafter struct {
	store  *store.Store
	cfg    DraftConfig
	logger *slog.Logger
}

// NewDrafter creates a Drafter.
func NewDrafter(st *store.Store, cfg DraftConfig, logger *slog.Logger) *Drafter {
	if cfg.Product == "" {
		cfg.Product = "Descope"
	}
	if cfg.Sender == "" {
		cfg.Sender = "the leadscout team"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Drafter{store: st, cfg: cfg, logger: logger}
}

// Compose renders the email for l.
func (d *Drafter) Compose(l *store.Lead) string {
	company := firstNonEmpty(l.DetectedCompany, l.DetectedDomain, "your team")
	pain := firstNonEmpty(l.Title, "auth/SSO friction")
	tech := "modern auth"
	if names := TechNames(l); len(names) > 0 {
		tech = strings.Join(names, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Subject: Quick idea to de-risk %s's auth\n\n", company)
	b.WriteString("Hi team,\n\n")
	fmt.Fprintf(&b, "I came across a recent discussion indicating challenges around %q.\n", pain)
	fmt.Fprintf(&b, "If you're currently using %s, you might like %s's low-code auth flows (passkeys, SAML/OIDC, social),\n", tech, d.cfg.Product)
	b.WriteString("which can reduce integration time and improve security posture.\n\n")
	b.WriteString("Happy to share a quick flow mock for your stack. Would early next week be a bad time?\n\n")
	fmt.Fprintf(&b, "- %s\n", d.cfg.Sender)
	return b.String()
}

// Run drafts an email for every lead ranked at or above minScore
// (unscored leads included) and returns the number of drafts written.
func (d *Drafter) Run(ctx context.Context, minScore int) (int, error) {
	leads, err := d.store.FetchJoined(ctx, minScore)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, l := range leads {
		o := &store.Outreach{SignalURL: l.URL, Channel: ChannelEmail, Message: d.Compose(l), Status: store.StatusDraft}
		if err := d.store.InsertOutreach(ctx, o); err != nil {
			return n, err
		}
		n++
	}
	d.logger.Info("outreach: drafts written", "count", n, "min_score", minScore)
	return n, nil
}

// TechNames returns the technologies of l with a non-zero hint, sorted.
func TechNames(l *store.Lead) []string {
	var names []string
	for name, n := range l.TechHints {
		if n > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
