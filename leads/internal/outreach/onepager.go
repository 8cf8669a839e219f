package outreach

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/natefinch/atomic"

	"github.com/hazyhaar/leadscout/extract"
	"github.com/hazyhaar/leadscout/leads/internal/store"
)

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// OnePager writes a plain-text proposal per lead into one directory.
type OnePager struct {
	dir     string
	product string
}

// NewOnePager creates a writer for dir. product defaults to "Descope".
func NewOnePager(dir, product string) *OnePager {
	if dir == "" {
		dir = "."
	}
	if product == "" {
		product = "Descope"
	}
	return &OnePager{dir: dir, product: product}
}

// OnePagerName returns the file name used for company: onepager_ plus a
// lowercase slug of at most 32 characters.
func OnePagerName(company string) string {
	slug := extract.Truncate(slugRe.ReplaceAllString(company, "_"), 32)
	return "onepager_" + strings.ToLower(slug) + ".txt"
}

// Render returns the proposal text.
func (p *OnePager) Render(company, pain string, tech []string) string {
	stack := "N/A"
	if len(tech) > 0 {
		stack = strings.Join(tech, ", ")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: Personalized Proposal\n", p.product)
	fmt.Fprintf(&b, "Company: %s\n", company)
	fmt.Fprintf(&b, "Observed Pain: %s\n", pain)
	fmt.Fprintf(&b, "Stack Hints: %s\n\n", stack)
	fmt.Fprintf(&b, "Why %s:\n", p.product)
	b.WriteString("- Faster auth integration (flows, passkeys, SAML/OIDC)\n")
	b.WriteString("- Reduced auth maintenance\n")
	b.WriteString("- Better UX & security posture\n\n")
	b.WriteString("Next Step: 15-min call to confirm fit and show a tailored flow.\n")
	return b.String()
}

// Write renders the proposal for l and atomically replaces its file.
// Leads on the same domain share one file.
func (p *OnePager) Write(l *store.Lead) (string, error) {
	company := firstNonEmpty(l.DetectedCompany, l.DetectedDomain, "company")
	pain := firstNonEmpty(l.Title, "auth friction")

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("outreach: onepager dir: %w", err)
	}
	path := filepath.Join(p.dir, OnePagerName(company))
	if err := atomic.WriteFile(path, strings.NewReader(p.Render(company, pain, TechNames(l)))); err != nil {
		return "", fmt.Errorf("outreach: onepager: %w", err)
	}
	return path, nil
}
