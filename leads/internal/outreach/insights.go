package outreach

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/hazyhaar/leadscout/extract"
	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
)

const (
	recentWindow = 15 * 24 * time.Hour // up to 14 whole days old
	recencyBonus = 10
	hiringBonus  = 8
)

var switcherRe = regexp.MustCompile(`(?i)migrate|moving away|downtime|incident|outage|broken|bug|doesn't work|vendor lock-in`)

// Insights derives advisory signals for sales: intent, switching risk,
// buying personas and a personal opener.
type Insights struct {
	fetcher   *fetch.Fetcher
	scheme    string
	hookPaths []string
	now       func() time.Time
}

// NewInsights creates an Insights helper. f is used for hook lookups and may
// be nil to disable them.
func NewInsights(f *fetch.Fetcher) *Insights {
	return &Insights{
		fetcher:   f,
		scheme:    "https",
		hookPaths: []string{"/blog", "/news", "/changelog"},
		now:       time.Now,
	}
}

// SetScheme sets the scheme used for hook lookups; "" keeps https.
func (in *Insights) SetScheme(scheme string) {
	if scheme != "" {
		in.scheme = scheme
	}
}

// Intent returns the intent bonus of l and the factors behind it.
func (in *Insights) Intent(l *store.Lead) (int, string) {
	bonus := 0
	var why []string
	if l.CreatedAt > 0 && in.now().Sub(time.UnixMilli(l.CreatedAt)) < recentWindow {
		bonus += recencyBonus
		why = append(why, "recent")
	}
	if slices.Contains(l.HiringRoles, "security") || slices.Contains(l.HiringRoles, "identity") {
		bonus += hiringBonus
		why = append(why, "relevant hiring")
	}
	return bonus, strings.Join(why, "+")
}

// SwitcherRisk reports whether text reads like frustration with a current vendor.
func SwitcherRisk(text string) bool {
	return switcherRe.MatchString(text)
}

// Personas suggests who to contact, sorted.
func Personas(sizeHint string, roles []string) []string {
	p := []string{"CTO", "Head of Engineering", "Security Lead", "Platform Lead"}
	if sizeHint == "251-1000" || sizeHint == ">1000" {
		p = append(p, "IAM Architect", "Compliance Lead")
	}
	if slices.Contains(roles, "mobile") {
		p = append(p, "Mobile Lead")
	}
	slices.Sort(p)
	return p
}

// RecentHook looks for the latest headline on the domain's blog, news or
// changelog page and turns it into an opener. "" when nothing was found.
func (in *Insights) RecentHook(ctx context.Context, domain string) string {
	if in.fetcher == nil || domain == "" {
		return ""
	}
	for _, path := range in.hookPaths {
		res, err := in.fetcher.Get(ctx, in.scheme+"://"+domain+path, nil)
		if err != nil || len(res.Body) == 0 {
			continue
		}
		if h := extract.FirstHeading(res.Body); h != "" {
			return fmt.Sprintf("Saw your recent post: '%s'. Congrats on the launch.", h)
		}
	}
	return ""
}
