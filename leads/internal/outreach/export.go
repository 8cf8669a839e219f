package outreach

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// Record is one CRM export row.
type Record struct {
	URL          string   `json:"url"`
	Domain       string   `json:"domain"`
	Company      string   `json:"company,omitempty"`
	Title        string   `json:"title"`
	BaseScore    *int     `json:"base_score"`
	Reasons      []string `json:"reasons,omitempty"`
	IntentBonus  int      `json:"intent_bonus"`
	IntentReason string   `json:"intent_reason,omitempty"`
	SwitcherRisk bool     `json:"switcher_risk"`
	Personas     []string `json:"personas"`
	Tech         []string `json:"tech,omitempty"`
	Hook         string   `json:"hook,omitempty"`
	OnePagerPath string   `json:"onepager_path,omitempty"`
}

// Exporter builds CRM records from the ranked leads.
type Exporter struct {
	store    *store.Store
	insights *Insights
	pager    *OnePager
}

// NewExporter creates an Exporter. pager may be nil to skip one-pagers.
func NewExporter(st *store.Store, in *Insights, pager *OnePager) *Exporter {
	return &Exporter{store: st, insights: in, pager: pager}
}

// Records returns up to top records for leads at or above minScore.
func (e *Exporter) Records(ctx context.Context, minScore, top int) ([]Record, error) {
	leads, err := e.store.FetchJoined(ctx, minScore)
	if err != nil {
		return nil, err
	}
	if top > 0 && len(leads) > top {
		leads = leads[:top]
	}

	out := make([]Record, 0, len(leads))
	for _, l := range leads {
		bonus, why := e.insights.Intent(l)
		var pagerPath string
		if e.pager != nil {
			if pagerPath, err = e.pager.Write(l); err != nil {
				return nil, err
			}
		}
		out = append(out, Record{
			URL:          l.URL,
			Domain:       l.DetectedDomain,
			Company:      l.DetectedCompany,
			Title:        l.Title,
			BaseScore:    l.Score,
			Reasons:      l.Reasons,
			IntentBonus:  bonus,
			IntentReason: why,
			SwitcherRisk: SwitcherRisk(l.Title + "\n" + l.Snippet),
			Personas:     Personas(l.CompanySizeHint, l.HiringRoles),
			Tech:         TechNames(l),
			Hook:         e.insights.RecentHook(ctx, l.DetectedDomain),
			OnePagerPath: pagerPath,
		})
	}
	return out, nil
}

// Write encodes records as indented JSON.
func Write(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteFile atomically replaces path with the encoded records.
func WriteFile(path string, records []Record) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("outreach: export dir: %w", err)
	}
	var buf bytes.Buffer
	if err := Write(&buf, records); err != nil {
		return fmt.Errorf("outreach: export: %w", err)
	}
	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("outreach: export: %w", err)
	}
	return nil
}
