package store

// Signal source kinds.
const (
	SourceGitHub = "github" // code-forge issue search
	SourceHN     = "hn"     // link-aggregator search
	SourceRSS    = "rss"    // feed pull
)

// Outreach statuses.
const (
	StatusDraft  = "draft"
	StatusSent   = "sent"
	StatusFailed = "failed"
)

// SizeUnknown is the size bucket used when no team/about page was readable.
const SizeUnknown = "unknown"

// ValidSource reports whether kind is one of the known signal sources.
func ValidSource(kind string) bool {
	switch kind {
	case SourceGitHub, SourceHN, SourceRSS:
		return true
	}
	return false
}

// ValidStatus reports whether status is a known outreach status.
func ValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusSent, StatusFailed:
		return true
	}
	return false
}

// Signal is one observed mention of an auth pain point.
type Signal struct {
	ID              int64  `json:"id"`
	Source          string `json:"source"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	Snippet         string `json:"snippet"`
	DetectedCompany string `json:"detected_company"`
	DetectedDomain  string `json:"detected_domain"`
	CreatedAt       int64  `json:"created_at"` // unix ms
}

// Enrichment is the derived profile of the prospect behind a signal.
type Enrichment struct {
	SignalURL       string         `json:"signal_url"`
	Domain          string         `json:"domain"`
	TechHints       map[string]int `json:"tech_hints"`
	CompanySizeHint string         `json:"company_size_hint"`
	HiringRoles     []string       `json:"hiring_roles"`
	UpdatedAt       int64          `json:"updated_at"`
}

// Score is the bounded fit rating of a signal.
type Score struct {
	SignalURL string   `json:"signal_url"`
	Score     int      `json:"score"`
	Reasons   []string `json:"reasons"`
	UpdatedAt int64    `json:"updated_at"`
}

// Outreach is one generated message tied to a signal.
type Outreach struct {
	ID        int64  `json:"id"`
	SignalURL string `json:"signal_url"`
	Channel   string `json:"channel"`
	Message   string `json:"message"`
	Status    string `json:"status"`
	CreatedAt int64  `json:"created_at"`
}

// Lead is the joined view of a signal with its optional enrichment and score.
type Lead struct {
	Signal
	Enriched        bool           `json:"enriched"`
	TechHints       map[string]int `json:"tech_hints,omitempty"`
	CompanySizeHint string         `json:"company_size_hint,omitempty"`
	HiringRoles     []string       `json:"hiring_roles,omitempty"`
	Score           *int           `json:"score,omitempty"`
	Reasons         []string       `json:"reasons,omitempty"`
}

// BaseScore returns the score, treating a never-scored lead as 0.
func (l *Lead) BaseScore() int {
	if l.Score == nil {
		return 0
	}
	return *l.Score
}

// Run records one pipeline execution and its aggregate counts.
type Run struct {
	ID          string `json:"id"`
	Mode        string `json:"mode"`
	Status      string `json:"status"`
	Signals     int    `json:"signals"`
	NewSignals  int    `json:"new_signals"`
	Enrichments int    `json:"enrichments"`
	Scores      int    `json:"scores"`
	Drafts      int    `json:"drafts"`
	Notified    int    `json:"notified"`
	Failures    int    `json:"failures"`
	Error       string `json:"error,omitempty"`
	StartedAt   int64  `json:"started_at"`
	FinishedAt  *int64 `json:"finished_at,omitempty"`
}

// Stats holds table counters.
type Stats struct {
	Signals          int            `json:"signals"`
	Enrichments      int            `json:"enrichments"`
	Scores           int            `json:"scores"`
	Outreach         int            `json:"outreach"`
	Runs             int            `json:"runs"`
	BySource         map[string]int `json:"by_source"`
	OutreachByStatus map[string]int `json:"outreach_by_status"`
}
