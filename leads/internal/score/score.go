// Package score rates joined leads with fixed additive rules.
//
// A score is the sum of keyword, technology, size and hiring points,
// capped at Rules.Max. The reasons list explains the technology, size and
// hiring contributions in a fixed order, so the same lead always yields the
// same score and reasons.
package score

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hazyhaar/leadscout/leads/internal/store"
)

// Engine scores leads and persists the result.
type Engine struct {
	store  *store.Store
	rules  Rules
	roles  map[string]bool
	logger *slog.Logger
}

// New creates an Engine with a private copy of rules.
func New(st *store.Store, rules Rules, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := rules.Merge(DefaultRules()).clone()
	roles := make(map[string]bool, len(r.Roles))
	for _, role := range r.Roles {
		roles[role] = true
	}
	return &Engine{store: st, rules: r, roles: roles, logger: logger}
}

// Score computes the score and reasons of one lead. It never touches the store.
func (e *Engine) Score(l *store.Lead) (int, []string) {
	points := 0
	reasons := []string{}

	text := strings.ToLower(l.Title + "\n" + l.Snippet)
	for _, kw := range e.rules.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			points += e.rules.KeywordPoints
		}
	}

	for _, tw := range e.rules.Tech {
		if l.TechHints[tw.Tech] > 0 {
			points += tw.Points
			reasons = append(reasons, tw.Reason)
		}
	}

	size := l.CompanySizeHint
	if size == "" {
		size = store.SizeUnknown
	}
	if w, ok := e.rules.SizeWeights[size]; ok {
		points += w
	} else {
		points += e.rules.DefaultSize
	}
	reasons = append(reasons, "size="+size)

	var roles []string
	for _, r := range l.HiringRoles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		roles = append(roles, r)
		if e.roles[r] {
			points += e.rules.RolePoints
		}
	}
	if len(roles) > 0 {
		reasons = append(reasons, "hiring="+strings.Join(roles, ","))
	}

	if points > e.rules.Max {
		points = e.rules.Max
	}
	if points < 0 {
		points = 0
	}
	return points, reasons
}

// Result aggregates one scoring pass.
type Result struct {
	Scored int `json:"scored"`
	Max    int `json:"max"`
}

// Run rescores every signal and replaces its stored score.
func (e *Engine) Run(ctx context.Context) (*Result, error) {
	leads, err := e.store.FetchJoined(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("score: %w", err)
	}
	res := &Result{}
	for _, l := range leads {
		pts, reasons := e.Score(l)
		if err := e.store.UpsertScore(ctx, l.URL, pts, reasons); err != nil {
			return res, fmt.Errorf("score: %s: %w", l.URL, err)
		}
		res.Scored++
		if pts > res.Max {
			res.Max = pts
		}
	}
	e.logger.Info("score: done", "scored", res.Scored, "max", res.Max)
	return res, nil
}
