package store

import (
	"context"
	"database/sql"
	"fmt"
)

const joinedSelect = `
	SELECT s.id, s.source, s.url, s.title, s.snippet, s.detected_company, s.detected_domain, s.created_at,
		e.tech_hints, e.company_size_hint, e.hiring_roles,
		sc.score, sc.reasons
	FROM signals s
	LEFT JOIN enrichments e ON e.signal_url = s.url
	LEFT JOIN scores sc ON sc.signal_url = s.url`

// FetchJoined returns every signal joined with its enrichment and score,
// keeping never-scored rows and rows scoring at least minScore. Rows are
// ordered by score descending (unscored counts as 0), newest first on ties.
func (s *Store) FetchJoined(ctx context.Context, minScore int) ([]*Lead, error) {
	rows, err := s.DB.QueryContext(ctx, joinedSelect+`
		WHERE sc.score IS NULL OR sc.score >= ?
		ORDER BY COALESCE(sc.score, 0) DESC, s.id DESC`, minScore)
	if err != nil {
		return nil, fmt.Errorf("store: fetch joined: %w", err)
	}
	defer rows.Close()

	var out []*Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// FetchLead returns the joined view of one signal, or nil when absent.
func (s *Store) FetchLead(ctx context.Context, url string) (*Lead, error) {
	rows, err := s.DB.QueryContext(ctx, joinedSelect+` WHERE s.url = ?`, url)
	if err != nil {
		return nil, fmt.Errorf("store: fetch lead: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanLead(rows)
}

func scanLead(rows *sql.Rows) (*Lead, error) {
	l := &Lead{}
	var (
		hints, size, roles sql.NullString
		score              sql.NullInt64
		reasons            sql.NullString
	)
	if err := rows.Scan(&l.ID, &l.Source, &l.URL, &l.Title, &l.Snippet,
		&l.DetectedCompany, &l.DetectedDomain, &l.CreatedAt,
		&hints, &size, &roles, &score, &reasons); err != nil {
		return nil, fmt.Errorf("store: scan lead: %w", err)
	}

	var err error
	if hints.Valid {
		l.Enriched = true
		l.CompanySizeHint = size.String
		if l.TechHints, err = decodeHints(hints.String); err != nil {
			return nil, err
		}
		if l.HiringRoles, err = decodeStrings("hiring_roles", roles.String); err != nil {
			return nil, err
		}
	}
	if score.Valid {
		v := int(score.Int64)
		l.Score = &v
		if l.Reasons, err = decodeStrings("reasons", reasons.String); err != nil {
			return nil, err
		}
	}
	return l, nil
}
