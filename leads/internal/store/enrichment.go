package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// UpsertEnrichment inserts or fully replaces the enrichment of e.SignalURL.
// Tech hint counts from a previous run are not merged. Hiring roles are
// stored in the order given.
func (s *Store) UpsertEnrichment(ctx context.Context, e *Enrichment) error {
	if e == nil || e.SignalURL == "" {
		return integrityf("enrichment without signal url")
	}
	size := e.CompanySizeHint
	if size == "" {
		size = SizeUnknown
	}
	hints := e.TechHints
	if hints == nil {
		hints = map[string]int{}
	}
	roles := e.HiringRoles
	if roles == nil {
		roles = []string{}
	}

	hintsJSON, err := json.Marshal(hints)
	if err != nil {
		return integrityf("encode tech hints: %v", err)
	}
	rolesJSON, err := json.Marshal(roles)
	if err != nil {
		return integrityf("encode hiring roles: %v", err)
	}

	now := time.Now().UnixMilli()
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO enrichments (signal_url, domain, tech_hints, company_size_hint, hiring_roles, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(signal_url) DO UPDATE SET
			domain = excluded.domain,
			tech_hints = excluded.tech_hints,
			company_size_hint = excluded.company_size_hint,
			hiring_roles = excluded.hiring_roles,
			updated_at = excluded.updated_at`,
		e.SignalURL, e.Domain, string(hintsJSON), size, string(rolesJSON), now,
	)
	if err != nil {
		return classify("store: upsert enrichment", err)
	}
	e.UpdatedAt = now
	return nil
}

// GetEnrichment returns the enrichment of a signal, or nil when none exists.
func (s *Store) GetEnrichment(ctx context.Context, signalURL string) (*Enrichment, error) {
	e := &Enrichment{}
	var hints, roles string
	err := s.DB.QueryRowContext(ctx, `
		SELECT signal_url, domain, tech_hints, company_size_hint, hiring_roles, updated_at
		FROM enrichments WHERE signal_url = ?`, signalURL,
	).Scan(&e.SignalURL, &e.Domain, &hints, &e.CompanySizeHint, &roles, &e.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get enrichment: %w", err)
	}
	if e.TechHints, err = decodeHints(hints); err != nil {
		return nil, err
	}
	if e.HiringRoles, err = decodeStrings("hiring_roles", roles); err != nil {
		return nil, err
	}
	return e, nil
}

func decodeHints(raw string) (map[string]int, error) {
	out := map[string]int{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, integrityf("malformed tech_hints %q: %v", raw, err)
	}
	return out, nil
}

func decodeStrings(column, raw string) ([]string, error) {
	out := []string{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, integrityf("malformed %s %q: %v", column, raw, err)
	}
	return out, nil
}
