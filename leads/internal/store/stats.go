package store

import (
	"context"
	"fmt"
)

// Stats returns row counts per table, per signal source and per outreach status.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{BySource: map[string]int{}, OutreachByStatus: map[string]int{}}
	err := s.DB.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM signals),
			(SELECT COUNT(*) FROM enrichments),
			(SELECT COUNT(*) FROM scores),
			(SELECT COUNT(*) FROM outreach),
			(SELECT COUNT(*) FROM runs)`,
	).Scan(&st.Signals, &st.Enrichments, &st.Scores, &st.Outreach, &st.Runs)
	if err != nil {
		return nil, fmt.Errorf("store: stats: %w", err)
	}
	if err := s.groupCount(ctx, `SELECT source, COUNT(*) FROM signals GROUP BY source`, st.BySource); err != nil {
		return nil, err
	}
	if err := s.groupCount(ctx, `SELECT status, COUNT(*) FROM outreach GROUP BY status`, st.OutreachByStatus); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *Store) groupCount(ctx context.Context, query string, into map[string]int) error {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("store: stats: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return fmt.Errorf("store: stats scan: %w", err)
		}
		into[k] = n
	}
	return rows.Err()
}
