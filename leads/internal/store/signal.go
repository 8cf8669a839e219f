package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/leadscout/dbopen"
)

// UpsertSignal records a signal. The first observation of a url inserts the
// row; later observations only backfill company and domain when the stored
// value is empty. created reports whether a new row was inserted.
func (s *Store) UpsertSignal(ctx context.Context, source, url, title, snippet, company, domain string) (created bool, err error) {
	if !ValidSource(source) {
		return false, integrityf("unknown signal source %q", source)
	}
	if url == "" {
		return false, integrityf("signal url is empty")
	}

	err = dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO signals (source, url, title, snippet, detected_company, detected_domain, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			source, url, title, snippet, company, domain, time.Now().UnixMilli(),
		)
		if err != nil {
			return classify("store: insert signal", err)
		}
		n, _ := res.RowsAffected()
		created = n > 0
		if created {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE signals SET
				detected_company = CASE WHEN detected_company = '' THEN ? ELSE detected_company END,
				detected_domain  = CASE WHEN detected_domain = '' THEN ? ELSE detected_domain END
			WHERE url = ?`,
			company, domain, url,
		)
		return classify("store: backfill signal", err)
	})
	return created, err
}

// FetchSignals returns up to limit signals, most recently inserted first.
func (s *Store) FetchSignals(ctx context.Context, limit int) ([]*Signal, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, source, url, title, snippet, detected_company, detected_domain, created_at
		FROM signals ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: fetch signals: %w", err)
	}
	defer rows.Close()

	var out []*Signal
	for rows.Next() {
		sig := &Signal{}
		if err := rows.Scan(&sig.ID, &sig.Source, &sig.URL, &sig.Title, &sig.Snippet,
			&sig.DetectedCompany, &sig.DetectedDomain, &sig.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan signal: %w", err)
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

// FetchSignalByURL returns one signal, or nil when the url was never seen.
func (s *Store) FetchSignalByURL(ctx context.Context, url string) (*Signal, error) {
	sig := &Signal{}
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, source, url, title, snippet, detected_company, detected_domain, created_at
		FROM signals WHERE url = ?`, url,
	).Scan(&sig.ID, &sig.Source, &sig.URL, &sig.Title, &sig.Snippet,
		&sig.DetectedCompany, &sig.DetectedDomain, &sig.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: fetch signal: %w", err)
	}
	return sig, nil
}
