package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MaxScore is the upper bound of a persisted score.
const MaxScore = 100

// UpsertScore inserts or fully replaces the score of a signal. The caller
// clamps; a value outside [0, MaxScore] is an integrity error.
func (s *Store) UpsertScore(ctx context.Context, signalURL string, score int, reasons []string) error {
	if score < 0 || score > MaxScore {
		return integrityf("score %d out of range [0,%d]", score, MaxScore)
	}
	if reasons == nil {
		reasons = []string{}
	}
	raw, err := json.Marshal(reasons)
	if err != nil {
		return integrityf("encode reasons: %v", err)
	}
	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO scores (signal_url, score, reasons, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(signal_url) DO UPDATE SET
			score = excluded.score,
			reasons = excluded.reasons,
			updated_at = excluded.updated_at`,
		signalURL, score, string(raw), time.Now().UnixMilli(),
	)
	return classify("store: upsert score", err)
}

// GetScore returns the score of a signal, or nil when it was never scored.
func (s *Store) GetScore(ctx context.Context, signalURL string) (*Score, error) {
	sc := &Score{}
	var reasons string
	err := s.DB.QueryRowContext(ctx, `
		SELECT signal_url, score, reasons, updated_at FROM scores WHERE signal_url = ?`,
		signalURL,
	).Scan(&sc.SignalURL, &sc.Score, &reasons, &sc.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: get score: %w", err)
	}
	if sc.Reasons, err = decodeStrings("reasons", reasons); err != nil {
		return nil, err
	}
	return sc, nil
}
