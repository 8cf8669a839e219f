package store

import (
	"context"
	"fmt"
	"time"
)

// InsertOutreach appends an outreach message. Several messages may exist
// for the same signal.
func (s *Store) InsertOutreach(ctx context.Context, o *Outreach) error {
	if o.Status == "" {
		o.Status = StatusDraft
	}
	if !ValidStatus(o.Status) {
		return integrityf("unknown outreach status %q", o.Status)
	}
	if o.Channel == "" {
		return integrityf("outreach without channel")
	}
	o.CreatedAt = time.Now().UnixMilli()
	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO outreach (signal_url, channel, message, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		o.SignalURL, o.Channel, o.Message, o.Status, o.CreatedAt,
	)
	if err != nil {
		return classify("store: insert outreach", err)
	}
	o.ID, _ = res.LastInsertId()
	return nil
}

// ListOutreach returns the outreach messages of a signal, newest first.
func (s *Store) ListOutreach(ctx context.Context, signalURL string) ([]*Outreach, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, signal_url, channel, message, status, created_at
		FROM outreach WHERE signal_url = ? ORDER BY id DESC`, signalURL)
	if err != nil {
		return nil, fmt.Errorf("store: list outreach: %w", err)
	}
	defer rows.Close()

	var out []*Outreach
	for rows.Next() {
		o := &Outreach{}
		if err := rows.Scan(&o.ID, &o.SignalURL, &o.Channel, &o.Message, &o.Status, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan outreach: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
