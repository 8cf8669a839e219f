// Package source defines the signal sources and their adapters.
//
// A Source turns one query (a search phrase, or a feed URL for feeds) into
// a finite list of hits. Sources never fail past their boundary: a network
// or decode failure is reported in Outcome.Err with no hits, so callers can
// tell "naturally empty" from "failed, substituted empty".
package source

import (
	"context"
	"strings"

	"github.com/hazyhaar/leadscout/extract"
)

// Hit is one normalised search result.
type Hit struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Outcome is the result of one Search call.
type Outcome struct {
	Hits []Hit
	Err  error
}

// Failed reports whether the hits were substituted after a failure.
func (o Outcome) Failed() bool { return o.Err != nil }

func failed(err error) Outcome { return Outcome{Err: err} }

// Source is a signal provider.
type Source interface {
	// Name identifies the adapter in logs.
	Name() string
	// Kind is the signal source stored with each hit (store.Source*).
	Kind() string
	// Search runs query and returns at most limit hits.
	Search(ctx context.Context, query string, limit int) Outcome
}

// snippet cleans s and cuts it to max runes; max <= 0 means no cut.
func snippet(s string, max int) string {
	s = extract.CleanText(s)
	if max > 0 {
		s = extract.Truncate(s, max)
	}
	return s
}

// ContainsAny reports whether the lowercase form of text contains one of
// the (lowercase) keywords.
func ContainsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, k := range keywords {
		if k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}
