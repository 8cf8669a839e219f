// Package feed decodes RSS 2.0, RSS 1.0 (RDF) and Atom 1.0 documents into a
// flat list of entries. The format is picked from the root element.
package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned when the root element is none of rss, rdf:RDF or feed.
var ErrUnknownFormat = errors.New("feed: unknown format")

// Entry is one feed item. Summary holds the raw (possibly HTML) description,
// or the full content when the item has no description.
type Entry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Link      string `json:"link"`
	Summary   string `json:"summary"`
	Published string `json:"published"`
}

// Feed is a decoded document.
type Feed struct {
	Title   string  `json:"title"`
	Entries []Entry `json:"entries"`
}

// Parse decodes data.
func Parse(data []byte) (*Feed, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("feed: empty document")
	}
	switch rootName(data) {
	case "rss":
		return parseRSS(data)
	case "rdf":
		return parseRDF(data)
	case "feed":
		return parseAtom(data)
	}
	return nil, ErrUnknownFormat
}

func rootName(data []byte) string {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	for {
		tok, err := d.Token()
		if err != nil {
			return ""
		}
		if se, ok := tok.(xml.StartElement); ok {
			return strings.ToLower(se.Name.Local)
		}
	}
}

type rssItem struct {
	GUID        string `xml:"guid"`
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Encoded     string `xml:"encoded"`
	PubDate     string `xml:"pubDate"`
	Date        string `xml:"date"`
}

func (it rssItem) entry() Entry {
	e := Entry{
		ID:        strings.TrimSpace(it.GUID),
		Title:     strings.TrimSpace(it.Title),
		Link:      strings.TrimSpace(it.Link),
		Summary:   strings.TrimSpace(it.Description),
		Published: strings.TrimSpace(it.PubDate),
	}
	if e.Summary == "" {
		e.Summary = strings.TrimSpace(it.Encoded)
	}
	if e.Published == "" {
		e.Published = strings.TrimSpace(it.Date)
	}
	if e.ID == "" {
		e.ID = e.Link
	}
	return e
}

func parseRSS(data []byte) (*Feed, error) {
	var root struct {
		Channel struct {
			Title string    `xml:"title"`
			Items []rssItem `xml:"item"`
		} `xml:"channel"`
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse rss: %w", err)
	}
	f := &Feed{Title: strings.TrimSpace(root.Channel.Title)}
	for _, it := range root.Channel.Items {
		f.Entries = append(f.Entries, it.entry())
	}
	return f, nil
}

// RSS 1.0 keeps items beside the channel, not inside it.
func parseRDF(data []byte) (*Feed, error) {
	var root struct {
		Channel struct {
			Title string `xml:"title"`
		} `xml:"channel"`
		Items []rssItem `xml:"item"`
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse rdf: %w", err)
	}
	f := &Feed{Title: strings.TrimSpace(root.Channel.Title)}
	for _, it := range root.Items {
		f.Entries = append(f.Entries, it.entry())
	}
	return f, nil
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
}

func parseAtom(data []byte) (*Feed, error) {
	var root struct {
		Title   string `xml:"title"`
		Entries []struct {
			ID        string     `xml:"id"`
			Title     string     `xml:"title"`
			Links     []atomLink `xml:"link"`
			Summary   string     `xml:"summary"`
			Content   string     `xml:"content"`
			Published string     `xml:"published"`
			Updated   string     `xml:"updated"`
		} `xml:"entry"`
	}
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("feed: parse atom: %w", err)
	}

	f := &Feed{Title: strings.TrimSpace(root.Title)}
	for _, ae := range root.Entries {
		e := Entry{
			ID:        strings.TrimSpace(ae.ID),
			Title:     strings.TrimSpace(ae.Title),
			Link:      alternateLink(ae.Links),
			Summary:   strings.TrimSpace(ae.Summary),
			Published: strings.TrimSpace(ae.Published),
		}
		if e.Summary == "" {
			e.Summary = strings.TrimSpace(ae.Content)
		}
		if e.Published == "" {
			e.Published = strings.TrimSpace(ae.Updated)
		}
		if e.ID == "" {
			e.ID = e.Link
		}
		f.Entries = append(f.Entries, e)
	}
	return f, nil
}

// alternateLink prefers rel="alternate" (or no rel), then the first href.
func alternateLink(links []atomLink) string {
	for _, l := range links {
		if l.Rel == "alternate" || l.Rel == "" {
			return strings.TrimSpace(l.Href)
		}
	}
	if len(links) > 0 {
		return strings.TrimSpace(links[0].Href)
	}
	return ""
}
