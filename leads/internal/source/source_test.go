package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
	"github.com/hazyhaar/leadscout/leads/internal/vocab"
	"github.com/hazyhaar/leadscout/urlguard"
)

func testFetcher() *fetch.Fetcher {
	return fetch.New(fetch.Config{Validator: urlguard.AllowAll})
}

func TestGitHub_Search(t *testing.T) {
	// WHAT: Query is escaped into the search URL, items map to hits, bodies are cut.
	var gotQuery, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/issues" {
			t.Errorf("path: got %q", r.URL.Path)
		}
		gotQuery = r.URL.Query().Get("q")
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Query().Get("per_page") != "2" || r.URL.Query().Get("sort") != "updated" {
			t.Errorf("query params: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"items":[
			{"html_url":"https://github.com/a/b/issues/1","title":"Auth0 migration","body":"` + strings.Repeat("x", 50) + `"},
			{"html_url":"https://github.com/a/b/issues/2","title":"Okta","body":null}
		]}`))
	}))
	defer srv.Close()

	g := NewGitHub(testFetcher(), GitHubConfig{BaseURL: srv.URL + "/", Token: "tok", SnippetMax: 10})
	out := g.Search(context.Background(), "auth0 migration", 2)
	if out.Failed() {
		t.Fatalf("search: %v", out.Err)
	}
	if gotQuery != "auth0 migration" || gotAuth != "Bearer tok" {
		t.Errorf("q=%q auth=%q", gotQuery, gotAuth)
	}
	want := []Hit{
		{URL: "https://github.com/a/b/issues/1", Title: "Auth0 migration", Snippet: strings.Repeat("x", 10)},
		{URL: "https://github.com/a/b/issues/2", Title: "Okta"},
	}
	if diff := cmp.Diff(want, out.Hits); diff != "" {
		t.Errorf("hits (-want +got):\n%s", diff)
	}
	if g.Kind() != store.SourceGitHub {
		t.Errorf("kind: %q", g.Kind())
	}
}

func TestGitHub_FailureIsContained(t *testing.T) {
	// WHAT: Rate limiting yields a failed outcome with no hits, never a panic or partial data.
	// WHY: One failing query must not abort the collection run.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	out := NewGitHub(testFetcher(), GitHubConfig{BaseURL: srv.URL}).Search(context.Background(), "x", 5)
	if !out.Failed() || len(out.Hits) != 0 {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestOutcome_NaturallyEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer srv.Close()

	out := NewGitHub(testFetcher(), GitHubConfig{BaseURL: srv.URL}).Search(context.Background(), "x", 5)
	if out.Failed() || len(out.Hits) != 0 {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestAggregator_Search(t *testing.T) {
	// WHAT: Hits without a link fall back to the discussion page; limit is honoured.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "okta outage" || r.URL.Query().Get("tags") != "story" {
			t.Errorf("query: %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"hits":[
			{"objectID":"1","title":"Okta outage today","url":"https://status.example/okta"},
			{"objectID":"2","title":"Ask HN: SSO pains","url":null},
			{"objectID":"3","title":"third","url":"https://x.example"}
		]}`))
	}))
	defer srv.Close()

	a := NewAggregator(testFetcher(), AggregatorConfig{SearchURL: srv.URL, ItemURL: "https://hn.example/item?id="})
	out := a.Search(context.Background(), "okta outage", 2)
	if out.Failed() {
		t.Fatalf("search: %v", out.Err)
	}
	want := []Hit{
		{URL: "https://status.example/okta", Title: "Okta outage today", Snippet: "Okta outage today"},
		{URL: "https://hn.example/item?id=2", Title: "Ask HN: SSO pains", Snippet: "Ask HN: SSO pains"},
	}
	if diff := cmp.Diff(want, out.Hits); diff != "" {
		t.Errorf("hits (-want +got):\n%s", diff)
	}
}

func TestAggregator_MalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	out := NewAggregator(testFetcher(), AggregatorConfig{SearchURL: srv.URL}).Search(context.Background(), "x", 5)
	if !out.Failed() {
		t.Fatal("expected failed outcome")
	}
}

const testFeed = `<?xml version="1.0"?><rss version="2.0"><channel><title>Sec</title>
<item><title>Quarterly results</title><link>https://news.example/q</link><description>revenue up</description></item>
<item><title>New phishing kit</title><link>https://news.example/p</link><description>&lt;p&gt;Bypasses &lt;b&gt;MFA&lt;/b&gt; &amp;amp; more&lt;/p&gt;</description></item>
<item><title>SAML bypass</title><link>https://news.example/s</link><description>details</description></item>
</channel></rss>`

func TestFeed_KeywordFilter(t *testing.T) {
	// WHAT: Only entries whose title or summary mention an auth keyword survive; HTML is stripped.
	// WHY: General security feeds are mostly off-topic.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	f := NewFeed(testFetcher(), FeedConfig{Keywords: vocab.AuthKeywords(), SnippetMax: 300})
	out := f.Search(context.Background(), srv.URL, 5)
	if out.Failed() {
		t.Fatalf("search: %v", out.Err)
	}
	want := []Hit{
		{URL: "https://news.example/p", Title: "New phishing kit", Snippet: "Bypasses MFA & more"},
		{URL: "https://news.example/s", Title: "SAML bypass", Snippet: "details"},
	}
	if diff := cmp.Diff(want, out.Hits); diff != "" {
		t.Errorf("hits (-want +got):\n%s", diff)
	}
}

func TestFeed_LimitAppliesBeforeFilter(t *testing.T) {
	// WHAT: limit caps the entries read, not the entries kept.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(testFeed))
	}))
	defer srv.Close()

	f := NewFeed(testFetcher(), FeedConfig{Keywords: vocab.AuthKeywords()})
	out := f.Search(context.Background(), srv.URL, 1)
	if out.Failed() || len(out.Hits) != 0 {
		t.Fatalf("outcome: %+v", out)
	}
}

func TestFeed_NotAFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>moved</body></html>`))
	}))
	defer srv.Close()

	if out := NewFeed(testFetcher(), FeedConfig{}).Search(context.Background(), srv.URL, 5); !out.Failed() {
		t.Fatal("expected failed outcome")
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("Rolling out Passkeys", []string{"passkey"}) {
		t.Error("case-insensitive match missed")
	}
	if ContainsAny("nothing here", []string{"sso", ""}) {
		t.Error("empty keyword must not match")
	}
}
