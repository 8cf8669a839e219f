package outreach

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/hazyhaar/leadscout/dbopen"
	"github.com/hazyhaar/leadscout/leads/internal/fetch"
	"github.com/hazyhaar/leadscout/leads/internal/store"
	"github.com/hazyhaar/leadscout/urlguard"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testFetcher() *fetch.Fetcher {
	return fetch.New(fetch.Config{Validator: urlguard.AllowAll, Timeout: 5 * time.Second})
}

// seed stores three leads: top (score 40), mid (score 15), low (score 5).
func seed(t *testing.T) *store.Store {
	t.Helper()
	st := store.NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(store.Schema)))
	ctx := context.Background()
	rows := []struct {
		url, title, company, domain string
		score                       int
	}{
		{"https://github.com/a/1", "Okta outage broke SSO", "Acme", "acme.io", 40},
		{"https://news.example/2", "", "", "news.example", 15},
		{"https://blog.example/3", "Passkeys", "", "", 5},
	}
	for _, r := range rows {
		if _, err := st.UpsertSignal(ctx, store.SourceHN, r.url, r.title, "", r.company, r.domain); err != nil {
			t.Fatal(err)
		}
		if err := st.UpsertScore(ctx, r.url, r.score, []string{"size=unknown"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := st.UpsertEnrichment(ctx, &store.Enrichment{SignalURL: rows[0].url, Domain: "acme.io",
		TechHints: map[string]int{"Okta": 1, "SAML": 2, "Auth0": 0}, CompanySizeHint: ">1000",
		HiringRoles: []string{"identity", "mobile"}}); err != nil {
		t.Fatal(err)
	}
	return st
}

func TestCompose_Fallbacks(t *testing.T) {
	// WHAT: Company falls back to domain then "your team"; pain and tech have defaults.
	d := NewDrafter(nil, DraftConfig{Sender: "Ana"}, quiet())

	msg := d.Compose(&store.Lead{Signal: store.Signal{DetectedDomain: "news.example"}})
	for _, want := range []string{
		"Subject: Quick idea to de-risk news.example's auth",
		`challenges around "auth/SSO friction"`,
		"If you're currently using modern auth, you might like Descope's",
		"- Ana\n",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}

	msg = d.Compose(&store.Lead{
		Signal:    store.Signal{Title: "SAML broken", DetectedCompany: "Acme", DetectedDomain: "acme.io"},
		TechHints: map[string]int{"SAML": 1, "Okta": 2},
	})
	if !strings.Contains(msg, "de-risk Acme's auth") || !strings.Contains(msg, "using Okta, SAML,") {
		t.Errorf("message:\n%s", msg)
	}

	if got := d.Compose(&store.Lead{}); !strings.Contains(got, "de-risk your team's auth") {
		t.Errorf("anonymous lead:\n%s", got)
	}
}

func TestDrafter_Run(t *testing.T) {
	st := seed(t)
	n, err := NewDrafter(st, DraftConfig{}, quiet()).Run(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("drafts = %d, want 2", n)
	}
	got, _ := st.ListOutreach(context.Background(), "https://github.com/a/1")
	if len(got) != 1 || got[0].Channel != ChannelEmail || got[0].Status != store.StatusDraft {
		t.Errorf("outreach: %+v", got)
	}
}

func TestNotifier_Webhook(t *testing.T) {
	// WHAT: Top-N leads above the threshold are posted; a failing post is recorded, not fatal.
	var mu sync.Mutex
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		texts = append(texts, body["text"])
		mu.Unlock()
		if strings.Contains(body["text"], "news.example") {
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	st := seed(t)
	n := NewNotifier(st, testFetcher(), srv.URL, quiet())
	delivered, err := n.Run(context.Background(), 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	if delivered != 1 || len(texts) != 2 {
		t.Fatalf("delivered=%d posts=%d", delivered, len(texts))
	}
	want := "*New High-Fit Lead*\nScore: 40 | Domain: acme.io\nTitle: Okta outage broke SSO\nURL: https://github.com/a/1\n"
	if texts[0] != want {
		t.Errorf("text:\n%q\nwant\n%q", texts[0], want)
	}

	stats, _ := st.Stats(context.Background())
	if diff := cmp.Diff(map[string]int{store.StatusSent: 1, store.StatusFailed: 1}, stats.OutreachByStatus); diff != "" {
		t.Errorf("outreach statuses (-want +got):\n%s", diff)
	}
}

func TestNotifier_MockWithoutWebhook(t *testing.T) {
	st := seed(t)
	delivered, err := NewNotifier(st, nil, "", quiet()).Run(context.Background(), 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}
	stats, _ := st.Stats(context.Background())
	if stats.Outreach != 0 {
		t.Errorf("mock delivery wrote %d outreach rows", stats.Outreach)
	}
}

func TestIntent(t *testing.T) {
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)
	in := NewInsights(nil)
	in.now = func() time.Time { return now }

	cases := []struct {
		name   string
		age    time.Duration
		roles  []string
		bonus  int
		reason string
	}{
		{"fresh and hiring", 2 * 24 * time.Hour, []string{"identity"}, 18, "recent+relevant hiring"},
		{"14 days old", 14*24*time.Hour + time.Hour, nil, 10, "recent"},
		{"stale", 20 * 24 * time.Hour, []string{"security"}, 8, "relevant hiring"},
		{"nothing", 40 * 24 * time.Hour, []string{"backend"}, 0, ""},
	}
	for _, c := range cases {
		l := &store.Lead{Signal: store.Signal{CreatedAt: now.Add(-c.age).UnixMilli()}, HiringRoles: c.roles}
		bonus, reason := in.Intent(l)
		if bonus != c.bonus || reason != c.reason {
			t.Errorf("%s: got (%d, %q), want (%d, %q)", c.name, bonus, reason, c.bonus, c.reason)
		}
	}
}

func TestSwitcherRisk(t *testing.T) {
	for text, want := range map[string]bool{
		"Planning to MIGRATE off Auth0":   true,
		"Login doesn't work after update": true,
		"Vendor lock-in concerns":         true,
		"We love our identity provider":   false,
	} {
		if got := SwitcherRisk(text); got != want {
			t.Errorf("SwitcherRisk(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestPersonas(t *testing.T) {
	got := Personas(">1000", []string{"mobile"})
	want := []string{"CTO", "Compliance Lead", "Head of Engineering", "IAM Architect", "Mobile Lead", "Platform Lead", "Security Lead"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("personas (-want +got):\n%s", diff)
	}
	if got := Personas("11-50", nil); len(got) != 4 {
		t.Errorf("small org personas: %v", got)
	}
}

func TestRecentHook(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/news":
			w.Write([]byte("<p>no heading here</p>"))
		case "/changelog":
			w.Write([]byte("<main><h2>Passkeys are GA</h2></main>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	in := NewInsights(testFetcher())
	in.scheme = "http"
	got := in.RecentHook(context.Background(), strings.TrimPrefix(srv.URL, "http://"))
	if got != "Saw your recent post: 'Passkeys are GA'. Congrats on the launch." {
		t.Errorf("hook = %q", got)
	}
	if NewInsights(nil).RecentHook(context.Background(), "acme.io") != "" {
		t.Error("nil fetcher must disable hooks")
	}
}

func TestExport(t *testing.T) {
	st := seed(t)
	in := NewInsights(nil)
	records, err := NewExporter(st, in, nil).Records(context.Background(), 10, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	top := records[0]
	if *top.BaseScore != 40 || !top.SwitcherRisk || top.IntentBonus != 18 {
		t.Errorf("top record: %+v", top)
	}
	if diff := cmp.Diff([]string{"Okta", "SAML"}, top.Tech); diff != "" {
		t.Errorf("tech (-want +got):\n%s", diff)
	}
	if len(top.Personas) != 7 {
		t.Errorf("personas: %v", top.Personas)
	}

	path := filepath.Join(t.TempDir(), "out", "crm.json")
	if err := WriteFile(path, records); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(raw), "[\n  {\n    \"url\": \"https://github.com/a/1\"") {
		t.Errorf("export not indented:\n%s", raw)
	}
	var back []Record
	if err := json.Unmarshal(raw, &back); err != nil || len(back) != 2 {
		t.Errorf("reparse: %v, %d", err, len(back))
	}
}

func TestOnePagerName(t *testing.T) {
	cases := map[string]string{
		"Acme":                    "onepager_acme.txt",
		"news.example:8080":       "onepager_news_example_8080.txt",
		strings.Repeat("Ab.", 20): "onepager_" + strings.Repeat("ab_", 10) + "ab.txt",
	}
	for in, want := range cases {
		if got := OnePagerName(in); got != want {
			t.Errorf("OnePagerName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExport_WritesOnePagers(t *testing.T) {
	// WHAT: Each exported lead gets a plain-text proposal next to the export,
	// and its path is carried on the record.
	// WHY: Sales picks up the one-pager from the CRM row.
	st := seed(t)
	dir := filepath.Join(t.TempDir(), "assets")
	records, err := NewExporter(st, NewInsights(nil), NewOnePager(dir, "")).Records(context.Background(), 10, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d", len(records))
	}

	if want := filepath.Join(dir, "onepager_acme.txt"); records[0].OnePagerPath != want {
		t.Fatalf("path = %q, want %q", records[0].OnePagerPath, want)
	}
	raw, err := os.ReadFile(records[0].OnePagerPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "Descope: Personalized Proposal\n" +
		"Company: Acme\n" +
		"Observed Pain: Okta outage broke SSO\n" +
		"Stack Hints: Okta, SAML\n\n" +
		"Why Descope:\n"
	if !strings.HasPrefix(string(raw), want) {
		t.Errorf("one-pager:\n%s", raw)
	}
	if !strings.HasSuffix(string(raw), "Next Step: 15-min call to confirm fit and show a tailored flow.\n") {
		t.Errorf("one-pager missing next step:\n%s", raw)
	}

	raw, err = os.ReadFile(records[1].OnePagerPath)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"Company: news.example\n", "Observed Pain: auth friction\n", "Stack Hints: N/A\n"} {
		if !strings.Contains(string(raw), line) {
			t.Errorf("fallback one-pager missing %q:\n%s", line, raw)
		}
	}
}
