package extract

import "testing"

func TestVisibleText_SkipsScriptAndStyle(t *testing.T) {
	// WHAT: Script/style bodies never reach the visible text.
	// WHY: Role keyword counts must not pick up "engineer" inside JS bundles.
	page := []byte(`<html><head><title>Team</title><style>.engineer{}</style></head>
<body><h1>Our   team</h1><script>var engineer = 1;</script>
<p>Jane, Staff Engineer</p><noscript>enable js engineer</noscript></body></html>`)

	got := VisibleText(page)
	want := "Team Our team Jane, Staff Engineer"
	if got != want {
		t.Errorf("VisibleText = %q, want %q", got, want)
	}
}

func TestVisibleText_PlainText(t *testing.T) {
	got := VisibleText([]byte("just\n\ttext"))
	if got != "just text" {
		t.Errorf("got %q", got)
	}
}

func TestFirstHeading(t *testing.T) {
	page := []byte(`<body><nav>menu</nav><article><h2> Shipping <em>passkeys</em> </h2><h1>Later</h1></article></body>`)
	if got := FirstHeading(page); got != "Shipping passkeys" {
		t.Errorf("FirstHeading = %q", got)
	}
	if got := FirstHeading([]byte(`<p>no headings</p>`)); got != "" {
		t.Errorf("FirstHeading without headings = %q", got)
	}
}

func TestCleanText(t *testing.T) {
	got := CleanText("  a\u200b b \n\n c  ")
	if got != "a b c" {
		t.Errorf("CleanText = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"abc", 0, ""},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.max); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}
