package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/leadscout/urlguard"
)

func TestGet_Success(t *testing.T) {
	// WHAT: Body, status and headers round-trip; User-Agent and extra headers are sent.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "scout/2" {
			t.Errorf("user agent: got %q", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("accept: got %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	f := New(Config{UserAgent: "scout/2", Validator: urlguard.AllowAll})
	res, err := f.Get(context.Background(), srv.URL, http.Header{"Accept": {"application/json"}})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(res.Body) != "hello" || res.StatusCode != 200 || res.ContentType != "text/plain" {
		t.Errorf("result: %+v", res)
	}
}

func TestGet_Non2xx(t *testing.T) {
	// WHAT: 404 and 500 are errors wrapping ErrStatus.
	// WHY: Enrichment treats missing pages as "contributes nothing".
	for _, code := range []int{404, 500} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		f := New(Config{Validator: urlguard.AllowAll})
		_, err := f.Get(context.Background(), srv.URL, nil)
		srv.Close()
		if !errors.Is(err, ErrStatus) {
			t.Errorf("code %d: err = %v, want ErrStatus", code, err)
		}
	}
}

func TestGet_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 100)))
	}))
	defer srv.Close()

	f := New(Config{MaxBytes: 10, Validator: urlguard.AllowAll})
	_, err := f.Get(context.Background(), srv.URL, nil)
	if !errors.Is(err, urlguard.ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
}

func TestGet_ValidatorBlocks(t *testing.T) {
	// WHAT: The default validator refuses loopback targets before any request.
	var hit bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
	}))
	defer srv.Close()

	f := New(Config{})
	_, err := f.Get(context.Background(), srv.URL, nil)
	if !errors.Is(err, urlguard.ErrPrivateAddress) {
		t.Fatalf("err = %v, want ErrPrivateAddress", err)
	}
	if hit {
		t.Error("server was contacted despite the block")
	}
}

func TestGet_RedirectRevalidated(t *testing.T) {
	// WHAT: A redirect to a blocked target fails even if the first URL passed.
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secret"))
	}))
	defer target.Close()
	front := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/internal", http.StatusFound)
	}))
	defer front.Close()

	validator := func(u string) error {
		if strings.Contains(u, "/internal") {
			return urlguard.ErrPrivateAddress
		}
		return nil
	}
	f := New(Config{Validator: validator})
	if _, err := f.Get(context.Background(), front.URL, nil); err == nil {
		t.Fatal("expected redirect to be blocked")
	}
}

func TestGet_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	f := New(Config{Timeout: 50 * time.Millisecond, Validator: urlguard.AllowAll})
	if _, err := f.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestPostJSON(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("method=%s content-type=%s", r.Method, r.Header.Get("Content-Type"))
		}
		json.NewDecoder(r.Body).Decode(&got)
		if got["text"] == "fail" {
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	f := New(Config{Validator: urlguard.AllowAll})
	if err := f.PostJSON(context.Background(), srv.URL, map[string]string{"text": "hi"}); err != nil {
		t.Fatalf("post: %v", err)
	}
	if got["text"] != "hi" {
		t.Errorf("body: %v", got)
	}
	if err := f.PostJSON(context.Background(), srv.URL, map[string]string{"text": "fail"}); !errors.Is(err, ErrStatus) {
		t.Errorf("err = %v, want ErrStatus", err)
	}
}
