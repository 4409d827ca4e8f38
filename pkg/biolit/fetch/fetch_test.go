package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/catalog"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantBad     bool
	}{
		{"html article", "<html><body>Results: bone density decreased.</body></html>", "text/html", false},
		{"pdf document", "%PDF-1.7 binary stuff", "application/pdf", false},
		{"empty body", "   ", "text/html", true},
		{"claims pdf without header", "<html>not a pdf</html>", "application/pdf", true},
		{"cloudflare challenge", "<html><title>Just a moment...</title></html>", "text/html", true},
		{"captcha wall", "<html>please solve the CAPTCHA below</html>", "text/html", true},
		{"access denied", "<html>Access Denied</html>", "text/html", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.body), tt.contentType)
			if tt.wantBad {
				if !errors.Is(err, internalerr.ErrBadPayload) {
					t.Fatalf("expected ErrBadPayload, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "biolit-test" {
			t.Errorf("User-Agent = %q", ua)
		}
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>Microgravity reduces bone density in mice.</body></html>"))
	}))
	defer srv.Close()

	f := New(0, 0, "biolit-test")
	doc, err := f.Fetch(context.Background(), catalog.Entry{ID: 7, Link: srv.URL})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if doc.ID != 7 {
		t.Errorf("doc.ID = %d", doc.ID)
	}
	if !strings.Contains(string(doc.Body), "bone density") {
		t.Errorf("unexpected body: %s", doc.Body)
	}
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(0, 0, "")
	if _, err := f.Fetch(context.Background(), catalog.Entry{ID: 1, Link: srv.URL}); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestFetchRejectsChallengePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Checking your browser before accessing</body></html>"))
	}))
	defer srv.Close()

	f := New(0, 0, "")
	_, err := f.Fetch(context.Background(), catalog.Entry{ID: 1, Link: srv.URL})
	if !errors.Is(err, internalerr.ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestThrottleCancelled(t *testing.T) {
	f := New(time.Hour, 0, "")
	f.lastRequest = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.throttle(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
