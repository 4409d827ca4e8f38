package dashboard

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/spacebio/biolit/pkg/biolit/store/memstore"
)

type fakeSearcher struct {
	hits []SearchHit
	err  error
}

func (f *fakeSearcher) SearchText(ctx context.Context, query string, k int) ([]SearchHit, error) {
	return f.hits, f.err
}

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(New(memstore.New(), nil))
	defer srv.Close()

	code, body := get(t, srv, "/healthz")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, `"ok"`) {
		t.Errorf("body = %q", body)
	}
}

func TestFamilyServed(t *testing.T) {
	st := memstore.New()
	st.PutAggregate(context.Background(), "export/papers", []byte(`{"total":2,"papers":[]}`))
	srv := httptest.NewServer(New(st, nil))
	defer srv.Close()

	code, body := get(t, srv, "/api/papers")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %q", code, body)
	}
	var doc map[string]any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc["total"] != float64(2) {
		t.Errorf("total = %v", doc["total"])
	}
}

func TestFamilyNotExported(t *testing.T) {
	srv := httptest.NewServer(New(memstore.New(), nil))
	defer srv.Close()

	code, body := get(t, srv, "/api/claims")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, "not exported") {
		t.Errorf("body = %q", body)
	}
}

func TestUnknownFamily(t *testing.T) {
	srv := httptest.NewServer(New(memstore.New(), nil))
	defer srv.Close()

	if code, _ := get(t, srv, "/api/nonsense"); code != http.StatusNotFound {
		t.Errorf("status = %d", code)
	}
}

func TestIndexListsEndpoints(t *testing.T) {
	srv := httptest.NewServer(New(memstore.New(), nil))
	defer srv.Close()

	code, body := get(t, srv, "/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, "/api/insights") {
		t.Errorf("index missing endpoints: %q", body)
	}
}

func TestSearchUnconfigured(t *testing.T) {
	srv := httptest.NewServer(New(memstore.New(), nil))
	defer srv.Close()

	if code, _ := get(t, srv, "/api/search?q=bone"); code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", code)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	srv := httptest.NewServer(New(memstore.New(), &fakeSearcher{}))
	defer srv.Close()

	if code, _ := get(t, srv, "/api/search"); code != http.StatusBadRequest {
		t.Errorf("status = %d", code)
	}
}

func TestSearch(t *testing.T) {
	searcher := &fakeSearcher{hits: []SearchHit{{ID: "17", Score: 0.91}, {ID: "3", Score: 0.54}}}
	srv := httptest.NewServer(New(memstore.New(), searcher))
	defer srv.Close()

	code, body := get(t, srv, "/api/search?q=bone+loss")
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %q", code, body)
	}
	var out struct {
		Query string      `json:"query"`
		Hits  []SearchHit `json:"hits"`
	}
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Query != "bone loss" {
		t.Errorf("query = %q", out.Query)
	}
	if len(out.Hits) != 2 || out.Hits[0].ID != "17" {
		t.Errorf("hits = %+v", out.Hits)
	}
}
