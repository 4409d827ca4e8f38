package fsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/store"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestPutGetRoundTrip(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.Put(ctx, store.StageText, "42", []byte("full text")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := s.Get(ctx, store.StageText, "42")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "full text" {
		t.Errorf("got %q", got)
	}

	// Layout: root/<stage>/<id>.<ext>
	if _, err := os.Stat(filepath.Join(s.Root(), "text", "42.txt")); err != nil {
		t.Errorf("expected file on disk: %v", err)
	}
}

func TestGetNotFound(t *testing.T) {
	s := openTest(t)
	_, err := s.Get(context.Background(), store.StageText, "missing")
	if !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPutOverwrites(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	s.Put(ctx, store.StageText, "1", []byte("old"))
	s.Put(ctx, store.StageText, "1", []byte("new"))

	got, err := s.Get(ctx, store.StageText, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "new" {
		t.Errorf("got %q, want overwrite", got)
	}
}

func TestExists(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	ok, err := s.Exists(ctx, store.StageDocument, "1")
	if err != nil || ok {
		t.Fatalf("Exists before put = %v,%v", ok, err)
	}
	s.Put(ctx, store.StageDocument, "1", []byte("x"))
	ok, err = s.Exists(ctx, store.StageDocument, "1")
	if err != nil || !ok {
		t.Fatalf("Exists after put = %v,%v", ok, err)
	}
}

func TestListSorted(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	for _, id := range []string{"3", "1", "2"} {
		s.Put(ctx, store.StageExtractive, id, []byte(id))
	}
	ids, err := s.List(ctx, store.StageExtractive)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2", "3"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestListEmptyStage(t *testing.T) {
	s := openTest(t)
	ids, err := s.List(context.Background(), store.StageEntities)
	if err != nil {
		t.Fatalf("List on missing dir: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("ids = %v", ids)
	}
}

func TestUnknownStage(t *testing.T) {
	s := openTest(t)
	if err := s.Put(context.Background(), store.Stage("bogus"), "1", nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAggregates(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	if err := s.PutAggregate(ctx, store.AggTopics, []byte(`{"topics":[]}`)); err != nil {
		t.Fatalf("PutAggregate: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "analysis", "topics.json")); err != nil {
		t.Errorf("aggregate not under analysis/: %v", err)
	}

	if err := s.PutAggregate(ctx, "export/papers", []byte(`{}`)); err != nil {
		t.Fatalf("PutAggregate nested: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Root(), "export", "papers.json")); err != nil {
		t.Errorf("nested aggregate path wrong: %v", err)
	}

	got, err := s.GetAggregate(ctx, store.AggTopics)
	if err != nil || string(got) != `{"topics":[]}` {
		t.Fatalf("GetAggregate = %q, %v", got, err)
	}

	if _, err := s.GetAggregate(ctx, "claims"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestOpenEmptyRoot(t *testing.T) {
	if _, err := Open(""); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
