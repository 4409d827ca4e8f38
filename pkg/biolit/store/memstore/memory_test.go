package memstore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/store"
)

func TestRoundTripAndIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	data := []byte("payload")
	if err := s.Put(ctx, store.StageText, "1", data); err != nil {
		t.Fatalf("Put: %v", err)
	}
	data[0] = 'X' // caller mutation must not leak into the store

	got, err := s.Get(ctx, store.StageText, "1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "payload" {
		t.Errorf("stored bytes mutated: %q", got)
	}

	got[0] = 'Y'
	again, _ := s.Get(ctx, store.StageText, "1")
	if string(again) != "payload" {
		t.Errorf("returned bytes alias the store: %q", again)
	}
}

func TestNotFound(t *testing.T) {
	s := New()
	if _, err := s.Get(context.Background(), store.StageText, "x"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetAggregate(context.Background(), "topics"); !errors.Is(err, internalerr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListPerStage(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.Put(ctx, store.StageText, "2", nil)
	s.Put(ctx, store.StageText, "1", nil)
	s.Put(ctx, store.StageDocument, "3", nil)

	ids, err := s.List(ctx, store.StageText)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2"}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestAggregates(t *testing.T) {
	s := New()
	ctx := context.Background()

	s.PutAggregate(ctx, store.AggClaims, []byte("a"))
	got, err := s.GetAggregate(ctx, store.AggClaims)
	if err != nil || string(got) != "a" {
		t.Fatalf("GetAggregate = %q, %v", got, err)
	}
}
