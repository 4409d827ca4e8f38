// Package memstore is an in-memory implementation of store.Store for
// tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/store"
)

type key struct {
	stage store.Stage
	id    string
}

// Store keeps artifacts and aggregates in maps.
type Store struct {
	mu         sync.RWMutex
	artifacts  map[key][]byte
	aggregates map[string][]byte
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		artifacts:  make(map[key][]byte),
		aggregates: make(map[string][]byte),
	}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Put stores a copy of the artifact bytes.
func (s *Store) Put(ctx context.Context, stage store.Stage, id string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.artifacts[key{stage, id}] = cp
	return nil
}

// Get returns the artifact or ErrNotFound.
func (s *Store) Get(ctx context.Context, stage store.Stage, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[key{stage, id}]
	if !ok {
		return nil, fmt.Errorf("artifact %s/%s: %w", stage, id, internalerr.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// Exists reports artifact presence.
func (s *Store) Exists(ctx context.Context, stage store.Stage, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.artifacts[key{stage, id}]
	return ok, nil
}

// List returns the sorted ids stored for a stage.
func (s *Store) List(ctx context.Context, stage store.Stage) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for k := range s.artifacts {
		if k.stage == stage {
			ids = append(ids, k.id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// PutAggregate stores a corpus-level artifact.
func (s *Store) PutAggregate(ctx context.Context, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.aggregates[name] = cp
	return nil
}

// GetAggregate returns a corpus-level artifact or ErrNotFound.
func (s *Store) GetAggregate(ctx context.Context, name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.aggregates[name]
	if !ok {
		return nil, fmt.Errorf("aggregate %s: %w", name, internalerr.ErrNotFound)
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}
