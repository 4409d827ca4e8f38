// Package fsstore implements the artifact store on the local
// filesystem with one file per (stage, id), matching the on-disk
// layout the exporter and dashboard consume.
package fsstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
	"github.com/spacebio/biolit/pkg/biolit/store"
)

// stageExt maps each stage to its file extension.
var stageExt = map[store.Stage]string{
	store.StageDocument:    "dat",
	store.StageText:        "txt",
	store.StageSections:    "json",
	store.StageExtractive:  "txt",
	store.StageAbstractive: "json",
	store.StageEntities:    "json",
}

// Store keeps artifacts under root/<stage>/<id>.<ext> and aggregates
// under root/analysis/<name>.json.
type Store struct {
	root string
}

// Open creates the root directory if needed and returns a store.
func Open(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("%w: empty store root", internalerr.ErrInvalidInput)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create store root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the store's base directory.
func (s *Store) Root() string { return s.root }

// Close is a no-op for the filesystem backend.
func (s *Store) Close() error { return nil }

func (s *Store) path(stage store.Stage, id string) (string, error) {
	ext, ok := stageExt[stage]
	if !ok {
		return "", fmt.Errorf("%w: unknown stage %q", internalerr.ErrInvalidInput, stage)
	}
	return filepath.Join(s.root, string(stage), id+"."+ext), nil
}

// Put writes the artifact, creating the stage directory on first use.
func (s *Store) Put(ctx context.Context, stage store.Stage, id string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := s.path(stage, id)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create stage dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s/%s: %w", stage, id, err)
	}
	return nil
}

// Get reads the artifact or returns ErrNotFound.
func (s *Store) Get(ctx context.Context, stage store.Stage, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := s.path(stage, id)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("artifact %s/%s: %w", stage, id, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact %s/%s: %w", stage, id, err)
	}
	return data, nil
}

// Exists reports whether the artifact file is present.
func (s *Store) Exists(ctx context.Context, stage store.Stage, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	p, err := s.path(stage, id)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return true, nil
}

// List enumerates the ids present for a stage, sorted. Enumeration is
// whatever exists on disk at call time; no id ordering across stages
// is implied.
func (s *Store) List(ctx context.Context, stage store.Stage) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ext, ok := stageExt[stage]
	if !ok {
		return nil, fmt.Errorf("%w: unknown stage %q", internalerr.ErrInvalidInput, stage)
	}
	dir := filepath.Join(s.root, string(stage))
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list stage %s: %w", stage, err)
	}

	var ids []string
	suffix := "." + ext
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), suffix) {
			continue
		}
		ids = append(ids, strings.TrimSuffix(f.Name(), suffix))
	}
	sort.Strings(ids)
	return ids, nil
}

// PutAggregate writes a corpus-level artifact. Slashes in the name
// become subdirectories, so "export/papers" lands in root/export/.
func (s *Store) PutAggregate(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p := s.aggregatePath(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create aggregate dir: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write aggregate %s: %w", name, err)
	}
	return nil
}

// GetAggregate reads a corpus-level artifact or returns ErrNotFound.
func (s *Store) GetAggregate(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.aggregatePath(name))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("aggregate %s: %w", name, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read aggregate %s: %w", name, err)
	}
	return data, nil
}

func (s *Store) aggregatePath(name string) string {
	if strings.Contains(name, "/") {
		return filepath.Join(s.root, filepath.FromSlash(name)+".json")
	}
	return filepath.Join(s.root, "analysis", name+".json")
}
