// Package catalog loads the tabular source list that seeds every
// downstream pipeline stage.
package catalog

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

// Entry is one catalog row. Immutable once loaded; the id keys every
// per-paper artifact the pipeline writes.
type Entry struct {
	ID    int64
	Title string
	Link  string
}

// Key returns the string form of the id used in artifact names.
func (e Entry) Key() string {
	return strconv.FormatInt(e.ID, 10)
}

// SkippedRow records a catalog row that could not be used.
type SkippedRow struct {
	Line   int
	Reason string
}

// Load reads a CSV catalog with columns id,title,link. Rows with a
// missing or unparseable id or link are skipped, not fatal.
func Load(path string) ([]Entry, []SkippedRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads catalog rows from r. The first row is treated as a
// header when its id column is not numeric.
func Parse(r io.Reader) ([]Entry, []SkippedRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%w: empty catalog", internalerr.ErrInvalidInput)
	}

	var entries []Entry
	var skipped []SkippedRow
	seen := make(map[int64]struct{})

	for i, rec := range records {
		line := i + 1
		if len(rec) < 3 {
			if i == 0 {
				continue // short header row
			}
			skipped = append(skipped, SkippedRow{Line: line, Reason: "fewer than 3 columns"})
			continue
		}

		id, err := strconv.ParseInt(strings.TrimSpace(rec[0]), 10, 64)
		if err != nil {
			if i == 0 {
				continue // header row
			}
			skipped = append(skipped, SkippedRow{Line: line, Reason: "non-numeric id"})
			continue
		}

		link := strings.TrimSpace(rec[2])
		if link == "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "missing link"})
			continue
		}
		if u, err := url.Parse(link); err != nil || u.Scheme == "" || u.Host == "" {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "malformed link"})
			continue
		}

		if _, dup := seen[id]; dup {
			skipped = append(skipped, SkippedRow{Line: line, Reason: "duplicate id"})
			continue
		}
		seen[id] = struct{}{}

		entries = append(entries, Entry{
			ID:    id,
			Title: strings.TrimSpace(rec[1]),
			Link:  link,
		})
	}

	return entries, skipped, nil
}

// Sample caps entries at n. A non-positive n returns entries unchanged.
func Sample(entries []Entry, n int) []Entry {
	if n <= 0 || n >= len(entries) {
		return entries
	}
	return entries[:n]
}
