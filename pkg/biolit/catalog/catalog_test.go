package catalog

import (
	"strings"
	"testing"
)

func TestParseBasic(t *testing.T) {
	input := `id,title,link
1,Bone loss in microgravity,https://example.com/1
2,Plant growth aboard ISS,https://example.com/2
`
	entries, skipped, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(skipped) != 0 {
		t.Fatalf("unexpected skips: %v", skipped)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 1 || entries[0].Title != "Bone loss in microgravity" {
		t.Errorf("unexpected first entry: %+v", entries[0])
	}
	if entries[1].Key() != "2" {
		t.Errorf("Key() = %s, want 2", entries[1].Key())
	}
}

func TestParseNoHeader(t *testing.T) {
	input := "5,Radiation effects,https://example.com/5\n"
	entries, _, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != 5 {
		t.Fatalf("expected single entry with id 5, got %+v", entries)
	}
}

func TestParseSkipReasons(t *testing.T) {
	input := `id,title,link
1,ok,https://example.com/1
oops,bad id,https://example.com/2
3,short row
4,no link,
5,bad link,not-a-url
1,duplicate,https://example.com/6
`
	entries, skipped, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	want := map[int]string{
		3: "non-numeric id",
		4: "fewer than 3 columns",
		5: "missing link",
		6: "malformed link",
		7: "duplicate id",
	}
	if len(skipped) != len(want) {
		t.Fatalf("expected %d skips, got %d: %v", len(want), len(skipped), skipped)
	}
	for _, s := range skipped {
		if want[s.Line] != s.Reason {
			t.Errorf("line %d: reason %q, want %q", s.Line, s.Reason, want[s.Line])
		}
	}
}

func TestParseEmpty(t *testing.T) {
	if _, _, err := Parse(strings.NewReader("")); err == nil {
		t.Fatal("expected error on empty catalog")
	}
}

func TestSample(t *testing.T) {
	entries := []Entry{{ID: 1}, {ID: 2}, {ID: 3}}

	if got := Sample(entries, 2); len(got) != 2 {
		t.Errorf("Sample(2) = %d entries", len(got))
	}
	if got := Sample(entries, 0); len(got) != 3 {
		t.Errorf("Sample(0) should return all, got %d", len(got))
	}
	if got := Sample(entries, 10); len(got) != 3 {
		t.Errorf("Sample(10) should return all, got %d", len(got))
	}
}
