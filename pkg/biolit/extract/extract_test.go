package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/spacebio/biolit/pkg/biolit/fetch"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

const articleHTML = `<html><head><title>Microgravity and bone</title></head><body>
<article>
<p>Abstract</p>
<p>Spaceflight exposes skeletal tissue to unloading. We measured femoral density in mice flown for thirty days.</p>
<p>Results</p>
<p>Bone mineral density decreased significantly in flight animals compared to ground controls.</p>
<p>Conclusion</p>
<p>Microgravity causes measurable bone loss and countermeasures remain necessary.</p>
</article>
</body></html>`

func testExtractor() *Extractor {
	return New(50, 0.4)
}

func TestExtractHTML(t *testing.T) {
	doc := fetch.Document{ID: 42, Body: []byte(articleHTML)}

	res, err := testExtractor().Extract(doc)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.ID != "42" {
		t.Errorf("ID = %s", res.ID)
	}
	if res.FullText == "" {
		t.Fatal("empty full text")
	}
	if !strings.Contains(res.FullText, "Bone mineral density decreased") {
		t.Errorf("full text missing results content: %q", res.FullText)
	}
}

func TestExtractLowQuality(t *testing.T) {
	doc := fetch.Document{ID: 1, Body: []byte("<html><body>tiny</body></html>")}

	_, err := testExtractor().Extract(doc)
	if !errors.Is(err, internalerr.ErrLowQuality) {
		t.Fatalf("expected ErrLowQuality, got %v", err)
	}
}

func TestExtractAlphaRatioGate(t *testing.T) {
	numbers := strings.Repeat("0123456789 ", 50)
	doc := fetch.Document{ID: 1, Body: []byte("<html><body>" + numbers + "</body></html>")}

	_, err := testExtractor().Extract(doc)
	if !errors.Is(err, internalerr.ErrLowQuality) {
		t.Fatalf("expected ErrLowQuality for numeric text, got %v", err)
	}
}

func TestSplitSections(t *testing.T) {
	text := `Abstract
Mice were flown on the station.

Methods
Femurs were scanned by microCT.

Results
Density dropped by eight percent.

Conclusions
Unloading drives bone loss.

References
1. Some citation.`

	sections, unsectioned := SplitSections(text)
	if unsectioned {
		t.Fatal("expected sectioned output")
	}

	want := map[string]string{
		"abstract":   "Mice were flown",
		"methods":    "microCT",
		"results":    "eight percent",
		"conclusion": "Unloading",
	}
	if len(sections) != len(want) {
		t.Fatalf("expected %d sections, got %d: %+v", len(want), len(sections), sections)
	}
	for name, fragment := range want {
		var res Result
		res.Sections = sections
		got := res.Section(name)
		if !strings.Contains(got, fragment) {
			t.Errorf("section %s = %q, want fragment %q", name, got, fragment)
		}
	}
	// References must be dropped.
	var res Result
	res.Sections = sections
	if res.Section("references") != "" {
		t.Error("references section should be dropped")
	}
}

func TestSplitSectionsNumberedHeaders(t *testing.T) {
	text := "1. Introduction\nSome intro text here.\n2. Results\nThe finding."
	sections, unsectioned := SplitSections(text)
	if unsectioned {
		t.Fatal("expected sectioned output")
	}
	if len(sections) != 2 {
		t.Fatalf("got %d sections: %+v", len(sections), sections)
	}
	if sections[0].Name != "introduction" || sections[1].Name != "results" {
		t.Errorf("unexpected names: %s, %s", sections[0].Name, sections[1].Name)
	}
}

func TestSplitSectionsUnsectioned(t *testing.T) {
	text := "Just one long paragraph of prose without any recognizable headers in it."
	sections, unsectioned := SplitSections(text)
	if !unsectioned {
		t.Fatal("expected unsectioned flag")
	}
	if len(sections) != 1 || sections[0].Name != "body" {
		t.Fatalf("expected single body section, got %+v", sections)
	}
	if sections[0].Text != text {
		t.Errorf("body text altered: %q", sections[0].Text)
	}
}

func TestHeaderName(t *testing.T) {
	tests := []struct {
		line string
		name string
		ok   bool
	}{
		{"Abstract", "abstract", true},
		{"RESULTS:", "results", true},
		{"3. Discussion", "conclusion", true},
		{"Materials and Methods", "methods", true},
		{"The results of our study were surprising", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		name, ok := headerName(tt.line)
		if name != tt.name || ok != tt.ok {
			t.Errorf("headerName(%q) = %q,%v want %q,%v", tt.line, name, ok, tt.name, tt.ok)
		}
	}
}

func TestAlphaRatio(t *testing.T) {
	if r := alphaRatio("abcd"); r != 1 {
		t.Errorf("alphaRatio(abcd) = %f", r)
	}
	if r := alphaRatio("ab12"); r != 0.5 {
		t.Errorf("alphaRatio(ab12) = %f", r)
	}
	if r := alphaRatio(""); r != 0 {
		t.Errorf("alphaRatio empty = %f", r)
	}
}
