// Package extract converts fetched documents to plain text with a
// coarse section map. PDF inputs go through the text-layer reader,
// HTML through readability extraction. Output below the quality gate
// is rejected explicitly rather than saved as an empty success.
package extract

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/spacebio/biolit/pkg/biolit/fetch"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

// Section is one named slice of the extracted text, in source order.
type Section struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Result is the extraction output for one document.
type Result struct {
	ID          string    `json:"id"`
	Unsectioned bool      `json:"unsectioned"`
	Sections    []Section `json:"sections"`
	FullText    string    `json:"-"`
}

// Section lookup by name; empty string when absent.
func (r Result) Section(name string) string {
	for _, s := range r.Sections {
		if s.Name == name {
			return s.Text
		}
	}
	return ""
}

// Extractor holds the quality-gate thresholds.
type Extractor struct {
	MinChars      int
	MinAlphaRatio float64
}

// New creates an extractor with the given quality thresholds.
func New(minChars int, minAlphaRatio float64) *Extractor {
	return &Extractor{MinChars: minChars, MinAlphaRatio: minAlphaRatio}
}

// Extract converts one fetched document into text plus sections.
// Unreadable or image-only documents fail with ErrLowQuality instead
// of producing empty text.
func (e *Extractor) Extract(doc fetch.Document) (Result, error) {
	var text string
	var err error

	if bytes.HasPrefix(doc.Body, []byte("%PDF-")) {
		text, err = pdfText(doc.Body)
	} else {
		text, err = htmlText(doc.Body)
	}
	if err != nil {
		return Result{}, err
	}

	text = normalizeWhitespace(text)
	if err := e.checkQuality(text); err != nil {
		return Result{}, err
	}

	sections, unsectioned := SplitSections(text)
	return Result{
		ID:          fmt.Sprintf("%d", doc.ID),
		Unsectioned: unsectioned,
		Sections:    sections,
		FullText:    text,
	}, nil
}

func (e *Extractor) checkQuality(text string) error {
	if len(text) < e.MinChars {
		return fmt.Errorf("%w: only %d characters extracted", internalerr.ErrLowQuality, len(text))
	}
	ratio := alphaRatio(text)
	if ratio < e.MinAlphaRatio {
		return fmt.Errorf("%w: alphabetic ratio %.2f below %.2f", internalerr.ErrLowQuality, ratio, e.MinAlphaRatio)
	}
	return nil
}

func pdfText(body []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text layer: %w", err)
	}
	var buf strings.Builder
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}
	return buf.String(), nil
}

func htmlText(body []byte) (string, error) {
	base, _ := url.Parse("https://localhost/")
	article, err := readability.FromReader(bytes.NewReader(body), base)
	if err != nil {
		// Readability rejects pages without obvious article content;
		// fall back to stripping the markup wholesale.
		return stripHTML(string(body)), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
	if err != nil {
		return stripHTML(article.Content), nil
	}
	return doc.Text(), nil
}

func stripHTML(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			buf.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}

var reWhitespace = regexp.MustCompile(`[ \t]+`)

func normalizeWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = reWhitespace.ReplaceAllString(text, " ")
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		lines = append(lines, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func alphaRatio(text string) float64 {
	if text == "" {
		return 0
	}
	var letters, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// sectionHeaders maps recognizable header lines to canonical names.
var sectionHeaders = map[string]string{
	"abstract":              "abstract",
	"summary":               "abstract",
	"introduction":          "introduction",
	"background":            "introduction",
	"methods":               "methods",
	"materials and methods": "methods",
	"results":               "results",
	"findings":              "results",
	"discussion":            "conclusion",
	"conclusion":            "conclusion",
	"conclusions":           "conclusion",
	"references":            "references",
	"acknowledgements":      "references",
	"acknowledgments":       "references",
}

var reHeaderPrefix = regexp.MustCompile(`^(?:[0-9]+[\.\)]?|[ivx]+\.)\s*`)

// SplitSections partitions text on recognizable section header lines.
// When no header is found the whole text becomes a single "body"
// section and the unsectioned flag is set.
func SplitSections(text string) ([]Section, bool) {
	lines := strings.Split(text, "\n")

	var sections []Section
	current := ""
	var buf strings.Builder

	flush := func() {
		body := strings.TrimSpace(buf.String())
		buf.Reset()
		if current != "" && body != "" {
			sections = append(sections, Section{Name: current, Text: body})
		}
	}

	for _, line := range lines {
		if name, ok := headerName(line); ok {
			flush()
			current = name
			continue
		}
		if current == "" {
			// Preamble before the first header: attribute to abstract,
			// papers usually open with one.
			current = "abstract"
		}
		buf.WriteString(line)
		buf.WriteString("\n")
	}
	flush()

	// Drop trailing reference lists; they add noise downstream.
	filtered := sections[:0]
	for _, s := range sections {
		if s.Name == "references" {
			continue
		}
		filtered = append(filtered, s)
	}
	sections = filtered

	if len(sections) == 0 {
		return []Section{{Name: "body", Text: strings.TrimSpace(text)}}, true
	}
	if len(sections) == 1 && sections[0].Name == "abstract" {
		// A single implicit block means no real header was recognized.
		return []Section{{Name: "body", Text: sections[0].Text}}, true
	}
	return sections, false
}

func headerName(line string) (string, bool) {
	trimmed := strings.ToLower(strings.TrimSpace(line))
	if trimmed == "" || len(trimmed) > 40 {
		return "", false
	}
	trimmed = reHeaderPrefix.ReplaceAllString(trimmed, "")
	trimmed = strings.TrimRight(trimmed, ":.")
	name, ok := sectionHeaders[trimmed]
	return name, ok
}
