// Package fetch retrieves remote documents per catalog row with a
// fixed inter-request delay. Payloads are validated before a fetch
// counts as successful: anti-bot challenge pages and mislabeled
// content are rejected instead of being saved as documents.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spacebio/biolit/pkg/biolit/catalog"
	"github.com/spacebio/biolit/pkg/biolit/internalerr"
)

const maxDocumentBytes = 50 << 20 // 50 MiB cap per document

// Document is one successfully fetched and validated payload.
type Document struct {
	ID          int64
	Body        []byte
	ContentType string
}

// Fetcher downloads catalog links one at a time.
type Fetcher struct {
	Client    *http.Client
	Delay     time.Duration
	UserAgent string

	lastRequest time.Time
}

// New creates a fetcher with the given delay and per-request timeout.
func New(delay, timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{Timeout: timeout},
		Delay:     delay,
		UserAgent: userAgent,
	}
}

// Fetch retrieves one catalog entry. It sleeps whatever remains of the
// configured delay since the previous request before issuing this one.
func (f *Fetcher) Fetch(ctx context.Context, entry catalog.Entry) (Document, error) {
	if err := f.throttle(ctx); err != nil {
		return Document{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.Link, nil)
	if err != nil {
		return Document{}, fmt.Errorf("build request for %s: %w", entry.Link, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.httpClient().Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", entry.Link, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Document{}, fmt.Errorf("fetch %s: HTTP %d", entry.Link, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return Document{}, fmt.Errorf("read body of %s: %w", entry.Link, err)
	}

	contentType := resp.Header.Get("Content-Type")
	if err := Validate(body, contentType); err != nil {
		return Document{}, fmt.Errorf("fetch %s: %w", entry.Link, err)
	}

	return Document{ID: entry.ID, Body: body, ContentType: contentType}, nil
}

func (f *Fetcher) throttle(ctx context.Context) error {
	if f.Delay <= 0 || f.lastRequest.IsZero() {
		f.lastRequest = time.Now()
		return nil
	}
	wait := f.Delay - time.Since(f.lastRequest)
	if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.lastRequest = time.Now()
	return nil
}

func (f *Fetcher) httpClient() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: 30 * time.Second}
}

// challengeMarkers are phrases that identify anti-bot interstitials
// served with a 200 status. Matching is case-insensitive over the
// first few KiB of an HTML payload.
var challengeMarkers = []string{
	"just a moment",
	"enable javascript and cookies",
	"checking your browser",
	"cf-browser-verification",
	"attention required",
	"verify you are a human",
	"captcha",
	"access denied",
}

// Validate rejects payloads that are not usable documents: empty
// bodies, challenge pages, and content that claims to be PDF without a
// PDF header.
func Validate(body []byte, contentType string) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return fmt.Errorf("%w: empty body", internalerr.ErrBadPayload)
	}

	isPDF := bytes.HasPrefix(body, []byte("%PDF-"))
	ct := strings.ToLower(contentType)

	if strings.Contains(ct, "application/pdf") && !isPDF {
		return fmt.Errorf("%w: content-type claims PDF but body has no PDF header", internalerr.ErrBadPayload)
	}
	if isPDF {
		return nil
	}

	// HTML payload: check the head of the document for challenge markers.
	head := body
	if len(head) > 8192 {
		head = head[:8192]
	}
	lower := strings.ToLower(string(head))
	for _, marker := range challengeMarkers {
		if strings.Contains(lower, marker) {
			return fmt.Errorf("%w: challenge page (%q)", internalerr.ErrBadPayload, marker)
		}
	}

	return nil
}
