package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/signalsfoundry/orbit-tracker/model"
)

// DefaultURL is the public trajectory document for the ISS.
const DefaultURL = "https://nasa-public-data.s3.amazonaws.com/iss-coords/current/ISS_OEM/ISS.OEM_J2K_EPH.xml"

// maxDocumentBytes bounds how much of the upstream response we will read.
// The live document is a few megabytes; 64 MiB leaves generous headroom.
const maxDocumentBytes = 64 << 20

// Fetcher performs the single blocking HTTP GET of the upstream feed.
// No retry policy: a failure surfaces to the caller as ErrTransport.
type Fetcher struct {
	url      string
	client   *http.Client
	maxBytes int64
}

// NewFetcher constructs a fetcher for the given URL with a client-level
// timeout. An empty URL selects DefaultURL.
func NewFetcher(url string, timeout time.Duration) *Fetcher {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		url:      url,
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxDocumentBytes,
	}
}

// URL returns the configured feed URL.
func (f *Fetcher) URL() string { return f.url }

// Fetch downloads the raw feed document. Every failure class here (dial,
// timeout, non-200 status, truncated body) wraps ErrTransport.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", model.ErrTransport, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", model.ErrTransport, resp.StatusCode, f.url)
	}

	// Read one byte past the cap so an oversized document is detected
	// rather than silently truncated into unparseable XML.
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", model.ErrTransport, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("%w: document from %s exceeds %d bytes", model.ErrTransport, f.url, f.maxBytes)
	}
	return body, nil
}
