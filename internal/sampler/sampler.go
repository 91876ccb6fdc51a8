// Package sampler implements the HTTP Sampler: a single GET against the
// vendor live-client-data service plus a fast content hash used to
// short-circuit unchanged responses downstream.
package sampler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"time"
)

// TransportError wraps a failure to reach the peer at all (connection
// refused, TLS handshake failure, timeout).
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error fetching %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPStatusError wraps a non-2xx response.
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.StatusCode, e.URL)
}

// Sample is the result of a successful fetch: the raw body and a fast
// non-cryptographic content hash of it.
type Sample struct {
	Bytes []byte
	Hash  uint64
}

// Sampler performs GET requests against the self-signed local live-client
// endpoint. The transport's permissive certificate verification is confined
// to this client, per spec.md §9's design note: the peer is always the
// local game process with a fixed self-signed certificate.
type Sampler struct {
	client *http.Client
}

// New constructs a Sampler with a client that accepts the game client's
// self-signed certificate, matching the pattern steveyegge-beads uses for
// its local, self-signed daemon peer.
func New() *Sampler {
	return &Sampler{
		client: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		},
	}
}

// Fetch performs one GET against url and returns its body plus content hash.
func (s *Sampler) Fetch(ctx context.Context, url string) (Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Sample{}, &TransportError{URL: url, Err: err}
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return Sample{}, &TransportError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Sample{}, &HTTPStatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Sample{}, &TransportError{URL: url, Err: err}
	}
	return Sample{Bytes: body, Hash: ContentHash(body)}, nil
}

// ContentHash computes a fast 64-bit FNV-1a hash of body. Equality of
// consecutive hashes means "no change" for the caller and short-circuits
// downstream JSON parsing.
func ContentHash(body []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(body)
	return h.Sum64()
}

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// IsHTTPStatus reports whether err is an HTTPStatusError.
func IsHTTPStatus(err error) bool {
	var s *HTTPStatusError
	return errors.As(err, &s)
}
