package sampler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchSuccess(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	s := New()
	sample, err := s.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if string(sample.Bytes) != `{"ok":true}` {
		t.Fatalf("unexpected body: %s", sample.Bytes)
	}
	if sample.Hash == 0 {
		t.Fatalf("expected non-zero content hash")
	}
}

func TestFetchStableHash(t *testing.T) {
	a := ContentHash([]byte("same"))
	b := ContentHash([]byte("same"))
	c := ContentHash([]byte("different"))
	if a != b {
		t.Fatalf("expected identical bodies to hash identically")
	}
	if a == c {
		t.Fatalf("expected different bodies to hash differently")
	}
}

func TestFetchNonTwoXX(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := New()
	_, err := s.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatalf("expected error for non-2xx response")
	}
	if !IsHTTPStatus(err) {
		t.Fatalf("expected HTTPStatusError, got %T: %v", err, err)
	}
}

func TestFetchTransportFailure(t *testing.T) {
	s := New()
	_, err := s.Fetch(context.Background(), "https://127.0.0.1:1/unreachable")
	if err == nil {
		t.Fatalf("expected transport error")
	}
	if !IsTransport(err) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
}
