package lockfile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseValidLine(t *testing.T) {
	auth, err := Parse("LeagueClient:1234:5678:secret:https")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if auth.Port != 5678 {
		t.Fatalf("expected port 5678, got %d", auth.Port)
	}
	if auth.Password != "secret" {
		t.Fatalf("expected password %q, got %q", "secret", auth.Password)
	}
	if auth.Protocol != "https" {
		t.Fatalf("expected protocol %q, got %q", "https", auth.Protocol)
	}
}

func TestParseLowercasesProtocol(t *testing.T) {
	auth, err := Parse("LeagueClient:1:2:pw:HTTPS")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if auth.Protocol != "https" {
		t.Fatalf("expected lowercased protocol, got %q", auth.Protocol)
	}
}

func TestParseRejectsTooFewFields(t *testing.T) {
	if _, err := Parse("a:b:c"); err == nil {
		t.Fatalf("expected error for too few fields")
	}
}

func TestParseRejectsBadPort(t *testing.T) {
	if _, err := Parse("a:1:notaport:pw:https"); err == nil {
		t.Fatalf("expected error for non-numeric port")
	}
}

func TestCandidatePathsOrderingAndDedupe(t *testing.T) {
	paths := CandidatePaths("/explicit", "/explicit")
	if len(paths) == 0 || paths[0] != "/explicit" {
		t.Fatalf("expected explicit override first, got %v", paths)
	}
	count := 0
	for _, p := range paths {
		if p == "/explicit" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected explicit override deduplicated, got %d occurrences", count)
	}
}

func TestDiscoverFindsFirstPresentCandidate(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing")
	present := filepath.Join(dir, "present")
	if err := os.WriteFile(present, []byte("LeagueClient:1:5000:pw:https"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	path, auth, err := Discover([]string{missing, present}, nil)
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if path != present {
		t.Fatalf("expected to discover %q, got %q", present, path)
	}
	if auth.Port != 5000 {
		t.Fatalf("expected port 5000, got %d", auth.Port)
	}
}

func TestDiscoverSkipsMalformedAndTriesNext(t *testing.T) {
	dir := t.TempDir()
	malformed := filepath.Join(dir, "malformed")
	valid := filepath.Join(dir, "valid")
	if err := os.WriteFile(malformed, []byte("short:line"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if err := os.WriteFile(valid, []byte("LeagueClient:1:6000:pw:http"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	var flagged string
	path, auth, err := Discover([]string{malformed, valid}, func(p string, _ error) { flagged = p })
	if err != nil {
		t.Fatalf("Discover returned error: %v", err)
	}
	if flagged != malformed {
		t.Fatalf("expected malformed callback for %q, got %q", malformed, flagged)
	}
	if path != valid || auth.Port != 6000 {
		t.Fatalf("expected fallback to valid candidate, got path=%q auth=%+v", path, auth)
	}
}

func TestDiscoverNotFound(t *testing.T) {
	dir := t.TempDir()
	_, _, err := Discover([]string{filepath.Join(dir, "nope")}, nil)
	if err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
