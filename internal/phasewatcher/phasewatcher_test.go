package phasewatcher

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mrdeadlift/levents/internal/lockfile"
	"github.com/mrdeadlift/levents/internal/model"
)

func TestExtractPhaseArrayForm(t *testing.T) {
	phase, ok := extractPhase([]byte(`["OnJsonApiEvent","/lol-gameflow/v1/gameflow-phase","Lobby"]`))
	if !ok || phase != "Lobby" {
		t.Fatalf("expected Lobby, got %q ok=%v", phase, ok)
	}
}

func TestExtractPhaseScalarData(t *testing.T) {
	payload := `[8,"OnJsonApiEvent",{"uri":"/lol-gameflow/v1/gameflow-phase","eventType":"Update","data":"ChampSelect"}]`
	phase, ok := extractPhase([]byte(payload))
	if !ok || phase != "ChampSelect" {
		t.Fatalf("expected ChampSelect, got %q ok=%v", phase, ok)
	}
}

func TestExtractPhaseNestedData(t *testing.T) {
	payload := `[8,"OnJsonApiEvent",{"uri":"/lol-gameflow/v1/gameflow-phase","eventType":"Update","data":{"phase":"ReadyCheck"}}]`
	phase, ok := extractPhase([]byte(payload))
	if !ok || phase != "ReadyCheck" {
		t.Fatalf("expected ReadyCheck, got %q ok=%v", phase, ok)
	}
}

func TestExtractPhaseIrrelevantPayload(t *testing.T) {
	if _, ok := extractPhase([]byte(`["OnJsonApiEvent","/lol-champ-select/v1/session",{}]`)); ok {
		t.Fatalf("expected no match for unrelated uri")
	}
}

var upgrader = websocket.Upgrader{}

func newLCUServer(t *testing.T, messages []string) (*httptest.Server, uint16) {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(gameflowURI, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"Lobby"`))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		// drain the two subscribe frames
		conn.ReadMessage()
		conn.ReadMessage()
		for _, msg := range messages {
			conn.WriteMessage(websocket.TextMessage, []byte(msg))
			time.Sleep(10 * time.Millisecond)
		}
		// keep the connection open until the client closes it
		conn.ReadMessage()
	})
	server := httptest.NewTLSServer(mux)
	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	port, err := strconv.ParseUint(u.Port(), 10, 16)
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}
	return server, uint16(port)
}

func writeLockfile(t *testing.T, port uint16) string {
	t.Helper()
	path := t.TempDir() + "/lockfile"
	contents := "LeagueClient:1234:" + strconv.Itoa(int(port)) + ":secret:https"
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write lockfile: %v", err)
	}
	return path
}

func TestWatcherEmitsPhaseChangesSkippingDuplicates(t *testing.T) {
	messages := []string{
		`["OnJsonApiEvent","/lol-gameflow/v1/gameflow-phase","ChampSelect"]`,
		`["OnJsonApiEvent","/lol-gameflow/v1/gameflow-phase","ChampSelect"]`,
		`[8,"OnJsonApiEvent",{"uri":"/lol-gameflow/v1/gameflow-phase","eventType":"Update","data":"InProgress"}]`,
	}
	server, port := newLCUServer(t, messages)
	defer server.Close()

	path := writeLockfile(t, port)

	w := New([]string{path}, nil, WithDiscoveryInterval(10*time.Millisecond), WithRetryDelay(10*time.Millisecond))
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	out := w.Run(ctx)

	var phases []string
	for len(phases) == 0 || phases[len(phases)-1] != "InProgress" {
		select {
		case event, ok := <-out:
			if !ok {
				t.Fatalf("channel closed early, got phases=%v", phases)
			}
			if event.Kind != model.KindPhaseChange {
				continue
			}
			payload := event.Data.(model.PhasePayload)
			phases = append(phases, payload.Phase)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for phase events, got %v", phases)
		}
	}

	if phases[0] != "Lobby" && phases[0] != "ChampSelect" {
		t.Fatalf("unexpected first phase %q", phases[0])
	}
	for i := 1; i < len(phases); i++ {
		if phases[i] == phases[i-1] {
			t.Fatalf("expected repeated phase to be skipped, got %v", phases)
		}
	}
}

func TestDiscoverUsesLockfileCandidates(t *testing.T) {
	_, _, err := lockfile.Discover([]string{"/nonexistent/lockfile"}, nil)
	if err != lockfile.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
