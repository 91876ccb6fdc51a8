// Package phasewatcher implements the Phase Watcher: it discovers the game
// client's lockfile, opens an authenticated WebSocket to its local API, and
// emits a PhaseChange event whenever the gameflow phase changes. Grounded in
// the reconnect-with-backoff shape of a WebSocket watcher that resubscribes
// from scratch after every disconnect.
package phasewatcher

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/mrdeadlift/levents/internal/lockfile"
	"github.com/mrdeadlift/levents/internal/logging"
	"github.com/mrdeadlift/levents/internal/model"
)

const gameflowURI = "/lol-gameflow/v1/gameflow-phase"

// Option configures a Watcher at construction time.
type Option func(*Watcher)

// WithDiscoveryInterval overrides the lockfile re-scan cadence.
func WithDiscoveryInterval(interval time.Duration) Option {
	return func(w *Watcher) {
		if interval > 0 {
			w.discoveryInterval = interval
		}
	}
}

// WithRetryDelay overrides the WebSocket reconnect cadence.
func WithRetryDelay(delay time.Duration) Option {
	return func(w *Watcher) {
		if delay > 0 {
			w.retryDelay = delay
		}
	}
}

// WithClock injects a deterministic timestamp source, for tests.
func WithClock(clock func() time.Time) Option {
	return func(w *Watcher) {
		if clock != nil {
			w.now = clock
		}
	}
}

// Watcher owns the lockfile-discovery loop and the single WebSocket
// connection to the game client's local API exclusively.
type Watcher struct {
	candidates        []string
	discoveryInterval time.Duration
	retryDelay        time.Duration
	logger            *logging.Logger
	now               func() time.Time

	dialer    *websocket.Dialer
	http      *http.Client
	reconnect backoff.BackOff
}

// New constructs a Watcher that searches candidates (in order) for the
// lockfile. The permissive TLS verifier is confined to this client alone:
// the peer is always the local game process with a fixed self-signed cert.
func New(candidates []string, logger *logging.Logger, opts ...Option) *Watcher {
	tlsConfig := &tls.Config{InsecureSkipVerify: true}
	w := &Watcher{
		candidates:        candidates,
		discoveryInterval: 2 * time.Second,
		retryDelay:        3 * time.Second,
		logger:            logger,
		now:               time.Now,
		dialer: &websocket.Dialer{
			TLSClientConfig:  tlsConfig,
			HandshakeTimeout: 10 * time.Second,
		},
		http: &http.Client{
			Timeout:   5 * time.Second,
			Transport: &http.Transport{TLSClientConfig: tlsConfig},
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = w.retryDelay
	bo.RandomizationFactor = 0
	bo.MaxInterval = 30 * w.retryDelay
	bo.MaxElapsedTime = 0
	bo.Reset()
	w.reconnect = bo
	return w
}

// Run emits a PhaseChange event each time the observed gameflow phase
// changes, until ctx is done. Disconnects and missing lockfiles are never
// surfaced to subscribers; the watcher heals by retrying.
func (w *Watcher) Run(ctx context.Context) <-chan model.Event {
	out := make(chan model.Event)
	wake := lockfile.WatchWake(ctx, w.candidates, w.discoveryInterval)
	go func() {
		defer close(out)
		var lastPhase string
		var havePhase bool

		for {
			if ctx.Err() != nil {
				return
			}

			path, auth, err := lockfile.Discover(w.candidates, func(path string, derr error) {
				w.trace("lockfile_malformed", map[string]any{"path": path, "error": derr.Error()})
			})
			if err != nil {
				w.trace("lockfile_not_found", nil)
				if !waitCtx(ctx, wake) {
					return
				}
				continue
			}
			w.trace("lockfile_discovered", map[string]any{"path": path})

			havePhase = w.connectAndStream(ctx, auth, out, &lastPhase, havePhase)

			if !sleepCtx(ctx, w.reconnect.NextBackOff()) {
				return
			}
		}
	}()
	return out
}

func (w *Watcher) connectAndStream(ctx context.Context, auth lockfile.Auth, out chan<- model.Event, lastPhase *string, havePhase bool) bool {
	conn, err := w.dial(ctx, auth)
	if err != nil {
		w.warn("websocket connect failed", err)
		return havePhase
	}
	defer conn.Close()

	if err := w.subscribe(conn); err != nil {
		w.warn("subscribe failed", err)
		return havePhase
	}
	w.reconnect.Reset()

	if phase, err := w.fetchCurrentPhase(ctx, auth); err == nil && phase != "" {
		if !havePhase || phase != *lastPhase {
			*lastPhase = phase
			havePhase = true
			if !sendPhase(ctx, out, phase, w.now().UnixMilli()) {
				return havePhase
			}
		}
	} else if err != nil && w.logger != nil {
		w.logger.Debug("current phase fetch failed", logging.Error(err))
	}

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return havePhase
			}
			w.warn("websocket read failed", err)
			return havePhase
		}
		phase, ok := extractPhase(data)
		if !ok {
			continue
		}
		if havePhase && phase == *lastPhase {
			continue
		}
		*lastPhase = phase
		havePhase = true
		w.trace("phase_update", map[string]any{"phase": phase})
		if !sendPhase(ctx, out, phase, w.now().UnixMilli()) {
			return havePhase
		}
	}
}

func (w *Watcher) dial(ctx context.Context, auth lockfile.Auth) (*websocket.Conn, error) {
	scheme := "ws"
	if strings.EqualFold(auth.Protocol, "https") {
		scheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://127.0.0.1:%d/", scheme, auth.Port)

	header := http.Header{}
	header.Set("Authorization", "Basic "+basicToken(auth.Password))
	header.Set("Origin", "https://127.0.0.1")

	conn, _, err := w.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("dial lcu websocket: %w", err)
	}
	return conn, nil
}

func (w *Watcher) subscribe(conn *websocket.Conn) error {
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`["subscribe","OnJsonApiEvent"]`)); err != nil {
		return fmt.Errorf("subscribe OnJsonApiEvent: %w", err)
	}
	frame := fmt.Sprintf(`["subscribe",%q]`, gameflowURI)
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		w.trace("secondary_subscription_failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (w *Watcher) fetchCurrentPhase(ctx context.Context, auth lockfile.Auth) (string, error) {
	base := fmt.Sprintf("%s://127.0.0.1:%d%s", strings.ToLower(auth.Protocol), auth.Port, gameflowURI)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth("riot", auth.Password)

	resp, err := w.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: GET %s: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("GET %s -> %d", base, resp.StatusCode)
	}

	var body []byte
	buf := make([]byte, 4096)
	for {
		n, rerr := resp.Body.Read(buf)
		if n > 0 {
			body = append(body, buf[:n]...)
		}
		if rerr != nil {
			break
		}
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}
	if phase, ok := extractPhase([]byte(trimmed)); ok {
		return phase, nil
	}
	return strings.Trim(trimmed, `"`), nil
}

func sendPhase(ctx context.Context, out chan<- model.Event, phase string, ts int64) bool {
	event := model.Event{
		Kind:        model.KindPhaseChange,
		TS:          model.NormalizeTS(ts),
		PayloadKind: model.PayloadKindPhase,
		Data:        model.PhasePayload{Phase: phase},
	}
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}

func basicToken(password string) string {
	return base64.StdEncoding.EncodeToString([]byte("riot:" + password))
}

func (w *Watcher) warn(message string, err error) {
	if w.logger != nil {
		w.logger.Warn(message, logging.Error(err))
	}
}

func (w *Watcher) trace(event string, fields map[string]any) {
	if w.logger == nil {
		return
	}
	attrs := make([]logging.Field, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, logging.Field{Key: k, Value: v})
	}
	w.logger.Debug(event, attrs...)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}

// waitCtx blocks until wake fires or ctx is done, returning false in the
// latter case. wake already carries its own ticker fallback (WatchWake), so
// this never needs a second timer.
func waitCtx(ctx context.Context, wake <-chan struct{}) bool {
	select {
	case <-wake:
		return true
	case <-ctx.Done():
		return false
	}
}

// extractPhase implements the tolerant recursive matcher over a decoded
// JSON value: locate an object with the gameflow-phase uri and pull its
// data as string-or-object (spec scenarios: array form, scalar data,
// nested data).
func extractPhase(raw []byte) (string, bool) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return matchPhase(value)
}

func matchPhase(value any) (string, bool) {
	switch v := value.(type) {
	case []any:
		if len(v) >= 3 {
			if s, ok := v[0].(string); ok && s == "OnJsonApiEvent" {
				if uri, ok := v[1].(string); ok && uri == gameflowURI {
					if phase, ok := v[2].(string); ok {
						return phase, true
					}
				}
			}
			if s, ok := v[1].(string); ok && s == "OnJsonApiEvent" {
				if phase, ok := matchPhase(v[2]); ok {
					return phase, true
				}
			}
		}
		for _, item := range v {
			if phase, ok := matchPhase(item); ok {
				return phase, true
			}
		}
		return "", false
	case map[string]any:
		uri, _ := v["uri"].(string)
		if uri != gameflowURI {
			return "", false
		}
		data, present := v["data"]
		if !present {
			return "", false
		}
		if phase, ok := data.(string); ok {
			return phase, true
		}
		if obj, ok := data.(map[string]any); ok {
			if phase, ok := obj["phase"].(string); ok {
				return phase, true
			}
			if phase, ok := obj["gameflowPhase"].(string); ok {
				return phase, true
			}
		}
		return "", false
	default:
		return "", false
	}
}
