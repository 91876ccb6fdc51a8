// Package poller implements the Live Poller: the top-level loop composing
// Sampler, Differ, Deduplicator, and Governor into a lazy, infinite sequence
// of EventBatches. Grounded in the "coupled state machine owned by a single
// task" design note (spec.md §9): registry, digest, and governor are fields
// of this struct, exclusively mutated by the loop goroutine, so no locking
// is needed anywhere in the hot path.
package poller

import (
	"context"
	"sort"
	"time"

	"github.com/mrdeadlift/levents/internal/dedup"
	"github.com/mrdeadlift/levents/internal/differ"
	"github.com/mrdeadlift/levents/internal/governor"
	"github.com/mrdeadlift/levents/internal/logging"
	"github.com/mrdeadlift/levents/internal/model"
	"github.com/mrdeadlift/levents/internal/sampler"
)

// Option configures a Poller at construction time.
type Option func(*Poller)

// WithGovernorOptions forwards functional options to the embedded Governor.
func WithGovernorOptions(opts ...governor.Option) Option {
	return func(p *Poller) { p.governorOpts = opts }
}

// WithClock injects a deterministic timestamp source for events, for tests.
func WithClock(clock func() time.Time) Option {
	return func(p *Poller) {
		if clock != nil {
			p.now = clock
		}
	}
}

// Poller owns the active-player/player-list/event-data digest, the player
// registry, and the activity governor exclusively; none of it is shared
// with any other goroutine.
type Poller struct {
	baseURL  string
	sampler  *sampler.Sampler
	differ   *differ.Differ
	dedup    *dedup.Dedup
	governor *governor.Governor
	logger   *logging.Logger
	now      func() time.Time

	governorOpts []governor.Option

	haveActivePlayerHash bool
	activePlayerHash     uint64
	havePlayerListHash   bool
	playerListHash       uint64
	haveEventDataHash    bool
	eventDataHash        uint64
}

// New constructs a Poller against baseURL (e.g. https://127.0.0.1:2999).
func New(baseURL string, logger *logging.Logger, opts ...Option) *Poller {
	p := &Poller{
		baseURL: baseURL,
		sampler: sampler.New(),
		differ:  differ.New(),
		dedup:   dedup.New(),
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	p.governor = governor.New(p.governorOpts...)
	return p
}

// Run produces a continuous stream of non-empty EventBatches until ctx is
// done. An empty batch is never sent, but the loop still sleeps between
// iterations per spec.md §4.6.
func (p *Poller) Run(ctx context.Context) <-chan model.EventBatch {
	out := make(chan model.EventBatch)
	go func() {
		defer close(out)
		for {
			batch, delay := p.pollOnce(ctx)
			if len(batch) > 0 {
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (p *Poller) pollOnce(ctx context.Context) (model.EventBatch, time.Duration) {
	ts := p.now().UnixMilli()
	var batch model.EventBatch

	// Active-player fetch is best-effort: its value is only the hash, used
	// to stabilize diagnostics, so an error here never trips the governor.
	if sample, err := p.sampler.Fetch(ctx, p.baseURL+"/liveclientdata/activeplayer"); err == nil {
		p.haveActivePlayerHash = true
		p.activePlayerHash = sample.Hash
	} else if p.logger != nil {
		p.logger.Debug("active player fetch failed", logging.Error(err))
	}

	playerListSample, err := p.sampler.Fetch(ctx, p.baseURL+"/liveclientdata/playerlist")
	if err != nil {
		return nil, p.onFetchError("player list fetch failed", err)
	}

	eventDataSample, err := p.sampler.Fetch(ctx, p.baseURL+"/liveclientdata/eventdata")
	if err != nil {
		return nil, p.onFetchError("event data fetch failed", err)
	}

	if !p.havePlayerListHash || playerListSample.Hash != p.playerListHash {
		entries, perr := parsePlayerList(playerListSample.Bytes)
		if perr != nil {
			return nil, p.onFetchError("player list parse failed", perr)
		}
		p.havePlayerListHash = true
		p.playerListHash = playerListSample.Hash
		batch = append(batch, p.differ.Apply(entries, ts)...)
	}

	if !p.haveEventDataHash || eventDataSample.Hash != p.eventDataHash {
		raw, perr := parseEventLog(eventDataSample.Bytes)
		if perr != nil {
			return nil, p.onFetchError("event data parse failed", perr)
		}
		p.haveEventDataHash = true
		p.eventDataHash = eventDataSample.Hash
		batch = append(batch, p.dedup.Ingest(raw, p.differ.Lookup)...)
	}

	sort.SliceStable(batch, func(i, j int) bool { return batch[i].TS < batch[j].TS })

	delay := p.governor.OnPoll(len(batch) > 0)
	return batch, delay
}

func (p *Poller) onFetchError(message string, err error) time.Duration {
	if p.logger != nil {
		p.logger.Warn(message, logging.Error(err))
	}
	return p.governor.OnError()
}
