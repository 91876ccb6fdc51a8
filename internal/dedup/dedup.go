// Package dedup implements the Event-Log Deduplicator: it filters the raw
// numbered event array from the live-data endpoint to entries strictly
// newer than a highwater mark, detects game restarts, and normalizes
// survivors into typed events. Grounded in the monotonic-sequence rejection
// idiom used to gate stale intent frames: track a highwater mark, reject
// anything not strictly beyond it, and reset it only on an explicit signal.
package dedup

import (
	"math"

	"github.com/mrdeadlift/levents/internal/model"
)

// RawEvent is one entry from the live-data event log, as exercised by
// spec.md §4.4. Only the fields a given eventName consumes are populated.
type RawEvent struct {
	EventID      uint64
	EventName    string
	EventTime    float64
	KillerName   string
	VictimName   string
	Assisters    []string
	SummonerName string
}

var phaseEventNames = map[string]struct{}{
	"GameStart":           {},
	"MinionsSpawning":     {},
	"FirstBrick":          {},
	"FirstBlood":          {},
	"TurretKilled":        {},
	"InhibKilled":         {},
	"InhibRespawningSoon": {},
	"InhibRespawned":      {},
	"DragonKill":          {},
	"HeraldKill":          {},
	"BaronKill":           {},
	"GameEnd":             {},
	"Ace":                 {},
}

var suppressedEventNames = map[string]struct{}{
	"LevelUp":       {},
	"ItemPurchased": {},
	"ItemDestroyed": {},
	"ItemSold":      {},
	"ItemUndo":      {},
}

// PlayerLookup resolves a summoner name to its registry identity. A name
// absent from the registry resolves to a neutral stub, per spec.md §4.4.
type PlayerLookup func(name string) (model.PlayerRef, bool)

// Dedup owns the highwater mark exclusively; like Differ, it is never
// shared across goroutines.
type Dedup struct {
	highwater    uint64
	highwaterSet bool
}

// New constructs a Dedup with an unset highwater mark.
func New() *Dedup {
	return &Dedup{}
}

// Ingest filters rawEvents to those newer than the highwater mark,
// detects restarts, and normalizes survivors via lookup.
func (d *Dedup) Ingest(rawEvents []RawEvent, lookup PlayerLookup) []model.Event {
	d.detectRestart(rawEvents)

	expected := uint64(0)
	if d.highwaterSet {
		expected = d.highwater + 1
	}

	var survivors []RawEvent
	for _, raw := range rawEvents {
		if raw.EventID < expected {
			continue
		}
		survivors = append(survivors, raw)
		if !d.highwaterSet || raw.EventID > d.highwater {
			d.highwater = raw.EventID
			d.highwaterSet = true
		}
	}

	var events []model.Event
	for _, raw := range survivors {
		events = append(events, normalize(raw, lookup)...)
	}
	return events
}

// detectRestart resets the highwater mark when a new game's event log has
// begun: id 0 reappearing early in game time (eventTime < 5s). The time guard avoids
// false resets from out-of-order late arrivals.
func (d *Dedup) detectRestart(rawEvents []RawEvent) {
	if !d.highwaterSet {
		return
	}
	for _, raw := range rawEvents {
		if raw.EventID == 0 && raw.EventTime < 5.0 {
			d.highwaterSet = false
			d.highwater = 0
			return
		}
	}
}

func normalize(raw RawEvent, lookup PlayerLookup) []model.Event {
	ts := normalizeEventTime(raw.EventTime)

	switch raw.EventName {
	case "ChampionKill", "ChampionSpecialKill":
		events := []model.Event{
			model.NewPlayerEvent(model.KindKill, ts, resolve(raw.KillerName, lookup)),
			model.NewPlayerEvent(model.KindDeath, ts, resolve(raw.VictimName, lookup)),
		}
		for _, assister := range raw.Assisters {
			if assister == "" {
				continue
			}
			events = append(events, model.NewPlayerEvent(model.KindAssist, ts, resolve(assister, lookup)))
		}
		return events
	case "Respawn":
		return []model.Event{model.NewPlayerEvent(model.KindRespawn, ts, resolve(raw.SummonerName, lookup))}
	default:
		if _, suppressed := suppressedEventNames[raw.EventName]; suppressed {
			return nil
		}
		if _, isPhase := phaseEventNames[raw.EventName]; isPhase {
			return []model.Event{{
				Kind: model.KindPhaseChange, TS: ts, PayloadKind: model.PayloadKindPhase,
				Data: model.PhasePayload{Phase: raw.EventName},
			}}
		}
		return nil
	}
}

func resolve(name string, lookup PlayerLookup) model.PlayerRef {
	if lookup != nil {
		if ref, ok := lookup(name); ok {
			return ref
		}
	}
	return model.PlayerRef{SummonerName: name, Team: model.TeamNeutral, Slot: 0}
}

// normalizeEventTime converts seconds-since-game-start into milliseconds;
// non-finite or negative values coerce to 0, matching observed game-client
// quirks rather than dropping the event.
func normalizeEventTime(seconds float64) int64 {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0
	}
	return int64(math.Round(seconds * 1000))
}
