// Package differ implements the Snapshot Differ: a stateful registry
// mapping player identity to the last-seen roster entry, emitting
// level/gold/respawn/item events on each update. Grounded in the registry
// and dirty-tracking discipline of a vehicle state store: replace-on-ingest,
// clone-on-read, diff-by-comparison.
package differ

import (
	"github.com/mrdeadlift/levents/internal/model"
)

// ItemEntry is one item slot as reported by the wire player-list payload.
// id 0 is discarded when the entries are folded (foldItems), per spec.md §3.
type ItemEntry struct {
	ItemID uint32
	Name   string
}

// RosterEntry is one wire player-list record, as exercised by spec.md §4.3.
type RosterEntry struct {
	SummonerName string
	Team         string
	Level        int
	CurrentGold  float64
	IsDead       bool
	Items        []ItemEntry
}

type itemState struct {
	count uint32
	name  string
}

type playerSnapshot struct {
	ref         model.PlayerRef
	level       uint8
	currentGold int32
	isDead      bool
	items       map[uint32]itemState
}

// Differ owns the player registry exclusively; it is never shared across
// goroutines (per spec.md §5's "owned by the Live Poller task" rule).
type Differ struct {
	registry map[string]*playerSnapshot
	seeded   bool
}

// New constructs an empty Differ; its first Apply call establishes the
// baseline and emits no events.
func New() *Differ {
	return &Differ{registry: make(map[string]*playerSnapshot)}
}

// Lookup resolves a summoner name to its current registry identity, for
// the Deduplicator's neutral-stub fallback (spec.md §4.4).
func (d *Differ) Lookup(name string) (model.PlayerRef, bool) {
	snap, ok := d.registry[name]
	if !ok {
		return model.PlayerRef{}, false
	}
	return snap.ref, true
}

// Apply folds a fresh roster snapshot against the registry and returns the
// events the transition produced. The registry is then replaced wholesale.
func (d *Differ) Apply(entries []RosterEntry, tsMs int64) []model.Event {
	var events []model.Event
	next := make(map[string]*playerSnapshot, len(entries))

	// used is rebuilt from the current registry on every call, so a player
	// dropped from one snapshot to the next frees its slot for reuse rather
	// than exhausting the range permanently.
	used := map[model.Team]map[int]struct{}{
		model.TeamOrder:   {},
		model.TeamChaos:   {},
		model.TeamNeutral: {},
	}
	for _, snap := range d.registry {
		used[snap.ref.Team][snap.ref.Slot] = struct{}{}
	}

	for _, entry := range entries {
		team := model.ParseTeam(entry.Team)
		prev := d.registry[entry.SummonerName]

		slot := allocateSlot(used, team, prev)
		ref := model.PlayerRef{SummonerName: entry.SummonerName, Team: team, Slot: slot}

		snap := &playerSnapshot{
			ref:         ref,
			level:       clampLevel(entry.Level),
			currentGold: int32(entry.CurrentGold + 0.5),
			isDead:      entry.IsDead,
			items:       foldItems(entry.Items),
		}

		if d.seeded && prev != nil {
			events = append(events, diffPlayer(prev, snap, tsMs)...)
		}
		next[entry.SummonerName] = snap
	}

	d.registry = next
	d.seeded = true
	return events
}

func clampLevel(level int) uint8 {
	if level < 0 {
		return 0
	}
	if level > 255 {
		return 255
	}
	return uint8(level)
}

func foldItems(items []ItemEntry) map[uint32]itemState {
	folded := make(map[uint32]itemState)
	for _, item := range items {
		if item.ItemID == 0 {
			continue
		}
		state := folded[item.ItemID]
		state.count++
		if state.name == "" {
			state.name = item.Name
		}
		folded[item.ItemID] = state
	}
	return folded
}

// allocateSlot reuses a player's previous slot, or allocates one per
// spec.md §3's rule: Order from [0,4], Chaos from [5,9], Neutral from
// [0,9]; on exhaustion the first slot of the range is reused. used holds
// the slots occupied by the registry as of the start of this Apply call.
func allocateSlot(used map[model.Team]map[int]struct{}, team model.Team, prev *playerSnapshot) int {
	if prev != nil && prev.ref.Team == team {
		return prev.ref.Slot
	}
	lo, hi := slotRange(team)
	taken := used[team]
	for slot := lo; slot <= hi; slot++ {
		if _, ok := taken[slot]; !ok {
			taken[slot] = struct{}{}
			return slot
		}
	}
	return lo
}

func slotRange(team model.Team) (int, int) {
	switch team {
	case model.TeamOrder:
		return 0, 4
	case model.TeamChaos:
		return 5, 9
	default:
		return 0, 9
	}
}

func diffPlayer(prev, next *playerSnapshot, tsMs int64) []model.Event {
	var events []model.Event
	ref := next.ref

	if next.level > prev.level {
		events = append(events, model.Event{
			Kind: model.KindLevelUp, TS: model.NormalizeTS(tsMs), PayloadKind: model.PayloadKindPlayerLevel,
			Data: model.PlayerLevelPayload{Player: ref, Level: next.level},
		})
	}

	if next.currentGold != prev.currentGold {
		events = append(events, model.Event{
			Kind: model.KindGoldDelta, TS: model.NormalizeTS(tsMs), PayloadKind: model.PayloadKindPlayerGold,
			Data: model.PlayerGoldPayload{Player: ref, Delta: next.currentGold - prev.currentGold, Total: next.currentGold},
		})
	}

	if prev.isDead && !next.isDead {
		events = append(events, model.NewPlayerEvent(model.KindRespawn, tsMs, ref))
	}

	events = append(events, diffItems(ref, prev.items, next.items, tsMs)...)
	return events
}

func diffItems(ref model.PlayerRef, prev, next map[uint32]itemState, tsMs int64) []model.Event {
	var events []model.Event

	for id, nextState := range next {
		prevState, existed := prev[id]
		switch {
		case !existed:
			events = append(events, itemEvents(model.KindItemAdded, ref, id, nextState.name, int(nextState.count), tsMs)...)
		case nextState.count > prevState.count:
			name := preferName(nextState.name, prevState.name)
			events = append(events, itemEvents(model.KindItemAdded, ref, id, name, int(nextState.count-prevState.count), tsMs)...)
		case nextState.count < prevState.count:
			name := preferName(prevState.name, nextState.name)
			events = append(events, itemEvents(model.KindItemRemoved, ref, id, name, int(prevState.count-nextState.count), tsMs)...)
		}
	}
	for id, prevState := range prev {
		if _, stillPresent := next[id]; stillPresent {
			continue
		}
		events = append(events, itemEvents(model.KindItemRemoved, ref, id, prevState.name, int(prevState.count), tsMs)...)
	}
	return events
}

func preferName(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}

func itemEvents(kind model.Kind, ref model.PlayerRef, itemID uint32, name string, count int, tsMs int64) []model.Event {
	events := make([]model.Event, 0, count)
	for i := 0; i < count; i++ {
		events = append(events, model.Event{
			Kind: kind, TS: model.NormalizeTS(tsMs), PayloadKind: model.PayloadKindPlayerItem,
			Data: model.PlayerItemPayload{Player: ref, ItemID: itemID, ItemName: name},
		})
	}
	return events
}
