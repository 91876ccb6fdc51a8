// Package model defines the normalized event stream shared by every
// producer (poller, phase watcher, control surface) and every consumer
// (fan-out bus subscribers, RPC surface).
package model

import (
	"encoding/json"
	"fmt"
)

// Team identifies which side a player belongs to within a session.
type Team string

const (
	TeamOrder   Team = "order"
	TeamChaos   Team = "chaos"
	TeamNeutral Team = "neutral"
)

// ParseTeam maps a wire team string to Team, defaulting unknown values to Neutral.
func ParseTeam(raw string) Team {
	switch raw {
	case "ORDER", "Order", "order":
		return TeamOrder
	case "CHAOS", "Chaos", "chaos":
		return TeamChaos
	default:
		return TeamNeutral
	}
}

// PlayerRef is the normalized identity carried by every player-scoped event.
type PlayerRef struct {
	SummonerName string `json:"summonerName"`
	Team         Team   `json:"team"`
	Slot         int    `json:"slot"`
}

// Kind discriminates the variant carried by an Event's payload.
type Kind string

const (
	KindKill         Kind = "Kill"
	KindDeath        Kind = "Death"
	KindAssist       Kind = "Assist"
	KindLevelUp      Kind = "LevelUp"
	KindSkillLevelUp Kind = "SkillLevelUp"
	KindItemAdded    Kind = "ItemAdded"
	KindItemRemoved  Kind = "ItemRemoved"
	KindGoldDelta    Kind = "GoldDelta"
	KindRespawn      Kind = "Respawn"
	KindPhaseChange  Kind = "PhaseChange"
	KindHeartbeat    Kind = "Heartbeat"
)

// PayloadKind names the concrete shape of Event.Data.
type PayloadKind string

const (
	PayloadKindPlayer      PayloadKind = "player"
	PayloadKindPlayerLevel PayloadKind = "playerLevel"
	PayloadKindPlayerGold  PayloadKind = "playerGold"
	PayloadKindPlayerItem  PayloadKind = "playerItem"
	PayloadKindPhase       PayloadKind = "phase"
	PayloadKindHeartbeat   PayloadKind = "heartbeat"
	PayloadKindCustom      PayloadKind = "custom"
)

// PlayerPayload backs Kill, Death, Assist, and Respawn events.
type PlayerPayload struct {
	Player PlayerRef `json:"player"`
}

// PlayerLevelPayload backs LevelUp and SkillLevelUp events.
type PlayerLevelPayload struct {
	Player PlayerRef `json:"player"`
	Level  uint8     `json:"level"`
}

// PlayerGoldPayload backs GoldDelta events.
type PlayerGoldPayload struct {
	Player PlayerRef `json:"player"`
	Delta  int32     `json:"delta"`
	Total  int32     `json:"total"`
}

// PlayerItemPayload backs ItemAdded and ItemRemoved events.
type PlayerItemPayload struct {
	Player   PlayerRef `json:"player"`
	ItemID   uint32    `json:"itemId"`
	ItemName string    `json:"itemName,omitempty"`
}

// PhasePayload backs PhaseChange events.
type PhasePayload struct {
	Phase string `json:"phase"`
}

// HeartbeatPayload backs Heartbeat events.
type HeartbeatPayload struct {
	Seq uint64 `json:"seq"`
}

// CustomPayload is the free-form payload variant (payloadKind "custom"). The
// event-log normalizer does not produce it: unrecognised event names are dropped.
type CustomPayload map[string]any

// Event is a single normalized occurrence observed from either live-data feed.
// ts is a millisecond timestamp; it is never negative (non-finite or negative
// source timestamps coerce to 0, per the game client's own quirks).
type Event struct {
	Kind        Kind        `json:"kind"`
	TS          int64       `json:"ts"`
	PayloadKind PayloadKind `json:"payloadKind"`
	Data        any         `json:"data"`
}

// NewPlayerEvent builds a Kill/Death/Assist/Respawn event.
func NewPlayerEvent(kind Kind, ts int64, player PlayerRef) Event {
	return Event{Kind: kind, TS: NormalizeTS(ts), PayloadKind: PayloadKindPlayer, Data: PlayerPayload{Player: player}}
}

// NormalizeTS clamps negative timestamps to 0, per spec.md §3's invariant.
func NormalizeTS(ts int64) int64 {
	if ts < 0 {
		return 0
	}
	return ts
}

// EventBatch is an ordered, atomically-delivered sequence of Event.
type EventBatch []Event

type wireEvent struct {
	Kind        Kind            `json:"kind"`
	TS          int64           `json:"ts"`
	PayloadKind PayloadKind     `json:"payloadKind"`
	Data        json.RawMessage `json:"data"`
}

// MarshalJSON renders the event with the camelCase schema spec.md §6 names.
func (e Event) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(e.Data)
	if err != nil {
		return nil, fmt.Errorf("marshal event data: %w", err)
	}
	return json.Marshal(wireEvent{Kind: e.Kind, TS: e.TS, PayloadKind: e.PayloadKind, Data: data})
}

// UnmarshalJSON dispatches on payloadKind to decode Data into its concrete type.
func (e *Event) UnmarshalJSON(raw []byte) error {
	var wire wireEvent
	if err := json.Unmarshal(raw, &wire); err != nil {
		return fmt.Errorf("unmarshal event envelope: %w", err)
	}
	e.Kind = wire.Kind
	e.TS = wire.TS
	e.PayloadKind = wire.PayloadKind

	switch wire.PayloadKind {
	case PayloadKindPlayer:
		var payload PlayerPayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal player payload: %w", err)
		}
		e.Data = payload
	case PayloadKindPlayerLevel:
		var payload PlayerLevelPayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal player level payload: %w", err)
		}
		e.Data = payload
	case PayloadKindPlayerGold:
		var payload PlayerGoldPayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal player gold payload: %w", err)
		}
		e.Data = payload
	case PayloadKindPlayerItem:
		var payload PlayerItemPayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal player item payload: %w", err)
		}
		e.Data = payload
	case PayloadKindPhase:
		var payload PhasePayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal phase payload: %w", err)
		}
		e.Data = payload
	case PayloadKindHeartbeat:
		var payload HeartbeatPayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal heartbeat payload: %w", err)
		}
		e.Data = payload
	case PayloadKindCustom:
		var payload CustomPayload
		if err := json.Unmarshal(wire.Data, &payload); err != nil {
			return fmt.Errorf("unmarshal custom payload: %w", err)
		}
		e.Data = payload
	default:
		return fmt.Errorf("unknown payload kind %q", wire.PayloadKind)
	}
	return nil
}
