package model

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseTeam(t *testing.T) {
	cases := map[string]Team{
		"ORDER":   TeamOrder,
		"CHAOS":   TeamChaos,
		"":        TeamNeutral,
		"bogus":   TeamNeutral,
		"Neutral": TeamNeutral,
	}
	for raw, want := range cases {
		if got := ParseTeam(raw); got != want {
			t.Fatalf("ParseTeam(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestNormalizeTS(t *testing.T) {
	if NormalizeTS(-5) != 0 {
		t.Fatalf("expected negative ts to coerce to 0")
	}
	if NormalizeTS(42) != 42 {
		t.Fatalf("expected non-negative ts to pass through unchanged")
	}
}

func TestEventRoundTrip(t *testing.T) {
	cases := []Event{
		NewPlayerEvent(KindKill, 12500, PlayerRef{SummonerName: "Alpha", Team: TeamOrder, Slot: 0}),
		{Kind: KindLevelUp, TS: 10, PayloadKind: PayloadKindPlayerLevel, Data: PlayerLevelPayload{
			Player: PlayerRef{SummonerName: "Alpha", Team: TeamOrder, Slot: 0}, Level: 2,
		}},
		{Kind: KindGoldDelta, TS: 10, PayloadKind: PayloadKindPlayerGold, Data: PlayerGoldPayload{
			Player: PlayerRef{SummonerName: "Alpha", Team: TeamOrder, Slot: 0}, Delta: 150, Total: 650,
		}},
		{Kind: KindItemAdded, TS: 10, PayloadKind: PayloadKindPlayerItem, Data: PlayerItemPayload{
			Player: PlayerRef{SummonerName: "Alpha", Team: TeamOrder, Slot: 0}, ItemID: 1055, ItemName: "Doran's Blade",
		}},
		{Kind: KindPhaseChange, TS: 0, PayloadKind: PayloadKindPhase, Data: PhasePayload{Phase: "ChampSelect"}},
		{Kind: KindHeartbeat, TS: 0, PayloadKind: PayloadKindHeartbeat, Data: HeartbeatPayload{Seq: 7}},
	}

	for _, original := range cases {
		encoded, err := json.Marshal(original)
		if err != nil {
			t.Fatalf("marshal %v: %v", original.Kind, err)
		}
		var decoded Event
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			t.Fatalf("unmarshal %v: %v", original.Kind, err)
		}
		if !reflect.DeepEqual(original, decoded) {
			t.Fatalf("round trip mismatch for %v: got %#v, want %#v", original.Kind, decoded, original)
		}
	}
}

func TestEventJSONSchemaKeys(t *testing.T) {
	event := NewPlayerEvent(KindKill, 1, PlayerRef{SummonerName: "Alpha", Team: TeamOrder, Slot: 0})
	encoded, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	for _, key := range []string{"kind", "ts", "payloadKind", "data"} {
		if _, ok := generic[key]; !ok {
			t.Fatalf("expected wire key %q in %s", key, encoded)
		}
	}
	data, ok := generic["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object, got %T", generic["data"])
	}
	player, ok := data["player"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested player object")
	}
	if player["team"] != "order" {
		t.Fatalf("expected team to serialize as %q, got %v", "order", player["team"])
	}
}
