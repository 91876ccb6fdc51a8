package differ

import (
	"testing"

	"github.com/mrdeadlift/levents/internal/model"
)

func TestFirstApplyEstablishesBaselineWithNoEvents(t *testing.T) {
	d := New()
	events := d.Apply([]RosterEntry{
		{SummonerName: "Alpha", Team: "ORDER", Level: 1, CurrentGold: 500},
	}, 0)
	if len(events) != 0 {
		t.Fatalf("expected no events on baseline application, got %v", events)
	}
}

func TestIdenticalSnapshotsEmitNothing(t *testing.T) {
	d := New()
	entries := []RosterEntry{{SummonerName: "Alpha", Team: "ORDER", Level: 1, CurrentGold: 500}}
	d.Apply(entries, 0)
	events := d.Apply(entries, 100)
	if len(events) != 0 {
		t.Fatalf("expected no events for unchanged snapshot, got %v", events)
	}
}

func TestDifferScenario5(t *testing.T) {
	d := New()
	baseline := []RosterEntry{
		{SummonerName: "Alpha", Team: "ORDER", Level: 1, CurrentGold: 500},
		{SummonerName: "Bravo", Team: "CHAOS", Level: 1, CurrentGold: 300},
	}
	d.Apply(baseline, 0)

	update := []RosterEntry{
		{SummonerName: "Alpha", Team: "ORDER", Level: 2, CurrentGold: 650, Items: []ItemEntry{{ItemID: 1055}}},
		{SummonerName: "Bravo", Team: "CHAOS", Level: 1, CurrentGold: 300},
	}
	events := d.Apply(update, 1000)

	var levelUps, goldDeltas, itemAdds int
	for _, e := range events {
		switch e.Kind {
		case model.KindLevelUp:
			levelUps++
			payload := e.Data.(model.PlayerLevelPayload)
			if payload.Player.SummonerName != "Alpha" || payload.Level != 2 {
				t.Fatalf("unexpected level up payload: %+v", payload)
			}
		case model.KindGoldDelta:
			goldDeltas++
			payload := e.Data.(model.PlayerGoldPayload)
			if payload.Delta != 150 || payload.Total != 650 {
				t.Fatalf("unexpected gold delta payload: %+v", payload)
			}
		case model.KindItemAdded:
			itemAdds++
			payload := e.Data.(model.PlayerItemPayload)
			if payload.ItemID != 1055 {
				t.Fatalf("unexpected item payload: %+v", payload)
			}
		default:
			t.Fatalf("unexpected event kind: %v", e.Kind)
		}
	}
	if levelUps != 1 || goldDeltas != 1 || itemAdds != 1 {
		t.Fatalf("expected 1 each of levelup/gold/item, got %d/%d/%d", levelUps, goldDeltas, itemAdds)
	}
}

func TestSlotStableAcrossLifetime(t *testing.T) {
	d := New()
	d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER"}}, 0)
	first := d.registry["Alpha"].ref.Slot

	d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER"}}, 1)
	second := d.registry["Alpha"].ref.Slot

	if first != second {
		t.Fatalf("expected stable slot, got %d then %d", first, second)
	}
}

func TestRespawnEmittedOnDeadToAlive(t *testing.T) {
	d := New()
	d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER", IsDead: true}}, 0)
	events := d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER", IsDead: false}}, 10)
	if len(events) != 1 || events[0].Kind != model.KindRespawn {
		t.Fatalf("expected single Respawn event, got %v", events)
	}
}

func TestItemRemovedWhenDroppedEntirely(t *testing.T) {
	d := New()
	d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER", Items: []ItemEntry{{ItemID: 42}}}}, 0)
	events := d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER"}}, 10)
	if len(events) != 1 || events[0].Kind != model.KindItemRemoved {
		t.Fatalf("expected single ItemRemoved event, got %v", events)
	}
}

func TestItemZeroDiscarded(t *testing.T) {
	d := New()
	d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER", Items: []ItemEntry{{ItemID: 0}}}}, 0)
	events := d.Apply([]RosterEntry{{SummonerName: "Alpha", Team: "ORDER", Items: []ItemEntry{{ItemID: 0}}}}, 10)
	if len(events) != 0 {
		t.Fatalf("expected id-0 items to be discarded entirely, got %v", events)
	}
}
