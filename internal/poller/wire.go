package poller

import (
	"encoding/json"

	"github.com/mrdeadlift/levents/internal/dedup"
	"github.com/mrdeadlift/levents/internal/differ"
)

type wirePlayer struct {
	SummonerName string     `json:"summonerName"`
	Team         string     `json:"team"`
	Level        int        `json:"level"`
	CurrentGold  float64    `json:"currentGold"`
	IsDead       bool       `json:"isDead"`
	Items        []wireItem `json:"items"`
}

type wireItem struct {
	ItemID      uint32 `json:"itemID"`
	DisplayName string `json:"displayName"`
	Count       int    `json:"count"`
}

func parsePlayerList(body []byte) ([]differ.RosterEntry, error) {
	var wire []wirePlayer
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	entries := make([]differ.RosterEntry, 0, len(wire))
	for _, p := range wire {
		items := make([]differ.ItemEntry, 0, len(p.Items))
		for _, item := range p.Items {
			count := item.Count
			if count <= 0 {
				count = 1
			}
			for i := 0; i < count; i++ {
				items = append(items, differ.ItemEntry{ItemID: item.ItemID, Name: item.DisplayName})
			}
		}
		entries = append(entries, differ.RosterEntry{
			SummonerName: p.SummonerName,
			Team:         p.Team,
			Level:        p.Level,
			CurrentGold:  p.CurrentGold,
			IsDead:       p.IsDead,
			Items:        items,
		})
	}
	return entries, nil
}

type wireEventLog struct {
	Events []wireRawEvent `json:"Events"`
}

type wireRawEvent struct {
	EventID      uint64   `json:"EventID"`
	EventName    string   `json:"EventName"`
	EventTime    float64  `json:"EventTime"`
	KillerName   string   `json:"KillerName"`
	VictimName   string   `json:"VictimName"`
	Assisters    []string `json:"Assisters"`
	SummonerName string   `json:"SummonerName"`
}

func parseEventLog(body []byte) ([]dedup.RawEvent, error) {
	var wire wireEventLog
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	raw := make([]dedup.RawEvent, 0, len(wire.Events))
	for _, e := range wire.Events {
		raw = append(raw, dedup.RawEvent{
			EventID:      e.EventID,
			EventName:    e.EventName,
			EventTime:    e.EventTime,
			KillerName:   e.KillerName,
			VictimName:   e.VictimName,
			Assisters:    e.Assisters,
			SummonerName: e.SummonerName,
		})
	}
	return raw, nil
}
