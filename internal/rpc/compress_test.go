package rpc

import (
	"reflect"
	"testing"

	"github.com/mrdeadlift/levents/internal/bus"
	"github.com/mrdeadlift/levents/internal/control"
	"github.com/mrdeadlift/levents/internal/model"
)

func TestServiceEncodeDecodeFrameRoundTrips(t *testing.T) {
	svc := NewService(bus.New(), control.New(bus.New(), nil))
	event := model.NewPlayerEvent(model.KindKill, 1200, model.PlayerRef{
		SummonerName: "Alpha",
		Team:         model.TeamOrder,
	})

	frame, err := svc.EncodeFrame(&event)
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}
	if len(frame) == 0 {
		t.Fatalf("expected non-empty compressed frame")
	}

	decoded, err := svc.DecodeFrame(frame)
	if err != nil {
		t.Fatalf("unexpected decode error: %v", err)
	}
	if decoded.Kind != event.Kind || decoded.TS != event.TS {
		t.Fatalf("decoded event mismatch: got %+v, want %+v", decoded, event)
	}
	payload, ok := decoded.Data.(model.PlayerPayload)
	if !ok {
		t.Fatalf("expected PlayerPayload, got %T", decoded.Data)
	}
	if !reflect.DeepEqual(payload.Player, model.PlayerRef{SummonerName: "Alpha", Team: model.TeamOrder}) {
		t.Fatalf("unexpected player payload: %+v", payload.Player)
	}
}

func TestGZIPCompressorRejectsEmptyPayload(t *testing.T) {
	c := NewGZIPCompressor()
	if _, err := c.Decompress(nil); err == nil {
		t.Fatalf("expected error decompressing empty payload")
	}
}
