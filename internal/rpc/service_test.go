package rpc

import (
	"context"
	"testing"
	"time"

	"github.com/mrdeadlift/levents/internal/bus"
	"github.com/mrdeadlift/levents/internal/config"
	"github.com/mrdeadlift/levents/internal/control"
	"github.com/mrdeadlift/levents/internal/model"
)

func TestServiceSubscribeAndEmitSyntheticKill(t *testing.T) {
	b := bus.New()
	surface := control.New(b, nil)
	svc := NewService(b, surface)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, unsubscribe := svc.Subscribe(ctx, nil)
	defer unsubscribe()

	result, err := svc.EmitSyntheticKill("Alpha")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("expected accepted result")
	}

	select {
	case delivery := <-ch:
		if delivery.Event == nil || delivery.Event.Kind != model.KindKill {
			t.Fatalf("expected Kill event, got %+v", delivery)
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for delivery")
	}
}

func TestEmitSyntheticKillInvalidArgument(t *testing.T) {
	b := bus.New()
	svc := NewService(b, control.New(b, nil))
	if _, err := svc.EmitSyntheticKill(""); err != control.ErrInvalidArgument {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestNewServerBindsConfiguredAddress(t *testing.T) {
	cfg := &config.Config{GRPCAddr: "127.0.0.1:0"}
	b := bus.New()
	svc := NewService(b, control.New(b, nil))
	server, err := NewServer(cfg, nil, svc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer server.GRPC.Stop()

	if server.Listener.Addr().String() == "" {
		t.Fatalf("expected a bound listener address")
	}
	if server.Service != svc {
		t.Fatalf("expected server to retain the provided service")
	}
}
