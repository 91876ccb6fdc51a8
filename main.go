package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrdeadlift/levents/internal/bus"
	"github.com/mrdeadlift/levents/internal/config"
	"github.com/mrdeadlift/levents/internal/control"
	"github.com/mrdeadlift/levents/internal/governor"
	"github.com/mrdeadlift/levents/internal/lockfile"
	"github.com/mrdeadlift/levents/internal/logging"
	"github.com/mrdeadlift/levents/internal/model"
	"github.com/mrdeadlift/levents/internal/phasewatcher"
	"github.com/mrdeadlift/levents/internal/poller"
	"github.com/mrdeadlift/levents/internal/rpc"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize structured logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", logging.String("signal", sig.String()))
		cancel()
	}()

	eventBus := bus.New(bus.WithLogFunc(func(event string, fields map[string]any) {
		attrs := make([]logging.Field, 0, len(fields))
		for k, v := range fields {
			attrs = append(attrs, logging.Field{Key: k, Value: v})
		}
		logger.Debug(event, attrs...)
	}))

	livePoller := poller.New(cfg.LiveBaseURL, logger.With(logging.String("component", "poller")),
		poller.WithGovernorOptions(
			governor.WithIntervals(cfg.PollIntervalCombat, cfg.PollIntervalNormal, cfg.PollIntervalIdle),
			governor.WithCooldowns(cfg.CombatCooldown, cfg.IdleCooldown),
			governor.WithErrorBackoff(cfg.ErrorBackoff),
		),
	)

	candidates := lockfile.CandidatePaths(cfg.LCULockfile, cfg.LCULockfileEnvOverride)
	watcher := phasewatcher.New(candidates, logger.With(logging.String("component", "phasewatcher")),
		phasewatcher.WithDiscoveryInterval(cfg.LCUDiscoveryInterval),
		phasewatcher.WithRetryDelay(cfg.LCURetryDelay),
	)

	go fanInBatches(ctx, livePoller.Run(ctx), eventBus)
	go fanInEvents(ctx, watcher.Run(ctx), eventBus)

	controlSurface := control.New(eventBus, logger.With(logging.String("component", "control")))
	rpcService := rpc.NewService(eventBus, controlSurface)

	server, err := rpc.NewServer(cfg, logger.With(logging.String("component", "rpc")), rpcService)
	if err != nil {
		logger.Fatal("failed to bind rpc surface", logging.Error(err))
	}
	logger.Info("rpc surface listening", logging.String("address", server.Addr))

	if err := server.Serve(ctx); err != nil {
		logger.Fatal("rpc server terminated", logging.Error(err))
	}
}

func fanInBatches(ctx context.Context, in <-chan model.EventBatch, out *bus.Bus) {
	for {
		select {
		case batch, ok := <-in:
			if !ok {
				return
			}
			for _, event := range batch {
				out.Publish(event)
			}
		case <-ctx.Done():
			return
		}
	}
}

func fanInEvents(ctx context.Context, in <-chan model.Event, out *bus.Bus) {
	for {
		select {
		case event, ok := <-in:
			if !ok {
				return
			}
			out.Publish(event)
		case <-ctx.Done():
			return
		}
	}
}
