package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/mrdeadlift/levents/internal/bus"
	"github.com/mrdeadlift/levents/internal/config"
	"github.com/mrdeadlift/levents/internal/control"
	"github.com/mrdeadlift/levents/internal/logging"
	"github.com/mrdeadlift/levents/internal/model"
)

// Service implements the two hooks spec.md §6 names for the RPC surface.
// The wire stubs that would dispatch a generated EventStreamServer/
// ControlServer onto these methods are an external collaborator (§1);
// Service is what they call into.
type Service struct {
	bus        *bus.Bus
	control    *control.Surface
	compressor Compressor
}

// NewService wires the RPC surface to the fan-out bus and control surface.
func NewService(b *bus.Bus, c *control.Surface) *Service {
	return &Service{bus: b, control: c, compressor: NewGZIPCompressor()}
}

// EncodeFrame marshals and compresses an event for transmission on the
// Subscribe stream. A generated wire stub calls this once per delivery
// before writing the frame to its client.
func (s *Service) EncodeFrame(event *model.Event) ([]byte, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("marshal event frame: %w", err)
	}
	return s.compressor.Compress(raw)
}

// DecodeFrame reverses EncodeFrame, used by tests and by any client-side
// counterpart to the wire stub.
func (s *Service) DecodeFrame(frame []byte) (*model.Event, error) {
	raw, err := s.compressor.Decompress(frame)
	if err != nil {
		return nil, fmt.Errorf("decompress event frame: %w", err)
	}
	var event model.Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return nil, fmt.Errorf("unmarshal event frame: %w", err)
	}
	return &event, nil
}

// Subscribe registers a filtered subscription against the fan-out bus.
// The returned channel and cancel func mirror exactly what a generated
// server-streaming handler would forward to an RPC client.
func (s *Service) Subscribe(ctx context.Context, filter []model.Kind) (<-chan bus.Delivery, func()) {
	return s.bus.Subscribe(ctx, filter)
}

// EmitSyntheticKill implements Control.EmitSyntheticKill.
func (s *Service) EmitSyntheticKill(summonerName string) (control.Result, error) {
	return s.control.EmitSyntheticKill(summonerName)
}

// Server bundles a bound listener and a configured *grpc.Server, ready for
// a generated service registration and Serve(). Service is the adapter a
// generated wire stub dispatches Subscribe/Control calls onto.
type Server struct {
	GRPC     *grpc.Server
	Listener net.Listener
	Addr     string
	Service  *Service
}

// NewServer binds cfg.GRPCAddr and constructs a *grpc.Server with the
// configured transport security applied. A standard health service
// is registered so the bound server is independently verifiable even
// before any domain-specific wire stub is registered onto it.
func NewServer(cfg *config.Config, logger *logging.Logger, svc *Service) (*Server, error) {
	opts, err := ConfigureSecurity(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("configure rpc security: %w", err)
	}

	listener, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", cfg.GRPCAddr, err)
	}

	server := grpc.NewServer(opts...)
	healthServer := health.NewServer()
	healthServer.SetServingStatus("levents", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)

	return &Server{GRPC: server, Listener: listener, Addr: cfg.GRPCAddr, Service: svc}, nil
}

// Serve blocks until the server stops or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.GRPC.Serve(s.Listener) }()

	select {
	case <-ctx.Done():
		s.GRPC.GracefulStop()
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}
