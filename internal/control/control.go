// Package control implements the Control Surface: the one inbound operation
// subscribers can use to inject a synthetic event into the stream, for
// testing and automation. Grounded in the broker bridge's decode-validate-
// publish pipeline.
package control

import (
	"errors"
	"strings"

	"github.com/mrdeadlift/levents/internal/bus"
	"github.com/mrdeadlift/levents/internal/logging"
	"github.com/mrdeadlift/levents/internal/model"
)

// ErrInvalidArgument is returned when the caller-supplied argument fails
// validation; callers surface this as InvalidArgument on the RPC surface.
var ErrInvalidArgument = errors.New("invalid argument")

// Result reports the outcome of a control operation.
type Result struct {
	Accepted bool
	Message  string
}

// Surface publishes synthetic events onto the fan-out bus on behalf of
// subscribers exercising the daemon outside a live game session.
type Surface struct {
	bus    *bus.Bus
	logger *logging.Logger
}

// New constructs a Surface that publishes through bus.
func New(b *bus.Bus, logger *logging.Logger) *Surface {
	return &Surface{bus: b, logger: logger}
}

// EmitSyntheticKill publishes a Kill event for summonerName. An empty name
// is rejected with ErrInvalidArgument; nothing is published in that case.
func (s *Surface) EmitSyntheticKill(summonerName string) (Result, error) {
	name := strings.TrimSpace(summonerName)
	if name == "" {
		return Result{}, ErrInvalidArgument
	}

	ref := model.PlayerRef{SummonerName: name, Team: model.TeamOrder, Slot: 0}
	event := model.NewPlayerEvent(model.KindKill, 0, ref)
	s.bus.Publish(event)

	if s.logger != nil {
		s.logger.Info("synthetic kill emitted", logging.String("summoner_name", name))
	}

	return Result{Accepted: true, Message: "synthetic kill emitted for " + name}, nil
}
