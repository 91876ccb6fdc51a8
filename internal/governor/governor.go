// Package governor implements the Activity Governor: a three-state machine
// (Combat, Normal, Idle) driving the next poll delay. Grounded in the
// injectable-clock, elapsed-time-threshold idiom used to time respawn
// cooldowns: an Option-configured struct holding a `now func() time.Time`
// so tests can rewind activity without sleeping.
package governor

import "time"

// State is one of the Activity Governor's three poll-cadence states.
type State int

const (
	Idle State = iota
	Normal
	Combat
)

func (s State) String() string {
	switch s {
	case Combat:
		return "combat"
	case Normal:
		return "normal"
	default:
		return "idle"
	}
}

// Option configures optional Governor parameters at construction time,
// matching the functional-options idiom used throughout this codebase.
type Option func(*Governor)

// WithClock injects a deterministic clock, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(g *Governor) {
		if clock != nil {
			g.now = clock
		}
	}
}

// WithIntervals overrides the three poll cadences.
func WithIntervals(combat, normal, idle time.Duration) Option {
	return func(g *Governor) {
		if combat > 0 {
			g.pollCombat = combat
		}
		if normal > 0 {
			g.pollNormal = normal
		}
		if idle > 0 {
			g.pollIdle = idle
		}
	}
}

// WithCooldowns overrides the demotion thresholds.
func WithCooldowns(combatCooldown, idleCooldown time.Duration) Option {
	return func(g *Governor) {
		if combatCooldown > 0 {
			g.combatCooldown = combatCooldown
		}
		if idleCooldown > 0 {
			g.idleCooldown = idleCooldown
		}
	}
}

// WithErrorBackoff overrides the on-error delay.
func WithErrorBackoff(backoff time.Duration) Option {
	return func(g *Governor) {
		if backoff > 0 {
			g.errorBackoff = backoff
		}
	}
}

// Governor tracks activity state and computes the next poll delay.
// Defaults match spec.md §4.5: pollCombat=150ms, pollNormal=750ms,
// pollIdle=1500ms, combatCooldown=5s, idleCooldown=20s, errorBackoff=1s.
type Governor struct {
	now func() time.Time

	pollCombat     time.Duration
	pollNormal     time.Duration
	pollIdle       time.Duration
	combatCooldown time.Duration
	idleCooldown   time.Duration
	errorBackoff   time.Duration

	state        State
	lastActivity time.Time
}

// New constructs a Governor in the initial Idle state.
func New(opts ...Option) *Governor {
	g := &Governor{
		now:            time.Now,
		pollCombat:     150 * time.Millisecond,
		pollNormal:     750 * time.Millisecond,
		pollIdle:       1500 * time.Millisecond,
		combatCooldown: 5 * time.Second,
		idleCooldown:   20 * time.Second,
		errorBackoff:   time.Second,
		state:          Idle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	g.lastActivity = g.now()
	return g
}

// State reports the governor's current activity state.
func (g *Governor) State() State { return g.state }

// OnPoll evaluates a completed poll's result and returns the next delay.
func (g *Governor) OnPoll(producedEvents bool) time.Duration {
	now := g.now()

	switch {
	case producedEvents:
		g.state = Combat
		g.lastActivity = now
	case g.state == Combat && now.Sub(g.lastActivity) >= g.combatCooldown:
		g.state = Normal
		g.lastActivity = now
	case g.state == Normal && now.Sub(g.lastActivity) >= g.idleCooldown:
		g.state = Idle
		g.lastActivity = now
	}

	return g.intervalFor(g.state)
}

// OnError forces Idle and returns the fixed error backoff.
func (g *Governor) OnError() time.Duration {
	g.state = Idle
	g.lastActivity = g.now()
	return g.errorBackoff
}

func (g *Governor) intervalFor(state State) time.Duration {
	switch state {
	case Combat:
		return g.pollCombat
	case Normal:
		return g.pollNormal
	default:
		return g.pollIdle
	}
}
