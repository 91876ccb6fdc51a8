// Package bus implements the Fan-Out Bus: a bounded broadcast channel with
// per-subscriber kind filters, lossy on lag with explicit lag notification.
// Grounded in the subscriber-registration and publish-fan-out machinery of
// a broadcast event stream, redesigned for spec.md §4.8's semantics: no
// replay on subscribe, no ack, and a slow subscriber loses events rather
// than stalling the publisher — the opposite of an at-least-once log.
package bus

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/mrdeadlift/levents/internal/model"
)

// Capacity is the bounded ring size per subscriber, per spec.md §4.8.
const Capacity = 256

// Delivery is what a subscriber receives: either an Event or, if the
// subscriber lagged, a Lagged marker naming how many events were dropped.
// Exactly one of Event/Lagged is non-nil.
type Delivery struct {
	Event  *model.Event
	Lagged *Lagged
}

// Lagged signals that the subscriber's buffer overflowed and skipped
// events were dropped; the subscriber remains attached.
type Lagged struct {
	Skipped int
}

// Bus is the process-internal broadcast channel. The zero value is not
// usable; construct with New.
type Bus struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	log         logFunc
}

// logFunc lets callers observe drop/lag events without this package
// depending on the logging package's concrete type.
type logFunc func(event string, fields map[string]any)

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithLogFunc installs a trace/debug sink for drop and lag notifications.
func WithLogFunc(fn func(event string, fields map[string]any)) Option {
	return func(b *Bus) { b.log = fn }
}

// New constructs an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{subscribers: make(map[string]*subscriber)}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Subscribe registers a new subscriber with an optional kind filter; an
// empty filter means "all kinds". The returned cancel function unregisters
// the subscriber; it is also unregistered automatically when ctx is done.
func (b *Bus) Subscribe(ctx context.Context, filter []model.Kind) (<-chan Delivery, func()) {
	sub := newSubscriber(filter)

	b.mu.Lock()
	b.subscribers[sub.id] = sub
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subscribers, sub.id)
			b.mu.Unlock()
			sub.close()
		})
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			cancel()
		}()
	}

	out := make(chan Delivery)
	go sub.pump(out)
	return out, cancel
}

// Publish delivers event to every subscriber whose filter admits its kind.
// If no subscribers exist, the event is silently dropped. Publishers never
// block: a subscriber whose buffer is full drops the event and is told so
// on its next receive via a Lagged marker.
func (b *Bus) Publish(event model.Event) {
	b.mu.Lock()
	subs := make([]*subscriber, 0, len(b.subscribers))
	for _, sub := range b.subscribers {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	if len(subs) == 0 {
		b.trace("bus_publish_dropped_no_subscribers", map[string]any{"kind": string(event.Kind)})
		return
	}
	for _, sub := range subs {
		if !sub.admits(event.Kind) {
			continue
		}
		if dropped := sub.push(event); dropped {
			b.trace("bus_subscriber_lagged", map[string]any{"subscriber": sub.id, "kind": string(event.Kind)})
		}
	}
}

func (b *Bus) trace(name string, fields map[string]any) {
	if b.log != nil {
		b.log(name, fields)
	}
}

type subscriber struct {
	id     string
	filter map[model.Kind]struct{}

	mu     sync.Mutex
	ring   []model.Event
	head   int
	count  int
	lagged int
	notify chan struct{}
	done   chan struct{}
	closed bool
}

func newSubscriber(filter []model.Kind) *subscriber {
	var filterSet map[model.Kind]struct{}
	if len(filter) > 0 {
		filterSet = make(map[model.Kind]struct{}, len(filter))
		for _, kind := range filter {
			filterSet[kind] = struct{}{}
		}
	}
	return &subscriber{
		id:     uuid.NewString(),
		filter: filterSet,
		ring:   make([]model.Event, Capacity),
		notify: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
}

func (s *subscriber) admits(kind model.Kind) bool {
	if len(s.filter) == 0 {
		return true
	}
	_, ok := s.filter[kind]
	return ok
}

// push enqueues event, dropping the oldest buffered entry and recording a
// lag if the ring is already full. Returns true if a drop occurred.
func (s *subscriber) push(event model.Event) bool {
	s.mu.Lock()
	dropped := false
	if s.count == Capacity {
		s.head = (s.head + 1) % Capacity
		s.count--
		s.lagged++
		dropped = true
	}
	s.ring[(s.head+s.count)%Capacity] = event
	s.count++
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
	return dropped
}

func (s *subscriber) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	close(s.done)
}

// pump drains the ring into out, reporting a Lagged marker before
// resuming with the next still-buffered event whenever an overflow
// occurred.
func (s *subscriber) pump(out chan<- Delivery) {
	defer close(out)
	for {
		delivery, ok := s.next()
		if !ok {
			select {
			case <-s.done:
				return
			case <-s.notify:
				continue
			}
		}
		select {
		case out <- delivery:
		case <-s.done:
			return
		}
	}
}

func (s *subscriber) next() (Delivery, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lagged > 0 {
		skipped := s.lagged
		s.lagged = 0
		return Delivery{Lagged: &Lagged{Skipped: skipped}}, true
	}
	if s.count == 0 {
		return Delivery{}, false
	}
	event := s.ring[s.head]
	s.head = (s.head + 1) % Capacity
	s.count--
	return Delivery{Event: &event}, true
}
