package docstore

import (
	"context"
	"sync"
)

type event[T any] struct {
	value T
	err   error
}

// subscription delivers events in order on its own goroutine so drivers can
// publish while holding their locks. stop drops queued events and every
// callback rechecks it first; only a callback already under way when stop
// is called, including one that calls stop itself, still completes.
type subscription[T any] struct {
	onValue func(T)
	onError func(error)

	mu      sync.Mutex
	queue   []event[T]
	stopped bool
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newSubscription[T any](onValue func(T), onError func(error)) *subscription[T] {
	s := &subscription[T]{
		onValue: onValue,
		onError: onError,
		signal:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *subscription[T]) push(ev event[T]) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, ev)
	s.mu.Unlock()

	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *subscription[T]) next() (event[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || len(s.queue) == 0 {
		return event[T]{}, false
	}
	ev := s.queue[0]
	s.queue = s.queue[1:]
	return ev, true
}

func (s *subscription[T]) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped
}

func (s *subscription[T]) run() {
	for {
		select {
		case <-s.done:
			return
		case <-s.signal:
		}
		for {
			ev, ok := s.next()
			if !ok {
				break
			}
			s.deliver(ev)
		}
	}
}

func (s *subscription[T]) deliver(ev event[T]) {
	if !s.active() {
		return
	}
	if ev.err != nil {
		if s.onError != nil {
			s.onError(ev.err)
		}
		return
	}
	if s.onValue != nil {
		s.onValue(ev.value)
	}
}

func (s *subscription[T]) stop() {
	s.once.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.queue = nil
		s.mu.Unlock()
		close(s.done)
	})
}

// hub fans events out to subscriptions grouped by key.
type hub[T any] struct {
	mu   sync.RWMutex
	subs map[string]map[*subscription[T]]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[string]map[*subscription[T]]struct{})}
}

func (h *hub[T]) subscribe(key string, onValue func(T), onError func(error)) (*subscription[T], Unsubscribe) {
	sub := newSubscription(onValue, onError)

	h.mu.Lock()
	if h.subs[key] == nil {
		h.subs[key] = make(map[*subscription[T]]struct{})
	}
	h.subs[key][sub] = struct{}{}
	h.mu.Unlock()

	return sub, func() {
		sub.stop()
		h.mu.Lock()
		if current := h.subs[key]; current != nil {
			delete(current, sub)
			if len(current) == 0 {
				delete(h.subs, key)
			}
		}
		h.mu.Unlock()
	}
}

// subscribeLoaded registers the subscription before waiting for ready and
// loading the first snapshot, so a change published meanwhile still reaches
// it. The load runs under mu; drivers hold the same mutex around every
// reload and publish, which keeps snapshots in load order.
func subscribeLoaded[T any](
	ctx context.Context,
	h *hub[T],
	key string,
	mu *sync.Mutex,
	ready func(context.Context) error,
	load func(context.Context) (T, error),
	onValue func(T),
	onError func(error),
) (Unsubscribe, error) {
	sub, unsubscribe := h.subscribe(key, onValue, onError)
	if ready != nil {
		if err := ready(ctx); err != nil {
			unsubscribe()
			return nil, err
		}
	}

	mu.Lock()
	defer mu.Unlock()
	value, err := load(ctx)
	if err != nil {
		unsubscribe()
		return nil, err
	}
	sub.push(event[T]{value: value})
	return unsubscribe, nil
}

func (h *hub[T]) snapshot(key string) []*subscription[T] {
	h.mu.RLock()
	defer h.mu.RUnlock()
	subs := make([]*subscription[T], 0, len(h.subs[key]))
	for sub := range h.subs[key] {
		subs = append(subs, sub)
	}
	return subs
}

func (h *hub[T]) publish(key string, value T) {
	for _, sub := range h.snapshot(key) {
		sub.push(event[T]{value: value})
	}
}

func (h *hub[T]) fail(key string, err error) {
	for _, sub := range h.snapshot(key) {
		sub.push(event[T]{err: err})
	}
}

func (h *hub[T]) has(key string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[key]) > 0
}

func (h *hub[T]) keys() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.subs))
	for key := range h.subs {
		out = append(out, key)
	}
	return out
}

func (h *hub[T]) closeAll() {
	h.mu.Lock()
	all := h.subs
	h.subs = make(map[string]map[*subscription[T]]struct{})
	h.mu.Unlock()
	for _, subs := range all {
		for sub := range subs {
			sub.stop()
		}
	}
}
