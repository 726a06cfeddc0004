package session

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription is the handle returned by observers. Unsubscribe is
// idempotent.
type Subscription struct {
	id     string
	cancel func()
	once   sync.Once
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
	})
}

// observable is a minimal broadcast cell with replay-last-value-on-subscribe
// semantics: a new observer receives the current value synchronously before
// any subsequent emission, so there is no missed-initial-value race.
type observable[T any] struct {
	mu        sync.Mutex
	value     T
	observers map[string]func(T)
}

func newObservable[T any](initial T) *observable[T] {
	return &observable[T]{
		value:     initial,
		observers: map[string]func(T){},
	}
}

func (o *observable[T]) get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

func (o *observable[T]) set(value T) {
	o.mu.Lock()
	o.value = value
	observers := make([]func(T), 0, len(o.observers))
	for _, fn := range o.observers {
		observers = append(observers, fn)
	}
	o.mu.Unlock()

	for _, fn := range observers {
		fn(value)
	}
}

func (o *observable[T]) subscribe(fn func(T)) *Subscription {
	id := uuid.New().String()

	o.mu.Lock()
	o.observers[id] = fn
	current := o.value
	o.mu.Unlock()

	fn(current)

	return &Subscription{
		id: id,
		cancel: func() {
			o.mu.Lock()
			delete(o.observers, id)
			o.mu.Unlock()
		},
	}
}
