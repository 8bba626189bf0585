// Package viewmodel holds the screen-level state machines of the Booksy
// client. Each view-model exposes its state through an observable holder
// that front-ends can poll with State or follow with Watch.
package viewmodel

import (
	"errors"
	"sync"

	"booksy/internal/api"
)

// Status is the state of a load-style screen.
type Status int

const (
	StatusLoading Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// MarshalText renders the status by name in JSON output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Observable is a mutex-guarded value with latest-wins watchers.
type Observable[T any] struct {
	mu       sync.Mutex
	value    T
	watchers map[int]chan T
	nextID   int
}

// NewObservable creates a holder with an initial value.
func NewObservable[T any](initial T) *Observable[T] {
	return &Observable[T]{
		value:    initial,
		watchers: make(map[int]chan T),
	}
}

// Get returns the current value.
func (o *Observable[T]) Get() T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Set replaces the value and notifies watchers.
func (o *Observable[T]) Set(v T) {
	o.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and notifies watchers.
func (o *Observable[T]) Update(fn func(T) T) T {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.value = fn(o.value)
	for _, ch := range o.watchers {
		// Slow watchers only ever see the latest value.
		select {
		case <-ch:
		default:
		}
		ch <- o.value
	}
	return o.value
}

// Watch returns a channel receiving the current value and every later one
// (intermediate values may be skipped), and a func that stops watching.
func (o *Observable[T]) Watch() (<-chan T, func()) {
	o.mu.Lock()
	defer o.mu.Unlock()

	id := o.nextID
	o.nextID++

	ch := make(chan T, 1)
	ch <- o.value
	o.watchers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.watchers, id)
			close(ch)
		})
	}
}

const (
	msgConnectionError = "connection error"
)

// failureMessage maps a client error to the message shown to the user:
// transport failures become "connection error", everything else fallback.
func failureMessage(err error, fallback string) string {
	if api.IsTransportError(err) {
		return msgConnectionError
	}
	return fallback
}

// transportCause returns the underlying network error text.
func transportCause(err error) string {
	var transportErr *api.TransportError
	if errors.As(err, &transportErr) && transportErr.Err != nil {
		return transportErr.Err.Error()
	}
	return err.Error()
}
