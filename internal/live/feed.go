// Package live implements push-based query results. A Feed wraps one
// query; every Publish re-runs it and hands the new snapshot to all
// subscribers. Delivery is latest-wins: a subscriber that falls behind
// sees only the newest snapshot.
package live

import (
	"context"
	"errors"
	"sync"
)

var errFeedClosed = errors.New("feed closed")

type Loader[T any] func(ctx context.Context) (T, error)

type Feed[T any] struct {
	load Loader[T]

	// mu serializes loads with deliveries so a subscriber never receives
	// an older snapshot after a newer one.
	mu     sync.Mutex
	subs   map[*subscriber[T]]struct{}
	closed bool
}

type subscriber[T any] struct {
	ch chan T
}

func NewFeed[T any](load Loader[T]) *Feed[T] {
	return &Feed[T]{
		load: load,
		subs: make(map[*subscriber[T]]struct{}),
	}
}

// Snapshot is a one-shot read of the query.
func (f *Feed[T]) Snapshot(ctx context.Context) (T, error) {
	return f.load(ctx)
}

// Subscribe delivers the current snapshot and then every published one
// until ctx is done, at which point the channel is closed.
func (f *Feed[T]) Subscribe(ctx context.Context) (<-chan T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, errFeedClosed
	}

	snap, err := f.load(ctx)
	if err != nil {
		return nil, err
	}

	s := &subscriber[T]{ch: make(chan T, 1)}
	s.ch <- snap
	f.subs[s] = struct{}{}

	go func() {
		<-ctx.Done()
		f.remove(s)
	}()

	return s.ch, nil
}

// Publish reloads the query and fans the result out. It is a no-op when
// nobody is subscribed.
func (f *Feed[T]) Publish(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.subs) == 0 {
		return nil
	}

	snap, err := f.load(ctx)
	if err != nil {
		return err
	}

	for s := range f.subs {
		s.offer(snap)
	}

	return nil
}

func (f *Feed[T]) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed[T]) remove(s *subscriber[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.subs[s]; ok {
		delete(f.subs, s)
		close(s.ch)
	}
}

// closeIfIdle marks the feed unusable when it has no subscribers.
func (f *Feed[T]) closeIfIdle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.subs) > 0 {
		return false
	}
	f.closed = true
	return true
}

// offer must be called with the feed lock held; it is the only sender.
func (s *subscriber[T]) offer(v T) {
	select {
	case s.ch <- v:
		return
	default:
	}

	select {
	case <-s.ch:
	default:
	}

	s.ch <- v
}
