package live

import (
	"context"
	"errors"
	"sync"
)

type KeyLoader[K comparable, T any] func(ctx context.Context, key K) (T, error)

// Topic is a family of feeds over the same query, one per key.
type Topic[K comparable, T any] struct {
	load KeyLoader[K, T]

	mu    sync.Mutex
	feeds map[K]*Feed[T]
}

func NewTopic[K comparable, T any](load KeyLoader[K, T]) *Topic[K, T] {
	return &Topic[K, T]{
		load:  load,
		feeds: make(map[K]*Feed[T]),
	}
}

func (t *Topic[K, T]) Snapshot(ctx context.Context, key K) (T, error) {
	return t.load(ctx, key)
}

func (t *Topic[K, T]) Subscribe(ctx context.Context, key K) (<-chan T, error) {
	for {
		ch, err := t.feed(key).Subscribe(ctx)
		if errors.Is(err, errFeedClosed) {
			continue
		}
		return ch, err
	}
}

// Publish refreshes subscribers of key and drops the feed once idle.
func (t *Topic[K, T]) Publish(ctx context.Context, key K) error {
	t.mu.Lock()
	f, ok := t.feeds[key]
	t.mu.Unlock()

	if !ok {
		return nil
	}

	err := f.Publish(ctx)
	t.prune(key, f)
	return err
}

// PublishAll refreshes every key that currently has a feed.
func (t *Topic[K, T]) PublishAll(ctx context.Context) error {
	t.mu.Lock()
	keys := make([]K, 0, len(t.feeds))
	for key := range t.feeds {
		keys = append(keys, key)
	}
	t.mu.Unlock()

	var errs []error
	for _, key := range keys {
		if err := t.Publish(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (t *Topic[K, T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.feeds)
}

func (t *Topic[K, T]) feed(key K) *Feed[T] {
	t.mu.Lock()
	defer t.mu.Unlock()

	f, ok := t.feeds[key]
	if !ok {
		f = NewFeed(func(ctx context.Context) (T, error) {
			return t.load(ctx, key)
		})
		t.feeds[key] = f
	}
	return f
}

func (t *Topic[K, T]) prune(key K, f *Feed[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.feeds[key] == f && f.closeIfIdle() {
		delete(t.feeds, key)
	}
}
