package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/treepeck/forumws/pkg/types"

	"golang.org/x/sync/semaphore"
)

/*
Bridge dispatches store calls off the connection goroutines.

Each call runs on its own goroutine, bounded by a weighted semaphore shared by
all connections, and uses a context detached from the caller's one.  This way a
client that disconnects while its post is being written does not abort the
write: the call completes or fails on its own and the result is simply not
delivered to anybody.  The caller waits no longer than the bridge timeout, even
when the store ignores the context.
*/
type Bridge struct {
	store   Store
	sem     *semaphore.Weighted
	timeout time.Duration
	log     *slog.Logger
}

func NewBridge(s Store, maxInflight int64, timeout time.Duration, log *slog.Logger) *Bridge {
	return &Bridge{
		store:   s,
		sem:     semaphore.NewWeighted(maxInflight),
		timeout: timeout,
		log:     log,
	}
}

type result[T any] struct {
	val T
	err error
}

func dispatch[T any](
	ctx context.Context,
	b *Bridge,
	op string,
	fn func(context.Context) (T, error),
) (T, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)

	done := make(chan result[T], 1)
	go func() {
		defer cancel()

		if err := b.sem.Acquire(callCtx, 1); err != nil {
			done <- result[T]{err: fmt.Errorf("%s: %w", op, ErrUnavailable)}
			return
		}
		defer b.sem.Release(1)

		start := time.Now()
		val, err := fn(callCtx)
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
		}
		b.log.Debug("store call completed", "op", op,
			"took", time.Since(start), "error", err)
		done <- result[T]{val: val, err: err}
	}()

	select {
	case r := <-done:
		return r.val, r.err
	case <-callCtx.Done():
		// The store ignores the deadline; its late result is discarded.
		var zero T
		return zero, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, callCtx.Err())
	}
}

func (b *Bridge) CreatePost(
	ctx context.Context,
	topicID int64,
	content string,
	author *types.Identity,
	fallbackName string,
) (types.Post, error) {
	return dispatch(ctx, b, "create post", func(ctx context.Context) (types.Post, error) {
		return b.store.CreatePost(ctx, topicID, content, author, fallbackName)
	})
}

func (b *Bridge) CreateTopic(ctx context.Context, title, fallbackName string) (types.Topic, error) {
	return dispatch(ctx, b, "create topic", func(ctx context.Context) (types.Topic, error) {
		return b.store.CreateTopic(ctx, title, fallbackName)
	})
}

func (b *Bridge) CountPosts(ctx context.Context, topicID int64) (int64, error) {
	return dispatch(ctx, b, "count posts", func(ctx context.Context) (int64, error) {
		return b.store.CountPosts(ctx, topicID)
	})
}
