package store_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/treepeck/forumws/internal/mocks"
	"github.com/treepeck/forumws/internal/store"
	"github.com/treepeck/forumws/pkg/types"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var discard = slog.New(slog.DiscardHandler)

func TestBridge_CreatePost_ForwardsResult(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)

	want := types.Post{ID: 5, TopicID: 3, Content: "hi", AuthorName: "Dana"}
	dana := &types.Identity{ID: 7, Name: "Dana"}
	s.EXPECT().
		CreatePost(gomock.Any(), int64(3), "hi", dana, types.AnonymousName).
		Return(want, nil)

	b := store.NewBridge(s, 4, time.Second, discard)
	got, err := b.CreatePost(context.Background(), 3, "hi", dana, types.AnonymousName)
	req.NoError(err)
	req.Equal(want, got)
}

func TestBridge_CreatePost_ForwardsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)
	s.EXPECT().
		CreatePost(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(types.Post{}, store.ErrNotFound)

	b := store.NewBridge(s, 4, time.Second, discard)
	_, err := b.CreatePost(context.Background(), 3, "hi", nil, types.AnonymousName)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestBridge_DetachesCallerCancellation(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	s.EXPECT().
		CreateTopic(gomock.Any(), "t", types.AnonymousName).
		DoAndReturn(func(callCtx context.Context, _, _ string) (types.Topic, error) {
			// The caller goes away while the write is in flight.
			cancel()
			time.Sleep(20 * time.Millisecond)
			if err := callCtx.Err(); err != nil {
				return types.Topic{}, err
			}
			return types.Topic{ID: 1, Title: "t"}, nil
		})

	b := store.NewBridge(s, 4, time.Second, discard)
	topic, err := b.CreateTopic(ctx, "t", types.AnonymousName)
	req.NoError(err)
	req.Equal(int64(1), topic.ID)
}

func TestBridge_Timeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)
	s.EXPECT().
		CountPosts(gomock.Any(), int64(1)).
		DoAndReturn(func(ctx context.Context, _ int64) (int64, error) {
			<-ctx.Done()
			return 0, ctx.Err()
		})

	b := store.NewBridge(s, 4, 20*time.Millisecond, discard)
	_, err := b.CountPosts(context.Background(), 1)
	require.ErrorIs(t, err, store.ErrUnavailable)
}

func TestBridge_TimeoutWhenStoreIgnoresContext(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	s.EXPECT().
		CreateTopic(gomock.Any(), "stuck", types.AnonymousName).
		DoAndReturn(func(context.Context, string, string) (types.Topic, error) {
			<-release
			return types.Topic{ID: 1}, nil
		})

	b := store.NewBridge(s, 4, 20*time.Millisecond, discard)

	start := time.Now()
	_, err := b.CreateTopic(context.Background(), "stuck", types.AnonymousName)
	req.ErrorIs(err, store.ErrUnavailable)
	req.Less(time.Since(start), time.Second)
}

func TestBridge_BoundsConcurrentCalls(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	s := mocks.NewMockStore(ctrl)

	var inflight, peak atomic.Int64
	s.EXPECT().
		CountPosts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, int64) (int64, error) {
			n := inflight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inflight.Add(-1)
			return 0, nil
		}).
		Times(10)

	b := store.NewBridge(s, 2, time.Second, discard)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := b.CountPosts(context.Background(), int64(i))
			if err != nil && !errors.Is(err, store.ErrUnavailable) {
				t.Errorf("unexpected error: %s", err)
			}
		}()
	}
	wg.Wait()

	req.LessOrEqual(peak.Load(), int64(2))
}
