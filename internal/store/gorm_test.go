package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/treepeck/forumws/pkg/types"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *SQL {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "forum.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQL_CreateTopic(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	topic, err := s.CreateTopic(ctx, "Arrays help", types.AnonymousName)
	req.NoError(err)
	req.NotZero(topic.ID)
	req.Equal("Arrays help", topic.Title)
	req.Equal(types.AnonymousName, topic.AuthorName)
	req.Nil(topic.AuthorID)
	req.False(topic.CreatedAt.IsZero())

	fetched, err := s.Topic(ctx, topic.ID)
	req.NoError(err)
	req.Equal(topic.Title, fetched.Title)
}

func TestSQL_CreatePost_Authenticated(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	topic, err := s.CreateTopic(ctx, "Graphs", types.AnonymousName)
	req.NoError(err)

	dana := types.Identity{ID: 7, Name: "Dana"}
	post, err := s.CreatePost(ctx, topic.ID, "hi", &dana, types.AnonymousName)
	req.NoError(err)
	req.NotZero(post.ID)
	req.Equal(topic.ID, post.TopicID)
	req.Equal("Dana", post.AuthorName)
	req.NotNil(post.AuthorID)
	req.Equal(int64(7), *post.AuthorID)

	fetched, err := s.Post(ctx, post.ID)
	req.NoError(err)
	req.Equal(post.Content, fetched.Content)
	req.Equal(post.AuthorName, fetched.AuthorName)
	req.Equal(post.AuthorID, fetched.AuthorID)
}

func TestSQL_CreatePost_Anonymous(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	topic, err := s.CreateTopic(ctx, "Graphs", types.AnonymousName)
	req.NoError(err)

	post, err := s.CreatePost(ctx, topic.ID, "hello", nil, types.AnonymousName)
	req.NoError(err)
	req.Equal(types.AnonymousName, post.AuthorName)
	req.Nil(post.AuthorID)

	// An identity without a principal is treated the same as no identity.
	post, err = s.CreatePost(ctx, topic.ID, "hello", &types.Identity{}, types.AnonymousName)
	req.NoError(err)
	req.Equal(types.AnonymousName, post.AuthorName)
	req.Nil(post.AuthorID)
}

func TestSQL_CreatePost_AuthenticatedWithoutName(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	topic, err := s.CreateTopic(ctx, "Graphs", types.AnonymousName)
	req.NoError(err)

	post, err := s.CreatePost(ctx, topic.ID, "hi", &types.Identity{ID: 7, Name: " "}, types.AnonymousName)
	req.NoError(err)
	req.Equal(types.AnonymousName, post.AuthorName)
	req.NotNil(post.AuthorID)
	req.Equal(int64(7), *post.AuthorID)
}

func TestSQL_CreatePost_MissingTopic(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)

	_, err := s.CreatePost(context.Background(), 42, "hi", nil, types.AnonymousName)
	req.ErrorIs(err, ErrNotFound)
}

func TestSQL_Lookups_NotFound(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Post(ctx, 1)
	req.ErrorIs(err, ErrNotFound)

	_, err = s.Topic(ctx, 1)
	req.ErrorIs(err, ErrNotFound)
}

func TestSQL_CountPosts(t *testing.T) {
	req := require.New(t)
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.CreateTopic(ctx, "First", types.AnonymousName)
	req.NoError(err)
	second, err := s.CreateTopic(ctx, "Second", types.AnonymousName)
	req.NoError(err)

	for range 3 {
		_, err = s.CreatePost(ctx, first.ID, "x", nil, types.AnonymousName)
		req.NoError(err)
	}
	_, err = s.CreatePost(ctx, second.ID, "y", nil, types.AnonymousName)
	req.NoError(err)

	n, err := s.CountPosts(ctx, first.ID)
	req.NoError(err)
	req.Equal(int64(3), n)

	n, err = s.CountPosts(ctx, second.ID)
	req.NoError(err)
	req.Equal(int64(1), n)

	n, err = s.CountPosts(ctx, 999)
	req.NoError(err)
	req.Zero(n)
}
