//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

/*
Package store is the boundary between the realtime core and durable storage of
discussion topics and posts.
*/
package store

import (
	"context"
	"errors"

	"github.com/treepeck/forumws/pkg/types"
)

var (
	// ErrNotFound is returned when a referenced topic or post does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrUnavailable is returned when the store cannot serve the call in time.
	ErrUnavailable = errors.New("store unavailable")
)

/*
Store persists posts and topics.  Implementations must be safe for concurrent
use.
*/
type Store interface {
	// CreatePost returns ErrNotFound when the topic does not exist.  When author
	// is nil the post is attributed to fallbackName.
	CreatePost(ctx context.Context, topicID int64, content string,
		author *types.Identity, fallbackName string) (types.Post, error)
	// CreateTopic attributes the topic to fallbackName.
	CreateTopic(ctx context.Context, title, fallbackName string) (types.Topic, error)
	Post(ctx context.Context, id int64) (types.Post, error)
	Topic(ctx context.Context, id int64) (types.Topic, error)
	CountPosts(ctx context.Context, topicID int64) (int64, error)
}
