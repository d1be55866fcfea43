package ws

import (
	"context"
	"strings"

	"github.com/treepeck/forumws/pkg/event"
	"github.com/treepeck/forumws/pkg/types"

	"github.com/samber/lo"
)

const topicSaveFailedMessage = "Failed to create topic. Please try again."

/*
topicList is the session of a client connected to the topic feed.  The feed
carries no presence events.
*/
type topicList struct {
	srv   *Server
	table handlerTable
}

func newTopicList(srv *Server) *topicList {
	l := &topicList{srv: srv}
	l.table = handlerTable{
		event.NewTopic: {handle: l.handleNewTopic},
		event.Ping:     {handle: handlePing},
	}
	return l
}

func (l *topicList) room() RoomKey {
	return TopicListRoom
}

func (l *topicList) connect(c *client) error {
	return l.srv.registry.Join(TopicListRoom, c)
}

func (l *topicList) disconnect(c *client) {
	l.srv.registry.Leave(TopicListRoom, c)
}

func (l *topicList) handle(c *client, raw []byte) {
	l.table.dispatch(c, raw, l.srv.metrics, l.srv.log)
}

/*
handleNewTopic persists the topic and broadcasts its snapshot to the feed.  The
snapshot is built from the created record; a new topic has no posts yet.
*/
func (l *topicList) handleNewTopic(c *client, raw []byte) error {
	var in event.NewTopicIn
	if err := decode(raw, &in); err != nil {
		return err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		l.srv.log.Debug("empty topic title dropped", "client", c.id)
		return nil
	}
	author := lo.CoalesceOrEmpty(strings.TrimSpace(in.AuthorName), types.AnonymousName)

	topic, err := l.srv.store.CreateTopic(context.Background(), title, author)
	if err != nil {
		l.srv.log.Warn("cannot save topic", "client", c.id, "error", err)
		c.reply(event.ErrorOut{
			Type:    event.Error,
			Message: topicSaveFailedMessage,
			Code:    event.CodeSaveFailed,
		})
		return nil
	}

	l.srv.registry.Broadcast(TopicListRoom, event.NewTopicOut{
		Type: event.NewTopic,
		Topic: event.TopicSnapshot{
			ID:         topic.ID,
			Title:      topic.Title,
			AuthorName: topic.AuthorName,
			CreatedAt:  topic.CreatedAt,
		},
	}, nil)
	return nil
}
