package ws

import (
	"context"
	"strings"
	"time"

	"github.com/treepeck/forumws/pkg/event"
	"github.com/treepeck/forumws/pkg/types"
)

const (
	connectedMessage  = "Connected to discussion"
	saveFailedMessage = "Failed to save message. Please try again."
)

/*
discussion is the session of a client connected to the room of a single topic.
*/
type discussion struct {
	srv     *Server
	topicID int64
	key     RoomKey
	table   handlerTable
}

func newDiscussion(srv *Server, topicID int64) *discussion {
	d := &discussion{
		srv:     srv,
		topicID: topicID,
		key:     DiscussionRoom(topicID),
	}
	d.table = handlerTable{
		event.ChatMessage: {handle: d.handleChatMessage},
		event.Typing:      {allowed: authenticated, handle: d.handleTyping},
		event.Ping:        {handle: handlePing},
	}
	return d
}

func (d *discussion) room() RoomKey {
	return d.key
}

/*
connect acknowledges the connection and subscribes the client to the topic
room.  Only authenticated clients announce themselves to the room.
*/
func (d *discussion) connect(c *client) error {
	c.reply(event.ConnectionEstablishedOut{
		Type:          event.ConnectionEstablished,
		Authenticated: c.identity.Authenticated(),
		Message:       connectedMessage,
	})

	if err := d.srv.registry.Join(d.key, c); err != nil {
		return err
	}

	if c.identity.Authenticated() {
		d.srv.registry.Broadcast(d.key, d.presence(event.UserJoin, c), c)
	}
	return nil
}

/*
disconnect announces the leave of an authenticated client and unsubscribes it.
The client is unsubscribed even if the announcement cannot be delivered.
*/
func (d *discussion) disconnect(c *client) {
	defer d.srv.registry.Leave(d.key, c)

	if c.identity.Authenticated() {
		d.srv.registry.Broadcast(d.key, d.presence(event.UserLeave, c), c)
	}
}

func (d *discussion) handle(c *client, raw []byte) {
	d.table.dispatch(c, raw, d.srv.metrics, d.srv.log)
}

func (d *discussion) presence(t event.Type, c *client) event.PresenceOut {
	return event.PresenceOut{
		Type:      t,
		User:      c.identity.Name,
		UserID:    c.identity.ID,
		Timestamp: time.Now().UTC(),
	}
}

/*
handleChatMessage persists the message and broadcasts it to the whole room, the
sender included.  Blank messages are dropped.  When the message cannot be
saved, only the sender receives an error.
*/
func (d *discussion) handleChatMessage(c *client, raw []byte) error {
	var in event.ChatMessageIn
	if err := decode(raw, &in); err != nil {
		return err
	}

	content := strings.TrimSpace(in.Content)
	if content == "" {
		d.srv.log.Debug("empty chat message dropped", "client", c.id, "room", d.key)
		return nil
	}

	var author *types.Identity
	if c.identity.Authenticated() {
		author = &c.identity
	}

	ctx := context.Background()
	post, err := d.srv.store.CreatePost(ctx, d.topicID, content, author, types.AnonymousName)
	if err != nil {
		d.srv.log.Warn("cannot save chat message", "client", c.id,
			"room", d.key, "error", err)
		c.reply(event.ErrorOut{
			Type:    event.Error,
			Message: saveFailedMessage,
			Code:    event.CodeSaveFailed,
		})
		return nil
	}

	d.srv.registry.Broadcast(d.key, event.ChatMessageOut{
		Type:       event.ChatMessage,
		PostID:     post.ID,
		Content:    post.Content,
		AuthorName: post.AuthorName,
		AuthorID:   post.AuthorID,
		CreatedAt:  post.CreatedAt,
		Timestamp:  time.Now().UTC(),
	}, nil)

	count, err := d.srv.store.CountPosts(ctx, d.topicID)
	if err != nil {
		d.srv.log.Warn("cannot count posts", "topic", d.topicID, "error", err)
		return nil
	}
	d.srv.registry.Broadcast(TopicListRoom, event.TopicUpdatedOut{
		Type:      event.TopicUpdated,
		TopicID:   d.topicID,
		PostCount: count,
	}, nil)
	return nil
}

// handleTyping broadcasts the typing state to every member but the sender.
func (d *discussion) handleTyping(c *client, raw []byte) error {
	var in event.TypingIn
	if err := decode(raw, &in); err != nil {
		return err
	}

	d.srv.registry.Broadcast(d.key, event.TypingOut{
		Type:     event.Typing,
		User:     c.identity.Name,
		UserID:   c.identity.ID,
		IsTyping: in.IsTyping,
	}, c)
	return nil
}
