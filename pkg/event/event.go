package event

import (
	"encoding/json"
	"log"
	"time"
)

/*
Type is a domain of possible frame types.  Clients switch on the type of each
outbound frame, and the server dispatches inbound frames by it.
*/
type Type string

const (
	// Client frames.
	ChatMessage Type = "chat_message"
	Typing      Type = "typing"
	Ping        Type = "ping"
	NewTopic    Type = "new_topic"

	// Server frames.
	ConnectionEstablished Type = "connection_established"
	UserJoin              Type = "user_join"
	UserLeave             Type = "user_leave"
	Pong                  Type = "pong"
	TopicUpdated          Type = "topic_updated"
	Error                 Type = "error"
)

// Machine-readable error codes.
const (
	CodeSaveFailed = "save_failed"
)

/*
Envelope decodes only the discriminator of an inbound frame.  The type-specific
body is decoded by the handler from the same raw bytes.
*/
type Envelope struct {
	Type Type `json:"type"`
}

// ChatMessageIn is the body of an inbound chat_message frame.
type ChatMessageIn struct {
	Content string `json:"content"`
}

// TypingIn is the body of an inbound typing frame.
type TypingIn struct {
	IsTyping bool `json:"is_typing"`
}

/*
NewTopicIn is the body of an inbound new_topic frame.  AuthorName is optional.
*/
type NewTopicIn struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

/*
ConnectionEstablishedOut acknowledges a discussion room connection and tells
the client whether its identity was resolved.
*/
type ConnectionEstablishedOut struct {
	Type          Type   `json:"type"`
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
}

/*
ChatMessageOut is broadcast to every member of a room, the sender included, so
that all clients reconcile by the server-assigned post id.
*/
type ChatMessageOut struct {
	Type       Type      `json:"type"`
	PostID     int64     `json:"post_id"`
	Content    string    `json:"content"`
	AuthorName string    `json:"author_name"`
	AuthorID   *int64    `json:"author_id"`
	CreatedAt  time.Time `json:"created_at"`
	Timestamp  time.Time `json:"timestamp"`
}

// TypingOut is broadcast to every member of a room except the sender.
type TypingOut struct {
	Type     Type   `json:"type"`
	User     string `json:"user"`
	UserID   int64  `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// PresenceOut is the body of user_join and user_leave frames.
type PresenceOut struct {
	Type      Type      `json:"type"`
	User      string    `json:"user"`
	UserID    int64     `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// PongOut answers a ping.
type PongOut struct {
	Type Type `json:"type"`
}

/*
TopicSnapshot is a denormalized view of a freshly created topic.  It is built
from the created record, not re-fetched from storage, so the counters are
always zeroed.
*/
type TopicSnapshot struct {
	ID                 int64     `json:"id"`
	Title              string    `json:"title"`
	AuthorName         string    `json:"author_name"`
	CreatedAt          time.Time `json:"created_at"`
	PostCount          int64     `json:"post_count"`
	RelatedSkillName   *string   `json:"related_skill_name"`
	RelatedCompanyName *string   `json:"related_company_name"`
}

// NewTopicOut is broadcast to the topic list room.
type NewTopicOut struct {
	Type  Type          `json:"type"`
	Topic TopicSnapshot `json:"topic"`
}

/*
TopicUpdatedOut is broadcast to the topic list room after a new post changes
the post counter of a topic.
*/
type TopicUpdatedOut struct {
	Type      Type  `json:"type"`
	TopicID   int64 `json:"topic_id"`
	PostCount int64 `json:"post_count"`
}

// ErrorOut is sent to a single connection only.
type ErrorOut struct {
	Type    Type   `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

/*
EncodeOrPanic is a helper function to encode a JSON payload on the fly skipping
the error check.  If the error occurs, the panic will be arised.  Every frame
declared in this package is statically encodable.
*/
func EncodeOrPanic(v any) []byte {
	p, err := json.Marshal(v)
	if err != nil {
		log.Panicf("cannot encode payload %v: %s", v, err)
	}
	return p
}
