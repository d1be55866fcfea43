package types

import "time"

/*
AnonymousName is the author name recorded for posts and topics created by
callers without an authenticated identity.
*/
const AnonymousName = "Anonymous"

/*
Identity represents the caller attached to a connection for the lifetime of
that connection.  The zero value is an anonymous caller.
*/
type Identity struct {
	ID   int64
	Name string
}

// Authenticated reports whether the identity belongs to a known principal.
func (i Identity) Authenticated() bool {
	return i.ID != 0
}

/*
UserID returns the principal id or nil for anonymous callers, so it can be
encoded as a JSON null.
*/
func (i Identity) UserID() *int64 {
	if !i.Authenticated() {
		return nil
	}
	id := i.ID
	return &id
}

/*
Post represents a persisted chat message inside a discussion topic.  Posts are
immutable once created.
*/
type Post struct {
	ID         int64
	TopicID    int64
	Content    string
	AuthorID   *int64
	AuthorName string
	CreatedAt  time.Time
}

/*
Topic represents a persisted discussion topic.  The post counter is not stored
on the topic; it is recomputed on demand.
*/
type Topic struct {
	ID         int64
	Title      string
	AuthorID   *int64
	AuthorName string
	CreatedAt  time.Time
}
