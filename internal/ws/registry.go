package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/treepeck/forumws/internal/metrics"
	"github.com/treepeck/forumws/internal/mq"
	"github.com/treepeck/forumws/pkg/event"
)

// RoomKey identifies a room.
type RoomKey string

// TopicListRoom is the single room which receives topic feed events.
const TopicListRoom RoomKey = "discussion_list"

// DiscussionRoom returns the key of the room of the specified topic.
func DiscussionRoom(topicID int64) RoomKey {
	return RoomKey("discussion:" + strconv.FormatInt(topicID, 10))
}

var ErrRoomUnavailable = errors.New("room unavailable")

/*
Relay carries broadcasts between gateway processes.  When set, a broadcast is
delivered locally only once it comes back from the relay.
*/
type Relay interface {
	Publish(ctx context.Context, m mq.Message) error
}

/*
Registry stores the room membership of every live connection.

Membership is guarded by a single RWMutex which is never held while writing to
a socket or waiting for the store.  Broadcasts snapshot the members under the
read lock and enqueue the encoded frame to each of them without blocking.  A
member whose queue is full is dropped from the room and its connection is
closed, which triggers the regular disconnect path of that connection.
*/
type Registry struct {
	mu    sync.RWMutex
	rooms map[RoomKey]map[*client]struct{}
	relay Relay
	m     *metrics.Metrics
	log   *slog.Logger
}

func NewRegistry(m *metrics.Metrics, log *slog.Logger) *Registry {
	return &Registry{
		rooms: make(map[RoomKey]map[*client]struct{}),
		m:     m,
		log:   log,
	}
}

/*
UseRelay routes every following broadcast through r.  Must be called before the
registry starts serving connections.
*/
func (r *Registry) UseRelay(relay Relay) {
	r.relay = relay
}

/*
Join subscribes c to the room.  The room is created on the first join.  Joining
the same room twice is a no-op.
*/
func (r *Registry) Join(room RoomKey, c *client) error {
	if room == "" {
		return fmt.Errorf("client %q: %w", c.id, ErrRoomUnavailable)
	}

	r.mu.Lock()
	members, exists := r.rooms[room]
	if !exists {
		members = make(map[*client]struct{})
		r.rooms[room] = members
	}
	_, dup := members[c]
	members[c] = struct{}{}
	n := len(r.rooms)
	r.mu.Unlock()

	if dup {
		r.log.Debug("client tries to subscribe multiple times",
			"client", c.id, "room", room)
		return nil
	}

	r.m.SetRooms(n)
	r.log.Debug("client subscribed", "client", c.id, "room", room)
	return nil
}

/*
Leave unsubscribes c from the room.  Leaving a room the client isn't subscribed
to is a no-op.  The room is removed once its last member leaves.
*/
func (r *Registry) Leave(room RoomKey, c *client) {
	if !r.remove(room, c) {
		return
	}
	r.log.Debug("client unsubscribed", "client", c.id, "room", room)
}

func (r *Registry) remove(room RoomKey, c *client) bool {
	r.mu.Lock()
	members, exists := r.rooms[room]
	if !exists {
		r.mu.Unlock()
		return false
	}
	if _, exists = members[c]; !exists {
		r.mu.Unlock()
		return false
	}

	delete(members, c)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	n := len(r.rooms)
	r.mu.Unlock()

	r.m.SetRooms(n)
	return true
}

/*
Broadcast encodes frame once and delivers it to every member of the room except
the excluded client, which may be nil.
*/
func (r *Registry) Broadcast(room RoomKey, frame any, exclude *client) {
	raw := event.EncodeOrPanic(frame)
	r.m.Broadcast()

	var excludeID string
	if exclude != nil {
		excludeID = exclude.id
	}

	if r.relay != nil {
		err := r.relay.Publish(context.Background(), mq.Message{
			Room:    string(room),
			Frame:   raw,
			Exclude: excludeID,
		})
		if err == nil {
			return
		}
		r.log.Warn("cannot relay broadcast, delivering locally",
			"room", room, "error", err)
	}

	r.deliver(room, raw, excludeID)
}

// Deliver delivers a broadcast consumed from the relay to the local members.
func (r *Registry) Deliver(m mq.Message) {
	r.deliver(RoomKey(m.Room), m.Frame, m.Exclude)
}

func (r *Registry) deliver(room RoomKey, raw []byte, excludeID string) {
	for _, c := range r.Members(room) {
		if c.id == excludeID {
			continue
		}
		if !c.enqueue(raw) {
			r.drop(room, c)
		}
	}
}

/*
drop removes the client which cannot keep up with the room and closes its
connection.
*/
func (r *Registry) drop(room RoomKey, c *client) {
	if r.remove(room, c) {
		r.m.PeerDropped()
		r.log.Info("client dropped", "client", c.id, "room", room)
	}
	c.close()
}

// Members returns a snapshot of the room members.
func (r *Registry) Members(room RoomKey) []*client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*client, 0, len(r.rooms[room]))
	for c := range r.rooms[room] {
		members = append(members, c)
	}
	return members
}

// Rooms returns the number of rooms with at least one member.
func (r *Registry) Rooms() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Count returns the number of subscriptions over all rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, members := range r.rooms {
		n += len(members)
	}
	return n
}

/*
CloseAll closes every connection.  Each connection then runs its own disconnect
path and leaves its room.
*/
func (r *Registry) CloseAll() {
	r.mu.RLock()
	var all []*client
	for _, members := range r.rooms {
		for c := range members {
			all = append(all, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range all {
		c.close()
	}
}
