package ws

import (
	"errors"
	"sync"
	"time"

	"github.com/treepeck/forumws/pkg/event"
	"github.com/treepeck/forumws/pkg/types"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Options are the connection parameters.
type Options struct {
	// Capacity of the outbound queue of each client.
	SendBuffer int
	// Time allowed to write a message to the peer.
	WriteWait time.Duration
	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration
	// Maximum message size allowed from peer.
	MaxMessageSize int64
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		SendBuffer:     192,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
	}
}

// Send pings to peer with this period.  Must be less than PongWait.
func (o Options) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

// inboundBuffer is the number of read frames waiting to be handled.
const inboundBuffer = 16

var errInboundOverflow = errors.New("too many pending frames")

/*
session handles the frames of a single connection.  Each room kind has its own
session type.
*/
type session interface {
	room() RoomKey
	connect(c *client) error
	handle(c *client, raw []byte)
	disconnect(c *client)
}

/*
client manages the connection lifecycle.

Three goroutines serve each client.  read reads the frames and detects the
disconnect, handle processes the read frames one at a time and may wait for the
store, write drains the send channel since the Gorilla WebSocket library allows
only one concurrent writer to a connection at a time.

Splitting read from handle lets the disconnect cleanup run immediately, even
when a frame of the same client is waiting for the store.
*/
type client struct {
	id       string
	identity types.Identity
	conn     *websocket.Conn
	opts     Options
	// send recieves encoded frames that the client will write to the
	// connection.  It must recieve raw bytes to avoid expensive JSON encoding
	// for each client in case of broadcasting.  Never closed: the writer stops
	// on done instead, so concurrent broadcasts never send on a closed channel.
	send    chan []byte
	inbound chan []byte
	// done is closed once the connection is closed.
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(identity types.Identity, conn *websocket.Conn, opts Options) *client {
	return &client{
		id:       uuid.NewString(),
		identity: identity,
		conn:     conn,
		opts:     opts,
		send:     make(chan []byte, opts.SendBuffer),
		inbound:  make(chan []byte, inboundBuffer),
		done:     make(chan struct{}),
	}
}

/*
serve connects the client to the session and starts the pumps.  Blocks until
the connection is closed and the disconnect cleanup has completed.
*/
func (c *client) serve(s session) error {
	if err := s.connect(c); err != nil {
		c.close()
		return err
	}

	go c.write()
	go c.handle(s)
	return c.read(s)
}

/*
read reads frames from the connection and queues them for the handler.  When
the connection cannot be read anymore, runs the disconnect cleanup of the
session and closes the connection.

read never waits for the handler.  A client which sends more frames than the
handler queue holds is closed with errInboundOverflow.
*/
func (c *client) read(s session) error {
	defer func() {
		s.disconnect(c)
		c.close()
		close(c.inbound)
	}()

	c.conn.SetReadLimit(c.opts.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return nil
		}

		select {
		case c.inbound <- raw:
		default:
			return errInboundOverflow
		}
	}
}

/*
handle handles the queued frames sequentially (one at a time).  Frames still
queued once the connection is closed are discarded.
*/
func (c *client) handle(s session) {
	for raw := range c.inbound {
		if c.closed() {
			continue
		}
		s.handle(c, raw)
	}
}

/*
write takes the incomming frames from the send channel and writes them to the
connection sequentially (one at a time).

Automatically sends ping control messages to maintain a hearbeat.
*/
func (c *client) write() {
	pingTicker := time.NewTicker(c.opts.pingPeriod())
	defer func() {
		pingTicker.Stop()
		c.close()
	}()

	for {
		select {
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				return
			}

		case <-pingTicker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			return
		}
	}
}

/*
enqueue queues the encoded frame without blocking.  Returns false when the
connection is closed or the queue is full.
*/
func (c *client) enqueue(raw []byte) bool {
	if c.closed() {
		return false
	}

	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

/*
reply sends the frame to this client only.  A client which cannot accept the
reply is closed.
*/
func (c *client) reply(frame any) {
	if !c.enqueue(event.EncodeOrPanic(frame)) {
		c.close()
	}
}

func (c *client) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// close closes the connection.  Safe to call multiple times.
func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
