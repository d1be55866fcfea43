package ws

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/treepeck/forumws/internal/metrics"
	"github.com/treepeck/forumws/pkg/event"
)

const invalidJSON = "Invalid JSON format"

var errMalformed = errors.New("malformed frame")

/*
handler handles a single frame type.  The frame is handled only if allowed
reports true for the sending client; otherwise it is dropped silently.  A nil
allowed permits every client.
*/
type handler struct {
	allowed func(c *client) bool
	handle  func(c *client, raw []byte) error
}

// handlerTable maps inbound frame types to their handlers.
type handlerTable map[event.Type]handler

// authenticated permits only clients with a resolved identity.
func authenticated(c *client) bool {
	return c.identity.Authenticated()
}

/*
dispatch decodes the frame type and forwards the frame to its handler.

Frames which aren't JSON objects, and frames whose body cannot be decoded by
the handler, are answered with an error frame.  Frames of unknown types are
ignored.
*/
func (t handlerTable) dispatch(c *client, raw []byte, m *metrics.Metrics, log *slog.Logger) {
	var e event.Envelope
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &e) != nil {
		m.FrameReceived("malformed")
		c.reply(event.ErrorOut{Type: event.Error, Message: invalidJSON})
		return
	}

	h, exists := t[e.Type]
	if !exists {
		m.FrameReceived("unknown")
		log.Debug("unknown frame ignored", "client", c.id, "type", e.Type)
		return
	}
	m.FrameReceived(string(e.Type))

	if h.allowed != nil && !h.allowed(c) {
		log.Debug("frame not permitted", "client", c.id, "type", e.Type)
		return
	}

	if err := h.handle(c, trimmed); errors.Is(err, errMalformed) {
		c.reply(event.ErrorOut{Type: event.Error, Message: invalidJSON})
	}
}

// decode decodes the frame body into v or returns errMalformed.
func decode(raw []byte, v any) error {
	if err := json.Unmarshal(raw, v); err != nil {
		return errMalformed
	}
	return nil
}

// handlePing answers a ping frame with a pong to the sender only.
func handlePing(c *client, _ []byte) error {
	c.reply(event.PongOut{Type: event.Pong})
	return nil
}
