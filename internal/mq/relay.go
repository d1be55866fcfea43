package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// publishTimeout bounds a single publish including the broker confirmation.
const publishTimeout = 5 * time.Second

var ErrNacked = errors.New("publish not acknowledged by broker")

/*
Message is a room broadcast travelling between processes.  Frame holds the
already encoded outbound frame; Exclude is the id of a connection which must
not receive it.
*/
type Message struct {
	Room    string          `json:"room"`
	Frame   json.RawMessage `json:"frame"`
	Exclude string          `json:"exclude,omitempty"`
	Origin  string          `json:"origin"`
}

/*
Relay publishes room broadcasts to the exchange and consumes the broadcasts of
every process, its own included.
*/
type Relay struct {
	pub    *amqp091.Channel
	sub    *amqp091.Channel
	queue  string
	origin string
	log    *slog.Logger
}

/*
NewRelay opens a publishing channel and a consuming channel over d and declares
the topology.  Origin identifies this process in published messages.
*/
func NewRelay(d Dialer, origin string, log *slog.Logger) (*Relay, error) {
	pub, err := d.OpenChannel()
	if err != nil {
		return nil, err
	}

	sub, err := d.Connection.Channel()
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("cannot open a RabbitMQ channel: %w", err)
	}

	queue, err := DeclareTopology(sub)
	if err != nil {
		pub.Close()
		sub.Close()
		return nil, err
	}

	return &Relay{
		pub:    pub,
		sub:    sub,
		queue:  queue,
		origin: origin,
		log:    log,
	}, nil
}

func routingKey(room string) string {
	return "room." + strings.ReplaceAll(room, ":", ".")
}

/*
Publish publishes m and waits up to 5 seconds for the broker confirmation.
*/
func (r *Relay) Publish(ctx context.Context, m Message) error {
	m.Origin = r.origin

	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("cannot encode relay message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	conf, err := r.pub.PublishWithDeferredConfirmWithContext(
		ctx,
		exchange,
		routingKey(m.Room),
		false,
		false,
		amqp091.Publishing{
			Body:        raw,
			ContentType: "application/json",
		},
	)
	if err != nil {
		return fmt.Errorf("cannot publish a message: %w", err)
	}

	acked, err := conf.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("cannot confirm a message: %w", err)
	}
	if !acked {
		return ErrNacked
	}
	return nil
}

/*
Consume consumes the process queue until ctx is done or the channel is closed.
Each decoded message is passed to deliver and acknowledged afterwards.
Undecodable messages are rejected without requeueing.
*/
func (r *Relay) Consume(ctx context.Context, deliver func(Message)) error {
	deliveries, err := r.sub.ConsumeWithContext(ctx, r.queue, "", false, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("cannot consume queue %q: %w", r.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return errors.New("relay channel closed")
			}

			var m Message
			if err := json.Unmarshal(d.Body, &m); err != nil {
				r.log.Warn("cannot decode relay message", "error", err)
				d.Reject(false)
				continue
			}

			deliver(m)
			d.Ack(false)
		}
	}
}

// Close closes both relay channels.
func (r *Relay) Close() error {
	return errors.Join(r.pub.Close(), r.sub.Close())
}
