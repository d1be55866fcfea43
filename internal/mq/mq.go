/*
Package mq manages the connection with RabbitMQ and relays room broadcasts
between gateway processes.
*/
package mq

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// exchange is the topic exchange which serves as the broadcast bus.
const exchange = "forumws"

/*
Dialer wraps a single AMQP connection to RabbitMQ.  Only a single connection is
used per process; every relay channel is multiplexed over it.
*/
type Dialer struct {
	Connection *amqp091.Connection
}

// Dial connects to the RabbitMQ broker at url.
func Dial(url string) (Dialer, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return Dialer{}, fmt.Errorf("cannot connect to RabbitMQ: %w", err)
	}
	return Dialer{Connection: conn}, nil
}

/*
OpenChannel opens a unique channel and puts it into a confirm mode, which allow
waiting for ACK or NACK from the server.
*/
func (d Dialer) OpenChannel() (*amqp091.Channel, error) {
	ch, err := d.Connection.Channel()
	if err != nil {
		return nil, fmt.Errorf("cannot open a RabbitMQ channel: %w", err)
	}

	if err = ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("cannot put channel into confirm mode: %w", err)
	}
	return ch, nil
}

/*
DeclareTopology declares the broadcast exchange and a server-named exclusive
queue bound to every room routing key.  The queue is deleted by the broker once
the process disconnects.
*/
func DeclareTopology(ch *amqp091.Channel) (string, error) {
	err := ch.ExchangeDeclare(exchange, "topic", false, true, false, false, nil)
	if err != nil {
		return "", fmt.Errorf("cannot declare an exchange: %w", err)
	}

	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return "", fmt.Errorf("cannot declare a queue: %w", err)
	}

	if err = ch.QueueBind(q.Name, "room.#", exchange, false, nil); err != nil {
		return "", fmt.Errorf("cannot bind %q queue to exchange: %w", q.Name, err)
	}
	return q.Name, nil
}

// Release closes the connection and every channel opened over it.
func (d Dialer) Release() error {
	return d.Connection.Close()
}
