// Package service holds the background collaborators of the session
// engine: the AMQP audit publisher and the refresh-token sweeper.
package service

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/session-auth/internal/queue"
)

// dialTimeout bounds how long a request can wait on an unreachable broker.
const dialTimeout = 2 * time.Second

// AMQPPublisher publishes AuthEvents to the auth.events queue. The
// connection is opened lazily and re-dialed after a failure. Errors are
// logged and returned so callers can ignore them without interrupting the
// request flow.
type AMQPPublisher struct {
    url string
    log *slog.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

// NewAMQPPublisher returns a publisher for the broker at url.
func NewAMQPPublisher(url string, log *slog.Logger) *AMQPPublisher {
    return &AMQPPublisher{url: url, log: log}
}

// Publish sends ev as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev queue.AuthEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal event: %w", err)
    }

    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        p.log.Warn("rabbitmq: channel unavailable", "error", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    ev.ID,
        Type:         ev.Type,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",                  // default exchange
        queue.AuthQueueName, // routing key = queue name
        false,               // mandatory
        false,               // immediate
        pub,
    ); err != nil {
        p.log.Warn("rabbitmq: publish failed", "error", err)
        p.reset()
        return err
    }
    return nil
}

// channel returns an open channel, dialing when needed. p.mu must be held.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    if p.conn == nil || p.conn.IsClosed() {
        conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
        if err != nil {
            return nil, fmt.Errorf("dial: %w", err)
        }
        p.conn = conn
    }
    ch, err := p.conn.Channel()
    if err != nil {
        p.reset()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(queue.AuthQueueName, true, false, false, false, nil); err != nil {
        _ = ch.Close()
        return nil, fmt.Errorf("queue declare: %w", err)
    }
    p.ch = ch
    return ch, nil
}

// reset drops the cached connection. p.mu must be held.
func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}
