// Package queue contains the background consumer that listens to the
// auth.events queue and appends an audit trail to logs/auth-audit.log.
package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// StartAuditConsumer connects to the broker at url, declares the
// auth.events queue (durable) and appends each message to
// dir/auth-audit.log. It runs a reconnect loop with exponential backoff
// and never returns; malformed messages are rejected without requeue so
// the loop keeps going.
func StartAuditConsumer(url, dir string, log *slog.Logger) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.Warn("audit consumer: dial failed", "error", err, "retry_in", backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        if err := consumeLoop(conn, dir, log); err != nil {
            log.Warn("audit consumer: consume loop ended; reconnecting", "error", err)
            time.Sleep(2 * time.Second)
        }
        _ = conn.Close()
    }
}

func consumeLoop(conn *amqp.Connection, dir string, log *slog.Logger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.Warn("audit consumer: set QoS failed", "error", err)
    }

    if _, err := ch.QueueDeclare(AuthQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(AuthQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := handleMessage(dir, d.Body); err != nil {
            log.Warn("audit consumer: handle message failed", "error", err)
            _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

func handleMessage(dir string, body []byte) error {
    var ev AuthEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(dir, "auth-audit.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(formatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// formatAuditLine renders one single-line, human-friendly audit record.
func formatAuditLine(ev AuthEvent) string {
    return fmt.Sprintf("[%s] %s | event_id=%s | user_id=%d | username=%q | ip=%q | reason=%q\n",
        ev.OccurredAt, ev.Type, ev.ID, ev.UserID, ev.Username, ev.ClientIP, ev.Reason)
}
