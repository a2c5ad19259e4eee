package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"
)

type publisher interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPNotifier は通知を durable キューに JSON で積む。
// 実際のメール送信はキューの消費側が行う。
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel publisher
	queue   string
}

func NewAMQPNotifier(url string, queue string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	slog.Info("AMQP notifier connected", "queue", queue)

	return &AMQPNotifier{conn: conn, channel: ch, queue: queue}, nil
}

func newAMQPNotifier(ch publisher, queue string) *AMQPNotifier {
	return &AMQPNotifier{channel: ch, queue: queue}
}

func (n *AMQPNotifier) Notify(ctx context.Context, msg Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	err = n.channel.Publish("", n.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close はチャネルと接続を閉じる。
func (n *AMQPNotifier) Close() error {
	if c, ok := n.channel.(*amqp.Channel); ok && c != nil {
		if err := c.Close(); err != nil {
			return err
		}
	}
	if n.conn != nil {
		return n.conn.Close()
	}
	return nil
}
