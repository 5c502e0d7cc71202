package notify

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/imkonsowa/citiassist/config"
	"github.com/nats-io/nats.go"
)

type NatsClient struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewNatsClient connects to NATS and makes sure the drafts stream exists.
func NewNatsClient(cfg *config.Nats) (*NatsClient, error) {
	nc, err := nats.Connect(cfg.ConnStr())
	if err != nil {
		return nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, err
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:      cfg.Stream,
		Subjects:  []string{cfg.Subject},
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
		MaxAge:    time.Hour * 24 * 7,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, err
	}

	return &NatsClient{conn: nc, js: js}, nil
}

func (c *NatsClient) Close() {
	c.conn.Close()
}

func (c *NatsClient) Publish(subject string, data []byte) error {
	_, err := c.js.Publish(subject, data)

	return err
}

// Watch logs connection state changes until ctx is done or the connection
// is closed for good.
func (c *NatsClient) Watch(ctx context.Context) error {
	statuses := c.conn.StatusChanged()

	for {
		select {
		case <-ctx.Done():
			return nil
		case status := <-statuses:
			switch status {
			case nats.CONNECTED:
				slog.Info("nats connection status changed", "status", status.String())
			case nats.CLOSED:
				slog.Error("nats connection closed; issue drafts will not be published")
				return nil
			default:
				slog.Warn("nats connection status changed", "status", status.String())
			}
		}
	}
}

// Subscribe pulls messages from a durable consumer on subject and hands each
// payload to handler. Messages are acked on success and nacked for
// redelivery otherwise.
func (c *NatsClient) Subscribe(ctx context.Context, subject string, handler func(ctx context.Context, data []byte) error) error {
	subscription, err := c.js.PullSubscribe(subject, strings.ReplaceAll(subject+".consumer", ".", "-"), nats.ManualAck())
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			if err := subscription.Unsubscribe(); err != nil {
				slog.Warn("failed to unsubscribe from subject", "subject", subject, "error", err)
			}

			return nil
		default:
			msgs, err := subscription.Fetch(4, nats.MaxWait(200*time.Millisecond))
			if err != nil && !errors.Is(err, nats.ErrTimeout) && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			for _, msg := range msgs {
				if err := handler(ctx, msg.Data); err != nil {
					slog.Error("failed to handle message", "subject", subject, "error", err)
					if err := msg.Nak(); err != nil {
						slog.Warn("failed to nak message", "error", err)
					}
					continue
				}

				if err := msg.Ack(); err != nil {
					slog.Warn("failed to ack message", "error", err)
				}
			}
		}
	}
}
