// Package notify forwards drafted civic-issue complaints to a NATS JetStream
// subject so downstream ticketing can pick them up.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/imkonsowa/citiassist/models"
)

type Publisher interface {
	Publish(subject string, data []byte) error
}

// Dispatcher publishes issue drafts in the background on a WorkerPool.
type Dispatcher struct {
	publisher Publisher
	subject   string
	pool      *WorkerPool
}

func NewDispatcher(ctx context.Context, publisher Publisher, subject string, workers, queueSize int) *Dispatcher {
	d := &Dispatcher{
		publisher: publisher,
		subject:   subject,
	}
	d.pool = NewWorkerPool(ctx, workers, queueSize, d.publish)

	slog.Info("issue draft dispatcher started", "subject", subject, "workers", workers, "queueSize", queueSize)

	return d
}

func (d *Dispatcher) publish(_ context.Context, event models.IssueDraftEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal issue draft: %w", err)
	}

	if err := d.publisher.Publish(d.subject, data); err != nil {
		return fmt.Errorf("failed to publish issue draft: %w", err)
	}

	slog.Debug("published issue draft", "subject", d.subject, "recipient", event.RecipientEmail)

	return nil
}

// DecodeIssueDraft parses a payload published by a Dispatcher.
func DecodeIssueDraft(data []byte) (models.IssueDraftEvent, error) {
	var event models.IssueDraftEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, fmt.Errorf("failed to decode issue draft: %w", err)
	}

	return event, nil
}

// PublishIssueDraft queues event and returns immediately.
func (d *Dispatcher) PublishIssueDraft(_ context.Context, event models.IssueDraftEvent) error {
	return d.pool.Submit(event)
}

// Close stops accepting drafts and waits for queued ones to be published.
func (d *Dispatcher) Close() {
	d.pool.Stop()
	d.pool.Wait()
}
