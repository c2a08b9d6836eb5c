package worker

import (
	"context"
	"encoding/json"
	"time"

	"reservio/internal/domain"
	"reservio/internal/metrics"
	"reservio/internal/models"

	"github.com/rs/zerolog"
)

// OutboxQueue is the persistence surface the worker drains.
type OutboxQueue interface {
	PendingOutboxEvents(ctx context.Context, limit int) ([]models.OutboxEvent, error)
	MarkOutboxPublished(ctx context.Context, id int64) error
	MarkOutboxRetry(ctx context.Context, id int64, retryCount int, lastError string, nextRetryAt time.Time) error
	MarkOutboxFailed(ctx context.Context, id int64, lastError string) error
}

// OutboxWorker polls the event outbox and forwards due events to the bus,
// retrying failures with exponential backoff until MaxRetries is exhausted.
type OutboxWorker struct {
	queue        OutboxQueue
	bus          domain.EventPublisher
	retryPolicy  RetryPolicy
	pollInterval time.Duration
	batchSize    int
	logger       zerolog.Logger
}

func NewOutboxWorker(queue OutboxQueue, bus domain.EventPublisher, retry RetryPolicy, pollInterval time.Duration, batchSize int, logger *zerolog.Logger) *OutboxWorker {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}

	var log zerolog.Logger
	if logger != nil {
		log = logger.With().Str("component", "outbox_worker").Logger()
	}

	return &OutboxWorker{
		queue:        queue,
		bus:          bus,
		retryPolicy:  retry,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		logger:       log,
	}
}

// Run polls until the context is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.Error().Err(err).Msg("outbox drain error")
			}
		}
	}
}

// DrainOnce processes one batch of due events.
func (w *OutboxWorker) DrainOnce(ctx context.Context) error {
	pending, err := w.queue.PendingOutboxEvents(ctx, w.batchSize)
	if err != nil {
		return err
	}

	for _, event := range pending {
		w.deliver(ctx, event)
	}
	return nil
}

func (w *OutboxWorker) deliver(ctx context.Context, event models.OutboxEvent) {
	err := w.bus.PublishJSON(event.EventType, json.RawMessage(event.Payload))
	if err == nil {
		if markErr := w.queue.MarkOutboxPublished(ctx, event.ID); markErr != nil {
			w.logger.Error().Err(markErr).Int64("event_id", event.ID).Msg("mark published error")
			return
		}
		metrics.IncOutbox("published")
		return
	}

	attempt := event.RetryCount + 1
	if attempt >= w.retryPolicy.MaxRetries {
		w.logger.Error().Err(err).
			Int64("event_id", event.ID).
			Str("event_type", event.EventType).
			Int("attempts", attempt).
			Msg("outbox event failed permanently")
		if markErr := w.queue.MarkOutboxFailed(ctx, event.ID, err.Error()); markErr != nil {
			w.logger.Error().Err(markErr).Int64("event_id", event.ID).Msg("mark failed error")
		}
		metrics.IncOutbox("failed")
		return
	}

	nextRetry := time.Now().Add(w.retryPolicy.NextDelay(attempt))
	w.logger.Warn().Err(err).
		Int64("event_id", event.ID).
		Int("attempt", attempt).
		Time("next_retry_at", nextRetry).
		Msg("outbox delivery failed, scheduling retry")
	if markErr := w.queue.MarkOutboxRetry(ctx, event.ID, attempt, err.Error(), nextRetry); markErr != nil {
		w.logger.Error().Err(markErr).Int64("event_id", event.ID).Msg("mark retry error")
	}
	metrics.IncOutbox("retried")
}
