package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/V4T54L/xapi-bridge/internal/adapter/metrics"
	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/transformer"
	"github.com/V4T54L/xapi-bridge/internal/transformer/utils"
)

// TranslateOptions configures a TranslateEventsUseCase.
type TranslateOptions struct {
	Group        string
	Consumer     string
	BatchSize    int
	RetryCount   int
	RetryBackoff time.Duration
	// ClaimMinIdle is how long an event must sit unacknowledged before any
	// worker of the group takes it over.
	ClaimMinIdle time.Duration
	// AppURL scopes generated statement ids to the platform.
	AppURL string
}

// TranslateEventsUseCase reads buffered events, translates them and writes
// the statements to a sink. Events that cannot be translated are parked on
// the dead-letter stream.
type TranslateEventsUseCase struct {
	queue       domain.EventQueue
	sink        domain.StatementSink
	transformer *transformer.Transformer
	metrics     *metrics.TranslatorMetrics
	logger      *slog.Logger
	clock       clockwork.Clock
	opts        TranslateOptions
}

// NewTranslateEventsUseCase creates the use case.
func NewTranslateEventsUseCase(queue domain.EventQueue, sink domain.StatementSink, t *transformer.Transformer, m *metrics.TranslatorMetrics, logger *slog.Logger, opts TranslateOptions) *TranslateEventsUseCase {
	if opts.RetryCount < 1 {
		opts.RetryCount = 1
	}
	if opts.ClaimMinIdle <= 0 {
		opts.ClaimMinIdle = time.Minute
	}
	return &TranslateEventsUseCase{
		queue:       queue,
		sink:        sink,
		transformer: t,
		metrics:     m,
		logger:      logger.With("component", "translate_events"),
		clock:       clockwork.NewRealClock(),
		opts:        opts,
	}
}

// SetClock replaces the clock used for backoff and dead-letter timestamps.
func (uc *TranslateEventsUseCase) SetClock(c clockwork.Clock) {
	uc.clock = c
}

// ProcessBatch translates one batch and returns how many events were
// acknowledged. Events whose translation failed on a repository error are
// left pending and picked up again once they have been idle for
// ClaimMinIdle.
func (uc *TranslateEventsUseCase) ProcessBatch(ctx context.Context) (int, error) {
	ctx, span := otel.Tracer("translator").Start(ctx, "TranslateBatch")
	defer span.End()

	events, err := uc.queue.ClaimStaleEvents(ctx, uc.opts.Group, uc.opts.Consumer, uc.opts.ClaimMinIdle, uc.opts.BatchSize)
	if err != nil {
		uc.logger.Warn("Failed to claim stale events", "error", err)
		events = nil
	}
	reclaimed := len(events)

	if len(events) < uc.opts.BatchSize {
		fresh, err := uc.queue.ReadEventBatch(ctx, uc.opts.Group, uc.opts.Consumer, uc.opts.BatchSize-len(events))
		if err != nil && len(events) == 0 {
			span.RecordError(err)
			span.SetStatus(codes.Error, "read failed")
			return 0, fmt.Errorf("failed to read event batch: %w", err)
		}
		if err != nil {
			uc.logger.Warn("Failed to read new events, processing reclaimed ones", "error", err)
		}
		events = append(events, fresh...)
	}
	span.SetAttributes(
		attribute.Int("batch.size", len(events)),
		attribute.Int("batch.reclaimed", reclaimed),
	)
	if len(events) == 0 {
		return 0, nil
	}

	var (
		statements []domain.Statement
		translated []domain.Event
		letters    []domain.DeadLetter
	)
	for _, event := range events {
		stmts, err := uc.translate(ctx, event)
		switch {
		case err == nil:
			statements = append(statements, stmts...)
			translated = append(translated, event)
		case domain.IsPermanent(err):
			letters = append(letters, uc.deadLetter(event, err))
		default:
			uc.metrics.EventsTotal.WithLabelValues("failed").Inc()
			uc.logger.Error("Failed to translate event, leaving it pending",
				"event_id", event.ID, "message_id", event.StreamMessageID, "error", err)
		}
	}

	if len(statements) > 0 {
		if err := uc.writeWithRetry(ctx, statements); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "sink write failed")
			uc.logger.Error("Failed to write statements, dead-lettering batch", "count", len(statements), "error", err)
			for _, event := range translated {
				letters = append(letters, uc.deadLetter(event, fmt.Errorf("sink: %w", err)))
			}
			translated = nil
		}
	}

	if len(letters) > 0 {
		if err := uc.queue.MoveToDLQ(ctx, letters); err != nil {
			// Acknowledge only what reached the sink; the rest stays pending.
			letters = nil
			uc.logger.Error("Failed to move events to DLQ", "error", err)
		} else {
			uc.metrics.DeadLettersTotal.Add(float64(len(letters)))
		}
	}

	ids := make([]string, 0, len(translated)+len(letters))
	for _, event := range translated {
		ids = append(ids, event.StreamMessageID)
	}
	for _, letter := range letters {
		ids = append(ids, letter.Event.StreamMessageID)
	}
	if err := uc.queue.AcknowledgeEvents(ctx, uc.opts.Group, ids...); err != nil {
		// Redelivered events produce the same statement ids, so the sink upsert absorbs them.
		return 0, fmt.Errorf("failed to acknowledge events: %w", err)
	}

	span.SetAttributes(
		attribute.Int("statements", len(statements)),
		attribute.Int("dead_letters", len(letters)),
	)
	uc.logger.Info("Processed event batch",
		"events", len(events), "reclaimed", reclaimed, "statements", len(statements), "dead_letters", len(letters))
	return len(ids), nil
}

func (uc *TranslateEventsUseCase) translate(ctx context.Context, event domain.Event) ([]domain.Statement, error) {
	ctx = utils.WithFallbackHook(ctx, func(table string) {
		uc.metrics.FallbacksTotal.WithLabelValues(table).Inc()
	})

	start := time.Now()
	stmts, err := uc.transformer.Transform(ctx, event)
	uc.metrics.TransformDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		uc.metrics.EventsTotal.WithLabelValues(failureStatus(err)).Inc()
		return nil, err
	}

	for i := range stmts {
		stmts[i].ID = StatementID(uc.opts.AppURL, event, i).String()
	}
	uc.metrics.EventsTotal.WithLabelValues("translated").Inc()
	return stmts, nil
}

func (uc *TranslateEventsUseCase) deadLetter(event domain.Event, err error) domain.DeadLetter {
	uc.logger.Warn("Dead-lettering event", "event_id", event.ID, "event_name", event.EventName, "error", err)
	return domain.DeadLetter{
		Event:    event,
		Reason:   err.Error(),
		FailedAt: uc.clock.Now().UTC(),
	}
}

func (uc *TranslateEventsUseCase) writeWithRetry(ctx context.Context, statements []domain.Statement) error {
	var lastErr error
	for attempt := 1; attempt <= uc.opts.RetryCount; attempt++ {
		err := uc.sink.WriteStatements(ctx, statements)
		if err == nil {
			uc.metrics.SinkWritesTotal.WithLabelValues("ok").Inc()
			return nil
		}
		lastErr = err
		if attempt == uc.opts.RetryCount {
			break
		}
		uc.metrics.SinkWritesTotal.WithLabelValues("retry").Inc()
		uc.logger.Warn("Failed to write statements, retrying", "attempt", attempt, "error", err)
		select {
		case <-uc.clock.After(uc.opts.RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	uc.metrics.SinkWritesTotal.WithLabelValues("failed").Inc()
	return lastErr
}

// StatementID derives the id of the n-th statement generated for event.
// Replaying an event yields the same id.
func StatementID(appURL string, event domain.Event, n int) uuid.UUID {
	name := fmt.Sprintf("%s/logstore/%d/%s/%d", appURL, event.ID, event.EventName, n)
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name))
}

func failureStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnsupportedEvent):
		return "unsupported"
	case errors.Is(err, domain.ErrMalformedPayload):
		return "malformed"
	}
	return "failed"
}
