package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/V4T54L/xapi-bridge/internal/adapter/pii"
	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// ErrInvalidEvent is returned for events missing the fields every rule needs.
var ErrInvalidEvent = errors.New("invalid event")

// IngestEventUseCase validates, enriches, redacts and buffers LMS events.
type IngestEventUseCase struct {
	queue    domain.EventQueue
	redactor *pii.Redactor
	logger   *slog.Logger
	clock    clockwork.Clock
}

// NewIngestEventUseCase creates a new IngestEventUseCase.
func NewIngestEventUseCase(queue domain.EventQueue, redactor *pii.Redactor, logger *slog.Logger) *IngestEventUseCase {
	return &IngestEventUseCase{
		queue:    queue,
		redactor: redactor,
		logger:   logger,
		clock:    clockwork.NewRealClock(),
	}
}

// Ingest buffers event. Redaction failures are logged and the event is kept.
func (uc *IngestEventUseCase) Ingest(ctx context.Context, event *domain.Event) error {
	if event.EventName == "" {
		return fmt.Errorf("%w: eventname is required", ErrInvalidEvent)
	}
	if event.TimeCreated <= 0 {
		return fmt.Errorf("%w: timecreated is required", ErrInvalidEvent)
	}

	event.ReceivedAt = uc.clock.Now().UTC()
	if event.BridgeID == "" {
		event.BridgeID = uuid.NewString()
	}

	if err := uc.redactor.Redact(event); err != nil {
		uc.logger.Warn("failed to redact PII, buffering original event", "error", err, "bridge_id", event.BridgeID)
	}

	if err := uc.queue.BufferEvent(ctx, *event); err != nil {
		uc.logger.Error("failed to buffer event", "error", err, "bridge_id", event.BridgeID)
		return err
	}
	return nil
}
