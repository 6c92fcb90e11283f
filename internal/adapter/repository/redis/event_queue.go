package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

const (
	fieldPayload       = "payload"
	fieldReason        = "reason"
	fieldFailedAt      = "failed_at"
	fieldOriginalMsgID = "original_msg_id"
	fieldOriginStream  = "original_stream"
)

// Streams names the Redis streams used by the bridge.
type Streams struct {
	Events      string
	DeadLetters string
}

// EventQueue implements domain.EventQueue on Redis Streams. Writes fall back
// to a local WAL while Redis is unreachable.
type EventQueue struct {
	client      *redis.Client
	logger      *slog.Logger
	streams     Streams
	wal         domain.WALRepository
	walActive   prometheus.Gauge
	isAvailable atomic.Bool
}

// NewEventQueue creates the queue and makes sure the consumer group exists.
// wal and walActive may be nil; the translator runs without a WAL.
func NewEventQueue(client *redis.Client, logger *slog.Logger, streams Streams, group string, wal domain.WALRepository, walActive prometheus.Gauge) *EventQueue {
	q := &EventQueue{
		client:    client,
		logger:    logger.With("component", "redis_event_queue"),
		streams:   streams,
		wal:       wal,
		walActive: walActive,
	}
	q.isAvailable.Store(true)

	if group != "" {
		if err := q.setupConsumerGroup(context.Background(), group); err != nil {
			q.markUnavailable(err)
		}
	}
	return q
}

// StartHealthCheck pings Redis every interval and replays the WAL once the
// connection comes back. It blocks until ctx is cancelled.
func (q *EventQueue) StartHealthCheck(ctx context.Context, interval time.Duration) {
	if q.wal == nil {
		q.logger.Info("WAL is not configured, skipping health check")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			q.logger.Info("Stopping Redis health check")
			return
		case <-ticker.C:
			if err := q.client.Ping(ctx).Err(); err != nil {
				q.markUnavailable(err)
				continue
			}
			if q.isAvailable.CompareAndSwap(false, true) {
				q.logger.Info("Redis connection recovered")
				if err := q.ReplayWAL(ctx); err != nil {
					q.logger.Error("Failed to replay WAL after Redis recovery", "error", err)
					q.isAvailable.Store(false)
					continue
				}
				q.setWALActive(false)
			}
		}
	}
}

// ReplayWAL pushes every WAL event to the stream and truncates the WAL.
func (q *EventQueue) ReplayWAL(ctx context.Context) error {
	if err := q.wal.Replay(ctx, func(event domain.Event) error {
		return q.xadd(ctx, event)
	}); err != nil {
		return fmt.Errorf("WAL replay failed: %w", err)
	}
	if err := q.wal.Truncate(ctx); err != nil {
		return fmt.Errorf("failed to truncate WAL after replay: %w", err)
	}
	q.logger.Info("WAL replay to Redis completed")
	return nil
}

// BufferEvent appends event to the event stream, or to the WAL when Redis is
// down.
func (q *EventQueue) BufferEvent(ctx context.Context, event domain.Event) error {
	if !q.isAvailable.Load() {
		return q.writeWAL(ctx, event, nil)
	}

	err := q.xadd(ctx, event)
	if err != nil && isNetworkError(err) {
		q.markUnavailable(err)
		return q.writeWAL(ctx, event, err)
	}
	return err
}

func (q *EventQueue) writeWAL(ctx context.Context, event domain.Event, cause error) error {
	if q.wal == nil {
		if cause != nil {
			return fmt.Errorf("redis unavailable and WAL not configured: %w", cause)
		}
		return errors.New("redis unavailable and WAL not configured")
	}
	q.setWALActive(true)
	q.logger.Warn("Redis is unavailable, writing to WAL", "bridge_id", event.BridgeID)
	return q.wal.Write(ctx, event)
}

func (q *EventQueue) xadd(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	err = q.client.XAdd(ctx, &redis.XAddArgs{
		Stream: q.streams.Events,
		Values: map[string]any{fieldPayload: payload},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to XADD to %s: %w", q.streams.Events, err)
	}
	return nil
}

// ReadEventBatch reads up to count new events for consumer.
func (q *EventQueue) ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]domain.Event, error) {
	streams, err := q.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    group,
		Consumer: consumer,
		Streams:  []string{q.streams.Events, ">"},
		Count:    int64(count),
		Block:    2 * time.Second,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XREADGROUP from %s: %w", q.streams.Events, err)
	}
	if len(streams) == 0 {
		return nil, nil
	}
	return decodeMessages(q.logger, streams[0].Messages), nil
}

// ClaimStaleEvents moves up to count events that another delivery left
// unacknowledged for minIdle over to consumer, scanning the pending list from
// the start.
func (q *EventQueue) ClaimStaleEvents(ctx context.Context, group, consumer string, minIdle time.Duration, count int) ([]domain.Event, error) {
	msgs, _, err := q.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   q.streams.Events,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Start:    "0-0",
		Count:    int64(count),
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to XAUTOCLAIM from %s: %w", q.streams.Events, err)
	}
	if len(msgs) > 0 {
		q.logger.Info("Claimed stale events", "count", len(msgs), "consumer", consumer)
	}
	return decodeMessages(q.logger, msgs), nil
}

// AcknowledgeEvents acknowledges processed messages.
func (q *EventQueue) AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	if err := q.client.XAck(ctx, q.streams.Events, group, messageIDs...).Err(); err != nil {
		return fmt.Errorf("failed to XACK on %s: %w", q.streams.Events, err)
	}
	return nil
}

// MoveToDLQ appends letters to the dead-letter stream in one pipeline.
func (q *EventQueue) MoveToDLQ(ctx context.Context, letters []domain.DeadLetter) error {
	if len(letters) == 0 {
		return nil
	}

	pipe := q.client.Pipeline()
	for _, letter := range letters {
		values, err := deadLetterValues(letter, q.streams.Events)
		if err != nil {
			q.logger.Error("Failed to encode dead letter", "event_id", letter.Event.ID, "error", err)
			continue
		}
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: q.streams.DeadLetters, Values: values})
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to execute DLQ pipeline: %w", err)
	}
	q.logger.Warn("Moved events to DLQ", "count", len(letters))
	return nil
}

func (q *EventQueue) setupConsumerGroup(ctx context.Context, group string) error {
	err := q.client.XGroupCreateMkStream(ctx, q.streams.Events, group, "0").Err()
	if err != nil && !isBusyGroupError(err) {
		return fmt.Errorf("failed to create consumer group %s: %w", group, err)
	}
	return nil
}

func (q *EventQueue) markUnavailable(err error) {
	if q.isAvailable.CompareAndSwap(true, false) {
		q.logger.Error("Redis connection lost", "error", err)
	}
}

func (q *EventQueue) setWALActive(active bool) {
	if q.walActive == nil {
		return
	}
	if active {
		q.walActive.Set(1)
	} else {
		q.walActive.Set(0)
	}
}

// decodeMessages skips messages that do not decode; they stay pending for
// inspection.
func decodeMessages(logger *slog.Logger, msgs []redis.XMessage) []domain.Event {
	events := make([]domain.Event, 0, len(msgs))
	for _, msg := range msgs {
		event, err := decodeEvent(msg)
		if err != nil {
			logger.Warn("Skipping undecodable stream message", "message_id", msg.ID, "error", err)
			continue
		}
		events = append(events, event)
	}
	return events
}

func decodeEvent(msg redis.XMessage) (domain.Event, error) {
	var event domain.Event
	raw, ok := msg.Values[fieldPayload].(string)
	if !ok {
		return event, fmt.Errorf("message has no %q field", fieldPayload)
	}
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return event, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	event.StreamMessageID = msg.ID
	return event, nil
}

func deadLetterValues(letter domain.DeadLetter, origin string) (map[string]any, error) {
	payload, err := json.Marshal(letter.Event)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		fieldPayload:       payload,
		fieldReason:        letter.Reason,
		fieldFailedAt:      letter.FailedAt.UTC().Format(time.RFC3339),
		fieldOriginStream:  origin,
		fieldOriginalMsgID: letter.Event.StreamMessageID,
	}, nil
}

func decodeDeadLetter(msg redis.XMessage) (domain.DeadLetter, error) {
	event, err := decodeEvent(msg)
	if err != nil {
		return domain.DeadLetter{}, err
	}
	event.StreamMessageID, _ = msg.Values[fieldOriginalMsgID].(string)

	letter := domain.DeadLetter{ID: msg.ID, Event: event}
	letter.Reason, _ = msg.Values[fieldReason].(string)
	if ts, ok := msg.Values[fieldFailedAt].(string); ok {
		if at, err := time.Parse(time.RFC3339, ts); err == nil {
			letter.FailedAt = at
		}
	}
	return letter, nil
}

func isBusyGroupError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) || errors.Is(err, redis.ErrClosed) || errors.Is(err, context.DeadlineExceeded)
}
