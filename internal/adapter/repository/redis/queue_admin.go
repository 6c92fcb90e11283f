package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// QueueAdmin implements domain.QueueAdminRepository.
type QueueAdmin struct {
	client  *redis.Client
	logger  *slog.Logger
	streams Streams
}

// NewQueueAdmin creates a Redis queue admin repository.
func NewQueueAdmin(client *redis.Client, logger *slog.Logger, streams Streams) *QueueAdmin {
	return &QueueAdmin{
		client:  client,
		logger:  logger.With("component", "redis_queue_admin"),
		streams: streams,
	}
}

// GetGroupInfo lists the consumer groups of the event stream.
func (r *QueueAdmin) GetGroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	groups, err := r.client.XInfoGroups(ctx, r.streams.Events).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get group info for stream %s: %w", r.streams.Events, err)
	}

	result := make([]domain.ConsumerGroupInfo, len(groups))
	for i, g := range groups {
		result[i] = domain.ConsumerGroupInfo{
			Name:            g.Name,
			Consumers:       g.Consumers,
			Pending:         g.Pending,
			LastDeliveredID: g.LastDeliveredID,
		}
	}
	return result, nil
}

// GetPendingSummary summarises delivered but unacknowledged events of group.
func (r *QueueAdmin) GetPendingSummary(ctx context.Context, group string) (*domain.PendingMessageSummary, error) {
	pending, err := r.client.XPending(ctx, r.streams.Events, group).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending summary for group %s: %w", group, err)
	}
	return &domain.PendingMessageSummary{
		Total:          pending.Count,
		FirstMessageID: pending.Lower,
		LastMessageID:  pending.Higher,
		ConsumerTotals: pending.Consumers,
	}, nil
}

// GetPendingMessages lists unacknowledged events of group, optionally for a
// single consumer.
func (r *QueueAdmin) GetPendingMessages(ctx context.Context, group, consumer, startID string, count int64) ([]domain.PendingMessageDetail, error) {
	pending, err := r.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream:   r.streams.Events,
		Group:    group,
		Start:    startID,
		End:      "+",
		Count:    count,
		Consumer: consumer,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get pending messages for group %s: %w", group, err)
	}

	result := make([]domain.PendingMessageDetail, len(pending))
	for i, p := range pending {
		result[i] = domain.PendingMessageDetail{
			ID:         p.ID,
			Consumer:   p.Consumer,
			IdleTime:   p.Idle,
			RetryCount: p.RetryCount,
		}
	}
	return result, nil
}

// ClaimMessages hands the given pending events to consumer. Events idle for
// less than minIdle are left with their current owner.
func (r *QueueAdmin) ClaimMessages(ctx context.Context, group, consumer string, minIdle time.Duration, messageIDs []string) ([]domain.Event, error) {
	msgs, err := r.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   r.streams.Events,
		Group:    group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: messageIDs,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim messages: %w", err)
	}
	return decodeMessages(r.logger, msgs), nil
}

// ListDeadLetters pages through the dead-letter stream starting at startID
// ("-" for the beginning).
func (r *QueueAdmin) ListDeadLetters(ctx context.Context, startID string, count int64) ([]domain.DeadLetter, error) {
	if startID == "" {
		startID = "-"
	}
	msgs, err := r.client.XRangeN(ctx, r.streams.DeadLetters, startID, "+", count).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}

	letters := make([]domain.DeadLetter, 0, len(msgs))
	for _, msg := range msgs {
		letter, err := decodeDeadLetter(msg)
		if err != nil {
			r.logger.Warn("Skipping undecodable dead letter", "message_id", msg.ID, "error", err)
			continue
		}
		letters = append(letters, letter)
	}
	return letters, nil
}

// RequeueDeadLetters moves the given dead letters back onto the event stream
// and returns how many were moved. Unknown ids are ignored.
func (r *QueueAdmin) RequeueDeadLetters(ctx context.Context, ids ...string) (int64, error) {
	var moved int64
	for _, id := range ids {
		msgs, err := r.client.XRangeN(ctx, r.streams.DeadLetters, id, id, 1).Result()
		if err != nil {
			return moved, fmt.Errorf("failed to read dead letter %s: %w", id, err)
		}
		if len(msgs) == 0 {
			continue
		}
		payload, ok := msgs[0].Values[fieldPayload].(string)
		if !ok {
			r.logger.Warn("Dead letter has no payload, skipping", "message_id", id)
			continue
		}

		pipe := r.client.TxPipeline()
		pipe.XAdd(ctx, &redis.XAddArgs{Stream: r.streams.Events, Values: map[string]any{fieldPayload: payload}})
		pipe.XDel(ctx, r.streams.DeadLetters, id)
		if _, err := pipe.Exec(ctx); err != nil {
			return moved, fmt.Errorf("failed to requeue dead letter %s: %w", id, err)
		}
		moved++
	}
	if moved > 0 {
		r.logger.Info("Requeued dead letters", "count", moved)
	}
	return moved, nil
}

// TrimDeadLetters caps the dead-letter stream at maxLen entries.
func (r *QueueAdmin) TrimDeadLetters(ctx context.Context, maxLen int64) (int64, error) {
	return r.client.XTrimMaxLen(ctx, r.streams.DeadLetters, maxLen).Result()
}
