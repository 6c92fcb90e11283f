package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

const (
	defaultPage = 100
	maxPage     = 1000
)

var (
	// ErrNoIDs is returned when a requeue or claim names no messages.
	ErrNoIDs = errors.New("at least one message id is required")
	// ErrNoConsumer is returned when a claim names no target consumer.
	ErrNoConsumer = errors.New("consumer is required")
)

// QueueAdminUseCase exposes buffer and dead-letter maintenance.
type QueueAdminUseCase struct {
	repo domain.QueueAdminRepository
}

// NewQueueAdminUseCase creates a new QueueAdminUseCase.
func NewQueueAdminUseCase(repo domain.QueueAdminRepository) *QueueAdminUseCase {
	return &QueueAdminUseCase{repo: repo}
}

func (uc *QueueAdminUseCase) GetGroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	return uc.repo.GetGroupInfo(ctx)
}

func (uc *QueueAdminUseCase) GetPendingSummary(ctx context.Context, group string) (*domain.PendingMessageSummary, error) {
	return uc.repo.GetPendingSummary(ctx, group)
}

func (uc *QueueAdminUseCase) GetPendingMessages(ctx context.Context, group, consumer, startID string, count int64) ([]domain.PendingMessageDetail, error) {
	if startID == "" {
		startID = "-"
	}
	return uc.repo.GetPendingMessages(ctx, group, consumer, startID, pageSize(count))
}

// ClaimMessages reassigns pending events to consumer so they are translated
// on its next batch.
func (uc *QueueAdminUseCase) ClaimMessages(ctx context.Context, group, consumer string, minIdle time.Duration, messageIDs []string) ([]domain.Event, error) {
	if consumer == "" {
		return nil, ErrNoConsumer
	}
	if len(messageIDs) == 0 {
		return nil, ErrNoIDs
	}
	if minIdle < 0 {
		minIdle = 0
	}
	return uc.repo.ClaimMessages(ctx, group, consumer, minIdle, messageIDs)
}

// ListDeadLetters pages through dead letters.
func (uc *QueueAdminUseCase) ListDeadLetters(ctx context.Context, startID string, count int64) ([]domain.DeadLetter, error) {
	if startID == "" {
		startID = "-"
	}
	return uc.repo.ListDeadLetters(ctx, startID, pageSize(count))
}

// pageSize clamps count to [1, maxPage].
func pageSize(count int64) int64 {
	switch {
	case count <= 0:
		return defaultPage
	case count > maxPage:
		return maxPage
	}
	return count
}

func (uc *QueueAdminUseCase) RequeueDeadLetters(ctx context.Context, ids ...string) (int64, error) {
	if len(ids) == 0 {
		return 0, ErrNoIDs
	}
	return uc.repo.RequeueDeadLetters(ctx, ids...)
}

func (uc *QueueAdminUseCase) TrimDeadLetters(ctx context.Context, maxLen int64) (int64, error) {
	if maxLen < 0 {
		maxLen = 0
	}
	return uc.repo.TrimDeadLetters(ctx, maxLen)
}
