package usecase

import (
	"context"
	"fmt"
	"time"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/domain"
	"github.com/V4T54L/xapi-bridge/internal/domain/mocks"
)

func TestQueueAdminUseCase_ListDeadLetters(t *testing.T) {
	repo := &mocks.MockQueueAdmin{}
	for i := 0; i < 150; i++ {
		repo.DeadLetters = append(repo.DeadLetters, domain.DeadLetter{ID: fmt.Sprintf("1-%03d", i)})
	}
	uc := NewQueueAdminUseCase(repo)

	letters, err := uc.ListDeadLetters(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Len(t, letters, defaultPage)

	letters, err = uc.ListDeadLetters(context.Background(), "1-140", 5)
	require.NoError(t, err)
	require.Len(t, letters, 5)
	assert.Equal(t, "1-140", letters[0].ID)
}

func TestQueueAdminUseCase_Requeue(t *testing.T) {
	repo := &mocks.MockQueueAdmin{}
	uc := NewQueueAdminUseCase(repo)

	_, err := uc.RequeueDeadLetters(context.Background())
	assert.ErrorIs(t, err, ErrNoIDs)

	n, err := uc.RequeueDeadLetters(context.Background(), "1-0", "1-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, []string{"1-0", "1-1"}, repo.Requeued)
}

func TestQueueAdminUseCase_Trim(t *testing.T) {
	repo := &mocks.MockQueueAdmin{}
	uc := NewQueueAdminUseCase(repo)

	_, err := uc.TrimDeadLetters(context.Background(), -5)
	require.NoError(t, err)
	assert.Zero(t, repo.TrimmedTo)
}

func TestQueueAdminUseCase_PendingMessages(t *testing.T) {
	repo := &mocks.MockQueueAdmin{PendingList: []domain.PendingMessageDetail{
		{ID: "1-0", Consumer: "worker-a", IdleTime: time.Minute, RetryCount: 2},
		{ID: "1-1", Consumer: "worker-b"},
	}}
	uc := NewQueueAdminUseCase(repo)

	all, err := uc.GetPendingMessages(context.Background(), "translators", "", "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := uc.GetPendingMessages(context.Background(), "translators", "worker-a", "", 10)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, int64(2), mine[0].RetryCount)
}

func TestQueueAdminUseCase_Claim(t *testing.T) {
	repo := &mocks.MockQueueAdmin{Claimable: []domain.Event{{ID: 7, StreamMessageID: "1-0"}}}
	uc := NewQueueAdminUseCase(repo)

	_, err := uc.ClaimMessages(context.Background(), "translators", "", time.Minute, []string{"1-0"})
	assert.ErrorIs(t, err, ErrNoConsumer)

	_, err = uc.ClaimMessages(context.Background(), "translators", "worker-b", time.Minute, nil)
	assert.ErrorIs(t, err, ErrNoIDs)

	claimed, err := uc.ClaimMessages(context.Background(), "translators", "worker-b", time.Minute, []string{"1-0", "9-9"})
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, int64(7), claimed[0].ID)
	assert.Equal(t, []string{"1-0", "9-9"}, repo.Claimed)
}
