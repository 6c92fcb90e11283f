package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

// MockEventQueue is a mock implementation of domain.EventQueue for testing.
type MockEventQueue struct {
	mu              sync.Mutex
	BufferedEvents  []domain.Event
	AckedMessageIDs []string
	DeadLetters     []domain.DeadLetter
	ReadBatchResult []domain.Event
	ClaimMinIdle    time.Duration
	BufferErr       error
	ReadErr         error
	ClaimErr        error
	AckErr          error
	DLQErr          error

	pending []domain.Event
}

func (m *MockEventQueue) BufferEvent(ctx context.Context, event domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BufferErr != nil {
		return m.BufferErr
	}
	m.BufferedEvents = append(m.BufferedEvents, event)
	return nil
}

// ReadEventBatch hands out ReadBatchResult once.
func (m *MockEventQueue) ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	batch := m.ReadBatchResult
	m.ReadBatchResult = nil
	m.pending = append(m.pending, batch...)
	return batch, nil
}

// ClaimStaleEvents returns delivered, unacknowledged events regardless of
// idle time.
func (m *MockEventQueue) ClaimStaleEvents(ctx context.Context, group, consumer string, minIdle time.Duration, count int) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ClaimMinIdle = minIdle
	if m.ClaimErr != nil {
		return nil, m.ClaimErr
	}
	n := min(count, len(m.pending))
	return append([]domain.Event(nil), m.pending[:n]...), nil
}

func (m *MockEventQueue) AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AckErr != nil {
		return m.AckErr
	}
	m.AckedMessageIDs = append(m.AckedMessageIDs, messageIDs...)
	acked := make(map[string]bool, len(messageIDs))
	for _, id := range messageIDs {
		acked[id] = true
	}
	kept := m.pending[:0]
	for _, e := range m.pending {
		if !acked[e.StreamMessageID] {
			kept = append(kept, e)
		}
	}
	m.pending = kept
	return nil
}

func (m *MockEventQueue) MoveToDLQ(ctx context.Context, letters []domain.DeadLetter) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DLQErr != nil {
		return m.DLQErr
	}
	m.DeadLetters = append(m.DeadLetters, letters...)
	return nil
}

// MockStatementSink records written statements. WriteErrs are returned in
// order, one per call, before writes start succeeding.
type MockStatementSink struct {
	mu        sync.Mutex
	Written   []domain.Statement
	Calls     int
	WriteErrs []error
}

func (m *MockStatementSink) WriteStatements(ctx context.Context, statements []domain.Statement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	if len(m.WriteErrs) > 0 {
		err := m.WriteErrs[0]
		m.WriteErrs = m.WriteErrs[1:]
		if err != nil {
			return err
		}
	}
	m.Written = append(m.Written, statements...)
	return nil
}

// MockQueueAdmin is a mock implementation of domain.QueueAdminRepository.
type MockQueueAdmin struct {
	mu          sync.Mutex
	Groups      []domain.ConsumerGroupInfo
	Pending     *domain.PendingMessageSummary
	PendingList []domain.PendingMessageDetail
	Claimable   []domain.Event
	Claimed     []string
	DeadLetters []domain.DeadLetter
	Requeued    []string
	TrimmedTo   int64
	Err         error
}

func (m *MockQueueAdmin) GetGroupInfo(ctx context.Context) ([]domain.ConsumerGroupInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Groups, m.Err
}

func (m *MockQueueAdmin) GetPendingSummary(ctx context.Context, group string) (*domain.PendingMessageSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Pending, m.Err
}

func (m *MockQueueAdmin) GetPendingMessages(ctx context.Context, group, consumer, startID string, count int64) ([]domain.PendingMessageDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.PendingMessageDetail
	for _, p := range m.PendingList {
		if consumer != "" && p.Consumer != consumer {
			continue
		}
		if int64(len(out)) == count {
			break
		}
		out = append(out, p)
	}
	return out, nil
}

// ClaimMessages returns the Claimable events whose ids were requested.
func (m *MockQueueAdmin) ClaimMessages(ctx context.Context, group, consumer string, minIdle time.Duration, messageIDs []string) ([]domain.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	m.Claimed = append(m.Claimed, messageIDs...)
	var out []domain.Event
	for _, id := range messageIDs {
		for _, e := range m.Claimable {
			if e.StreamMessageID == id {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

func (m *MockQueueAdmin) ListDeadLetters(ctx context.Context, startID string, count int64) ([]domain.DeadLetter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.DeadLetter
	for _, l := range m.DeadLetters {
		if startID != "" && startID != "-" && l.ID < startID {
			continue
		}
		if int64(len(out)) == count {
			break
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *MockQueueAdmin) RequeueDeadLetters(ctx context.Context, ids ...string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.Requeued = append(m.Requeued, ids...)
	return int64(len(ids)), nil
}

func (m *MockQueueAdmin) TrimDeadLetters(ctx context.Context, maxLen int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TrimmedTo = maxLen
	return 0, m.Err
}

// MockAPIKeyRepository accepts the keys in Valid.
type MockAPIKeyRepository struct {
	Valid map[string]bool
	Err   error
}

func (m *MockAPIKeyRepository) IsValid(ctx context.Context, key string) (bool, error) {
	if m.Err != nil {
		return false, m.Err
	}
	return m.Valid[key], nil
}
