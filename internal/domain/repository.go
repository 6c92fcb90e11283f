package domain

import (
	"context"
	"time"
)

// RecordRepository reads LMS rows by table and id. A miss must return an
// error matching ErrNotFound.
type RecordRepository interface {
	ReadRecordByID(ctx context.Context, table string, id int64) (Record, error)
}

// EventQueue buffers raw events between the ingest API and the translator.
type EventQueue interface {
	// BufferEvent adds a single event to the durable buffer.
	BufferEvent(ctx context.Context, event Event) error

	// ReadEventBatch reads up to count undelivered events for a consumer.
	ReadEventBatch(ctx context.Context, group, consumer string, count int) ([]Event, error)

	// ClaimStaleEvents takes over up to count events that were delivered to
	// any consumer of group and left unacknowledged for at least minIdle.
	ClaimStaleEvents(ctx context.Context, group, consumer string, minIdle time.Duration, count int) ([]Event, error)

	// AcknowledgeEvents marks buffer messages as processed.
	AcknowledgeEvents(ctx context.Context, group string, messageIDs ...string) error

	// MoveToDLQ parks events that could not be translated.
	MoveToDLQ(ctx context.Context, letters []DeadLetter) error
}

// StatementSink stores or forwards translated statements. Implementations must
// tolerate the same statement id being written twice.
type StatementSink interface {
	WriteStatements(ctx context.Context, statements []Statement) error
}

// QueueAdminRepository exposes buffer and dead-letter maintenance.
type QueueAdminRepository interface {
	GetGroupInfo(ctx context.Context) ([]ConsumerGroupInfo, error)
	GetPendingSummary(ctx context.Context, group string) (*PendingMessageSummary, error)
	GetPendingMessages(ctx context.Context, group, consumer, startID string, count int64) ([]PendingMessageDetail, error)
	ClaimMessages(ctx context.Context, group, consumer string, minIdle time.Duration, messageIDs []string) ([]Event, error)
	ListDeadLetters(ctx context.Context, startID string, count int64) ([]DeadLetter, error)
	RequeueDeadLetters(ctx context.Context, ids ...string) (int64, error)
	TrimDeadLetters(ctx context.Context, maxLen int64) (int64, error)
}

// APIKeyRepository validates ingest API keys.
type APIKeyRepository interface {
	// IsValid checks if the provided API key is valid and active.
	IsValid(ctx context.Context, key string) (bool, error)
}

// WALRepository is the local failover log used while the buffer is down.
type WALRepository interface {
	Write(ctx context.Context, event Event) error

	// Replay hands every logged event to handler in write order.
	Replay(ctx context.Context, handler func(event Event) error) error

	// Truncate removes replayed segments.
	Truncate(ctx context.Context) error
}
