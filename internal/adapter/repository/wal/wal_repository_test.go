package wal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

func setupTestWAL(t *testing.T, maxSegmentSize, maxTotalSize int64) (*Repository, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	w, err := newRepository(t.TempDir(), maxSegmentSize, maxTotalSize, logger, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w, clock
}

func testEvent(id int64) domain.Event {
	return domain.Event{
		ID:                id,
		EventName:         `\core\event\course_viewed`,
		Component:         "core",
		UserID:            5,
		CourseID:          2,
		ContextInstanceID: 2,
		Other:             "N;",
		TimeCreated:       1700000000 + id,
	}
}

func TestWAL_WriteAndReplay(t *testing.T) {
	w, _ := setupTestWAL(t, 1024, 10*1024)
	ctx := context.Background()

	for id := int64(1); id <= 3; id++ {
		require.NoError(t, w.Write(ctx, testEvent(id)))
	}
	require.NoError(t, w.Close())

	// Reopen to simulate a restart.
	reopened, err := newRepository(w.dir, 1024, 10*1024, w.logger, w.clock)
	require.NoError(t, err)
	defer reopened.Close()
	assert.Positive(t, reopened.totalSize)

	var replayed []domain.Event
	require.NoError(t, reopened.Replay(ctx, func(event domain.Event) error {
		replayed = append(replayed, event)
		return nil
	}))

	require.Len(t, replayed, 3)
	for i, event := range replayed {
		assert.Equal(t, testEvent(int64(i+1)), event)
	}
}

func TestWAL_SegmentRotation(t *testing.T) {
	w, clock := setupTestWAL(t, 100, 10*1024)
	ctx := context.Background()

	data, err := json.Marshal(testEvent(1))
	require.NoError(t, err)
	writes := 100/len(data) + 2
	for i := 0; i < writes; i++ {
		clock.Advance(time.Millisecond)
		require.NoError(t, w.Write(ctx, testEvent(int64(i))))
	}

	segments, err := w.segments()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(segments), 2)
}

func TestWAL_ReplayStopsOnHandlerError(t *testing.T) {
	w, _ := setupTestWAL(t, 1024, 10*1024)
	ctx := context.Background()
	require.NoError(t, w.Write(ctx, testEvent(1)))
	require.NoError(t, w.Write(ctx, testEvent(2)))

	boom := errors.New("redis down")
	calls := 0
	err := w.Replay(ctx, func(domain.Event) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)

	// The WAL is still writable after a failed replay.
	assert.NoError(t, w.Write(ctx, testEvent(3)))
}

func TestWAL_Truncate(t *testing.T) {
	w, clock := setupTestWAL(t, 1024, 1024)
	ctx := context.Background()
	require.NoError(t, w.Write(ctx, testEvent(1)))

	clock.Advance(time.Second)
	require.NoError(t, w.Truncate(ctx))

	segments, err := w.segments()
	require.NoError(t, err)
	require.Len(t, segments, 1)
	info, err := os.Stat(segments[0])
	require.NoError(t, err)
	assert.Zero(t, info.Size())
	assert.Zero(t, w.totalSize)

	replayed := 0
	require.NoError(t, w.Replay(ctx, func(domain.Event) error {
		replayed++
		return nil
	}))
	assert.Zero(t, replayed)
}

func TestWAL_MaxTotalSize(t *testing.T) {
	w, _ := setupTestWAL(t, 100, 300)
	ctx := context.Background()

	var err error
	for i := 0; i < 10 && err == nil; i++ {
		err = w.Write(ctx, testEvent(int64(i)))
	}
	assert.ErrorIs(t, err, ErrDiskFull)
}
