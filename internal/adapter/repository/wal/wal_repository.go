package wal

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/V4T54L/xapi-bridge/internal/domain"
)

const (
	segmentPrefix = "segment-"
	segmentSuffix = ".ndjson"
	filePerm      = 0o644

	// maxLineSize bounds a single event line on replay.
	maxLineSize = 4 << 20
)

// ErrDiskFull is returned by Write when the WAL would grow past its limit.
var ErrDiskFull = errors.New("wal: max total size exceeded")

// Repository is a segmented, newline-delimited JSON write-ahead log of
// events. It implements domain.WALRepository.
type Repository struct {
	dir            string
	maxSegmentSize int64
	maxTotalSize   int64
	logger         *slog.Logger
	clock          clockwork.Clock

	mu          sync.Mutex
	segment     *os.File
	segmentSize int64
	totalSize   int64
}

// NewRepository opens (or creates) a WAL in dir.
func NewRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger) (*Repository, error) {
	return newRepository(dir, maxSegmentSize, maxTotalSize, logger, clockwork.NewRealClock())
}

func newRepository(dir string, maxSegmentSize, maxTotalSize int64, logger *slog.Logger, clock clockwork.Clock) (*Repository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create WAL directory %s: %w", dir, err)
	}

	w := &Repository{
		dir:            dir,
		maxSegmentSize: maxSegmentSize,
		maxTotalSize:   maxTotalSize,
		logger:         logger.With("component", "wal"),
		clock:          clock,
	}
	if err := w.openLatestSegment(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends event as one JSON line.
func (w *Repository) Write(_ context.Context, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event for WAL: %w", err)
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.segment == nil {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	if w.totalSize+int64(len(data)) > w.maxTotalSize {
		return fmt.Errorf("%w (%d + %d > %d)", ErrDiskFull, w.totalSize, len(data), w.maxTotalSize)
	}

	n, err := w.segment.Write(data)
	w.segmentSize += int64(n)
	w.totalSize += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write WAL segment: %w", err)
	}

	if w.segmentSize >= w.maxSegmentSize {
		if err := w.rotate(); err != nil {
			w.logger.Error("Failed to rotate WAL segment", "error", err)
		}
	}
	return nil
}

// Replay hands every logged event to handler in write order. Lines that do
// not decode are skipped; a handler error stops the replay.
func (w *Repository) Replay(ctx context.Context, handler func(event domain.Event) error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeSegment()
	defer func() {
		if w.segment == nil {
			if err := w.openLatestSegment(); err != nil {
				w.logger.Error("Failed to reopen WAL after replay", "error", err)
			}
		}
	}()

	segments, err := w.segments()
	if err != nil {
		return err
	}
	w.logger.Info("Starting WAL replay", "segment_count", len(segments))

	for _, path := range segments {
		if err := replaySegment(ctx, path, handler, w.logger); err != nil {
			return err
		}
	}
	return nil
}

func replaySegment(ctx context.Context, path string, handler func(domain.Event) error, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open segment %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var event domain.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			logger.Warn("Skipping undecodable WAL line", "segment", filepath.Base(path), "error", err)
			continue
		}
		if err := handler(event); err != nil {
			return fmt.Errorf("replay handler failed: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error scanning segment %s: %w", path, err)
	}
	return nil
}

// Truncate removes all segments and starts a fresh one.
func (w *Repository) Truncate(_ context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeSegment()
	segments, err := w.segments()
	if err != nil {
		return err
	}
	for _, path := range segments {
		if err := os.Remove(path); err != nil {
			w.logger.Error("Failed to remove WAL segment", "path", path, "error", err)
		}
	}
	w.totalSize = 0
	w.logger.Info("WAL truncated", "segments", len(segments))
	return w.rotate()
}

// Close closes the active segment.
func (w *Repository) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.segment == nil {
		return nil
	}
	err := w.segment.Close()
	w.segment = nil
	return err
}

func (w *Repository) closeSegment() {
	if w.segment == nil {
		return
	}
	if err := w.segment.Sync(); err != nil {
		w.logger.Error("Failed to sync WAL segment", "error", err)
	}
	if err := w.segment.Close(); err != nil {
		w.logger.Error("Failed to close WAL segment", "error", err)
	}
	w.segment = nil
}

func (w *Repository) rotate() error {
	w.closeSegment()

	// Zero-padded so lexical order is creation order.
	name := fmt.Sprintf("%s%020d%s", segmentPrefix, w.clock.Now().UnixNano(), segmentSuffix)
	path := filepath.Join(w.dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to create WAL segment %s: %w", path, err)
	}
	w.segment = f
	w.segmentSize = 0
	w.logger.Debug("Rotated WAL segment", "path", path)
	return nil
}

func (w *Repository) openLatestSegment() error {
	segments, err := w.segments()
	if err != nil {
		return err
	}

	w.totalSize = 0
	for _, path := range segments {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat segment %s: %w", path, err)
		}
		w.totalSize += info.Size()
	}
	if len(segments) == 0 {
		return w.rotate()
	}

	latest := segments[len(segments)-1]
	info, err := os.Stat(latest)
	if err != nil {
		return fmt.Errorf("failed to stat segment %s: %w", latest, err)
	}
	if info.Size() >= w.maxSegmentSize {
		return w.rotate()
	}

	f, err := os.OpenFile(latest, os.O_APPEND|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("failed to open segment %s: %w", latest, err)
	}
	w.segment = f
	w.segmentSize = info.Size()
	return nil
}

func (w *Repository) segments() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read WAL directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, segmentPrefix) && strings.HasSuffix(name, segmentSuffix) {
			paths = append(paths, filepath.Join(w.dir, name))
		}
	}
	slices.Sort(paths)
	return paths, nil
}
