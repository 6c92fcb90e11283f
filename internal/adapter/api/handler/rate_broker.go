package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// RateMessage is one sample of the live ingest rate feed.
type RateMessage struct {
	Rate float64 `json:"rate"`
}

// RateBroker streams the accepted-events-per-second rate to SSE clients.
type RateBroker struct {
	logger  *slog.Logger
	clock   clockwork.Clock
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
	counts  chan int
}

// NewRateBroker creates a RateBroker and starts its sampling loop, which
// runs until ctx is cancelled.
func NewRateBroker(ctx context.Context, logger *slog.Logger) *RateBroker {
	return newRateBroker(ctx, logger, clockwork.NewRealClock())
}

func newRateBroker(ctx context.Context, logger *slog.Logger, clock clockwork.Clock) *RateBroker {
	b := &RateBroker{
		logger:  logger.With("component", "rate_broker"),
		clock:   clock,
		clients: make(map[chan []byte]struct{}),
		counts:  make(chan int, 1000),
	}
	go b.run(ctx)
	return b
}

// ServeHTTP attaches an SSE client.
func (b *RateBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher.Flush()

	ch := make(chan []byte, 4)
	b.addClient(ch)
	defer b.removeClient(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// Report adds count accepted events to the current sample. It never blocks.
func (b *RateBroker) Report(count int) {
	select {
	case b.counts <- count:
	default:
		b.logger.Warn("rate report dropped, channel full")
	}
}

func (b *RateBroker) addClient(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[ch] = struct{}{}
}

func (b *RateBroker) removeClient(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.clients, ch)
}

func (b *RateBroker) clientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *RateBroker) broadcast(msg []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- msg:
		default:
			// Slow clients miss samples.
		}
	}
}

func (b *RateBroker) run(ctx context.Context) {
	ticker := b.clock.NewTicker(time.Second)
	defer ticker.Stop()

	count := 0
	last := b.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case n := <-b.counts:
			count += n
		case <-ticker.Chan():
			now := b.clock.Now()
			rate := 0.0
			if elapsed := now.Sub(last).Seconds(); elapsed > 0 {
				rate = float64(count) / elapsed
			}
			data, err := json.Marshal(RateMessage{Rate: rate})
			if err != nil {
				b.logger.Error("failed to marshal rate message", "error", err)
				continue
			}
			b.broadcast(data)
			count, last = 0, now
		}
	}
}
