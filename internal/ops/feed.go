// Package ops exposes the operator surface: a live WebSocket feed of
// dispatch activity and read-only JSON endpoints.
package ops

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
)

// Event is one entry in the activity feed.
type Event struct {
	Time   time.Time `json:"time"`
	Kind   string    `json:"kind"`
	Detail string    `json:"detail"`
}

const subscriberQueueSize = 32

// Feed fans dispatch events out to connected operator consoles. Publishing
// never blocks: a subscriber that cannot keep up loses events rather than
// stalling the dispatcher.
type Feed struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewFeed creates an empty activity feed.
func NewFeed() *Feed {
	return &Feed{
		subs: make(map[chan Event]struct{}),
	}
}

// Publish delivers an event to every subscriber, dropping it for any whose
// queue is full.
func (f *Feed) Publish(kind, detail string) {
	ev := Event{Time: time.Now(), Kind: kind, Detail: detail}

	f.mu.RLock()
	defer f.mu.RUnlock()
	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// Slow consumer; skip this event for it.
		}
	}
}

func (f *Feed) subscribe() chan Event {
	ch := make(chan Event, subscriberQueueSize)
	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()
	return ch
}

func (f *Feed) unsubscribe(ch chan Event) {
	f.mu.Lock()
	delete(f.subs, ch)
	f.mu.Unlock()
}

// SubscriberCount returns the number of connected consoles.
func (f *Feed) SubscriberCount() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

// ServeHTTP upgrades the request to a WebSocket and streams activity events
// as JSON until the client disconnects.
func (f *Feed) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept activity feed WebSocket", "error", err, "ip", r.RemoteAddr)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "feed closed"); closeErr != nil {
			slog.Debug("Failed to close activity feed websocket", "error", closeErr)
		}
	}()

	ch := f.subscribe()
	defer f.unsubscribe(ch)
	slog.Info("Activity feed subscriber connected", "ip", r.RemoteAddr)

	ctx := r.Context()
	for {
		select {
		case ev := <-ch:
			payload, err := json.Marshal(ev)
			if err != nil {
				slog.Warn("Failed to marshal activity event", "error", err)
				continue
			}
			if err := ws.Write(ctx, websocket.MessageText, payload); err != nil {
				slog.Debug("Activity feed write failed, dropping subscriber", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
