package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
)

const ContentChannel = "content_changes"

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
	// OpReset is emitted locally after the listener reconnects; notifications
	// may have been missed, so subscribers must drop derived state.
	OpReset = "reset"
)

// Event names a changed row. Payloads carry keys only since NOTIFY is capped
// at 8000 bytes; subscribers read the current value themselves.
type Event struct {
	Op  string `json:"op"`
	Key string `json:"key"`
}

type Handler func(Event)

// notificationSource is satisfied by *pq.Listener.
type notificationSource interface {
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Feed fans out row-change events from a Postgres NOTIFY channel to
// in-process subscribers.
type Feed struct {
	mu     sync.RWMutex
	subs   map[int]Handler
	nextID int

	src          notificationSource
	pingInterval time.Duration
	log          *slog.Logger
}

func NewFeed(src notificationSource, log *slog.Logger) *Feed {
	return &Feed{
		subs:         make(map[int]Handler),
		src:          src,
		pingInterval: 90 * time.Second,
		log:          log.With("component", "changefeed"),
	}
}

// NewPQListener opens a LISTEN connection on channel.
func NewPQListener(dsn, channel string, log *slog.Logger) (*pq.Listener, error) {
	l := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn("changefeed listener event", "event", int(ev), "error", err)
		}
	})
	if err := l.Listen(channel); err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return l, nil
}

// Subscribe registers h and returns a function that removes it.
func (f *Feed) Subscribe(h Handler) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.subs[id] = h
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.subs, id)
	}
}

func (f *Feed) Broadcast(ev Event) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, h := range f.subs {
		h(ev)
	}
}

// Run pumps notifications until ctx is cancelled, then closes the source.
func (f *Feed) Run(ctx context.Context) error {
	defer f.src.Close()

	ticker := time.NewTicker(f.pingInterval)
	defer ticker.Stop()

	notifications := f.src.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-notifications:
			if !ok {
				return fmt.Errorf("changefeed: notification channel closed")
			}
			f.handle(n)
		case <-ticker.C:
			if err := f.src.Ping(); err != nil {
				f.log.Warn("changefeed ping failed", "error", err)
			}
		}
	}
}

func (f *Feed) handle(n *pq.Notification) {
	if n == nil {
		// pq delivers nil after re-establishing the connection
		f.log.Info("changefeed reconnected, resetting subscribers")
		f.Broadcast(Event{Op: OpReset})
		return
	}
	ev, err := ParseEvent([]byte(n.Extra))
	if err != nil {
		f.log.Warn("changefeed: dropping malformed notification", "channel", n.Channel, "error", err)
		return
	}
	f.Broadcast(ev)
}

func ParseEvent(payload []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return Event{}, fmt.Errorf("decode change event: %w", err)
	}
	switch ev.Op {
	case OpUpsert, OpDelete:
	default:
		return Event{}, fmt.Errorf("unknown change op %q", ev.Op)
	}
	if ev.Key == "" {
		return Event{}, fmt.Errorf("change event without key")
	}
	return ev, nil
}
