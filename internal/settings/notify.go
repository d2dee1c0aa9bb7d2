package settings

import (
	"context"
	"sync"
	"time"
)

// Change describes one settings mutation delivered to listeners.
type Change struct {
	// Keys names the settings that changed. A change detected only through
	// the version poller reports every key, since the poller cannot tell
	// which rows moved.
	Keys []string
	// Version is the store version after the mutation.
	Version int64
}

// Listener receives change notifications. Listeners run synchronously on the
// mutating (or polling) goroutine and must not block.
type Listener func(Change)

type notifier struct {
	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int
	lastSeen  int64
}

func (n *notifier) subscribe(listener Listener) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.listeners == nil {
		n.listeners = make(map[int]Listener)
	}
	id := n.nextID
	n.nextID++
	n.listeners[id] = listener
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

func (n *notifier) notify(change Change) {
	n.mu.Lock()
	listeners := make([]Listener, 0, len(n.listeners))
	for _, l := range n.listeners {
		listeners = append(listeners, l)
	}
	n.mu.Unlock()
	for _, l := range listeners {
		l(change)
	}
}

// markSeen records a version observed by an in-process mutation so the
// watcher does not re-deliver it.
func (n *notifier) markSeen(version int64) {
	n.mu.Lock()
	if version > n.lastSeen {
		n.lastSeen = version
	}
	n.mu.Unlock()
}

func (n *notifier) advance(version int64) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if version <= n.lastSeen {
		return false
	}
	n.lastSeen = version
	return true
}

// OnChange registers a listener for settings mutations. The returned func
// unsubscribes it.
func (s *Store) OnChange(listener Listener) func() {
	return s.notifier.subscribe(listener)
}

// Watch polls the change version until ctx is done and notifies listeners
// when another process has mutated the store. In-process mutations notify
// directly and are not re-delivered here.
func (s *Store) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			version, err := s.Version(ctx)
			if err != nil {
				continue
			}
			if s.notifier.advance(version) {
				s.notifier.notify(Change{
					Keys:    []string{KeyTopics, KeyDisplayAction, KeySensitivity},
					Version: version,
				})
			}
		}
	}
}
