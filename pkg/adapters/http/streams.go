package http

import (
	"log/slog"
	"sync"
)

// StreamManager fans attempt diffs out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	logger      *slog.Logger
	subscribers map[string]map[chan<- string]struct{} // attemptID -> channels
}

// NewStreamManager creates an empty manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		logger:      logger,
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for attemptID. The returned func unsubscribes and closes it.
func (sm *StreamManager) Subscribe(attemptID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[attemptID]; !ok {
		sm.subscribers[attemptID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[attemptID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[attemptID]; ok {
			if _, ok := subs[ch]; !ok {
				return
			}
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, attemptID)
			}
		}
	}
}

// Subscribers returns the number of listeners of attemptID.
func (sm *StreamManager) Subscribers(attemptID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[attemptID])
}

// Broadcast sends msg to every subscriber of attemptID. Slow clients lose messages.
func (sm *StreamManager) Broadcast(attemptID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[attemptID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE client buffer full, dropping message", "attempt", attemptID)
		}
	}
}
