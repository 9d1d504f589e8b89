package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/surveyflow/internal/logging"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/ports"
)

// DefaultLockTTL bounds how long a crashed replica can hold a distributed attempt lock.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates attempt access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.StateStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a new attempt Manager with the given persistence store.
func NewManager(store ports.StateStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(attemptID) after unlocking.
func (m *Manager) acquire(attemptID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[attemptID]
	if !exists {
		entry = &lockEntry{}
		m.locks[attemptID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(attemptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[attemptID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, attemptID)
	}
}

// Load retrieves an existing attempt from the store.
func (m *Manager) Load(ctx context.Context, attemptID string) (*domain.AttemptState, error) {
	var state *domain.AttemptState
	err := m.WithLock(ctx, attemptID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, attemptID)
		return err
	})
	return state, err
}

// LoadOrStart loads an attempt, or persists the state returned by start when none exists.
func (m *Manager) LoadOrStart(ctx context.Context, attemptID string, start func() (*domain.AttemptState, error)) (*domain.AttemptState, error) {
	var state *domain.AttemptState
	err := m.WithLock(ctx, attemptID, func(ctx context.Context) error {
		var err error
		state, err = m.store.Load(ctx, attemptID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			return fmt.Errorf("failed to check attempt existence: %w", err)
		}

		state, err = start()
		if err != nil {
			return err
		}

		// Persist immediately to reserve the ID
		if err := m.store.Save(ctx, attemptID, state); err != nil {
			return fmt.Errorf("failed to initialize attempt: %w", err)
		}
		return nil
	})
	return state, err
}

// Update runs a load-modify-save cycle under the attempt lock.
// fn receives the stored state and returns the state to persist.
func (m *Manager) Update(ctx context.Context, attemptID string, fn func(*domain.AttemptState) (*domain.AttemptState, error)) (*domain.AttemptState, error) {
	var next *domain.AttemptState
	err := m.WithLock(ctx, attemptID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, attemptID)
		if err != nil {
			return err
		}
		next, err = fn(current)
		if err != nil {
			return err
		}
		return m.store.Save(ctx, attemptID, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Save persists the attempt state.
func (m *Manager) Save(ctx context.Context, attemptID string, state *domain.AttemptState) error {
	return m.WithLock(ctx, attemptID, func(ctx context.Context) error {
		return m.store.Save(ctx, attemptID, state)
	})
}

// Delete removes the attempt from the store.
func (m *Manager) Delete(ctx context.Context, attemptID string) error {
	return m.WithLock(ctx, attemptID, func(ctx context.Context) error {
		return m.store.Delete(ctx, attemptID)
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying state store.
func (m *Manager) Store() ports.StateStore {
	return m.store
}

// WithLock executes a function while holding the lock for the attempt.
func (m *Manager) WithLock(ctx context.Context, attemptID string, fn func(context.Context) error) error {
	entry := m.acquire(attemptID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(attemptID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, attemptID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"attempt_id", attemptID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
