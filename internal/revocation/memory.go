package revocation

import (
	"context"
	"sync"
	"time"
)

// MemoryRegistry is an in-process Registry for development and tests.
// Expired entries are dropped lazily and by Sweep.
type MemoryRegistry struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
	err     error
}

// NewMemoryRegistry creates an empty MemoryRegistry. A nil now defaults to time.Now.
func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRegistry{entries: map[string]time.Time{}, now: now}
}

// FailWith makes every call return err until it is called with nil.
func (m *MemoryRegistry) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func (m *MemoryRegistry) Revoke(_ context.Context, id string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if !expiresAt.After(m.now()) {
		return nil
	}
	m.entries[id] = expiresAt
	return nil
}

func (m *MemoryRegistry) IsRevoked(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return false, m.err
	}
	exp, ok := m.entries[id]
	if !ok {
		return false, nil
	}
	if !exp.After(m.now()) {
		delete(m.entries, id)
		return false, nil
	}
	return true, nil
}

func (m *MemoryRegistry) Ping(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Len returns the number of live entries.
func (m *MemoryRegistry) Len() int {
	m.Sweep()
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Sweep drops expired entries.
func (m *MemoryRegistry) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.entries {
		if !exp.After(now) {
			delete(m.entries, id)
		}
	}
}

// Run sweeps every interval until ctx is done.
func (m *MemoryRegistry) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}
