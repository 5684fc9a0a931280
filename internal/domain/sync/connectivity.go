package sync

import (
	stdsync "sync"
)

// Monitor is a process-local connectivity signal. Writers flip the state
// via SetOnline; subscribers registered with OnOnline run on every
// offline-to-online transition (the outbox drain hooks in here).
type Monitor struct {
	mu       stdsync.Mutex
	online   bool
	onOnline []func()
}

// NewMonitor creates a monitor with an initial connectivity state
func NewMonitor(online bool) *Monitor {
	return &Monitor{online: online}
}

// Online reports the current connectivity state
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// OnOnline registers a callback invoked after each offline-to-online transition
func (m *Monitor) OnOnline(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// SetOnline updates the connectivity state, firing OnOnline subscribers
// synchronously when the state changes from offline to online.
func (m *Monitor) SetOnline(online bool) {
	m.mu.Lock()
	regained := online && !m.online
	m.online = online
	subscribers := make([]func(), len(m.onOnline))
	copy(subscribers, m.onOnline)
	m.mu.Unlock()

	if regained {
		for _, fn := range subscribers {
			fn()
		}
	}
}
