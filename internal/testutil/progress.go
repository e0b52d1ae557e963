package testutil

import (
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// MockProgressTracker is a mock implementation of ProgressTracker for testing.
type MockProgressTracker struct {
	mu sync.Mutex

	UpdateCalled   bool
	CompleteCalled bool
	ErrorCalled    bool
	Last           xfertypes.Progress
	LastError      error
	Updates        []xfertypes.Progress // For detailed tracking
}

var _ xfertypes.ProgressTracker = (*MockProgressTracker)(nil)

// Update records a progress update.
func (m *MockProgressTracker) Update(p xfertypes.Progress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalled = true
	m.Last = p
	m.Updates = append(m.Updates, p)
}

// Complete marks the operation as complete.
func (m *MockProgressTracker) Complete() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CompleteCalled = true
}

// Error records an error.
func (m *MockProgressTracker) Error(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalled = true
	m.LastError = err
}

// Monotonic reports whether both progress counters never decreased.
func (m *MockProgressTracker) Monotonic() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 1; i < len(m.Updates); i++ {
		prev, cur := m.Updates[i-1], m.Updates[i]
		if cur.BytesTransferred < prev.BytesTransferred || cur.PartsCompleted < prev.PartsCompleted {
			return false
		}
	}
	return true
}
