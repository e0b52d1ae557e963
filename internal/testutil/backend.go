package testutil

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// MockBackend is a mock implementation of backend.Backend for testing.
// Each operation can be customized through a function field; calls are
// recorded whether or not a function is set.
type MockBackend struct {
	LimitsValue backend.Limits

	InitiateFunc   func(context.Context, xfertypes.Target) (string, error)
	UploadPartFunc func(context.Context, xfertypes.Target, string, int32, []byte, bool) (string, error)
	CopyPartFunc   func(context.Context, xfertypes.Target, string, int32, xfertypes.ObjectRef, xfertypes.ByteRange) (string, error)
	CompleteFunc   func(context.Context, xfertypes.Target, string, []xfertypes.PartRecord) (xfertypes.ObjectRef, error)
	AbortFunc      func(context.Context, xfertypes.Target, string) error
	PutWholeFunc   func(context.Context, xfertypes.Target, []byte) (xfertypes.ObjectRef, error)
	CopyWholeFunc  func(context.Context, xfertypes.Target, xfertypes.ObjectRef) (xfertypes.ObjectRef, error)

	mu    sync.Mutex
	calls []string

	// Parts holds a copy of every uploaded payload by part number
	Parts map[int32][]byte

	// Ranges holds every copied range by part number
	Ranges map[int32]xfertypes.ByteRange

	// Completed holds the part list passed to the last Complete call
	Completed []xfertypes.PartRecord
}

var _ backend.Backend = (*MockBackend)(nil)

// NewMockBackend creates a MockBackend with the given limits.
func NewMockBackend(limits backend.Limits) *MockBackend {
	return &MockBackend{
		LimitsValue: limits,
		Parts:       make(map[int32][]byte),
		Ranges:      make(map[int32]xfertypes.ByteRange),
	}
}

func (m *MockBackend) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

// Calls returns the recorded call names in order.
func (m *MockBackend) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times the named call was made.
func (m *MockBackend) CallCount(call string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, c := range m.calls {
		if c == call {
			n++
		}
	}
	return n
}

// Name returns "mock".
func (m *MockBackend) Name() string {
	return "mock"
}

// Limits returns LimitsValue.
func (m *MockBackend) Limits() backend.Limits {
	return m.LimitsValue
}

// Initiate mocks session creation.
func (m *MockBackend) Initiate(ctx context.Context, target xfertypes.Target) (string, error) {
	m.record("Initiate")
	if m.InitiateFunc != nil {
		return m.InitiateFunc(ctx, target)
	}
	return "session-1", nil
}

// UploadPart mocks a part upload.
func (m *MockBackend) UploadPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	number int32,
	data []byte,
	last bool,
) (string, error) {
	m.record("UploadPart")
	m.mu.Lock()
	if m.Parts == nil {
		m.Parts = make(map[int32][]byte)
	}
	m.Parts[number] = bytes.Clone(data)
	m.mu.Unlock()

	if m.UploadPartFunc != nil {
		return m.UploadPartFunc(ctx, target, sessionID, number, data, last)
	}
	return fmt.Sprintf("etag-%d", number), nil
}

// CopyPart mocks a part copy.
func (m *MockBackend) CopyPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	number int32,
	src xfertypes.ObjectRef,
	r xfertypes.ByteRange,
) (string, error) {
	m.record("CopyPart")
	m.mu.Lock()
	if m.Ranges == nil {
		m.Ranges = make(map[int32]xfertypes.ByteRange)
	}
	m.Ranges[number] = r
	m.mu.Unlock()

	if m.CopyPartFunc != nil {
		return m.CopyPartFunc(ctx, target, sessionID, number, src, r)
	}
	return fmt.Sprintf("etag-%d", number), nil
}

// Complete mocks session completion.
func (m *MockBackend) Complete(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.PartRecord,
) (xfertypes.ObjectRef, error) {
	m.record("Complete")
	m.mu.Lock()
	m.Completed = append([]xfertypes.PartRecord(nil), parts...)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, target, sessionID, parts)
	}
	var size int64
	for _, p := range parts {
		size += p.Size
	}
	return xfertypes.ObjectRef{Container: target.Container, Key: target.Key, ETag: "etag-complete", Size: size}, nil
}

// Abort mocks session abort.
func (m *MockBackend) Abort(ctx context.Context, target xfertypes.Target, sessionID string) error {
	m.record("Abort")
	if m.AbortFunc != nil {
		return m.AbortFunc(ctx, target, sessionID)
	}
	return nil
}

// PutWhole mocks a single write.
func (m *MockBackend) PutWhole(ctx context.Context, target xfertypes.Target, data []byte) (xfertypes.ObjectRef, error) {
	m.record("PutWhole")
	if m.PutWholeFunc != nil {
		return m.PutWholeFunc(ctx, target, data)
	}
	return xfertypes.ObjectRef{Container: target.Container, Key: target.Key, ETag: "etag-put", Size: int64(len(data))}, nil
}

// CopyWhole mocks a single copy.
func (m *MockBackend) CopyWhole(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
) (xfertypes.ObjectRef, error) {
	m.record("CopyWhole")
	if m.CopyWholeFunc != nil {
		return m.CopyWholeFunc(ctx, target, src)
	}
	return xfertypes.ObjectRef{Container: target.Container, Key: target.Key, ETag: "etag-copy", Size: src.Size}, nil
}
