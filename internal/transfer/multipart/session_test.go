package multipart

import (
	"bytes"
	"context"
	stderrors "errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend/memory"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/telemetry"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

var (
	testTarget = xfertypes.Target{Container: "bucket", Key: "object"}
	testLimits = backend.Limits{MaxSingleWrite: 100, MaxSingleCopy: 100, MinPartSize: 1, MaxParts: 3}
)

func TestSession_UploadLifecycle(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)

	var hooked []int32
	s, err := Initiate(ctx, mb, testTarget, WithPartHook(func(p xfertypes.PartRecord) {
		hooked = append(hooked, p.Number)
	}))
	require.NoError(t, err)
	assert.Equal(t, "session-1", s.ID())
	assert.Equal(t, StateOpen, s.State())

	p1, err := s.SubmitUpload(ctx, 1, []byte("abc"), false)
	require.NoError(t, err)
	assert.Equal(t, xfertypes.PartRecord{Number: 1, Size: 3, ETag: "etag-1"}, p1)

	_, err = s.SubmitUpload(ctx, 2, []byte("de"), true)
	require.NoError(t, err)

	ref, err := s.Complete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), ref.Size)
	assert.Equal(t, StateCompleted, s.State())
	assert.Equal(t, []int32{1, 2}, hooked)
	assert.Equal(t, []string{"Initiate", "UploadPart", "UploadPart", "Complete"}, mb.Calls())
	assert.Equal(t, s.Parts(), mb.Completed)
}

func TestSession_RejectsOutOfOrderParts(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)

	for _, n := range []int32{0, 2, -1} {
		_, err = s.SubmitUpload(ctx, n, []byte("x"), false)
		assert.ErrorIs(t, err, errors.ErrInvalidArgument, "part %d", n)
	}
	assert.Equal(t, 0, mb.CallCount("UploadPart"), "invalid parts never reach the backend")

	_, err = s.SubmitUpload(ctx, 1, []byte("x"), false)
	require.NoError(t, err)
	_, err = s.SubmitUpload(ctx, 1, []byte("x"), false)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument, "duplicate part number")
}

func TestSession_EnforcesMaxParts(t *testing.T) {
	ctx := context.Background()
	s, err := Initiate(ctx, testutil.NewMockBackend(testLimits), testTarget)
	require.NoError(t, err)

	for n := int32(1); n <= testLimits.MaxParts; n++ {
		_, err = s.SubmitUpload(ctx, n, []byte("x"), false)
		require.NoError(t, err)
	}
	_, err = s.SubmitUpload(ctx, testLimits.MaxParts+1, []byte("x"), true)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestSession_ClosedRejectsSubmissions(t *testing.T) {
	ctx := context.Background()

	t.Run("after complete", func(t *testing.T) {
		s, err := Initiate(ctx, testutil.NewMockBackend(testLimits), testTarget)
		require.NoError(t, err)
		_, err = s.SubmitUpload(ctx, 1, []byte("x"), true)
		require.NoError(t, err)
		_, err = s.Complete(ctx)
		require.NoError(t, err)

		_, err = s.SubmitUpload(ctx, 2, []byte("y"), true)
		assert.ErrorIs(t, err, errors.ErrSessionClosed)
		_, err = s.Complete(ctx)
		assert.ErrorIs(t, err, errors.ErrSessionClosed)
	})

	t.Run("after abort", func(t *testing.T) {
		s, err := Initiate(ctx, testutil.NewMockBackend(testLimits), testTarget)
		require.NoError(t, err)
		require.NoError(t, s.Abort(ctx))

		_, err = s.SubmitCopy(ctx, 1, xfertypes.ObjectRef{Container: "a", Key: "b"}, xfertypes.ByteRange{Start: 0, End: 1}, true)
		assert.ErrorIs(t, err, errors.ErrSessionClosed)
		assert.Equal(t, errors.CodeInvalidArgument, errors.CodeOf(err))
	})
}

func TestSession_AbortIsIdempotent(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)

	require.NoError(t, s.Abort(ctx))
	require.NoError(t, s.Abort(ctx))
	s.Release(ctx)

	assert.Equal(t, 1, mb.CallCount("Abort"))
	assert.Equal(t, StateAborted, s.State())
}

func TestSession_AbortAfterCompleteIsNoop(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)
	_, err = s.SubmitUpload(ctx, 1, []byte("x"), true)
	require.NoError(t, err)
	_, err = s.Complete(ctx)
	require.NoError(t, err)

	require.NoError(t, s.Abort(ctx))
	s.Release(ctx)
	assert.Equal(t, 0, mb.CallCount("Abort"))
}

func TestSession_CompleteFailureLeavesSessionOpen(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	mb.CompleteFunc = func(context.Context, xfertypes.Target, string, []xfertypes.PartRecord) (xfertypes.ObjectRef, error) {
		return xfertypes.ObjectRef{}, errors.Wrap(errors.ErrBackend, stderrors.New("internal error"))
	}

	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)
	_, err = s.SubmitUpload(ctx, 1, []byte("x"), true)
	require.NoError(t, err)

	_, err = s.Complete(ctx)
	require.Error(t, err)
	assert.Equal(t, StateOpen, s.State())

	s.Release(ctx)
	assert.Equal(t, StateAborted, s.State())
	assert.Equal(t, 1, mb.CallCount("Abort"))
}

func TestSession_CompleteWithoutParts(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)

	_, err = s.Complete(ctx)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	assert.Equal(t, 0, mb.CallCount("Complete"))
}

func TestSession_ReleaseSwallowsAbortFailure(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	mb.AbortFunc = func(context.Context, xfertypes.Target, string) error {
		return stderrors.New("network unreachable")
	}

	var logs bytes.Buffer
	reg := prometheus.NewRegistry()
	s, err := Initiate(ctx, mb, testTarget,
		WithLogger(zerolog.New(&logs)),
		WithMetrics(metrics.New(reg)),
	)
	require.NoError(t, err)

	assert.NotPanics(t, func() { s.Release(ctx) })
	assert.Equal(t, StateAborted, s.State())
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "network unreachable")

	failures, err := promtest.GatherAndCount(reg, "transfer_abort_failures_total")
	require.NoError(t, err)
	assert.Equal(t, 1, failures)
}

func TestSession_ReleaseAfterCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mb := testutil.NewMockBackend(testLimits)

	var abortCtxErr error
	mb.AbortFunc = func(ctx context.Context, _ xfertypes.Target, _ string) error {
		abortCtxErr = ctx.Err()
		return nil
	}

	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)
	cancel()

	_, err = s.SubmitUpload(ctx, 1, []byte("x"), true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, errors.CodeCanceled, errors.CodeOf(err))
	assert.Equal(t, 0, mb.CallCount("UploadPart"))

	s.Release(ctx)
	assert.Equal(t, 1, mb.CallCount("Abort"))
	assert.NoError(t, abortCtxErr, "abort runs on a context detached from cancellation")
}

func TestSession_InitiateFailure(t *testing.T) {
	mb := testutil.NewMockBackend(testLimits)
	mb.InitiateFunc = func(context.Context, xfertypes.Target) (string, error) {
		return "", errors.Wrap(errors.ErrAccessDenied, stderrors.New("403"))
	}

	s, err := Initiate(context.Background(), mb, testTarget)
	assert.Nil(t, s)
	assert.ErrorIs(t, err, errors.ErrAccessDenied)
	assert.Equal(t, 0, mb.CallCount("Abort"))

	var released *Session
	assert.NotPanics(t, func() { released.Release(context.Background()) })
}

func TestSession_CopyParts(t *testing.T) {
	ctx := context.Background()
	mb := testutil.NewMockBackend(testLimits)
	s, err := Initiate(ctx, mb, testTarget)
	require.NoError(t, err)

	src := xfertypes.ObjectRef{Container: "src", Key: "big"}
	p, err := s.SubmitCopy(ctx, 1, src, xfertypes.ByteRange{Start: 0, End: 9}, false)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Size)

	_, err = s.SubmitCopy(ctx, 2, src, xfertypes.ByteRange{Start: 10, End: 5}, true)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = s.SubmitCopy(ctx, 2, src, xfertypes.ByteRange{Start: 10, End: 14}, true)
	require.NoError(t, err)
	assert.Equal(t, int64(15), s.Size())
	assert.Equal(t, xfertypes.ByteRange{Start: 10, End: 14}, mb.Ranges[2])
}

func TestSession_AgainstMemoryBackend(t *testing.T) {
	ctx := context.Background()
	mem := memory.New(memory.WithLimits(backend.Limits{MinPartSize: 2, MaxParts: 10}))

	s, err := Initiate(ctx, mem, testTarget)
	require.NoError(t, err)
	_, err = s.SubmitUpload(ctx, 1, []byte("he"), false)
	require.NoError(t, err)
	_, err = s.SubmitUpload(ctx, 2, []byte("llo"), true)
	require.NoError(t, err)

	_, ok := mem.Object("bucket", "object")
	assert.False(t, ok)

	_, err = s.Complete(ctx)
	require.NoError(t, err)

	obj, ok := mem.Object("bucket", "object")
	require.True(t, ok)
	assert.Equal(t, "hello", string(obj.Data))
	assert.Equal(t, 0, mem.OpenSessions())
}

func TestSession_Spans(t *testing.T) {
	ctx := context.Background()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	s, err := Initiate(ctx, testutil.NewMockBackend(testLimits), testTarget, WithTracer(telemetry.New(tp)))
	require.NoError(t, err)
	_, err = s.SubmitUpload(ctx, 1, []byte("x"), true)
	require.NoError(t, err)
	_, err = s.Complete(ctx)
	require.NoError(t, err)

	var names []string
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}
	assert.Equal(t, []string{"transfer.initiate", "transfer.upload_part", "transfer.complete"}, names)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "completed", StateCompleted.String())
	assert.Equal(t, "aborted", StateAborted.String())
	assert.Equal(t, "state(9)", State(9).String())
}
