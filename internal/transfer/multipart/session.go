// Package multipart manages the lifecycle of one multipart session:
// initiate, submit parts strictly in order, then complete or abort.
//
// A session accepts part numbers 1, 2, 3... with no gaps. Once it is
// completed or aborted no further submissions are accepted, and exactly one
// of Complete or Abort reaches the backend. Release is meant to be deferred
// by the session owner; it aborts a session still open on any exit path,
// including panics and cancellation, and never masks the original error.
package multipart

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/telemetry"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// State is the lifecycle state of a session.
type State int

const (
	// StateOpen accepts part submissions.
	StateOpen State = iota
	// StateCompleted means the object was assembled.
	StateCompleted
	// StateAborted means the session and its parts were discarded.
	StateAborted
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithMetrics sets the metrics sink. A nil value disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// WithTracer sets the tracer used for backend call spans.
func WithTracer(t *telemetry.Tracer) Option {
	return func(s *Session) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithAbortTimeout bounds the abort issued by Release.
func WithAbortTimeout(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.abortTimeout = d
		}
	}
}

// WithPartHook registers a function called after every accepted part.
func WithPartHook(fn func(xfertypes.PartRecord)) Option {
	return func(s *Session) {
		s.onPart = fn
	}
}

// Session is one multipart upload or copy. It is owned by a single goroutine.
type Session struct {
	backend backend.Backend
	target  xfertypes.Target
	id      string
	limits  backend.Limits
	parts   []xfertypes.PartRecord
	state   State

	logger       zerolog.Logger
	metrics      *metrics.Metrics
	tracer       *telemetry.Tracer
	abortTimeout time.Duration
	onPart       func(xfertypes.PartRecord)
}

// Initiate opens a session for target. A failure is returned directly; there
// is nothing to abort.
func Initiate(ctx context.Context, b backend.Backend, target xfertypes.Target, opts ...Option) (*Session, error) {
	s := &Session{
		backend:      b,
		target:       target,
		limits:       b.Limits(),
		logger:       zerolog.Nop(),
		tracer:       telemetry.New(nil),
		abortTimeout: xfertypes.DefaultAbortTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := ctx.Err(); err != nil {
		return nil, s.fail("initiate", err)
	}

	ctx, span := s.tracer.Start(ctx, metrics.OpInitiate,
		telemetry.Backend(b.Name()), telemetry.Container(target.Container), telemetry.Key(target.Key))
	start := time.Now()
	id, err := b.Initiate(ctx, target)
	s.metrics.ObserveOperation(metrics.OpInitiate, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return nil, s.fail("initiate", err)
	}

	s.id = id
	s.logger = s.logger.With().
		Str("container", target.Container).
		Str("key", target.Key).
		Str("session", id).
		Logger()
	s.metrics.SessionOpened()
	s.logger.Debug().Msg("multipart session opened")
	return s, nil
}

// ID returns the backend session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Parts returns a copy of the accepted parts in order.
func (s *Session) Parts() []xfertypes.PartRecord {
	return append([]xfertypes.PartRecord(nil), s.parts...)
}

// Size returns the total size of the accepted parts.
func (s *Session) Size() int64 {
	var n int64
	for _, p := range s.parts {
		n += p.Size
	}
	return n
}

// SubmitUpload uploads data as part number. Numbers must be submitted in
// order starting at 1.
func (s *Session) SubmitUpload(ctx context.Context, number int32, data []byte, last bool) (xfertypes.PartRecord, error) {
	if err := s.checkSubmit(ctx, "upload-part", number); err != nil {
		return xfertypes.PartRecord{}, err
	}

	size := int64(len(data))
	ctx, span := s.tracer.Start(ctx, metrics.OpUploadPart,
		telemetry.Container(s.target.Container), telemetry.Key(s.target.Key),
		telemetry.Session(s.id), telemetry.Part(number), telemetry.Size(size))
	start := time.Now()
	etag, err := s.backend.UploadPart(ctx, s.target, s.id, number, data, last)
	s.metrics.ObserveOperation(metrics.OpUploadPart, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return xfertypes.PartRecord{}, s.fail("upload-part", err).WithMessage(fmt.Sprintf("part %d", number))
	}

	s.metrics.RecordBytes(metrics.OpUploadPart, size)
	return s.accept(xfertypes.PartRecord{Number: number, Size: size, ETag: etag}, last), nil
}

// SubmitCopy copies range r of src as part number. Numbers must be submitted
// in order starting at 1.
func (s *Session) SubmitCopy(
	ctx context.Context,
	number int32,
	src xfertypes.ObjectRef,
	r xfertypes.ByteRange,
	last bool,
) (xfertypes.PartRecord, error) {
	if err := s.checkSubmit(ctx, "copy-part", number); err != nil {
		return xfertypes.PartRecord{}, err
	}
	if r.Start < 0 || r.End < r.Start {
		return xfertypes.PartRecord{}, s.fail("copy-part", errors.InvalidArgument("invalid range %s", r))
	}

	ctx, span := s.tracer.Start(ctx, metrics.OpCopyPart,
		telemetry.Container(s.target.Container), telemetry.Key(s.target.Key),
		telemetry.Session(s.id), telemetry.Part(number), telemetry.Range(r.String()))
	start := time.Now()
	etag, err := s.backend.CopyPart(ctx, s.target, s.id, number, src, r)
	s.metrics.ObserveOperation(metrics.OpCopyPart, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return xfertypes.PartRecord{}, s.fail("copy-part", err).WithMessage(fmt.Sprintf("part %d", number))
	}

	s.metrics.RecordBytes(metrics.OpCopyPart, r.Len())
	return s.accept(xfertypes.PartRecord{Number: number, Size: r.Len(), ETag: etag}, last), nil
}

// Complete assembles the accepted parts into the target object. If the
// backend call fails the session stays open so the owner can abort it.
func (s *Session) Complete(ctx context.Context) (xfertypes.ObjectRef, error) {
	if s.state != StateOpen {
		return xfertypes.ObjectRef{}, s.fail("complete", errors.ErrSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return xfertypes.ObjectRef{}, s.fail("complete", err)
	}
	if len(s.parts) == 0 {
		return xfertypes.ObjectRef{}, s.fail("complete", errors.InvalidArgument("no parts submitted"))
	}

	ctx, span := s.tracer.Start(ctx, metrics.OpComplete,
		telemetry.Container(s.target.Container), telemetry.Key(s.target.Key),
		telemetry.Session(s.id), telemetry.Size(s.Size()))
	start := time.Now()
	ref, err := s.backend.Complete(ctx, s.target, s.id, s.Parts())
	s.metrics.ObserveOperation(metrics.OpComplete, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return xfertypes.ObjectRef{}, s.fail("complete", err)
	}

	s.state = StateCompleted
	s.metrics.SessionClosed()
	s.metrics.ObserveParts(len(s.parts))
	s.logger.Debug().Int("parts", len(s.parts)).Int64("size", s.Size()).Msg("multipart session completed")
	return ref, nil
}

// Abort discards the session. Only the first call on an open session reaches
// the backend; later calls and calls after Complete return nil.
func (s *Session) Abort(ctx context.Context) error {
	if s.state != StateOpen {
		return nil
	}
	s.state = StateAborted
	s.metrics.SessionClosed()

	ctx, span := s.tracer.Start(ctx, metrics.OpAbort,
		telemetry.Container(s.target.Container), telemetry.Key(s.target.Key), telemetry.Session(s.id))
	start := time.Now()
	err := s.backend.Abort(ctx, s.target, s.id)
	s.metrics.ObserveOperation(metrics.OpAbort, time.Since(start), err)
	s.metrics.RecordAbort(err)
	telemetry.End(span, err)
	if err != nil {
		return s.fail("abort", err)
	}

	s.logger.Debug().Int("parts", len(s.parts)).Msg("multipart session aborted")
	return nil
}

// Release aborts the session if it is still open. It runs even when ctx is
// already canceled, bounded by the abort timeout. Abort failures are logged
// and counted but never returned.
func (s *Session) Release(ctx context.Context) {
	if s == nil || s.state != StateOpen {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.abortTimeout)
	defer cancel()

	if err := s.Abort(ctx); err != nil {
		s.logger.Warn().
			Err(err).
			Int("parts", len(s.parts)).
			Msg("failed to abort multipart session; uploaded parts may remain until the backend expires them")
	}
}

func (s *Session) checkSubmit(ctx context.Context, op string, number int32) error {
	if s.state != StateOpen {
		return s.fail(op, errors.ErrSessionClosed)
	}
	if want := int32(len(s.parts)) + 1; number != want {
		return s.fail(op, errors.InvalidArgument("part number %d submitted, expected %d", number, want))
	}
	if s.limits.MaxParts > 0 && number > s.limits.MaxParts {
		return s.fail(op, errors.InvalidArgument("part number %d exceeds the backend limit of %d parts",
			number, s.limits.MaxParts))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(op, err)
	}
	return nil
}

func (s *Session) accept(p xfertypes.PartRecord, last bool) xfertypes.PartRecord {
	s.parts = append(s.parts, p)
	s.logger.Debug().Int32("part", p.Number).Int64("size", p.Size).Bool("last", last).Msg("part accepted")
	if s.onPart != nil {
		s.onPart(p)
	}
	return p
}

func (s *Session) fail(op string, err error) *errors.Error {
	return errors.NewObjectError(op, s.target.Container, s.target.Key, err)
}
