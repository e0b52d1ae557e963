// Package memory provides an in-process backend that implements the full
// multipart protocol. It is intended for tests and local experimentation.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// TypeName is the registry name of the memory backend.
const TypeName = "memory"

func init() {
	backend.Register(TypeName, func(_ context.Context, _ backend.Config) (backend.Backend, error) {
		return New(), nil
	})
}

// DefaultLimits mirrors the limits of common S3-compatible services.
var DefaultLimits = backend.Limits{
	MaxSingleWrite: xfertypes.DefaultMaxSingleWrite,
	MaxSingleCopy:  xfertypes.DefaultMaxSingleWrite,
	MinPartSize:    5 * 1024 * 1024,
	MaxParts:       10000,
}

// Object is a stored object.
type Object struct {
	Data        []byte
	ETag        string
	ContentType string
	Access      xfertypes.ObjectACL
	Metadata    map[string]string
}

type session struct {
	target xfertypes.Target
	parts  map[int32][]byte
}

// Backend is an in-memory object store.
type Backend struct {
	mu       sync.RWMutex
	limits   backend.Limits
	objects  map[string]*Object
	sessions map[string]*session
}

// Option configures a memory backend.
type Option func(*Backend)

// WithLimits overrides the backend limits.
func WithLimits(l backend.Limits) Option {
	return func(b *Backend) {
		b.limits = l
	}
}

// New creates an empty memory backend.
func New(opts ...Option) *Backend {
	b := &Backend{
		limits:   DefaultLimits,
		objects:  make(map[string]*Object),
		sessions: make(map[string]*session),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Statter = (*Backend)(nil)
)

func objectKey(container, key string) string {
	return container + "/" + key
}

func etagOf(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// Name returns the backend type name.
func (b *Backend) Name() string {
	return TypeName
}

// Limits returns the configured limits.
func (b *Backend) Limits() backend.Limits {
	return b.limits
}

// Initiate opens a new session.
func (b *Backend) Initiate(ctx context.Context, target xfertypes.Target) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := uuid.NewString()

	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[id] = &session{target: target, parts: make(map[int32][]byte)}
	return id, nil
}

// UploadPart stores a copy of data as part number of the session.
func (b *Backend) UploadPart(
	ctx context.Context,
	_ xfertypes.Target,
	sessionID string,
	number int32,
	data []byte,
	_ bool,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := b.checkPartNumber(number); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[sessionID]
	if !ok {
		return "", errors.Wrap(errors.ErrNotFound, fmt.Errorf("no such upload: %s", sessionID))
	}
	s.parts[number] = bytes.Clone(data)
	return etagOf(data), nil
}

// CopyPart stores a range of src as part number of the session.
func (b *Backend) CopyPart(
	ctx context.Context,
	_ xfertypes.Target,
	sessionID string,
	number int32,
	src xfertypes.ObjectRef,
	r xfertypes.ByteRange,
) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := b.checkPartNumber(number); err != nil {
		return "", err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[sessionID]
	if !ok {
		return "", errors.Wrap(errors.ErrNotFound, fmt.Errorf("no such upload: %s", sessionID))
	}
	obj, ok := b.objects[objectKey(src.Container, src.Key)]
	if !ok {
		return "", errors.Wrap(errors.ErrNotFound, fmt.Errorf("no such key: %s", src))
	}
	if r.Start < 0 || r.End < r.Start || r.End >= int64(len(obj.Data)) {
		return "", errors.InvalidArgument("range %s outside source of %d bytes", r, len(obj.Data))
	}

	part := bytes.Clone(obj.Data[r.Start : r.End+1])
	s.parts[number] = part
	return etagOf(part), nil
}

// Complete assembles the listed parts into the target object.
func (b *Backend) Complete(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.PartRecord,
) (xfertypes.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return xfertypes.ObjectRef{}, err
	}
	if len(parts) == 0 {
		return xfertypes.ObjectRef{}, errors.InvalidArgument("complete requires at least one part")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	s, ok := b.sessions[sessionID]
	if !ok {
		return xfertypes.ObjectRef{}, errors.Wrap(errors.ErrNotFound, fmt.Errorf("no such upload: %s", sessionID))
	}

	var assembled bytes.Buffer
	var sums []byte
	for i, p := range parts {
		if p.Number != int32(i+1) {
			return xfertypes.ObjectRef{}, errors.InvalidArgument("part %d listed at position %d", p.Number, i+1)
		}
		data, ok := s.parts[p.Number]
		if !ok || etagOf(data) != p.ETag {
			return xfertypes.ObjectRef{}, errors.InvalidArgument("invalid part %d", p.Number)
		}
		if i < len(parts)-1 && int64(len(data)) < b.limits.MinPartSize {
			return xfertypes.ObjectRef{}, errors.InvalidArgument(
				"part %d is %d bytes, smaller than the minimum %d", p.Number, len(data), b.limits.MinPartSize)
		}
		assembled.Write(data)
		sum := md5.Sum(data)
		sums = append(sums, sum[:]...)
	}

	etag := fmt.Sprintf("%s-%d", etagOf(sums), len(parts))
	b.store(s.target, assembled.Bytes(), etag)
	delete(b.sessions, sessionID)

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      etag,
		Size:      int64(assembled.Len()),
	}, nil
}

// Abort discards the session. Unknown sessions are ignored.
func (b *Backend) Abort(ctx context.Context, _ xfertypes.Target, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
	return nil
}

// PutWhole stores data as the target object.
func (b *Backend) PutWhole(ctx context.Context, target xfertypes.Target, data []byte) (xfertypes.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return xfertypes.ObjectRef{}, err
	}
	if b.limits.MaxSingleWrite > 0 && int64(len(data)) > b.limits.MaxSingleWrite {
		return xfertypes.ObjectRef{}, errors.InvalidArgument(
			"object of %d bytes exceeds the single write limit %d", len(data), b.limits.MaxSingleWrite)
	}

	etag := etagOf(data)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.store(target, bytes.Clone(data), etag)

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      etag,
		Size:      int64(len(data)),
	}, nil
}

// CopyWhole copies src to the target object.
func (b *Backend) CopyWhole(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
) (xfertypes.ObjectRef, error) {
	if err := ctx.Err(); err != nil {
		return xfertypes.ObjectRef{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	obj, ok := b.objects[objectKey(src.Container, src.Key)]
	if !ok {
		return xfertypes.ObjectRef{}, errors.Wrap(errors.ErrNotFound, fmt.Errorf("no such key: %s", src))
	}
	if b.limits.MaxSingleCopy > 0 && int64(len(obj.Data)) > b.limits.MaxSingleCopy {
		return xfertypes.ObjectRef{}, errors.InvalidArgument(
			"source of %d bytes exceeds the single copy limit %d", len(obj.Data), b.limits.MaxSingleCopy)
	}

	// Same rule as the S3 COPY metadata directive.
	if target.ContentType == "" && len(target.Metadata) == 0 {
		target.ContentType = obj.ContentType
		target.Metadata = maps.Clone(obj.Metadata)
	}
	b.store(target, bytes.Clone(obj.Data), obj.ETag)

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      obj.ETag,
		Size:      int64(len(obj.Data)),
	}, nil
}

// Stat reports the size, ETag, content type and metadata of an object.
func (b *Backend) Stat(ctx context.Context, ref xfertypes.ObjectRef) (xfertypes.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return xfertypes.ObjectInfo{}, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[objectKey(ref.Container, ref.Key)]
	if !ok {
		return xfertypes.ObjectInfo{}, errors.Wrap(errors.ErrNotFound, fmt.Errorf("no such key: %s", ref))
	}
	ref.ETag = obj.ETag
	ref.Size = int64(len(obj.Data))
	return xfertypes.ObjectInfo{
		ObjectRef:   ref,
		ContentType: obj.ContentType,
		Metadata:    maps.Clone(obj.Metadata),
	}, nil
}

// Object returns the stored object, if present.
func (b *Backend) Object(container, key string) (*Object, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	obj, ok := b.objects[objectKey(container, key)]
	return obj, ok
}

// OpenSessions returns the number of sessions neither completed nor aborted.
func (b *Backend) OpenSessions() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.sessions)
}

// store must be called with b.mu held.
func (b *Backend) store(target xfertypes.Target, data []byte, etag string) {
	b.objects[objectKey(target.Container, target.Key)] = &Object{
		Data:        data,
		ETag:        etag,
		ContentType: target.ContentType,
		Access:      target.Access,
		Metadata:    target.Metadata,
	}
}

func (b *Backend) checkPartNumber(number int32) error {
	if number < 1 || (b.limits.MaxParts > 0 && number > b.limits.MaxParts) {
		return errors.InvalidArgument("part number %d out of range", number)
	}
	return nil
}
