package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

var smallLimits = backend.Limits{
	MaxSingleWrite: 100,
	MaxSingleCopy:  100,
	MinPartSize:    4,
	MaxParts:       5,
}

func TestBackend_MultipartRoundTrip(t *testing.T) {
	ctx := context.Background()
	b := New(WithLimits(smallLimits))
	target := xfertypes.Target{Container: "bucket", Key: "obj", ContentType: "text/plain"}

	id, err := b.Initiate(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 1, b.OpenSessions())

	e1, err := b.UploadPart(ctx, target, id, 1, []byte("hello "), false)
	require.NoError(t, err)
	e2, err := b.UploadPart(ctx, target, id, 2, []byte("world"), true)
	require.NoError(t, err)

	_, ok := b.Object("bucket", "obj")
	assert.False(t, ok, "object is not visible before complete")

	ref, err := b.Complete(ctx, target, id, []xfertypes.PartRecord{
		{Number: 1, Size: 6, ETag: e1},
		{Number: 2, Size: 5, ETag: e2},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), ref.Size)
	assert.Contains(t, ref.ETag, "-2")

	obj, ok := b.Object("bucket", "obj")
	require.True(t, ok)
	assert.Equal(t, "hello world", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)
	assert.Equal(t, 0, b.OpenSessions())
}

func TestBackend_CopyPart(t *testing.T) {
	ctx := context.Background()
	b := New(WithLimits(smallLimits))
	_, err := b.PutWhole(ctx, xfertypes.Target{Container: "src", Key: "a"}, []byte("0123456789"))
	require.NoError(t, err)

	target := xfertypes.Target{Container: "dst", Key: "b"}
	src := xfertypes.ObjectRef{Container: "src", Key: "a"}
	id, err := b.Initiate(ctx, target)
	require.NoError(t, err)

	e1, err := b.CopyPart(ctx, target, id, 1, src, xfertypes.ByteRange{Start: 0, End: 5})
	require.NoError(t, err)
	e2, err := b.CopyPart(ctx, target, id, 2, src, xfertypes.ByteRange{Start: 6, End: 9})
	require.NoError(t, err)

	_, err = b.CopyPart(ctx, target, id, 3, src, xfertypes.ByteRange{Start: 6, End: 10})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = b.Complete(ctx, target, id, []xfertypes.PartRecord{{Number: 1, ETag: e1}, {Number: 2, ETag: e2}})
	require.NoError(t, err)

	obj, ok := b.Object("dst", "b")
	require.True(t, ok)
	assert.Equal(t, "0123456789", string(obj.Data))
}

func TestBackend_CompleteRejectsSmallParts(t *testing.T) {
	ctx := context.Background()
	b := New(WithLimits(smallLimits))
	target := xfertypes.Target{Container: "bucket", Key: "obj"}

	id, err := b.Initiate(ctx, target)
	require.NoError(t, err)
	e1, err := b.UploadPart(ctx, target, id, 1, []byte("ab"), false)
	require.NoError(t, err)
	e2, err := b.UploadPart(ctx, target, id, 2, []byte("cd"), true)
	require.NoError(t, err)

	_, err = b.Complete(ctx, target, id, []xfertypes.PartRecord{{Number: 1, ETag: e1}, {Number: 2, ETag: e2}})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestBackend_AbortIsIdempotent(t *testing.T) {
	ctx := context.Background()
	b := New()
	target := xfertypes.Target{Container: "bucket", Key: "obj"}

	id, err := b.Initiate(ctx, target)
	require.NoError(t, err)

	require.NoError(t, b.Abort(ctx, target, id))
	require.NoError(t, b.Abort(ctx, target, id))
	assert.Equal(t, 0, b.OpenSessions())

	_, err = b.UploadPart(ctx, target, id, 1, []byte("x"), true)
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestBackend_Limits(t *testing.T) {
	ctx := context.Background()
	b := New(WithLimits(smallLimits))
	target := xfertypes.Target{Container: "bucket", Key: "obj"}

	_, err := b.PutWhole(ctx, target, make([]byte, 101))
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	id, err := b.Initiate(ctx, target)
	require.NoError(t, err)
	_, err = b.UploadPart(ctx, target, id, 6, []byte("x"), true)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
	_, err = b.UploadPart(ctx, target, id, 0, []byte("x"), true)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestBackend_StatAndCopyWhole(t *testing.T) {
	ctx := context.Background()
	b := New()

	_, err := b.Stat(ctx, xfertypes.ObjectRef{Container: "c", Key: "missing"})
	assert.ErrorIs(t, err, errors.ErrNotFound)

	_, err = b.PutWhole(ctx, xfertypes.Target{
		Container:   "c",
		Key:         "k",
		ContentType: "text/plain",
		Metadata:    map[string]string{"owner": "ops"},
	}, []byte("abc"))
	require.NoError(t, err)

	info, err := b.Stat(ctx, xfertypes.ObjectRef{Container: "c", Key: "k"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), info.Size)
	assert.Equal(t, "text/plain", info.ContentType)
	assert.Equal(t, map[string]string{"owner": "ops"}, info.Metadata)

	_, err = b.CopyWhole(ctx, xfertypes.Target{Container: "c", Key: "k2"}, info.ObjectRef)
	require.NoError(t, err)
	obj, ok := b.Object("c", "k2")
	require.True(t, ok)
	assert.Equal(t, "abc", string(obj.Data))
	assert.Equal(t, "text/plain", obj.ContentType)
	assert.Equal(t, map[string]string{"owner": "ops"}, obj.Metadata)

	_, err = b.CopyWhole(ctx, xfertypes.Target{Container: "c", Key: "k3", ContentType: "application/json"}, info.ObjectRef)
	require.NoError(t, err)
	obj, ok = b.Object("c", "k3")
	require.True(t, ok)
	assert.Equal(t, "application/json", obj.ContentType)
	assert.Empty(t, obj.Metadata)
}

func TestBackend_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Initiate(ctx, xfertypes.Target{Container: "c", Key: "k"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistry(t *testing.T) {
	b, err := backend.Open(context.Background(), backend.Config{Type: TypeName})
	require.NoError(t, err)
	assert.Equal(t, TypeName, b.Name())
	assert.Contains(t, backend.Types(), TypeName)

	_, err = backend.Open(context.Background(), backend.Config{Type: "nope"})
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}
