// Package minio implements the transfer backend for MinIO and other
// S3-compatible services using the minio-go core client.
package minio

import (
	"bytes"
	"context"
	"maps"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/encrypt"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/minioapi"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// TypeName is the registry name of the MinIO backend.
const TypeName = "minio"

// DefaultLimits match the S3 API limits MinIO implements.
var DefaultLimits = backend.Limits{
	MaxSingleWrite: 5 * 1024 * 1024 * 1024,
	MaxSingleCopy:  5 * 1024 * 1024 * 1024,
	MinPartSize:    5 * 1024 * 1024,
	MaxParts:       10000,
}

const aclHeader = "x-amz-acl"

func init() {
	backend.Register(TypeName, func(ctx context.Context, cfg backend.Config) (backend.Backend, error) {
		return New(ctx, cfg)
	})
}

// Backend talks to MinIO through the core API seam.
type Backend struct {
	core   minioapi.Core
	limits backend.Limits
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Statter = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithLimits overrides the default limits.
func WithLimits(l backend.Limits) Option {
	return func(b *Backend) {
		b.limits = l
	}
}

// New creates a Backend connected to cfg.Endpoint.
func New(_ context.Context, cfg backend.Config, opts ...Option) (*Backend, error) {
	if cfg.Endpoint == "" {
		return nil, errors.InvalidArgument("minio backend requires an endpoint")
	}

	endpoint, secure := cfg.Endpoint, cfg.UseSSL
	if rest, ok := strings.CutPrefix(endpoint, "https://"); ok {
		endpoint, secure = rest, true
	} else if rest, ok := strings.CutPrefix(endpoint, "http://"); ok {
		endpoint, secure = rest, false
	}

	mopts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		mopts.BucketLookup = minio.BucketLookupPath
	}

	core, err := minio.NewCore(endpoint, mopts)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}
	return NewWithCore(core, opts...), nil
}

// NewWithCore creates a Backend over an existing core client.
func NewWithCore(core minioapi.Core, opts ...Option) *Backend {
	b := &Backend{
		core:   core,
		limits: DefaultLimits,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name returns the backend type name.
func (b *Backend) Name() string {
	return TypeName
}

// Limits returns the backend limits.
func (b *Backend) Limits() backend.Limits {
	return b.limits
}

// Initiate creates a multipart upload.
func (b *Backend) Initiate(ctx context.Context, target xfertypes.Target) (string, error) {
	opts, err := putOptions(target)
	if err != nil {
		return "", err
	}

	id, err := b.core.NewMultipartUpload(ctx, target.Container, target.Key, opts)
	if err != nil {
		return "", classify(err)
	}
	return id, nil
}

// UploadPart uploads one part.
func (b *Backend) UploadPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	number int32,
	data []byte,
	_ bool,
) (string, error) {
	var opts minio.PutObjectPartOptions
	if target.SSE != nil && target.SSE.Type == xfertypes.SSEC {
		sse, err := serverSide(target.SSE)
		if err != nil {
			return "", err
		}
		opts.SSE = sse
	}

	part, err := b.core.PutObjectPart(
		ctx, target.Container, target.Key, sessionID, int(number), bytes.NewReader(data), int64(len(data)), opts,
	)
	if err != nil {
		return "", classify(err)
	}
	return part.ETag, nil
}

// CopyPart copies a source range into one part.
func (b *Backend) CopyPart(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	number int32,
	src xfertypes.ObjectRef,
	r xfertypes.ByteRange,
) (string, error) {
	headers := make(map[string]string)
	if target.SSE != nil && target.SSE.Type == xfertypes.SSEC {
		sse, err := serverSide(target.SSE)
		if err != nil {
			return "", err
		}
		marshalSSE(headers, sse)
	}
	if err := marshalSourceSSE(headers, src); err != nil {
		return "", err
	}

	part, err := b.core.CopyObjectPart(
		ctx, src.Container, src.Key, target.Container, target.Key, sessionID,
		int(number), r.Start, r.Len(), headers,
	)
	if err != nil {
		return "", classify(err)
	}
	return part.ETag, nil
}

// Complete completes the multipart upload with the given parts.
func (b *Backend) Complete(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.PartRecord,
) (xfertypes.ObjectRef, error) {
	completed := make([]minio.CompletePart, len(parts))
	var size int64
	for i, p := range parts {
		completed[i] = minio.CompletePart{PartNumber: int(p.Number), ETag: p.ETag}
		size += p.Size
	}

	info, err := b.core.CompleteMultipartUpload(
		ctx, target.Container, target.Key, sessionID, completed, minio.PutObjectOptions{},
	)
	if err != nil {
		return xfertypes.ObjectRef{}, classify(err)
	}

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Size:      size,
	}, nil
}

// Abort aborts the multipart upload. An upload that no longer exists is not an error.
func (b *Backend) Abort(ctx context.Context, target xfertypes.Target, sessionID string) error {
	err := b.core.AbortMultipartUpload(ctx, target.Container, target.Key, sessionID)
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchUpload" {
		return classify(err)
	}
	return nil
}

// PutWhole uploads data in a single request.
func (b *Backend) PutWhole(ctx context.Context, target xfertypes.Target, data []byte) (xfertypes.ObjectRef, error) {
	opts, err := putOptions(target)
	if err != nil {
		return xfertypes.ObjectRef{}, err
	}

	info, err := b.core.PutObject(
		ctx, target.Container, target.Key, bytes.NewReader(data), int64(len(data)), "", "", opts,
	)
	if err != nil {
		return xfertypes.ObjectRef{}, classify(err)
	}

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Size:      int64(len(data)),
	}, nil
}

// CopyWhole copies src in a single request.
func (b *Backend) CopyWhole(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
) (xfertypes.ObjectRef, error) {
	// The core copy call sends only these headers, so encryption for both
	// sides is marshaled here rather than through the options structs.
	headers := make(map[string]string)
	if target.ContentType != "" || len(target.Metadata) > 0 {
		headers["x-amz-metadata-directive"] = "REPLACE"
		if target.ContentType != "" {
			headers["Content-Type"] = target.ContentType
		}
		for k, v := range target.Metadata {
			headers["x-amz-meta-"+k] = v
		}
	}
	if target.Access != "" {
		headers[aclHeader] = string(target.Access)
	}
	if target.StorageClass != "" {
		headers["x-amz-storage-class"] = string(target.StorageClass)
	}
	if target.SSE != nil {
		sse, err := serverSide(target.SSE)
		if err != nil {
			return xfertypes.ObjectRef{}, err
		}
		marshalSSE(headers, sse)
	}
	if err := marshalSourceSSE(headers, src); err != nil {
		return xfertypes.ObjectRef{}, err
	}

	srcOpts := minio.CopySrcOptions{
		Bucket:    src.Container,
		Object:    src.Key,
		VersionID: src.VersionID,
	}

	info, err := b.core.CopyObject(
		ctx, src.Container, src.Key, target.Container, target.Key, headers, srcOpts, minio.PutObjectOptions{},
	)
	if err != nil {
		return xfertypes.ObjectRef{}, classify(err)
	}

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      info.ETag,
		VersionID: info.VersionID,
		Size:      src.Size,
	}, nil
}

// Stat returns the size, ETag, version, content type and user metadata of an object.
func (b *Backend) Stat(ctx context.Context, ref xfertypes.ObjectRef) (xfertypes.ObjectInfo, error) {
	opts := minio.StatObjectOptions{VersionID: ref.VersionID}
	if ref.SSE != nil && ref.SSE.Type == xfertypes.SSEC {
		sse, err := serverSide(ref.SSE)
		if err != nil {
			return xfertypes.ObjectInfo{}, err
		}
		opts.ServerSideEncryption = sse
	}

	info, err := b.core.StatObject(ctx, ref.Container, ref.Key, opts)
	if err != nil {
		return xfertypes.ObjectInfo{}, classify(err)
	}

	ref.Size = info.Size
	ref.ETag = info.ETag
	if info.VersionID != "" {
		ref.VersionID = info.VersionID
	}
	var metadata map[string]string
	if len(info.UserMetadata) > 0 {
		metadata = maps.Clone(map[string]string(info.UserMetadata))
	}
	return xfertypes.ObjectInfo{
		ObjectRef:   ref,
		ContentType: info.ContentType,
		Metadata:    metadata,
	}, nil
}

// putOptions maps the target's content type, access class, storage class,
// encryption and metadata onto minio options.
func putOptions(target xfertypes.Target) (minio.PutObjectOptions, error) {
	opts := minio.PutObjectOptions{
		ContentType:  target.ContentType,
		StorageClass: string(target.StorageClass),
	}
	if len(target.Metadata) > 0 || target.Access != "" {
		opts.UserMetadata = make(map[string]string, len(target.Metadata)+1)
		for k, v := range target.Metadata {
			opts.UserMetadata[k] = v
		}
		if target.Access != "" {
			opts.UserMetadata[aclHeader] = string(target.Access)
		}
	}
	if target.SSE != nil {
		sse, err := serverSide(target.SSE)
		if err != nil {
			return minio.PutObjectOptions{}, err
		}
		opts.ServerSideEncryption = sse
	}
	return opts, nil
}

func serverSide(cfg *xfertypes.SSEConfig) (encrypt.ServerSide, error) {
	switch cfg.Type {
	case xfertypes.SSES3:
		return encrypt.NewSSE(), nil
	case xfertypes.SSEKMS:
		sse, err := encrypt.NewSSEKMS(cfg.KMSKeyID, nil)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidArgument, err)
		}
		return sse, nil
	case xfertypes.SSEC:
		sse, err := encrypt.NewSSEC(cfg.CustomerKey)
		if err != nil {
			return nil, errors.Wrap(errors.ErrInvalidArgument, err)
		}
		return sse, nil
	default:
		return nil, errors.InvalidArgument("unsupported encryption type %q", cfg.Type)
	}
}

// marshalSSE adds the request headers of sse to headers.
func marshalSSE(headers map[string]string, sse encrypt.ServerSide) {
	h := make(http.Header)
	sse.Marshal(h)
	for k := range h {
		headers[k] = h.Get(k)
	}
}

// marshalSourceSSE adds the copy-source key headers needed to read an SSE-C
// encrypted source. Other source encryption is handled by the server.
func marshalSourceSSE(headers map[string]string, src xfertypes.ObjectRef) error {
	if src.SSE == nil || src.SSE.Type != xfertypes.SSEC {
		return nil
	}
	sse, err := serverSide(src.SSE)
	if err != nil {
		return err
	}
	marshalSSE(headers, encrypt.SSECopy(sse))
	return nil
}
