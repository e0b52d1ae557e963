// Package s3 implements the transfer backend for Amazon S3 and S3-compatible
// services using the AWS SDK for Go v2.
package s3

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awstypes "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/s3api"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// TypeName is the registry name of the S3 backend.
const TypeName = "s3"

// DefaultLimits are the documented Amazon S3 limits.
var DefaultLimits = backend.Limits{
	MaxSingleWrite: 5 * 1024 * 1024 * 1024,
	MaxSingleCopy:  5 * 1024 * 1024 * 1024,
	MinPartSize:    5 * 1024 * 1024,
	MaxParts:       10000,
}

func init() {
	backend.Register(TypeName, func(ctx context.Context, cfg backend.Config) (backend.Backend, error) {
		return New(ctx, cfg)
	})
}

// Backend talks to S3 through the S3API seam.
type Backend struct {
	client s3api.S3API
	limits backend.Limits
}

var (
	_ backend.Backend = (*Backend)(nil)
	_ backend.Statter = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithLimits overrides the default S3 limits.
func WithLimits(l backend.Limits) Option {
	return func(b *Backend) {
		b.limits = l
	}
}

// New creates a Backend from config, loading credentials from the default
// chain unless static keys are given.
func New(ctx context.Context, cfg backend.Config, opts ...Option) (*Backend, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, errors.NewError("client initialization", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1" // AWS default region
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := endpointURL(cfg.Endpoint, cfg.UseSSL)
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if cfg.PathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}

	return NewWithClient(s3.NewFromConfig(awsCfg, s3Opts...), opts...), nil
}

// NewWithClient creates a Backend over an existing S3 client.
func NewWithClient(client s3api.S3API, opts ...Option) *Backend {
	b := &Backend{
		client: client,
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
	input := &s3.CreateMultipartUploadInput{
		Bucket: aws.String(target.Container),
		Key:    aws.String(target.Key),
	}
	if target.ContentType != "" {
		input.ContentType = aws.String(target.ContentType)
	}
	if target.Access != "" {
		input.ACL = awstypes.ObjectCannedACL(target.Access)
	}
	if target.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(target.StorageClass)
	}
	if len(target.Metadata) > 0 {
		input.Metadata = target.Metadata
	}
	encryptionFor(target.SSE).applyCreate(input)

	output, err := b.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return "", classify(err)
	}
	return aws.ToString(output.UploadId), nil
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
	input := &s3.UploadPartInput{
		Bucket:        aws.String(target.Container),
		Key:           aws.String(target.Key),
		UploadId:      aws.String(sessionID),
		PartNumber:    aws.Int32(number),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	encryptionFor(target.SSE).applyUploadPart(input)

	output, err := b.client.UploadPart(ctx, input)
	if err != nil {
		return "", classify(err)
	}
	return aws.ToString(output.ETag), nil
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
	input := &s3.UploadPartCopyInput{
		Bucket:          aws.String(target.Container),
		Key:             aws.String(target.Key),
		CopySource:      aws.String(copySource(src)),
		CopySourceRange: aws.String(r.String()),
		UploadId:        aws.String(sessionID),
		PartNumber:      aws.Int32(number),
	}
	encryptionFor(target.SSE).applyUploadPartCopy(input)
	encryptionFor(src.SSE).applyPartCopySource(input)

	output, err := b.client.UploadPartCopy(ctx, input)
	if err != nil {
		return "", classify(err)
	}
	if output.CopyPartResult == nil {
		return "", errors.Wrap(errors.ErrBackend, errMissingCopyResult)
	}
	return aws.ToString(output.CopyPartResult.ETag), nil
}

// Complete completes the multipart upload with the given parts.
func (b *Backend) Complete(
	ctx context.Context,
	target xfertypes.Target,
	sessionID string,
	parts []xfertypes.PartRecord,
) (xfertypes.ObjectRef, error) {
	completed := make([]awstypes.CompletedPart, len(parts))
	var size int64
	for i, p := range parts {
		completed[i] = awstypes.CompletedPart{
			ETag:       aws.String(p.ETag),
			PartNumber: aws.Int32(p.Number),
		}
		size += p.Size
	}

	output, err := b.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:   aws.String(target.Container),
		Key:      aws.String(target.Key),
		UploadId: aws.String(sessionID),
		MultipartUpload: &awstypes.CompletedMultipartUpload{
			Parts: completed,
		},
	})
	if err != nil {
		return xfertypes.ObjectRef{}, classify(err)
	}

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Size:      size,
	}, nil
}

// Abort aborts the multipart upload. An upload that no longer exists is not an error.
func (b *Backend) Abort(ctx context.Context, target xfertypes.Target, sessionID string) error {
	_, err := b.client.AbortMultipartUpload(ctx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(target.Container),
		Key:      aws.String(target.Key),
		UploadId: aws.String(sessionID),
	})
	if err != nil && !isNoSuchUpload(err) {
		return classify(err)
	}
	return nil
}

// PutWhole uploads data with a single PutObject call.
func (b *Backend) PutWhole(ctx context.Context, target xfertypes.Target, data []byte) (xfertypes.ObjectRef, error) {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(target.Container),
		Key:           aws.String(target.Key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if target.ContentType != "" {
		input.ContentType = aws.String(target.ContentType)
	}
	if target.Access != "" {
		input.ACL = awstypes.ObjectCannedACL(target.Access)
	}
	if target.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(target.StorageClass)
	}
	if len(target.Metadata) > 0 {
		input.Metadata = target.Metadata
	}
	encryptionFor(target.SSE).applyPut(input)

	output, err := b.client.PutObject(ctx, input)
	if err != nil {
		return xfertypes.ObjectRef{}, classify(err)
	}

	return xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		ETag:      aws.ToString(output.ETag),
		VersionID: aws.ToString(output.VersionId),
		Size:      int64(len(data)),
	}, nil
}

// CopyWhole copies src with a single CopyObject call.
func (b *Backend) CopyWhole(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
) (xfertypes.ObjectRef, error) {
	input := &s3.CopyObjectInput{
		Bucket:     aws.String(target.Container),
		Key:        aws.String(target.Key),
		CopySource: aws.String(copySource(src)),
	}
	if target.ContentType != "" || len(target.Metadata) > 0 {
		input.MetadataDirective = awstypes.MetadataDirectiveReplace
		if target.ContentType != "" {
			input.ContentType = aws.String(target.ContentType)
		}
		input.Metadata = target.Metadata
	}
	if target.Access != "" {
		input.ACL = awstypes.ObjectCannedACL(target.Access)
	}
	if target.StorageClass != "" {
		input.StorageClass = awstypes.StorageClass(target.StorageClass)
	}
	encryptionFor(target.SSE).applyCopy(input)
	encryptionFor(src.SSE).applyCopySource(input)

	output, err := b.client.CopyObject(ctx, input)
	if err != nil {
		return xfertypes.ObjectRef{}, classify(err)
	}

	ref := xfertypes.ObjectRef{
		Container: target.Container,
		Key:       target.Key,
		VersionID: aws.ToString(output.VersionId),
		Size:      src.Size,
	}
	if output.CopyObjectResult != nil {
		ref.ETag = aws.ToString(output.CopyObjectResult.ETag)
	}
	return ref, nil
}

// Stat returns the size, ETag, version, content type and user metadata of an object.
func (b *Backend) Stat(ctx context.Context, ref xfertypes.ObjectRef) (xfertypes.ObjectInfo, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(ref.Container),
		Key:    aws.String(ref.Key),
	}
	if ref.VersionID != "" {
		input.VersionId = aws.String(ref.VersionID)
	}
	encryptionFor(ref.SSE).applyHead(input)

	output, err := b.client.HeadObject(ctx, input)
	if err != nil {
		return xfertypes.ObjectInfo{}, classify(err)
	}

	ref.Size = aws.ToInt64(output.ContentLength)
	ref.ETag = aws.ToString(output.ETag)
	if v := aws.ToString(output.VersionId); v != "" {
		ref.VersionID = v
	}
	return xfertypes.ObjectInfo{
		ObjectRef:   ref,
		ContentType: aws.ToString(output.ContentType),
		Metadata:    output.Metadata,
	}, nil
}

// copySource formats src as the URL-encoded "bucket/key[?versionId=]" form.
func copySource(src xfertypes.ObjectRef) string {
	segments := strings.Split(src.Key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	out := src.Container + "/" + strings.Join(segments, "/")
	if src.VersionID != "" {
		out += "?versionId=" + url.QueryEscape(src.VersionID)
	}
	return out
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
