// Package minioapi defines the subset of the MinIO core API used by the minio backend so it can be mocked in tests.
package minioapi

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"
)

// Core defines the low-level MinIO operations used by this module.
type Core interface {
	// NewMultipartUpload initiates a multipart upload
	NewMultipartUpload(ctx context.Context, bucket, object string, opts minio.PutObjectOptions) (string, error)

	// PutObjectPart uploads a part in a multipart upload
	PutObjectPart(
		ctx context.Context,
		bucket, object, uploadID string,
		partID int,
		data io.Reader,
		size int64,
		opts minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)

	// CopyObjectPart copies a byte range of an existing object as a part
	CopyObjectPart(
		ctx context.Context,
		srcBucket, srcObject, destBucket, destObject, uploadID string,
		partID int,
		startOffset, length int64,
		metadata map[string]string,
	) (minio.CompletePart, error)

	// CompleteMultipartUpload completes a multipart upload
	CompleteMultipartUpload(
		ctx context.Context,
		bucket, object, uploadID string,
		parts []minio.CompletePart,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)

	// AbortMultipartUpload aborts a multipart upload
	AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error

	// PutObject uploads an object in a single request
	PutObject(
		ctx context.Context,
		bucket, object string,
		data io.Reader,
		size int64,
		md5Base64, sha256Hex string,
		opts minio.PutObjectOptions,
	) (minio.UploadInfo, error)

	// CopyObject copies an object server-side in a single request
	CopyObject(
		ctx context.Context,
		sourceBucket, sourceObject, destBucket, destObject string,
		metadata map[string]string,
		srcOpts minio.CopySrcOptions,
		dstOpts minio.PutObjectOptions,
	) (minio.ObjectInfo, error)

	// StatObject retrieves object metadata
	StatObject(ctx context.Context, bucket, object string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// Ensure that *minio.Core implements Core
var _ Core = (*minio.Core)(nil)
