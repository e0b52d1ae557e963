package testutil

import (
	"context"
	"io"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/minioapi"
)

// MockMinioCore is a mock implementation of the minioapi.Core interface for testing.
type MockMinioCore struct {
	NewMultipartUploadFunc func(context.Context, string, string, minio.PutObjectOptions) (string, error)
	PutObjectPartFunc      func(
		context.Context, string, string, string, int, io.Reader, int64, minio.PutObjectPartOptions,
	) (minio.ObjectPart, error)
	CopyObjectPartFunc func(
		context.Context, string, string, string, string, string, int, int64, int64, map[string]string,
	) (minio.CompletePart, error)
	CompleteMultipartUploadFunc func(
		context.Context, string, string, string, []minio.CompletePart, minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	AbortMultipartUploadFunc func(context.Context, string, string, string) error
	PutObjectFunc            func(
		context.Context, string, string, io.Reader, int64, string, string, minio.PutObjectOptions,
	) (minio.UploadInfo, error)
	CopyObjectFunc func(
		context.Context, string, string, string, string, map[string]string, minio.CopySrcOptions, minio.PutObjectOptions,
	) (minio.ObjectInfo, error)
	StatObjectFunc func(context.Context, string, string, minio.StatObjectOptions) (minio.ObjectInfo, error)
}

var _ minioapi.Core = (*MockMinioCore)(nil)

// NewMultipartUpload mocks the MinIO NewMultipartUpload operation.
func (m *MockMinioCore) NewMultipartUpload(
	ctx context.Context,
	bucket, object string,
	opts minio.PutObjectOptions,
) (string, error) {
	if m.NewMultipartUploadFunc != nil {
		return m.NewMultipartUploadFunc(ctx, bucket, object, opts)
	}
	return "upload-id", nil
}

// PutObjectPart mocks the MinIO PutObjectPart operation.
func (m *MockMinioCore) PutObjectPart(
	ctx context.Context,
	bucket, object, uploadID string,
	partID int,
	data io.Reader,
	size int64,
	opts minio.PutObjectPartOptions,
) (minio.ObjectPart, error) {
	if m.PutObjectPartFunc != nil {
		return m.PutObjectPartFunc(ctx, bucket, object, uploadID, partID, data, size, opts)
	}
	return minio.ObjectPart{PartNumber: partID, Size: size}, nil
}

// CopyObjectPart mocks the MinIO CopyObjectPart operation.
func (m *MockMinioCore) CopyObjectPart(
	ctx context.Context,
	srcBucket, srcObject, destBucket, destObject, uploadID string,
	partID int,
	startOffset, length int64,
	metadata map[string]string,
) (minio.CompletePart, error) {
	if m.CopyObjectPartFunc != nil {
		return m.CopyObjectPartFunc(
			ctx, srcBucket, srcObject, destBucket, destObject, uploadID, partID, startOffset, length, metadata,
		)
	}
	return minio.CompletePart{PartNumber: partID}, nil
}

// CompleteMultipartUpload mocks the MinIO CompleteMultipartUpload operation.
func (m *MockMinioCore) CompleteMultipartUpload(
	ctx context.Context,
	bucket, object, uploadID string,
	parts []minio.CompletePart,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if m.CompleteMultipartUploadFunc != nil {
		return m.CompleteMultipartUploadFunc(ctx, bucket, object, uploadID, parts, opts)
	}
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

// AbortMultipartUpload mocks the MinIO AbortMultipartUpload operation.
func (m *MockMinioCore) AbortMultipartUpload(ctx context.Context, bucket, object, uploadID string) error {
	if m.AbortMultipartUploadFunc != nil {
		return m.AbortMultipartUploadFunc(ctx, bucket, object, uploadID)
	}
	return nil
}

// PutObject mocks the MinIO PutObject operation.
func (m *MockMinioCore) PutObject(
	ctx context.Context,
	bucket, object string,
	data io.Reader,
	size int64,
	md5Base64, sha256Hex string,
	opts minio.PutObjectOptions,
) (minio.UploadInfo, error) {
	if m.PutObjectFunc != nil {
		return m.PutObjectFunc(ctx, bucket, object, data, size, md5Base64, sha256Hex, opts)
	}
	return minio.UploadInfo{Bucket: bucket, Key: object, Size: size}, nil
}

// CopyObject mocks the MinIO CopyObject operation.
func (m *MockMinioCore) CopyObject(
	ctx context.Context,
	sourceBucket, sourceObject, destBucket, destObject string,
	metadata map[string]string,
	srcOpts minio.CopySrcOptions,
	dstOpts minio.PutObjectOptions,
) (minio.ObjectInfo, error) {
	if m.CopyObjectFunc != nil {
		return m.CopyObjectFunc(ctx, sourceBucket, sourceObject, destBucket, destObject, metadata, srcOpts, dstOpts)
	}
	return minio.ObjectInfo{Key: destObject}, nil
}

// StatObject mocks the MinIO StatObject operation.
func (m *MockMinioCore) StatObject(
	ctx context.Context,
	bucket, object string,
	opts minio.StatObjectOptions,
) (minio.ObjectInfo, error) {
	if m.StatObjectFunc != nil {
		return m.StatObjectFunc(ctx, bucket, object, opts)
	}
	return minio.ObjectInfo{Key: object}, nil
}
