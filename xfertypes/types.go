// Package xfertypes provides shared type definitions for the transfer module.
package xfertypes

import (
	"fmt"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// SizeUnknown marks a stream whose length is not known in advance.
const SizeUnknown int64 = -1

// Default tuning values.
const (
	// DefaultUploadThreshold is the size at which uploads switch to the chunked path.
	DefaultUploadThreshold int64 = 100 * 1024 * 1024

	// DefaultMaxSingleWrite is the largest single write most backends accept.
	DefaultMaxSingleWrite int64 = 5 * 1024 * 1024 * 1024

	// DefaultUploadPartSize is the target size of each uploaded part.
	DefaultUploadPartSize int64 = 6 * 1024 * 1024

	// DefaultCopyPartSize is the size of each server-side copy range.
	DefaultCopyPartSize int64 = 5 * 1024 * 1024

	// DefaultReadBlockSize is the size of each read from the source stream.
	DefaultReadBlockSize = 20000

	// DefaultAbortTimeout bounds the cleanup abort issued after a failure.
	DefaultAbortTimeout = 30 * time.Second
)

// Path is the strategy chosen for a transfer.
type Path int

const (
	// PathSingle transfers the object with one atomic write or copy.
	PathSingle Path = iota

	// PathChunked transfers the object through a multipart session.
	PathChunked
)

// String returns the lowercase name of the path.
func (p Path) String() string {
	switch p {
	case PathSingle:
		return "single"
	case PathChunked:
		return "chunked"
	default:
		return fmt.Sprintf("path(%d)", int(p))
	}
}

// StorageClass represents the storage class for objects.
type StorageClass string

// Predefined storage classes
const (
	// StorageClassStandard is the default storage class
	StorageClassStandard StorageClass = "STANDARD"

	// StorageClassReducedRedundancy provides reduced redundancy storage
	StorageClassReducedRedundancy StorageClass = "REDUCED_REDUNDANCY"

	// StorageClassStandardIA provides infrequent access storage
	StorageClassStandardIA StorageClass = "STANDARD_IA"

	// StorageClassIntelligentTiering provides intelligent tiering storage
	StorageClassIntelligentTiering StorageClass = "INTELLIGENT_TIERING"

	// StorageClassGlacier provides archival storage
	StorageClassGlacier StorageClass = "GLACIER"
)

// SSEType represents the server-side encryption type for objects.
type SSEType string

// Predefined server-side encryption types
const (
	// SSES3 uses backend-managed encryption keys
	SSES3 SSEType = "AES256"

	// SSEKMS uses KMS-managed encryption keys
	SSEKMS SSEType = "aws:kms"

	// SSEC uses customer-provided encryption keys
	SSEC SSEType = "SSE-C"
)

// SSEConfig contains server-side encryption settings.
type SSEConfig struct {
	// Type is the encryption type
	Type SSEType

	// KMSKeyID is the KMS key ID, used with SSEKMS
	KMSKeyID string

	// CustomerKey is the raw 32 byte key, used with SSEC
	CustomerKey []byte
}

// ObjectACL represents the access class applied to a new object.
type ObjectACL string

// Predefined object ACLs
const (
	// ACLPrivate grants private access
	ACLPrivate ObjectACL = "private"

	// ACLPublicRead grants public read access
	ACLPublicRead ObjectACL = "public-read"

	// ACLPublicReadWrite grants public read and write access
	ACLPublicReadWrite ObjectACL = "public-read-write"

	// ACLAuthenticatedRead grants authenticated users read access
	ACLAuthenticatedRead ObjectACL = "authenticated-read"

	// ACLOwnerRead grants bucket owner read access
	ACLOwnerRead ObjectACL = "bucket-owner-read"

	// ACLOwnerFullControl grants bucket owner full control
	ACLOwnerFullControl ObjectACL = "bucket-owner-full-control"
)

// Target describes the destination object of a transfer. It is immutable for
// the duration of one transfer.
type Target struct {
	// Container is the bucket or container name
	Container string

	// Key is the object key
	Key string

	// ContentType is the MIME type; detected when empty
	ContentType string

	// Access is the access class; empty means the backend default
	Access ObjectACL

	// StorageClass is the storage class; empty means the backend default
	StorageClass StorageClass

	// SSE configures server-side encryption
	SSE *SSEConfig

	// Metadata contains user-defined metadata
	Metadata map[string]string
}

// String returns "container/key".
func (t Target) String() string {
	return t.Container + "/" + t.Key
}

// ObjectRef identifies a stored object.
type ObjectRef struct {
	Container string
	Key       string
	ETag      string
	VersionID string
	Size      int64

	// SSE carries the customer key needed to read an SSE-C encrypted copy
	// source. Other encryption types are decrypted by the backend and ignored.
	SSE *SSEConfig
}

// String returns "container/key".
func (r ObjectRef) String() string {
	return r.Container + "/" + r.Key
}

// ObjectInfo describes a stored object as reported by a backend's Stat.
type ObjectInfo struct {
	ObjectRef

	// ContentType is the stored MIME type
	ContentType string

	// Metadata contains the user-defined metadata
	Metadata map[string]string
}

// PartRecord is a part accepted by a multipart session.
type PartRecord struct {
	// Number is the 1-based part number
	Number int32

	// Size is the number of bytes in the part
	Size int64

	// ETag is the completion token returned by the backend
	ETag string
}

// ByteRange is an inclusive range of source bytes.
type ByteRange struct {
	Start int64
	End   int64
}

// Len returns the number of bytes covered by the range.
func (r ByteRange) Len() int64 {
	return r.End - r.Start + 1
}

// String returns the range in HTTP Range header form.
func (r ByteRange) String() string {
	return fmt.Sprintf("bytes=%d-%d", r.Start, r.End)
}

// Progress is a snapshot of a running transfer.
type Progress struct {
	// BytesTransferred is the number of source bytes read or copied so far
	BytesTransferred int64

	// PartsCompleted is the number of parts accepted by the backend so far
	PartsCompleted int64
}

// ProgressTracker defines the interface for tracking transfer progress.
type ProgressTracker interface {
	// Update is called with a snapshot every time progress is made
	Update(p Progress)

	// Complete is called when the transfer completes successfully
	Complete()

	// Error is called when the transfer fails
	Error(err error)
}

// Result contains the outcome of a successful transfer.
type Result struct {
	// Container is the destination container
	Container string

	// Key is the destination key
	Key string

	// Size is the number of bytes stored
	Size int64

	// ETag is the entity tag of the stored object
	ETag string

	// VersionID is the version of the stored object, if versioning is enabled
	VersionID string

	// Path is the strategy that was used
	Path Path

	// Parts is the number of parts submitted; zero for the single path
	Parts int

	// Duration is how long the transfer took
	Duration time.Duration
}

// ClientConfig holds the configuration of a transfer client.
type ClientConfig struct {
	// UploadThreshold is the size at which uploads switch to the chunked path
	UploadThreshold int64

	// UploadPartSize is the target size of each uploaded part
	UploadPartSize int64

	// CopyPartSize is the size of each copied range
	CopyPartSize int64

	// ReadBlockSize is the size of each read from the source stream
	ReadBlockSize int

	// UnknownLength is the path used when a stream's length is unknown
	UnknownLength Path

	// AbortTimeout bounds the cleanup abort issued after a failure
	AbortTimeout time.Duration

	// Logger receives structured logs
	Logger zerolog.Logger

	// Registerer receives the client's Prometheus collectors; nil disables metrics
	Registerer prometheus.Registerer

	// TracerProvider creates spans around backend calls; nil uses a no-op provider
	TracerProvider trace.TracerProvider

	// Filesystem is used by SaveFile; nil uses the OS filesystem rooted at /
	Filesystem billy.Filesystem
}

// DefaultClientConfig returns a configuration populated with defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		UploadThreshold: DefaultUploadThreshold,
		UploadPartSize:  DefaultUploadPartSize,
		CopyPartSize:    DefaultCopyPartSize,
		ReadBlockSize:   DefaultReadBlockSize,
		UnknownLength:   PathSingle,
		AbortTimeout:    DefaultAbortTimeout,
		Logger:          zerolog.Nop(),
	}
}

// Option is a functional option for configuring the client.
type Option func(*ClientConfig)

// SaveConfig contains per-call settings for SaveStream and SaveFile.
type SaveConfig struct {
	// Progress receives progress updates
	Progress ProgressTracker

	// AutoClose closes the source stream when the call returns
	AutoClose bool
}

// SaveOption is a functional option for configuring a save call.
type SaveOption func(*SaveConfig)

// CopyConfig contains per-call settings for CopyObject.
type CopyConfig struct {
	// Progress receives progress updates
	Progress ProgressTracker
}

// CopyOption is a functional option for configuring a copy call.
type CopyOption func(*CopyConfig)
