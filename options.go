package transfer

import (
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// DefaultContentType is used when no content type is given and none can be detected.
const DefaultContentType = "application/octet-stream"

// WithUploadThreshold sets the size at which uploads switch to a multipart session.
// The backend's single write limit still applies when it is smaller.
// Default is 100MiB.
func WithUploadThreshold(threshold int64) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.UploadThreshold = threshold
	}
}

// WithUploadPartSize sets the target size of each uploaded part.
// Must be at least the backend's minimum part size. Default is 6MiB.
func WithUploadPartSize(partSize int64) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.UploadPartSize = partSize
	}
}

// WithCopyPartSize sets the size of each server-side copy range.
// Must be at least the backend's minimum part size. Default is 5MiB.
func WithCopyPartSize(partSize int64) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.CopyPartSize = partSize
	}
}

// WithReadBlockSize sets the size of each read from a source stream.
// Default is 20000 bytes.
func WithReadBlockSize(size int) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.ReadBlockSize = size
	}
}

// WithUnknownLengthPolicy sets the path used for streams of unknown length.
// With PathSingle the stream is buffered up to the upload limit and falls
// over to a multipart session only if it turns out to be larger.
func WithUnknownLengthPolicy(path xfertypes.Path) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.UnknownLength = path
	}
}

// WithAbortTimeout bounds the cleanup abort issued after a failed transfer.
func WithAbortTimeout(timeout time.Duration) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.AbortTimeout = timeout
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger zerolog.Logger) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Logger = logger
	}
}

// WithMetricsRegisterer registers the client's Prometheus collectors with reg.
// Without it no metrics are recorded.
func WithMetricsRegisterer(reg prometheus.Registerer) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Registerer = reg
	}
}

// WithTracerProvider sets the provider used to create spans around backend calls.
// If not specified, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.TracerProvider = tp
	}
}

// WithFilesystem sets the filesystem SaveFile reads from.
// This allows using in-memory filesystems for testing.
// If not specified, defaults to the OS filesystem.
func WithFilesystem(filesystem billy.Filesystem) xfertypes.Option {
	return func(c *xfertypes.ClientConfig) {
		c.Filesystem = filesystem
	}
}

// WithProgress sets a progress tracker for a save operation.
func WithProgress(tracker xfertypes.ProgressTracker) xfertypes.SaveOption {
	return func(c *xfertypes.SaveConfig) {
		c.Progress = tracker
	}
}

// WithAutoClose closes the source stream when the save returns, whether it
// succeeded or not. Sources that are not an io.Closer are left alone.
func WithAutoClose() xfertypes.SaveOption {
	return func(c *xfertypes.SaveConfig) {
		c.AutoClose = true
	}
}

// WithCopyProgress sets a progress tracker for a copy operation.
func WithCopyProgress(tracker xfertypes.ProgressTracker) xfertypes.CopyOption {
	return func(c *xfertypes.CopyConfig) {
		c.Progress = tracker
	}
}
