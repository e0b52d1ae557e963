package transfer

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/telemetry"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/router"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Client executes transfers against one backend.
// It holds no mutable state after New and is safe for concurrent use.
type Client struct {
	// backend is the object store all transfers go to
	backend backend.Backend

	// limits is the backend's size and part-count limits
	limits backend.Limits

	// router decides between the single and chunked paths
	router router.Router

	// config holds the tuning values
	config xfertypes.ClientConfig

	logger  zerolog.Logger
	metrics *metrics.Metrics
	tracer  *telemetry.Tracer

	// fs is the filesystem SaveFile reads from
	fs billy.Filesystem
}

// New creates a Client for b with the provided options.
//
// Example:
//
//	client, err := transfer.New(b,
//	    transfer.WithUploadThreshold(64<<20),
//	    transfer.WithLogger(logger),
//	)
func New(b backend.Backend, opts ...xfertypes.Option) (*Client, error) {
	if b == nil {
		return nil, errors.NewError("new", errors.InvalidArgument("backend cannot be nil"))
	}

	cfg := xfertypes.DefaultClientConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	limits := b.Limits()
	if err := validateConfig(cfg, limits); err != nil {
		return nil, errors.NewError("new", err)
	}

	filesystem := cfg.Filesystem
	if filesystem == nil {
		filesystem = osfs.New("/")
	}

	return &Client{
		backend: b,
		limits:  limits,
		router: router.Router{
			UploadThreshold: cfg.UploadThreshold,
			MaxSingleWrite:  limits.MaxSingleWrite,
			MaxSingleCopy:   limits.MaxSingleCopy,
			UnknownLength:   cfg.UnknownLength,
		},
		config:  *cfg,
		logger:  cfg.Logger.With().Str("backend", b.Name()).Logger(),
		metrics: metrics.New(cfg.Registerer),
		tracer:  telemetry.New(cfg.TracerProvider),
		fs:      filesystem,
	}, nil
}

// Backend returns the backend the client transfers to.
func (c *Client) Backend() backend.Backend {
	return c.backend
}

func validateConfig(cfg *xfertypes.ClientConfig, limits backend.Limits) error {
	switch {
	case cfg.UploadThreshold <= 0:
		return errors.InvalidArgument("upload threshold must be positive, got %d", cfg.UploadThreshold)
	case cfg.UploadPartSize <= 0:
		return errors.InvalidArgument("upload part size must be positive, got %d", cfg.UploadPartSize)
	case cfg.CopyPartSize <= 0:
		return errors.InvalidArgument("copy part size must be positive, got %d", cfg.CopyPartSize)
	case cfg.ReadBlockSize <= 0:
		return errors.InvalidArgument("read block size must be positive, got %d", cfg.ReadBlockSize)
	case cfg.AbortTimeout <= 0:
		return errors.InvalidArgument("abort timeout must be positive, got %s", cfg.AbortTimeout)
	}

	if cfg.UnknownLength != xfertypes.PathSingle && cfg.UnknownLength != xfertypes.PathChunked {
		return errors.InvalidArgument("unknown length policy %s is not supported", cfg.UnknownLength)
	}
	if cfg.UploadPartSize < limits.MinPartSize {
		return errors.InvalidArgument("upload part size %d is below the backend minimum of %d",
			cfg.UploadPartSize, limits.MinPartSize)
	}
	if cfg.CopyPartSize < limits.MinPartSize {
		return errors.InvalidArgument("copy part size %d is below the backend minimum of %d",
			cfg.CopyPartSize, limits.MinPartSize)
	}
	if limits.MaxSingleWrite > 0 && cfg.UploadPartSize > limits.MaxSingleWrite {
		return errors.InvalidArgument("upload part size %d exceeds the backend single write limit of %d",
			cfg.UploadPartSize, limits.MaxSingleWrite)
	}
	if limits.MaxSingleCopy > 0 && cfg.CopyPartSize > limits.MaxSingleCopy {
		return errors.InvalidArgument("copy part size %d exceeds the backend single copy limit of %d",
			cfg.CopyPartSize, limits.MaxSingleCopy)
	}
	return nil
}

// sessionOptions returns the options shared by every session the client opens.
func (c *Client) sessionOptions(extra ...multipart.Option) []multipart.Option {
	opts := []multipart.Option{
		multipart.WithLogger(c.logger),
		multipart.WithMetrics(c.metrics),
		multipart.WithTracer(c.tracer),
		multipart.WithAbortTimeout(c.config.AbortTimeout),
	}
	return append(opts, extra...)
}
