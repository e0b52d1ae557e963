package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-libs/transfer"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
)

// openBackend is replaced in tests.
var openBackend = backend.Open

// Options holds the configuration shared by every command.
type Options struct {
	Backend backend.Config

	UploadThreshold int64
	UploadPartSize  int64
	CopyPartSize    int64
	ReadBlockSize   int
	AbortTimeout    time.Duration

	LogLevel zerolog.Level
}

// loadOptions reads the global options with flag precedence.
func loadOptions(f *FlagLoader) (*Options, error) {
	opts := &Options{
		Backend: backend.Config{
			Type:      f.String("backend"),
			Endpoint:  f.String("endpoint"),
			Region:    f.String("region"),
			AccessKey: f.String("access-key"),
			SecretKey: f.String("secret-key"),
			PathStyle: f.Bool("path-style"),
			UseSSL:    f.Bool("use-ssl"),
		},
		ReadBlockSize: f.Int("read-block-size"),
		AbortTimeout:  f.Duration("abort-timeout"),
	}

	var err error
	if opts.UploadThreshold, err = parseSize(f.String("upload-threshold")); err != nil {
		return nil, fmt.Errorf("upload-threshold: %w", err)
	}
	if opts.UploadPartSize, err = parseSize(f.String("upload-part-size")); err != nil {
		return nil, fmt.Errorf("upload-part-size: %w", err)
	}
	if opts.CopyPartSize, err = parseSize(f.String("copy-part-size")); err != nil {
		return nil, fmt.Errorf("copy-part-size: %w", err)
	}

	level, err := zerolog.ParseLevel(f.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("log-level: %w", err)
	}
	opts.LogLevel = level

	return opts, nil
}

// parseSize parses a human-readable size such as "100MiB" or "5MB".
func parseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("size %q out of range", s)
	}
	return int64(n), nil
}

// newClient opens the configured backend and wraps it in a transfer client.
func newClient(ctx context.Context, opts *Options, logger zerolog.Logger) (*transfer.Client, error) {
	b, err := openBackend(ctx, opts.Backend)
	if err != nil {
		return nil, err
	}
	return transfer.New(b,
		transfer.WithUploadThreshold(opts.UploadThreshold),
		transfer.WithUploadPartSize(opts.UploadPartSize),
		transfer.WithCopyPartSize(opts.CopyPartSize),
		transfer.WithReadBlockSize(opts.ReadBlockSize),
		transfer.WithAbortTimeout(opts.AbortTimeout),
		transfer.WithLogger(logger),
	)
}

// parseLocation splits "container/key" into its parts.
func parseLocation(s string) (string, string, error) {
	container, key, ok := strings.Cut(s, "/")
	if !ok || container == "" || key == "" {
		return "", "", fmt.Errorf("invalid location %q: expected <container>/<key>", s)
	}
	return container, key, nil
}

// defaultSize formats a default size flag value.
func defaultSize(n int64) string {
	return humanize.IBytes(uint64(n))
}
