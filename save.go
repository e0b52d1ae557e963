package transfer

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"io/fs"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/telemetry"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/chunker"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// SaveStream stores size bytes read from src as target.
//
// Sources smaller than the upload limit are sent with one write. Larger
// sources are read part by part into a fixed buffer and sent through a
// multipart session, which is aborted if anything fails. Pass
// xfertypes.SizeUnknown when the length is not known in advance.
//
// If target.ContentType is empty it is detected from the head of the stream,
// falling back to the key's extension.
//
// Errors:
//   - ErrInvalidArgument: If the target is invalid, src is nil, or src does not hold exactly size bytes
//   - ErrAccessDenied, ErrNotFound, ErrAuthentication: As reported by the backend
//   - ErrBackend: Any other backend or source read failure
//   - context.Canceled: If ctx is canceled; any open session is aborted
//
// Example:
//
//	result, err := client.SaveStream(ctx, target, resp.Body, resp.ContentLength,
//	    transfer.WithAutoClose(),
//	    transfer.WithProgress(tracker),
//	)
func (c *Client) SaveStream(
	ctx context.Context,
	target xfertypes.Target,
	src io.Reader,
	size int64,
	opts ...xfertypes.SaveOption,
) (*xfertypes.Result, error) {
	cfg := &xfertypes.SaveConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.AutoClose {
		if closer, ok := src.(io.Closer); ok {
			defer func() {
				if err := closer.Close(); err != nil {
					c.logger.Warn().Err(err).Str("key", target.Key).Msg("failed to close source stream")
				}
			}()
		}
	}

	return c.save(ctx, "save-stream", target, src, size, cfg)
}

// SaveFile stores the file at path as target. The size is taken from the
// file's metadata and the file is always closed before SaveFile returns.
//
// Errors:
//   - ErrNotFound: If the file does not exist
//   - ErrInvalidArgument: If path is empty or points to a directory
//   - Any error SaveStream can return
func (c *Client) SaveFile(
	ctx context.Context,
	target xfertypes.Target,
	path string,
	opts ...xfertypes.SaveOption,
) (*xfertypes.Result, error) {
	fail := func(err error) (*xfertypes.Result, error) {
		return nil, wrapObjectError("save-file", target, err)
	}

	if path == "" {
		return fail(errors.InvalidArgument("path cannot be empty"))
	}

	info, err := c.fs.Stat(path)
	if err != nil {
		return fail(classifyFileError(err))
	}
	if info.IsDir() {
		return fail(errors.InvalidArgument("%s is a directory, not a file", path))
	}

	file, err := c.fs.Open(path)
	if err != nil {
		return fail(classifyFileError(err))
	}
	defer file.Close()

	var src io.Reader = file
	if target.ContentType == "" {
		head, replay, err := sniff(file)
		if err != nil {
			return fail(err)
		}
		target.ContentType = detectContentType(head, path)
		src = replay
	}

	cfg := &xfertypes.SaveConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	cfg.AutoClose = false

	return c.save(ctx, "save-file", target, src, info.Size(), cfg)
}

func (c *Client) save(
	ctx context.Context,
	op string,
	target xfertypes.Target,
	src io.Reader,
	size int64,
	cfg *xfertypes.SaveConfig,
) (result *xfertypes.Result, err error) {
	prog := newProgress(cfg.Progress)
	path := xfertypes.PathSingle
	defer func() {
		err = wrapObjectError(op, target, err)
		c.metrics.RecordTransfer("save", path.String(), err)
		prog.finish(err)
	}()

	if err := validation.ValidateTarget(target); err != nil {
		return nil, err
	}
	if src == nil {
		return nil, errors.InvalidArgument("source cannot be nil")
	}
	if size < xfertypes.SizeUnknown {
		return nil, errors.InvalidArgument("invalid size %d", size)
	}

	if target.ContentType == "" {
		head, replay, err := sniff(src)
		if err != nil {
			return nil, err
		}
		target.ContentType = detectContentType(head, target.Key)
		src = replay
	}

	ctx, span := c.tracer.Start(ctx, "save",
		telemetry.Container(target.Container), telemetry.Key(target.Key), telemetry.Size(size))
	defer func() { telemetry.End(span, err) }()

	start := time.Now()
	path = c.router.UploadPath(size)

	var buffered []byte
	if size == xfertypes.SizeUnknown && path == xfertypes.PathSingle {
		buffered, path, err = c.bufferUnknown(src)
		if err != nil {
			return nil, err
		}
		if path == xfertypes.PathChunked {
			src = io.MultiReader(bytes.NewReader(buffered), src)
		}
	}
	span.SetAttributes(telemetry.Path(path.String()))

	c.logger.Debug().
		Str("container", target.Container).
		Str("key", target.Key).
		Int64("size", size).
		Str("path", path.String()).
		Msg("saving object")

	if path == xfertypes.PathSingle {
		if size != xfertypes.SizeUnknown {
			buffered, err = readExactly(src, size)
			if err != nil {
				return nil, err
			}
		}
		result, err = c.putWhole(ctx, target, buffered, prog)
	} else {
		result, err = c.uploadChunked(ctx, target, src, size, prog)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	c.logger.Debug().
		Str("container", target.Container).
		Str("key", target.Key).
		Int64("size", result.Size).
		Int("parts", result.Parts).
		Dur("duration", result.Duration).
		Msg("object saved")
	return result, nil
}

// bufferUnknown reads a stream of unknown length up to the upload limit.
// A stream that ends before the limit goes out as one write; otherwise the
// buffered prefix is replayed ahead of the rest of the stream in a session.
func (c *Client) bufferUnknown(src io.Reader) ([]byte, xfertypes.Path, error) {
	limit := c.router.UploadLimit()
	if limit <= 0 {
		data, err := io.ReadAll(src)
		if err != nil {
			return nil, xfertypes.PathSingle, errors.Wrap(errors.ErrBackend, err)
		}
		return data, xfertypes.PathSingle, nil
	}

	data, err := io.ReadAll(io.LimitReader(src, limit))
	if err != nil {
		return nil, xfertypes.PathSingle, errors.Wrap(errors.ErrBackend, err)
	}
	if int64(len(data)) < limit {
		return data, xfertypes.PathSingle, nil
	}
	return data, xfertypes.PathChunked, nil
}

// readExactly reads size bytes from src and fails if src holds fewer or more.
func readExactly(src io.Reader, size int64) ([]byte, error) {
	data := make([]byte, size)
	n, err := io.ReadFull(src, data)
	switch {
	case err == io.ErrUnexpectedEOF || (err == io.EOF && size > 0):
		return nil, errors.InvalidArgument("source ended after %d of %d bytes", n, size)
	case err != nil && err != io.EOF:
		return nil, errors.Wrap(errors.ErrBackend, err)
	}

	var extra [1]byte
	if m, _ := io.ReadFull(src, extra[:]); m > 0 {
		return nil, errors.InvalidArgument("source holds more than %d bytes", size)
	}
	return data, nil
}

func (c *Client) putWhole(
	ctx context.Context,
	target xfertypes.Target,
	data []byte,
	prog *progress,
) (*xfertypes.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	size := int64(len(data))
	ctx, span := c.tracer.Start(ctx, metrics.OpPutWhole,
		telemetry.Container(target.Container), telemetry.Key(target.Key), telemetry.Size(size))
	start := time.Now()
	ref, err := c.backend.PutWhole(ctx, target, data)
	c.metrics.ObserveOperation(metrics.OpPutWhole, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}

	c.metrics.RecordBytes(metrics.OpPutWhole, size)
	prog.addBytes(size)
	return &xfertypes.Result{
		Container: target.Container,
		Key:       target.Key,
		Size:      size,
		ETag:      ref.ETag,
		VersionID: ref.VersionID,
		Path:      xfertypes.PathSingle,
	}, nil
}

func (c *Client) uploadChunked(
	ctx context.Context,
	target xfertypes.Target,
	src io.Reader,
	size int64,
	prog *progress,
) (*xfertypes.Result, error) {
	partSize := c.config.UploadPartSize
	if size > 0 {
		partSize = planner.PartSizeFor(size, partSize, c.limits.MaxParts)
	}
	if size != xfertypes.SizeUnknown {
		// One byte past size is enough to detect a longer source.
		src = io.LimitReader(src, size+1)
	}

	chunks, err := chunker.New(src, partSize, c.config.ReadBlockSize, chunker.WithReadHook(prog.read))
	if err != nil {
		return nil, errors.InvalidArgument("%s", err.Error())
	}

	session, err := multipart.Initiate(ctx, c.backend, target, c.sessionOptions(multipart.WithPartHook(prog.part))...)
	if err != nil {
		return nil, err
	}
	defer session.Release(ctx)

	var number int32
	var read int64
	for {
		seg, err := chunks.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrBackend, err)
		}

		read += int64(len(seg.Data))
		if size != xfertypes.SizeUnknown && read > size {
			return nil, errors.InvalidArgument("source holds more than %d bytes", size)
		}

		number++
		if _, err := session.SubmitUpload(ctx, number, seg.Data, seg.Last); err != nil {
			return nil, err
		}
	}

	// A session needs at least one part.
	if number == 0 {
		if _, err := session.SubmitUpload(ctx, 1, nil, true); err != nil {
			return nil, err
		}
	}

	if size != xfertypes.SizeUnknown && session.Size() != size {
		return nil, errors.InvalidArgument("source held %d bytes, expected %d", session.Size(), size)
	}

	ref, err := session.Complete(ctx)
	if err != nil {
		return nil, err
	}

	return &xfertypes.Result{
		Container: target.Container,
		Key:       target.Key,
		Size:      session.Size(),
		ETag:      ref.ETag,
		VersionID: ref.VersionID,
		Path:      xfertypes.PathChunked,
		Parts:     len(session.Parts()),
	}, nil
}

// wrapObjectError adds operation context to err unless a lower layer already did.
func wrapObjectError(op string, target xfertypes.Target, err error) error {
	if err == nil {
		return nil
	}
	var xerr *errors.Error
	if stderrors.As(err, &xerr) {
		return err
	}
	return errors.NewObjectError(op, target.Container, target.Key, err)
}

func classifyFileError(err error) error {
	switch {
	case stderrors.Is(err, fs.ErrNotExist):
		return errors.Wrap(errors.ErrNotFound, err)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.Wrap(errors.ErrAccessDenied, err)
	default:
		return err
	}
}
