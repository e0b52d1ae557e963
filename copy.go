package transfer

import (
	"context"
	"time"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/backend"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/metrics"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/telemetry"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/multipart"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/transfer/planner"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/validation"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// CopyObject copies src to target inside the backend without moving the data
// through the client.
//
// Sources up to the backend's single copy limit are copied with one call.
// Larger sources are split into byte ranges and copied part by part through a
// multipart session. Pass xfertypes.SizeUnknown to look the size up with the
// backend's Stat.
//
// When target sets neither ContentType nor Metadata, the copy keeps the
// source's on both paths. An SSE-C encrypted source needs its key in src.SSE.
//
// Errors:
//   - ErrInvalidArgument: If the target or source is invalid, src and target are the same
//     object, or the size is unknown and the backend cannot report it
//   - ErrNotFound: If the source does not exist
//   - Any classified backend error
//
// Example:
//
//	src := xfertypes.ObjectRef{Container: "archive", Key: "2024/db.tar"}
//	result, err := client.CopyObject(ctx, xfertypes.Target{Container: "restore", Key: "db.tar"}, src, xfertypes.SizeUnknown)
//	if err != nil {
//	    return err
//	}
func (c *Client) CopyObject(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
	size int64,
	opts ...xfertypes.CopyOption,
) (result *xfertypes.Result, err error) {
	cfg := &xfertypes.CopyConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	prog := newProgress(cfg.Progress)
	path := xfertypes.PathSingle
	defer func() {
		err = wrapObjectError("copy", target, err)
		c.metrics.RecordTransfer("copy", path.String(), err)
		prog.finish(err)
	}()

	if err := validation.ValidateTarget(target); err != nil {
		return nil, err
	}
	if err := validation.ValidateContainerName(src.Container); err != nil {
		return nil, err
	}
	if err := validation.ValidateObjectKey(src.Key); err != nil {
		return nil, err
	}
	if err := validation.ValidateSSE(src.SSE); err != nil {
		return nil, err
	}
	if src.Container == target.Container && src.Key == target.Key && src.VersionID == "" {
		return nil, errors.InvalidArgument("cannot copy %s onto itself", src)
	}
	if size < xfertypes.SizeUnknown {
		return nil, errors.InvalidArgument("invalid size %d", size)
	}

	ctx, span := c.tracer.Start(ctx, "copy",
		telemetry.Container(target.Container), telemetry.Key(target.Key))
	defer func() { telemetry.End(span, err) }()

	start := time.Now()
	var info *xfertypes.ObjectInfo
	if size == xfertypes.SizeUnknown {
		if info, err = c.stat(ctx, src); err != nil {
			return nil, err
		}
		src = info.ObjectRef
		size = src.Size
	}
	src.Size = size

	path = c.router.CopyPath(size)

	// A single copy keeps the source's content type and metadata unless the
	// target replaces them. A session starts from an empty object, so the
	// same attributes are carried over explicitly.
	if path == xfertypes.PathChunked && target.ContentType == "" && len(target.Metadata) == 0 {
		if info == nil {
			if _, ok := c.backend.(backend.Statter); ok {
				if info, err = c.stat(ctx, src); err != nil {
					return nil, err
				}
			}
		}
		if info != nil {
			target.ContentType = info.ContentType
			target.Metadata = info.Metadata
		}
	}
	span.SetAttributes(telemetry.Size(size), telemetry.Path(path.String()))
	c.logger.Debug().
		Str("container", target.Container).
		Str("key", target.Key).
		Str("source", src.String()).
		Int64("size", size).
		Str("path", path.String()).
		Msg("copying object")

	if path == xfertypes.PathSingle {
		result, err = c.copyWhole(ctx, target, src, prog)
	} else {
		result, err = c.copyChunked(ctx, target, src, prog)
	}
	if err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	c.logger.Debug().
		Str("container", target.Container).
		Str("key", target.Key).
		Int("parts", result.Parts).
		Dur("duration", result.Duration).
		Msg("object copied")
	return result, nil
}

// stat looks src up through the backend's optional Stat.
func (c *Client) stat(ctx context.Context, src xfertypes.ObjectRef) (*xfertypes.ObjectInfo, error) {
	statter, ok := c.backend.(backend.Statter)
	if !ok {
		return nil, errors.InvalidArgument("backend %s cannot report object sizes; pass the source size", c.backend.Name())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, metrics.OpStat,
		telemetry.Container(src.Container), telemetry.Key(src.Key))
	start := time.Now()
	info, err := statter.Stat(ctx, src)
	c.metrics.ObserveOperation(metrics.OpStat, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return nil, errors.Ensure(err)
	}
	// Keep the caller's source key; backends may not echo it back.
	info.SSE = src.SSE
	return &info, nil
}

func (c *Client) copyWhole(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
	prog *progress,
) (*xfertypes.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := c.tracer.Start(ctx, metrics.OpCopyWhole,
		telemetry.Container(target.Container), telemetry.Key(target.Key), telemetry.Size(src.Size))
	start := time.Now()
	ref, err := c.backend.CopyWhole(ctx, target, src)
	c.metrics.ObserveOperation(metrics.OpCopyWhole, time.Since(start), err)
	telemetry.End(span, err)
	if err != nil {
		return nil, err
	}

	c.metrics.RecordBytes(metrics.OpCopyWhole, src.Size)
	prog.addBytes(src.Size)
	return &xfertypes.Result{
		Container: target.Container,
		Key:       target.Key,
		Size:      src.Size,
		ETag:      ref.ETag,
		VersionID: ref.VersionID,
		Path:      xfertypes.PathSingle,
	}, nil
}

func (c *Client) copyChunked(
	ctx context.Context,
	target xfertypes.Target,
	src xfertypes.ObjectRef,
	prog *progress,
) (*xfertypes.Result, error) {
	partSize := planner.PartSizeFor(src.Size, c.config.CopyPartSize, c.limits.MaxParts)
	ranges, err := planner.Plan(src.Size, partSize)
	if err != nil {
		return nil, err
	}

	session, err := multipart.Initiate(ctx, c.backend, target, c.sessionOptions(multipart.WithPartHook(prog.copied))...)
	if err != nil {
		return nil, err
	}
	defer session.Release(ctx)

	for i, r := range ranges {
		if _, err := session.SubmitCopy(ctx, int32(i+1), src, r, i == len(ranges)-1); err != nil {
			return nil, err
		}
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
		Parts:     len(ranges),
	}, nil
}
