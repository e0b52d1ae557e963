// Package router decides whether a transfer uses a single atomic backend call
// or a multipart session.
package router

import (
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Router holds the limits used to route uploads and copies.
type Router struct {
	// UploadThreshold is the operator-configured size at which uploads are chunked
	UploadThreshold int64

	// MaxSingleWrite is the backend's largest single write
	MaxSingleWrite int64

	// MaxSingleCopy is the backend's largest single copy
	MaxSingleCopy int64

	// UnknownLength is the path for streams without a known length
	UnknownLength xfertypes.Path
}

// UploadLimit returns the size at which an upload must be chunked: the
// smaller of the upload threshold and the backend's single write limit.
// Non-positive limits are ignored; zero means no limit applies.
func (r Router) UploadLimit() int64 {
	switch {
	case r.UploadThreshold > 0 && r.MaxSingleWrite > 0:
		return min(r.UploadThreshold, r.MaxSingleWrite)
	case r.UploadThreshold > 0:
		return r.UploadThreshold
	case r.MaxSingleWrite > 0:
		return r.MaxSingleWrite
	default:
		return 0
	}
}

// UploadPath routes an upload of the given length.
func (r Router) UploadPath(length int64) xfertypes.Path {
	if length < 0 {
		return r.UnknownLength
	}
	if limit := r.UploadLimit(); limit > 0 && length >= limit {
		return xfertypes.PathChunked
	}
	return xfertypes.PathSingle
}

// CopyPath routes a server-side copy of a source of the given size.
func (r Router) CopyPath(sourceSize int64) xfertypes.Path {
	if r.MaxSingleCopy > 0 && sourceSize > r.MaxSingleCopy {
		return xfertypes.PathChunked
	}
	return xfertypes.PathSingle
}
