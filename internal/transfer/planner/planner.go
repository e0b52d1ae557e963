// Package planner splits a known object size into contiguous inclusive byte
// ranges for server-side multipart copy.
package planner

import (
	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// Count returns the number of parts needed to cover total bytes.
func Count(total, partSize int64) int64 {
	if total <= 0 || partSize <= 0 {
		return 0
	}
	return (total + partSize - 1) / partSize // Ceiling division
}

// Plan partitions [0, total) into ranges of partSize bytes. The last range is
// clamped to total-1. A zero total yields an empty plan.
func Plan(total, partSize int64) ([]xfertypes.ByteRange, error) {
	if partSize <= 0 {
		return nil, errors.InvalidArgument("part size must be positive, got %d", partSize)
	}
	if total < 0 {
		return nil, errors.InvalidArgument("total size must not be negative, got %d", total)
	}

	n := Count(total, partSize)
	ranges := make([]xfertypes.ByteRange, 0, n)
	for start := int64(0); start < total; start += partSize {
		end := min(start+partSize-1, total-1)
		ranges = append(ranges, xfertypes.ByteRange{Start: start, End: end})
	}
	return ranges, nil
}

// PartSizeFor returns the smallest part size, no smaller than partSize, that
// covers total bytes in at most maxParts parts. A non-positive maxParts
// disables the limit.
func PartSizeFor(total, partSize int64, maxParts int32) int64 {
	if maxParts <= 0 || partSize <= 0 {
		return partSize
	}
	if Count(total, partSize) <= int64(maxParts) {
		return partSize
	}
	// Ceiling division
	return (total + int64(maxParts) - 1) / int64(maxParts)
}
