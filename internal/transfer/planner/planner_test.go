package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func TestPlan(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		partSize int64
		want     []xfertypes.ByteRange
	}{
		{
			name:     "empty",
			total:    0,
			partSize: 5,
			want:     []xfertypes.ByteRange{},
		},
		{
			name:     "single short range",
			total:    3,
			partSize: 5,
			want:     []xfertypes.ByteRange{{Start: 0, End: 2}},
		},
		{
			name:     "exact multiple",
			total:    10,
			partSize: 5,
			want:     []xfertypes.ByteRange{{Start: 0, End: 4}, {Start: 5, End: 9}},
		},
		{
			name:     "trailing remainder",
			total:    11,
			partSize: 5,
			want: []xfertypes.ByteRange{
				{Start: 0, End: 4},
				{Start: 5, End: 9},
				{Start: 10, End: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.total, tt.partSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_Properties(t *testing.T) {
	for _, total := range []int64{1, 2, 7, 100, 1023, 1024, 1025, 5*1024*1024 + 1} {
		for _, partSize := range []int64{1, 3, 100, 1024, 5 * 1024 * 1024} {
			ranges, err := Plan(total, partSize)
			require.NoError(t, err)

			require.Len(t, ranges, int(Count(total, partSize)))
			assert.Equal(t, int64(0), ranges[0].Start)
			assert.Equal(t, total-1, ranges[len(ranges)-1].End)

			var sum int64
			for i, r := range ranges {
				if i > 0 {
					assert.Equal(t, ranges[i-1].End+1, r.Start, "ranges must be contiguous")
				}
				if i < len(ranges)-1 {
					assert.Equal(t, partSize, r.Len())
				}
				sum += r.Len()
			}
			assert.Equal(t, total, sum)
		}
	}
}

func TestPlan_CopyJustOverLimit(t *testing.T) {
	const limit = int64(5 * 1024 * 1024 * 1024)
	const partSize = int64(5 * 1024 * 1024)

	ranges, err := Plan(limit+1, partSize)
	require.NoError(t, err)

	assert.Len(t, ranges, int((limit+1+partSize-1)/partSize))
	assert.Equal(t, limit, ranges[len(ranges)-1].End)
	assert.Equal(t, int64(1), ranges[len(ranges)-1].Len())
}

func TestPlan_InvalidInput(t *testing.T) {
	_, err := Plan(10, 0)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = Plan(10, -1)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)

	_, err = Plan(-1, 5)
	assert.ErrorIs(t, err, errors.ErrInvalidArgument)
}

func TestCount(t *testing.T) {
	assert.Equal(t, int64(0), Count(0, 5))
	assert.Equal(t, int64(1), Count(5, 5))
	assert.Equal(t, int64(2), Count(6, 5))
	assert.Equal(t, int64(0), Count(6, 0))
}

func TestPartSizeFor(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		partSize int64
		maxParts int32
		want     int64
	}{
		{"fits", 100, 10, 10, 10},
		{"no limit", 1000, 10, 0, 10},
		{"grows to fit", 1000, 10, 10, 100},
		{"grows with remainder", 1001, 10, 10, 101},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PartSizeFor(tt.total, tt.partSize, tt.maxParts)
			assert.Equal(t, tt.want, got)
			if tt.maxParts > 0 {
				assert.LessOrEqual(t, Count(tt.total, got), int64(tt.maxParts))
			}
		})
	}
}
