package chunker

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
)

// drain collects copies of every segment produced by c.
func drain(t *testing.T, c *Chunker) ([][]byte, []bool) {
	t.Helper()
	var parts [][]byte
	var last []bool
	for {
		seg, err := c.Next()
		if errors.Is(err, io.EOF) {
			return parts, last
		}
		require.NoError(t, err)
		parts = append(parts, bytes.Clone(seg.Data))
		last = append(last, seg.Last)
	}
}

func TestChunker_Properties(t *testing.T) {
	for _, size := range []int{0, 1, 9, 10, 11, 99, 100, 101, 1000, 4096} {
		for _, partSize := range []int64{1, 10, 100, 256} {
			for _, blockSize := range []int{1, 3, 10, 64} {
				data := testutil.GenerateRandomData(size)
				c, err := New(bytes.NewReader(data), partSize, blockSize)
				require.NoError(t, err)

				parts, last := drain(t, c)

				if size == 0 {
					assert.Empty(t, parts, "empty stream yields no parts")
					continue
				}

				require.NotEmpty(t, parts)
				assert.Equal(t, data, bytes.Join(parts, nil), "size=%d part=%d block=%d", size, partSize, blockSize)
				for i := range parts {
					if i < len(parts)-1 {
						assert.False(t, last[i], "only the final part is last")
						assert.GreaterOrEqual(t, int64(len(parts[i])), partSize)
					} else {
						assert.True(t, last[i], "final part must be last")
					}
				}
			}
		}
	}
}

func TestChunker_ExactMultipleYieldsExactParts(t *testing.T) {
	const partSize = 1000
	data := testutil.GenerateRandomData(10 * partSize)

	c, err := New(bytes.NewReader(data), partSize, 100)
	require.NoError(t, err)

	parts, last := drain(t, c)
	require.Len(t, parts, 10)
	for i, p := range parts {
		assert.Len(t, p, partSize)
		assert.Equal(t, i == 9, last[i])
	}
}

func TestChunker_ShortReadsFromSource(t *testing.T) {
	data := testutil.GenerateRandomData(5000)

	c, err := New(iotest.OneByteReader(bytes.NewReader(data)), 512, 100)
	require.NoError(t, err)

	parts, last := drain(t, c)
	assert.Equal(t, data, bytes.Join(parts, nil))
	assert.True(t, last[len(last)-1])
}

func TestChunker_Hooks(t *testing.T) {
	data := testutil.GenerateRandomData(2500)

	var read int
	var flushed []int
	c, err := New(bytes.NewReader(data), 1000, 300,
		WithReadHook(func(n int) { read += n }),
		WithFlushHook(func(s Segment) { flushed = append(flushed, len(s.Data)) }),
	)
	require.NoError(t, err)

	parts, _ := drain(t, c)
	assert.Equal(t, len(data), read)
	require.Len(t, flushed, len(parts))
	var total int
	for _, n := range flushed {
		total += n
	}
	assert.Equal(t, len(data), total)
}

func TestChunker_ReaderError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := io.MultiReader(bytes.NewReader(make([]byte, 50)), iotest.ErrReader(boom))

	c, err := New(src, 1000, 10)
	require.NoError(t, err)

	_, err = c.Next()
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	_, err = c.Next()
	assert.ErrorIs(t, err, io.EOF, "chunker stops after an error")
}

func TestChunker_DataAliasesBuffer(t *testing.T) {
	data := testutil.GenerateRandomData(300)
	c, err := New(bytes.NewReader(data), 100, 100)
	require.NoError(t, err)

	first, err := c.Next()
	require.NoError(t, err)
	snapshot := bytes.Clone(first.Data)

	_, err = c.Next()
	require.NoError(t, err)
	assert.NotEqual(t, snapshot, first.Data, "segment data is reused by the next call")
}

func TestNew_InvalidArguments(t *testing.T) {
	_, err := New(nil, 10, 10)
	assert.Error(t, err)

	_, err = New(bytes.NewReader(nil), 0, 10)
	assert.Error(t, err)

	_, err = New(bytes.NewReader(nil), 10, 0)
	assert.Error(t, err)
}
