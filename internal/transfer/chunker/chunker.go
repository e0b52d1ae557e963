// Package chunker splits a forward-only byte stream into parts suitable for a
// multipart upload.
//
// The stream is read in fixed-size blocks into a single reusable buffer. A
// part is emitted once the buffer holds at least the target part size, so
// every part except the last is at least that large. One block is read ahead
// before each emission to decide whether the part is the final one; exactly
// one part per non-empty stream is flagged Last.
package chunker

import (
	"errors"
	"fmt"
	"io"
)

// Segment is one part of the stream.
type Segment struct {
	// Data holds the part bytes. It aliases the chunker's buffer and is only
	// valid until the next call to Next.
	Data []byte

	// Last reports whether this is the final part of the stream.
	Last bool
}

// Size returns the number of bytes in the segment.
func (s Segment) Size() int64 {
	return int64(len(s.Data))
}

// Option configures a Chunker.
type Option func(*Chunker)

// WithReadHook registers a function called with the byte count of every block read.
func WithReadHook(fn func(n int)) Option {
	return func(c *Chunker) {
		c.onRead = fn
	}
}

// WithFlushHook registers a function called with every emitted segment.
func WithFlushHook(fn func(Segment)) Option {
	return func(c *Chunker) {
		c.onFlush = fn
	}
}

// Chunker produces segments from a source stream. It is not safe for concurrent use.
type Chunker struct {
	src       io.Reader
	partSize  int
	blockSize int
	buf       []byte

	// carry is the read-ahead block left at buf[carryOff:carryOff+carry]
	carryOff int
	carry    int

	exhausted bool
	done      bool

	onRead  func(n int)
	onFlush func(Segment)
}

// New creates a Chunker reading blockSize bytes at a time and emitting parts of
// at least partSize bytes.
func New(src io.Reader, partSize int64, blockSize int, opts ...Option) (*Chunker, error) {
	if src == nil {
		return nil, errors.New("chunker: nil source")
	}
	if partSize <= 0 {
		return nil, fmt.Errorf("chunker: part size must be positive, got %d", partSize)
	}
	if blockSize <= 0 {
		return nil, fmt.Errorf("chunker: block size must be positive, got %d", blockSize)
	}

	c := &Chunker{
		src:       src,
		partSize:  int(partSize),
		blockSize: blockSize,
		buf:       make([]byte, int(partSize)+3*blockSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Next returns the next segment, or io.EOF once the final segment has been
// returned. A zero-length stream yields io.EOF immediately.
func (c *Chunker) Next() (Segment, error) {
	if c.done {
		return Segment{}, io.EOF
	}

	// Move the read-ahead block to the front of the buffer.
	n := copy(c.buf, c.buf[c.carryOff:c.carryOff+c.carry])
	c.carryOff, c.carry = 0, 0

	if c.exhausted {
		return c.finish(n)
	}

	for n < c.partSize {
		k, eof, err := c.readBlock(n)
		if err != nil {
			c.done = true
			return Segment{}, err
		}
		n += k
		if eof {
			return c.finish(n)
		}
	}

	// Read one block ahead to learn whether this part is the last one.
	k, eof, err := c.readBlock(n)
	if err != nil {
		c.done = true
		return Segment{}, err
	}
	if k == 0 && eof {
		return c.finish(n)
	}

	c.carryOff, c.carry = n, k
	c.exhausted = eof
	return c.emit(Segment{Data: c.buf[:n]}), nil
}

// finish emits the remaining n bytes as the last segment.
func (c *Chunker) finish(n int) (Segment, error) {
	c.done = true
	if n == 0 {
		return Segment{}, io.EOF
	}
	return c.emit(Segment{Data: c.buf[:n], Last: true}), nil
}

func (c *Chunker) emit(s Segment) Segment {
	if c.onFlush != nil {
		c.onFlush(s)
	}
	return s
}

// readBlock fills one block at buf[off:]. eof reports that the source is exhausted.
func (c *Chunker) readBlock(off int) (int, bool, error) {
	k, err := io.ReadFull(c.src, c.buf[off:off+c.blockSize])
	if k > 0 && c.onRead != nil {
		c.onRead(k)
	}
	switch {
	case err == nil:
		return k, false, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return k, true, nil
	default:
		return k, false, fmt.Errorf("read source: %w", err)
	}
}
