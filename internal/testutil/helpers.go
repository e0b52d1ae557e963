package testutil

import (
	"bytes"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync/atomic"
	"time"
)

// GenerateRandomData generates random bytes of the specified size.
// This is useful for creating test data for uploads.
func GenerateRandomData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(rand.Intn(256))
	}
	return data
}

// GenerateRandomReader creates an io.Reader with random data of the specified size.
func GenerateRandomReader(size int) io.Reader {
	return bytes.NewReader(GenerateRandomData(size))
}

// GenerateTestKey generates a test object key with optional prefix.
// This helps ensure test isolation by using unique keys.
func GenerateTestKey(prefix string) string {
	timestamp := time.Now().UnixNano()
	random := rand.Int63n(100000)
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return fmt.Sprintf("%stest-object-%d-%d", prefix, timestamp, random)
}

// GenerateTestBucketName generates a valid test bucket name.
// Bucket names must be DNS-compliant and globally unique.
func GenerateTestBucketName(prefix string) string {
	timestamp := time.Now().Unix()
	random := rand.Int31n(10000)
	name := fmt.Sprintf("%s-%d-%d", prefix, timestamp, random)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "_", "-")
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// TrackingReadCloser wraps a reader and counts Close calls.
type TrackingReadCloser struct {
	io.Reader
	closes atomic.Int32
}

// NewTrackingReadCloser wraps r.
func NewTrackingReadCloser(r io.Reader) *TrackingReadCloser {
	return &TrackingReadCloser{Reader: r}
}

// Close records the call.
func (t *TrackingReadCloser) Close() error {
	t.closes.Add(1)
	return nil
}

// Closes returns how many times Close was called.
func (t *TrackingReadCloser) Closes() int {
	return int(t.closes.Load())
}

// FailingReader returns data and then err.
func FailingReader(data []byte, err error) io.Reader {
	return io.MultiReader(bytes.NewReader(data), &errReader{err: err})
}

type errReader struct {
	err error
}

func (r *errReader) Read([]byte) (int, error) {
	return 0, r.err
}
