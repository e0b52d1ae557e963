package transfer

import (
	"bytes"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// sniffLen is how much of a stream is inspected for content detection.
const sniffLen = 3072

// sniff reads the head of src for content detection and returns it together
// with a reader that replays the head ahead of the rest of src.
func sniff(src io.Reader) ([]byte, io.Reader, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(src, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, nil, err
	}
	head = head[:n]
	return head, io.MultiReader(bytes.NewReader(head), src), nil
}

// detectContentType determines the content type from the head of the data
// using mimetype, falling back to the extension of name.
func detectContentType(head []byte, name string) string {
	if len(head) > 0 {
		if mt := mimetype.Detect(head); mt != nil && !mt.Is(DefaultContentType) {
			return mt.String()
		}
	}
	return detectContentTypeFromExtension(name)
}

// detectContentTypeFromExtension detects content type from file extension
func detectContentTypeFromExtension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext != "" {
		if byExt := mime.TypeByExtension(ext); byExt != "" {
			return byExt
		}
	}
	return DefaultContentType
}
