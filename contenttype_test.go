package transfer

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/internal/testutil"
)

func bytesReader(b []byte) io.Reader {
	return bytes.NewReader(b)
}

func TestDetectContentType(t *testing.T) {
	tests := []struct {
		name string
		head []byte
		key  string
		want string
	}{
		{name: "png signature", head: []byte("\x89PNG\r\n\x1a\n\x00\x00"), key: "noext", want: "image/png"},
		{name: "gzip signature", head: []byte{0x1f, 0x8b, 0x08, 0x00}, key: "archive", want: "application/gzip"},
		{name: "extension fallback", head: nil, key: "data/config.json", want: "application/json"},
		{name: "unknown", head: nil, key: "blob", want: DefaultContentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectContentType(tt.head, tt.key))
		})
	}
}

func TestSniffReplaysHead(t *testing.T) {
	data := testutil.GenerateRandomData(sniffLen * 2)

	head, replay, err := sniff(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, head, sniffLen)

	all, err := io.ReadAll(replay)
	require.NoError(t, err)
	assert.Equal(t, data, all)

	head, replay, err = sniff(bytes.NewReader([]byte("tiny")))
	require.NoError(t, err)
	assert.Equal(t, "tiny", string(head))
	all, err = io.ReadAll(replay)
	require.NoError(t, err)
	assert.Equal(t, "tiny", string(all))
}
