package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

func TestValidateContainerName(t *testing.T) {
	tests := []struct {
		name      string
		container string
		wantErr   bool
	}{
		{"valid", "my-bucket", false},
		{"valid with dots", "my.bucket.name", false},
		{"valid starting with digit", "1bucket", false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", strings.Repeat("a", 64), true},
		{"uppercase", "MyBucket", true},
		{"underscore", "my_bucket", true},
		{"leading hyphen", "-bucket", true},
		{"trailing dot", "bucket.", true},
		{"adjacent dots", "my..bucket", true},
		{"dot hyphen", "my.-bucket", true},
		{"ip address", "192.168.1.1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerName(tt.container)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateObjectKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple", "file.txt", false},
		{"nested", "a/b/c.tar.gz", false},
		{"dots inside name", "release..notes", false},
		{"unicode", "données/été.csv", false},
		{"empty", "", true},
		{"traversal", "../etc/passwd", true},
		{"nested traversal", "a/../../b", true},
		{"absolute", "/etc/passwd", true},
		{"windows absolute", `C:\data`, true},
		{"control character", "bad\x00key", true},
		{"too long", strings.Repeat("k", 1025), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidArgument)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateMetadata(t *testing.T) {
	assert.NoError(t, ValidateMetadata(nil))
	assert.NoError(t, ValidateMetadata(map[string]string{"owner": "team-a", "note": "line\twith tab"}))
	assert.Error(t, ValidateMetadata(map[string]string{"": "v"}))
	assert.Error(t, ValidateMetadata(map[string]string{"x-amz-acl": "v"}))
	assert.Error(t, ValidateMetadata(map[string]string{"has space": "v"}))
	assert.Error(t, ValidateMetadata(map[string]string{"k": strings.Repeat("v", 2049)}))
	assert.Error(t, ValidateMetadata(map[string]string{"k": "bell\a"}))
}

func TestValidateContentType(t *testing.T) {
	assert.NoError(t, ValidateContentType(""))
	assert.NoError(t, ValidateContentType("application/json"))
	assert.NoError(t, ValidateContentType("text/plain; charset=utf-8"))
	assert.NoError(t, ValidateContentType("application/vnd.oci.image.manifest.v1+json"))
	assert.Error(t, ValidateContentType("not a mime"))
	assert.Error(t, ValidateContentType("text/"))
}

func TestValidateACLAndSSE(t *testing.T) {
	assert.NoError(t, ValidateACL(""))
	assert.NoError(t, ValidateACL(xfertypes.ACLPublicRead))
	assert.Error(t, ValidateACL("world-writable"))

	assert.NoError(t, ValidateSSE(nil))
	assert.NoError(t, ValidateSSE(&xfertypes.SSEConfig{Type: xfertypes.SSES3}))
	assert.NoError(t, ValidateSSE(&xfertypes.SSEConfig{Type: xfertypes.SSEC, CustomerKey: make([]byte, 32)}))
	assert.Error(t, ValidateSSE(&xfertypes.SSEConfig{Type: xfertypes.SSEC, CustomerKey: []byte("short")}))
	assert.Error(t, ValidateSSE(&xfertypes.SSEConfig{Type: "rot13"}))
}

func TestValidateTarget(t *testing.T) {
	assert.NoError(t, ValidateTarget(xfertypes.Target{Container: "bucket", Key: "obj"}))

	err := ValidateTarget(xfertypes.Target{Container: "bucket", Key: ""})
	var terr *errors.Error
	assert.ErrorAs(t, err, &terr)
	assert.Equal(t, "validateObjectKey", terr.Op)
}
