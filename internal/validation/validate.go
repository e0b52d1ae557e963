// Package validation checks transfer targets before any backend call is made.
//
// Container names follow the DNS-compatible naming rules shared by S3 and
// MinIO. Object keys, metadata, content types, access classes and encryption
// settings are checked so that a malformed request fails fast with an
// invalid-argument error instead of a partially created multipart session.
package validation

import (
	"net"
	"regexp"
	"strings"
	"unicode"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

const (
	maxKeyLength           = 1024
	maxMetadataKeyLength   = 128
	maxMetadataValueLength = 2048
	customerKeyLength      = 32
)

var (
	containerPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)
	mimePattern      = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*/[a-zA-Z0-9][a-zA-Z0-9!#$&^_.+-]*(\s*;.*)?$`)
)

var validACLs = map[xfertypes.ObjectACL]bool{
	xfertypes.ACLPrivate:           true,
	xfertypes.ACLPublicRead:        true,
	xfertypes.ACLPublicReadWrite:   true,
	xfertypes.ACLAuthenticatedRead: true,
	xfertypes.ACLOwnerRead:         true,
	xfertypes.ACLOwnerFullControl:  true,
}

// ValidateTarget validates every field of a transfer target.
func ValidateTarget(target xfertypes.Target) error {
	if err := ValidateContainerName(target.Container); err != nil {
		return err
	}
	if err := ValidateObjectKey(target.Key); err != nil {
		return err
	}
	if err := ValidateContentType(target.ContentType); err != nil {
		return err
	}
	if err := ValidateACL(target.Access); err != nil {
		return err
	}
	if err := ValidateSSE(target.SSE); err != nil {
		return err
	}
	return ValidateMetadata(target.Metadata)
}

// ValidateContainerName validates that a container name is DNS-compliant.
func ValidateContainerName(container string) error {
	fail := func(msg string) error {
		return errors.NewError("validateContainerName", errors.ErrInvalidArgument).
			WithContainer(container).
			WithMessage(msg)
	}

	switch {
	case container == "":
		return fail("container name cannot be empty")
	case len(container) < 3 || len(container) > 63:
		return fail("container name must be between 3 and 63 characters long")
	case !containerPattern.MatchString(container):
		return fail("container name can only contain lowercase letters, numbers, dots, and hyphens " +
			"and must start and end with a letter or number")
	case strings.Contains(container, "..") || strings.Contains(container, ".-") || strings.Contains(container, "-."):
		return fail("container name cannot contain adjacent periods or a period next to a hyphen")
	case net.ParseIP(container) != nil:
		return fail("container name cannot be formatted as an IP address")
	}
	return nil
}

// ValidateObjectKey validates that an object key is non-empty, bounded and
// free of traversal sequences and control characters.
func ValidateObjectKey(key string) error {
	fail := func(msg string) error {
		return errors.NewError("validateObjectKey", errors.ErrInvalidArgument).
			WithKey(key).
			WithMessage(msg)
	}

	switch {
	case key == "":
		return fail("object key cannot be empty")
	case len(key) > maxKeyLength:
		return fail("object key cannot exceed 1024 bytes")
	case hasPathTraversal(key):
		return fail("object key cannot contain path traversal sequences")
	case strings.IndexFunc(key, unicode.IsControl) >= 0:
		return fail("object key cannot contain control characters")
	}
	return nil
}

// ValidateMetadata validates user metadata keys and values.
func ValidateMetadata(metadata map[string]string) error {
	for key, value := range metadata {
		if key == "" {
			return errors.NewError("validateMetadata", errors.ErrInvalidArgument).
				WithMessage("metadata key cannot be empty")
		}
		if len(key) > maxMetadataKeyLength {
			return errors.NewError("validateMetadata", errors.ErrInvalidArgument).
				WithMessage("metadata key cannot exceed 128 characters")
		}
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "x-amz-") || strings.HasPrefix(lower, "aws:") {
			return errors.NewError("validateMetadata", errors.ErrInvalidArgument).
				WithMessage("metadata key " + key + " uses a reserved prefix")
		}
		for _, r := range key {
			if r <= ' ' || r > '~' {
				return errors.NewError("validateMetadata", errors.ErrInvalidArgument).
					WithMessage("metadata key can only contain printable ASCII characters")
			}
		}
		if len(value) > maxMetadataValueLength {
			return errors.NewError("validateMetadata", errors.ErrInvalidArgument).
				WithMessage("metadata value cannot exceed 2048 characters")
		}
		for _, r := range value {
			if !unicode.IsPrint(r) && r != '\t' {
				return errors.NewError("validateMetadata", errors.ErrInvalidArgument).
					WithMessage("metadata value can only contain printable characters")
			}
		}
	}
	return nil
}

// ValidateContentType validates that a content type is a well-formed MIME type.
// An empty content type is allowed and triggers detection.
func ValidateContentType(contentType string) error {
	if contentType == "" {
		return nil
	}
	if !mimePattern.MatchString(contentType) {
		return errors.NewError("validateContentType", errors.ErrInvalidArgument).
			WithMessage("content type must be a valid MIME type")
	}
	return nil
}

// ValidateACL validates that an access class is one of the canned ACLs.
func ValidateACL(acl xfertypes.ObjectACL) error {
	if acl == "" || validACLs[acl] {
		return nil
	}
	return errors.NewError("validateACL", errors.ErrInvalidArgument).
		WithMessage("unsupported access class " + string(acl))
}

// ValidateSSE validates server-side encryption settings.
func ValidateSSE(sse *xfertypes.SSEConfig) error {
	if sse == nil {
		return nil
	}
	switch sse.Type {
	case xfertypes.SSES3, xfertypes.SSEKMS:
		return nil
	case xfertypes.SSEC:
		if len(sse.CustomerKey) != customerKeyLength {
			return errors.NewError("validateSSE", errors.ErrInvalidArgument).
				WithMessage("customer-provided key must be 32 bytes")
		}
		return nil
	default:
		return errors.NewError("validateSSE", errors.ErrInvalidArgument).
			WithMessage("unsupported encryption type " + string(sse.Type))
	}
}

// hasPathTraversal reports ".." segments and absolute paths.
func hasPathTraversal(key string) bool {
	if strings.HasPrefix(key, "/") || strings.HasPrefix(key, `\`) {
		return true
	}
	if len(key) >= 3 && key[1] == ':' && (key[2] == '\\' || key[2] == '/') {
		return true
	}
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return true
		}
	}
	return false
}
