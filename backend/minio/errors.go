package minio

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/minio/minio-go/v7"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

// classify converts minio-go errors to the transfer error taxonomy, keeping
// the original error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchBucket", "NoSuchUpload", "NoSuchVersion":
		return errors.Wrap(errors.ErrNotFound, err)
	case "AccessDenied", "AllAccessDisabled":
		return errors.Wrap(errors.ErrAccessDenied, err)
	case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return errors.Wrap(errors.ErrAuthentication, err)
	case "InvalidArgument", "InvalidPart", "InvalidPartOrder", "EntityTooSmall", "EntityTooLarge",
		"InvalidRange", "InvalidRequest", "InvalidBucketName", "XMinioInvalidObjectName":
		return errors.Wrap(errors.ErrInvalidArgument, err)
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return errors.Wrap(errors.ErrAuthentication, err)
	case http.StatusForbidden:
		return errors.Wrap(errors.ErrAccessDenied, err)
	case http.StatusNotFound:
		return errors.Wrap(errors.ErrNotFound, err)
	}

	return errors.Wrap(errors.ErrBackend, err)
}
