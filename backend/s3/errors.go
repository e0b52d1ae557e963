package s3

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

var errMissingCopyResult = stderrors.New("upload part copy returned no result")

// classify converts AWS SDK errors to the transfer error taxonomy, keeping the
// SDK error in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}

	// Context errors are reported as cancellation, not as backend failures
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NoSuchBucket", "NoSuchUpload", "NotFound", "NoSuchVersion":
			return errors.Wrap(errors.ErrNotFound, err)
		case "AccessDenied", "AllAccessDisabled", "AccountProblem", "Forbidden":
			return errors.Wrap(errors.ErrAccessDenied, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken",
			"TokenRefreshRequired", "MissingSecurityHeader":
			return errors.Wrap(errors.ErrAuthentication, err)
		case "InvalidArgument", "InvalidPart", "InvalidPartOrder", "EntityTooSmall", "EntityTooLarge",
			"InvalidRange", "InvalidRequest", "KeyTooLongError", "InvalidBucketName":
			return errors.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	var respErr *smithyhttp.ResponseError
	if stderrors.As(err, &respErr) {
		switch respErr.HTTPStatusCode() {
		case http.StatusUnauthorized:
			return errors.Wrap(errors.ErrAuthentication, err)
		case http.StatusForbidden:
			return errors.Wrap(errors.ErrAccessDenied, err)
		case http.StatusNotFound:
			return errors.Wrap(errors.ErrNotFound, err)
		case http.StatusBadRequest:
			return errors.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	return errors.Wrap(errors.ErrBackend, err)
}

// isNoSuchUpload reports whether err means the multipart upload no longer exists.
func isNoSuchUpload(err error) bool {
	var apiErr smithy.APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NoSuchUpload"
	}
	var respErr *smithyhttp.ResponseError
	if stderrors.As(err, &respErr) {
		return respErr.HTTPStatusCode() == http.StatusNotFound
	}
	return false
}
