package errors

// ErrorCode classifies a transfer failure.
// Codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// CodeAuthentication indicates the backend rejected the supplied credentials.
	CodeAuthentication ErrorCode = "AUTHENTICATION_FAILURE"

	// CodeNotFound indicates the container, source object or upload session does not exist.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeAccessDenied indicates the credentials lack permission for the operation.
	CodeAccessDenied ErrorCode = "ACCESS_DENIED"

	// CodeInvalidArgument indicates a caller error such as a bad part number,
	// a length mismatch or a submission on a closed session.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// CodeBackend indicates any other failure reported by the storage backend.
	CodeBackend ErrorCode = "BACKEND_FAILURE"

	// CodeCanceled indicates the caller's context was canceled or its deadline passed.
	CodeCanceled ErrorCode = "CANCELED"
)

// String returns the code as a plain string.
func (c ErrorCode) String() string {
	return string(c)
}
