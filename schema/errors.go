package schema

import "errors"

var (
	// ErrInvalidRequest indicates a malformed request payload.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidConfig indicates a tab config that cannot be restored (missing id).
	ErrInvalidConfig = errors.New("invalid tab config")
	// ErrTabNotFound indicates a requested tab could not be found.
	ErrTabNotFound = errors.New("unknown tab")
	// ErrUninitializedEditor indicates query access before an editor was attached.
	ErrUninitializedEditor = errors.New("editor not initialized")
	// ErrStorageQuotaExceeded indicates a persistence write hit the storage quota.
	ErrStorageQuotaExceeded = errors.New("storage quota exceeded")
	// ErrInvalidEndpoint indicates an endpoint that is not an absolute http(s) URL.
	ErrInvalidEndpoint = errors.New("invalid endpoint")
	// ErrInvalidTabName indicates an empty or oversized tab name.
	ErrInvalidTabName = errors.New("invalid tab name")
	// ErrQueryAborted indicates the query was cancelled by the user or superseded.
	ErrQueryAborted = errors.New("query aborted")
	// ErrNoTransport indicates no SPARQL transport is configured.
	ErrNoTransport = errors.New("sparql transport not configured")
)
