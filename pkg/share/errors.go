package share

import "errors"

// ============================================================================
// Standard FileStore Errors
// ============================================================================

// These errors provide a consistent way to indicate common failure
// conditions across all FileStore implementations. Callers should check
// for them with errors.Is and treat the wrapped text (which carries the
// original address and, for remote failures, the raw tool diagnostics)
// as operator-facing context.
//
// Error Wrapping:
// Implementations wrap these sentinels with additional context:
//
//	if !exists {
//	    return fmt.Errorf("%s: %w", address, share.ErrNotFound)
//	}

var (
	// ErrInvalidAddress indicates a malformed location string.
	//
	// Returned when an address cannot be parsed into its backend-specific
	// form (for SMB: missing double leading separator, empty host or
	// share). Never retried; surfaced immediately before any I/O.
	ErrInvalidAddress = errors.New("invalid address")

	// ErrNotFound indicates the remote object does not exist.
	//
	// Surfaced to callers, and also used internally as a probe signal by
	// the CreateNew and Append write paths.
	ErrNotFound = errors.New("file not found")

	// ErrAccessDenied indicates an authentication or authorization
	// failure. Fatal for the call; the raw diagnostic text is preserved
	// in the wrapping error.
	ErrAccessDenied = errors.New("access denied")

	// ErrShareUnreachable indicates the host or share itself cannot be
	// reached (bad network path, network name not found). Fatal for the
	// call.
	ErrShareUnreachable = errors.New("share unreachable")

	// ErrRemoteFailure indicates an uncategorized backend failure. The
	// raw diagnostic text is preserved in the wrapping error for
	// operator debugging.
	ErrRemoteFailure = errors.New("remote operation failed")

	// ErrAlreadyExists indicates a CreateNew target already exists.
	ErrAlreadyExists = errors.New("file already exists")

	// ErrToolUnavailable indicates the external client tool backing a
	// remote store is missing or not runnable. This is a setup-time
	// failure, not a per-call one.
	ErrToolUnavailable = errors.New("client tool unavailable")
)
