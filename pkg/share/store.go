package share

import (
	"context"
	"io"
)

// ============================================================================
// FileStore Interface
// ============================================================================

// FileStore provides a uniform, stream-based file-operation API over
// incompatible storage back ends.
//
// This interface abstracts away how files are actually reached: a local
// directory tree, an SMB share driven through the smbclient tool, or an
// S3 bucket. Callers pick an implementation once at construction time
// (via pkg/config) and never re-evaluate that choice for the lifetime of
// the store.
//
// Addressing:
// Every operation takes an address string whose interpretation is
// implementation-specific:
//   - Local: an absolute or relative directory path
//   - SMB: "//host/share[/path]" or "\\host\share[\path]"
//   - S3: a key prefix inside the configured bucket
//
// Addresses are parsed per call and never cached; a malformed address
// fails with ErrInvalidAddress before any I/O happens.
//
// Concurrency:
// Implementations hold no operation-level locks and impose no ordering
// between concurrent calls. Two concurrent writes to the same name race
// exactly as two concurrent invocations of the underlying backend would.
//
// Error Handling:
// All operations return the sentinel errors from errors.go wrapped with
// the address that was passed in, so operators can correlate failures
// with their input. CanConnect is the single exception: by contract it
// absorbs every failure into false.
type FileStore interface {
	// ListFiles enumerates the plain files at the given address.
	//
	// Directories and self/parent markers are excluded. The result order
	// follows the backend's natural listing order; no de-duplication is
	// performed. Each call re-queries the backend - nothing is cached.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - address: Directory address to enumerate
	//
	// Returns:
	//   - []string: File names in listing order
	//   - error: ErrInvalidAddress, ErrNotFound, or a backend failure
	ListFiles(ctx context.Context, address string) ([]string, error)

	// ReadFile returns a reader for the named file under the address.
	//
	// The caller is responsible for closing the returned ReadCloser.
	// Remote implementations may materialize the content into a local
	// staging file first; the staging file is removed when the reader
	// is closed.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - address: Directory address containing the file
	//   - name: File name within the address
	//
	// Returns:
	//   - io.ReadCloser: Reader for the content (must be closed by caller)
	//   - error: ErrNotFound if the file doesn't exist, or a backend failure
	ReadFile(ctx context.Context, address, name string) (io.ReadCloser, error)

	// WriteFile writes the stream's contents to the named file.
	//
	// The stream is consumed from its current position; callers are
	// expected to have rewound seekable streams beforehand. Behavior per
	// mode:
	//   - Overwrite: replace any existing content (default)
	//   - CreateNew: fail with ErrAlreadyExists if the name exists
	//   - Append: append to existing content, creating the file if absent
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - address: Directory address for the file
	//   - name: File name within the address
	//   - r: Content stream, consumed from its current position
	//   - mode: Write semantics (zero value is Overwrite)
	//
	// Returns:
	//   - error: ErrAlreadyExists for CreateNew conflicts, or a backend failure
	WriteFile(ctx context.Context, address, name string, r io.Reader, mode WriteMode) error

	// DeleteFile removes the named file.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - address: Directory address containing the file
	//   - name: File name within the address
	//
	// Returns:
	//   - error: ErrNotFound if the file doesn't exist, or a backend failure
	DeleteFile(ctx context.Context, address, name string) error

	// MoveFile moves a file between addresses, possibly across shares.
	//
	// Backends without a native rename synthesize the move as
	// read-then-write-then-delete. Such a move is NOT atomic: on failure
	// the implementation restores the pre-move state where it can, and
	// otherwise surfaces the original failure untouched. See the smb
	// implementation for the exact retry and rollback sequence.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - srcAddress, srcName: Source location
	//   - dstAddress, dstName: Destination location
	//
	// Returns:
	//   - error: ErrNotFound if the source doesn't exist, or a backend failure
	MoveFile(ctx context.Context, srcAddress, srcName, dstAddress, dstName string) error

	// MakeDirectory creates the directory the address points at.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - address: Directory address to create
	//
	// Returns:
	//   - error: Backend failure, or ErrAlreadyExists where the backend
	//     reports collisions
	MakeDirectory(ctx context.Context, address string) error

	// CanConnect reports whether the address is currently reachable.
	//
	// By contract this translates ANY failure - malformed address,
	// classification result, cancellation - into false. This is the one
	// place where errors are fully absorbed: the question is "is this
	// reachable", not "why not".
	CanConnect(ctx context.Context, address string) bool
}

// ============================================================================
// Write Modes
// ============================================================================

// WriteMode governs WriteFile's pre-flight and staging behavior.
type WriteMode int

const (
	// Overwrite replaces any existing content. This is the default.
	Overwrite WriteMode = iota

	// CreateNew fails with ErrAlreadyExists when the target name exists.
	CreateNew

	// Append appends the stream after any existing content, creating the
	// file when it doesn't exist yet.
	Append
)

// String returns the mode name for logs and error messages.
func (m WriteMode) String() string {
	switch m {
	case Overwrite:
		return "overwrite"
	case CreateNew:
		return "create-new"
	case Append:
		return "append"
	default:
		return "unknown"
	}
}
