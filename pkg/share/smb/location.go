package smb

import (
	"fmt"
	"strings"

	"github.com/diegodancourt/SmbSharp/pkg/share"
)

// Location identifies a directory on an SMB share.
//
// A Location is constructed only by ParseLocation and is immutable after
// construction. It is created per call and never cached: every operation
// re-parses the address it was given.
//
// Invariants:
//   - Host and Share are non-empty and contain no path separators
//   - Path is forward-slash separated and may be empty (share root)
type Location struct {
	Host  string
	Share string
	Path  string
}

// ParseLocation parses a two-part network path string into a Location.
//
// Accepted forms, with slash direction freely mixed:
//
//	//host/share
//	//host/share/relative/path
//	\\host\share\relative\path
//
// Escaped-backslash forms (doubled separators as they appear in string
// literals) normalize to the same result. Any backslash in the remainder
// is normalized to a forward slash.
//
// Returns share.ErrInvalidAddress when the leading double separator is
// absent, when host or share is empty, or when fewer than two segments
// follow the leading separators. No side effects.
func ParseLocation(address string) (Location, error) {
	normalized := strings.ReplaceAll(address, `\`, "/")

	if !strings.HasPrefix(normalized, "//") {
		return Location{}, fmt.Errorf("%q: missing leading double separator: %w", address, share.ErrInvalidAddress)
	}

	// TrimLeft collapses the escaped forms (\\\\host, ////host) onto the
	// canonical two-separator prefix.
	trimmed := strings.TrimLeft(normalized, "/")

	segments := strings.SplitN(trimmed, "/", 3)
	if len(segments) < 2 {
		return Location{}, fmt.Errorf("%q: expected //host/share: %w", address, share.ErrInvalidAddress)
	}

	host, shareName := segments[0], segments[1]
	if host == "" || shareName == "" {
		return Location{}, fmt.Errorf("%q: empty host or share segment: %w", address, share.ErrInvalidAddress)
	}

	var rest string
	if len(segments) == 3 {
		// Drop empty path segments left behind by doubled or trailing
		// separators.
		parts := strings.FieldsFunc(segments[2], func(r rune) bool { return r == '/' })
		rest = strings.Join(parts, "/")
	}

	return Location{Host: host, Share: shareName, Path: rest}, nil
}

// ShareTarget returns the service target handed to the client tool,
// always in the //host/share form regardless of the input separators.
func (l Location) ShareTarget() string {
	return "//" + l.Host + "/" + l.Share
}

// String returns the canonical address for error messages and logs.
func (l Location) String() string {
	if l.Path == "" {
		return l.ShareTarget()
	}
	return l.ShareTarget() + "/" + l.Path
}
