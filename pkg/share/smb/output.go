package smb

import "strings"

// ============================================================================
// Listing Transcript Parsing
// ============================================================================

// Footer markers emitted by the client tool after every listing.
const (
	footerBlocksOfSize = "blocks of size"
	footerBlocksAvail  = "blocks available"
)

// ParseListing converts a successful directory-listing transcript into
// the plain-file names it contains, in listing order.
//
// The transcript format is whitespace-delimited columns per entry:
// column 0 is the name, column 1 the attribute-flag string. An entry is
// a plain file iff its attribute token contains 'A' and does not contain
// 'D'; directories (flagged 'D') are excluded. Lines whose trimmed
// content starts with '.' cover the "." and ".." self/parent markers
// and the hidden-entry convention of the format. Trailing summary lines
// ("blocks of size" / "blocks available") are discarded.
//
// The name is taken verbatim as token 0 - no unescaping is performed, so
// names containing whitespace are not representable in this format. That
// is a limitation of the tool's output, not something to paper over
// here. No de-duplication is performed.
func ParseListing(stdout string) []string {
	var files []string

	for _, line := range strings.Split(stdout, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.Contains(trimmed, footerBlocksOfSize) || strings.Contains(trimmed, footerBlocksAvail) {
			continue
		}
		if strings.HasPrefix(trimmed, ".") {
			continue
		}

		tokens := strings.Fields(trimmed)
		if len(tokens) < 2 {
			continue
		}

		attrs := tokens[1]
		if strings.ContainsRune(attrs, 'A') && !strings.ContainsRune(attrs, 'D') {
			files = append(files, tokens[0])
		}
	}

	return files
}
