package smb

import (
	"fmt"
	"strings"

	"github.com/diegodancourt/SmbSharp/pkg/share"
)

// ============================================================================
// Error Classification
// ============================================================================

// The client tool has no structured error channel: failures surface as
// free-form text on stderr (and sometimes stdout) plus a non-zero exit
// code. Classification is therefore a prioritized list of substring
// rules evaluated in a fixed order. The order is load-bearing: a
// "not found" diagnostic must match before the generic rules because
// some transcripts satisfy multiple loose patterns.
//
// This is inherently heuristic; do not attempt to make it more precise
// than the text guarantees.

// classificationRule maps diagnostic substrings to a sentinel error.
type classificationRule struct {
	kind     error
	markers  []string
	withDiag bool // carry the raw diagnostic text in the wrapped error
}

// rules are evaluated top to bottom against the lower-cased transcript.
var rules = []classificationRule{
	{
		kind: share.ErrNotFound,
		markers: []string{
			"does not exist",
			"not found",
			"nt_status_object_name_not_found",
			"nt_status_no_such_file",
			"no such file",
		},
	},
	{
		kind: share.ErrAccessDenied,
		markers: []string{
			"access denied",
			"nt_status_access_denied",
			"nt_status_logon_failure",
			"logon failure",
			"permission denied",
		},
		withDiag: true,
	},
	{
		kind: share.ErrShareUnreachable,
		markers: []string{
			"bad network path",
			"network name not found",
			"nt_status_bad_network_name",
			"nt_status_host_unreachable",
			"connection refused",
		},
		withDiag: true,
	},
}

// classifyFailure converts a failed invocation's textual diagnostics
// into a typed error. Called only when the exit code is non-zero.
//
// Every returned error carries contextPath (the address the caller
// passed in); AccessDenied, ShareUnreachable, and the uncategorized
// fallback additionally preserve the raw diagnostic text for operator
// debugging.
func classifyFailure(res *Result, contextPath string) error {
	// Some diagnostics appear on stdout, so both streams are matched.
	raw := strings.TrimSpace(strings.TrimSpace(res.Stdout) + "\n" + strings.TrimSpace(res.Stderr))
	lowered := strings.ToLower(raw)

	for _, rule := range rules {
		for _, marker := range rule.markers {
			if strings.Contains(lowered, marker) {
				if rule.withDiag {
					return fmt.Errorf("%s: %w: %s", contextPath, rule.kind, raw)
				}
				return fmt.Errorf("%s: %w", contextPath, rule.kind)
			}
		}
	}

	return fmt.Errorf("%s: %w (exit %d): %s", contextPath, share.ErrRemoteFailure, res.ExitCode, raw)
}
