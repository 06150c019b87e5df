package smb

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/diegodancourt/SmbSharp/internal/logger"
	"github.com/google/uuid"
)

// ============================================================================
// Authentication
// ============================================================================

// AuthMode selects how the client tool authenticates to the share.
type AuthMode int

const (
	// AuthKerberos requires an existing Kerberos ticket; no credential
	// material is transmitted through this adapter.
	AuthKerberos AuthMode = iota

	// AuthCredentials authenticates with an explicit username/password
	// pair (and optional domain).
	AuthCredentials
)

// CredentialStyle selects how an AuthCredentials password reaches the
// client tool. Neither style ever places the password in the argument
// vector, where it would be visible in process listings.
type CredentialStyle int

const (
	// CredentialFile writes the credentials into a freshly created,
	// owner-only temporary file referenced with -A. Preferred: environment
	// variables are still visible to co-resident privileged processes on
	// some platforms.
	CredentialFile CredentialStyle = iota

	// CredentialEnv passes the username on the argument line and the
	// password through the PASSWD process environment variable. Kept for
	// setups where credential files are undesirable.
	CredentialEnv
)

// Auth carries the authentication context for an SMB store. It is owned
// by the store instance for its whole lifetime.
type Auth struct {
	Mode     AuthMode
	Username string
	Password string
	Domain   string
}

// qualifiedUser returns DOMAIN\username when a domain is set.
func (a Auth) qualifiedUser() string {
	if a.Domain != "" {
		return a.Domain + `\` + a.Username
	}
	return a.Username
}

// ============================================================================
// Command Assembly
// ============================================================================

// invocation is a fully assembled client-tool command: the argument
// vector, extra environment entries, and a cleanup step that releases
// any temporary credential material. cleanup runs unconditionally after
// the invocation, success or failure.
type invocation struct {
	args    []string
	env     map[string]string
	cleanup func()
}

// buildCommand assembles the argument vector and environment for one
// sub-command against the given location.
//
// The share target is always constructed as //host/share. Credential
// material is attached according to the store's CredentialStyle. The
// sub-command travels as one argv element: nothing between here and the
// tool re-parses it, so it is passed verbatim. Quoting happens at the
// name level (quoted), for the tool's own tokenizer only.
func (s *SMBStore) buildCommand(loc Location, subCommand string) (*invocation, error) {
	inv := &invocation{
		args:    []string{loc.ShareTarget()},
		env:     map[string]string{},
		cleanup: func() {},
	}

	switch s.auth.Mode {
	case AuthKerberos:
		inv.args = append(inv.args, "-k")

	case AuthCredentials:
		if s.credStyle == CredentialEnv {
			inv.args = append(inv.args, "-U", s.auth.qualifiedUser())
			inv.env["PASSWD"] = s.auth.Password
			break
		}

		credPath, err := writeCredentialsFile(s.auth)
		if err != nil {
			return nil, err
		}
		inv.args = append(inv.args, "-A", credPath)
		inv.cleanup = func() {
			if err := os.Remove(credPath); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove credentials file %s: %v", credPath, err)
			}
		}

	default:
		return nil, fmt.Errorf("unknown auth mode %d", s.auth.Mode)
	}

	inv.args = append(inv.args, "-c", subCommand)

	return inv, nil
}

// writeCredentialsFile materializes the credentials into a uniquely
// named, owner-read/write temporary file and returns its path. The
// caller schedules deletion via invocation.cleanup.
func writeCredentialsFile(auth Auth) (string, error) {
	path := filepath.Join(os.TempDir(), "smbsharp-cred-"+uuid.NewString())

	var b strings.Builder
	fmt.Fprintf(&b, "username=%s\n", auth.Username)
	fmt.Fprintf(&b, "password=%s\n", auth.Password)
	if auth.Domain != "" {
		fmt.Fprintf(&b, "domain=%s\n", auth.Domain)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return "", fmt.Errorf("failed to write credentials file: %w", err)
	}

	return path, nil
}

// neutralizeName strips characters that the client tool's own command
// mini-language would interpret (quotes, backticks, dollar signs) from
// text interpolated into a sub-command. Names containing these cannot be
// addressed through the tool's line-oriented interface; stripping keeps
// the interpolation inert rather than silently executable.
func neutralizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '`', '$':
			return -1
		}
		return r
	}, name)
}

// quoted wraps an already neutralized name for interpolation into a
// sub-command, so names containing spaces survive the tool's tokenizer.
func quoted(name string) string {
	return `"` + neutralizeName(name) + `"`
}

// ============================================================================
// Sub-Command Builders
// ============================================================================

// changeDirPrefix returns the "cd" step that scopes a sub-command to the
// location's relative path, or an empty string for the share root.
func changeDirPrefix(loc Location) string {
	if loc.Path == "" {
		return ""
	}
	return "cd " + quoted(loc.Path) + "; "
}

func listCommand(loc Location) string {
	return changeDirPrefix(loc) + "ls"
}

func statCommand(loc Location, name string) string {
	return changeDirPrefix(loc) + "ls " + quoted(name)
}

func getCommand(loc Location, name, localPath string) string {
	return changeDirPrefix(loc) + "get " + quoted(name) + " " + quoted(localPath)
}

func putCommand(loc Location, localPath, name string) string {
	return changeDirPrefix(loc) + "put " + quoted(localPath) + " " + quoted(name)
}

func deleteCommand(loc Location, name string) string {
	return changeDirPrefix(loc) + "del " + quoted(name)
}

func mkdirCommand(loc Location) string {
	// The tool creates one level per mkdir, so nested paths are built up
	// segment by segment. Existing segments make the whole invocation
	// exit non-zero; MakeDirectory resolves that with a follow-up probe.
	var b strings.Builder
	for i, segment := range strings.Split(loc.Path, "/") {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString("mkdir " + quoted(segment) + "; cd " + quoted(segment))
	}
	return b.String()
}

func changeDirCommand(loc Location) string {
	if loc.Path == "" {
		return "cd " + quoted("/")
	}
	return "cd " + quoted(loc.Path)
}
