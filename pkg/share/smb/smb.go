package smb

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/diegodancourt/SmbSharp/internal/logger"
	"github.com/diegodancourt/SmbSharp/pkg/metrics"
	"github.com/diegodancourt/SmbSharp/pkg/share"
	"github.com/google/uuid"
)

// SMBStore implements share.FileStore against SMB shares reached
// exclusively through an external line-oriented client tool.
//
// The adapter never speaks the SMB wire protocol itself: every operation
// is translated into a correctly quoted tool invocation, and the tool's
// free-text output and exit status are interpreted back into typed
// results and errors.
//
// Thread Safety:
// The store holds no operation-level locks. The only synchronized shared
// state is the availability cell; everything else is per-call (locations
// are re-parsed each time, staging and credential files are uniquely
// named per invocation).
type SMBStore struct {
	auth       Auth
	invoker    Invoker
	metrics    metrics.InvocationMetrics
	probe      *AvailabilityCell
	clientPath string
	credStyle  CredentialStyle
	retryDelay time.Duration
}

// Options tunes an SMBStore beyond its authentication context. The zero
// value selects the defaults noted on each field.
type Options struct {
	// ClientPath is the client tool executable. Default: "smbclient".
	ClientPath string

	// CredentialStyle selects how passwords reach the tool.
	// Default: CredentialFile.
	CredentialStyle CredentialStyle

	// RetryDelay is the fixed wait before the single retry of the move
	// orchestration's source delete. The single-retry/fixed-delay shape
	// is contractual; the specific duration is not. Default: 500ms.
	RetryDelay time.Duration

	// Invoker runs the external tool. Default: ExecInvoker.
	Invoker Invoker

	// Metrics observes invocations. Default: no-op.
	Metrics metrics.InvocationMetrics

	// Probe is the availability cell to consult. Default: a process-wide
	// shared cell, so the tool is probed at most once per process.
	Probe *AvailabilityCell
}

const defaultRetryDelay = 500 * time.Millisecond

// New creates an SMB-backed FileStore with the given authentication
// context.
//
// Credentials mode requires a non-blank username and password; this is
// validated here, once, because the Auth is owned by the store for its
// whole lifetime.
func New(auth Auth, opts Options) (*SMBStore, error) {
	if auth.Mode == AuthCredentials && (auth.Username == "" || auth.Password == "") {
		return nil, fmt.Errorf("credentials auth requires username and password")
	}

	if opts.ClientPath == "" {
		opts.ClientPath = "smbclient"
	}
	if opts.RetryDelay == 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Invoker == nil {
		opts.Invoker = ExecInvoker{}
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoopInvocationMetrics()
	}
	if opts.Probe == nil {
		opts.Probe = sharedAvailability
	}

	return &SMBStore{
		auth:       auth,
		invoker:    opts.Invoker,
		metrics:    opts.Metrics,
		probe:      opts.Probe,
		clientPath: opts.ClientPath,
		credStyle:  opts.CredentialStyle,
		retryDelay: opts.RetryDelay,
	}, nil
}

// ============================================================================
// Invocation Pipeline
// ============================================================================

// runClient executes one sub-command against the location and returns
// the transcript of a successful invocation. Failed invocations are
// classified into the share error taxonomy before returning.
//
// contextPath is carried into every error so operators can correlate
// failures with the address they passed in.
func (s *SMBStore) runClient(ctx context.Context, op string, loc Location, subCommand, contextPath string) (res *Result, err error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveInvocation(op, time.Since(start), err)
	}()

	if err = ctx.Err(); err != nil {
		return nil, err
	}

	if !s.Available(ctx) {
		return nil, fmt.Errorf("%s: %w", s.clientPath, share.ErrToolUnavailable)
	}

	inv, err := s.buildCommand(loc, subCommand)
	if err != nil {
		return nil, err
	}
	// Credential material is released on every exit path.
	defer inv.cleanup()

	logger.Debug("Invoking %s %s -c %q", s.clientPath, loc.ShareTarget(), subCommand)

	res, err = s.invoker.Run(ctx, s.clientPath, inv.args, inv.env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", contextPath, share.ErrRemoteFailure, err)
	}

	if res.ExitCode != 0 {
		return nil, classifyFailure(res, contextPath)
	}

	return res, nil
}

// stagingPath returns a collision-resistant path under the platform temp
// directory for staging the named file's content.
func stagingPath(name string) string {
	return filepath.Join(os.TempDir(), "smbsharp-"+uuid.NewString()+"-"+filepath.Base(name))
}

// fetchToStaging downloads the remote file into a fresh staging file and
// returns its path. On any error the staging file is already removed.
func (s *SMBStore) fetchToStaging(ctx context.Context, loc Location, name string) (string, error) {
	staging := stagingPath(name)

	contextPath := loc.String() + "/" + name
	if _, err := s.runClient(ctx, "get", loc, getCommand(loc, name, staging), contextPath); err != nil {
		removeStaging(staging)
		return "", err
	}

	return staging, nil
}

// removeStaging deletes a staging file, logging rather than failing when
// the deletion itself goes wrong.
func removeStaging(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("Failed to remove staging file %s: %v", path, err)
	}
}

// stagingReadCloser removes its staging file when closed.
type stagingReadCloser struct {
	*os.File
	path string
}

func (r *stagingReadCloser) Close() error {
	err := r.File.Close()
	removeStaging(r.path)
	return err
}

// ============================================================================
// FileStore Operations
// ============================================================================

// ListFiles enumerates the plain files at the address by parsing one
// listing transcript. Nothing is cached between calls.
func (s *SMBStore) ListFiles(ctx context.Context, address string) ([]string, error) {
	loc, err := ParseLocation(address)
	if err != nil {
		return nil, err
	}

	res, err := s.runClient(ctx, "list", loc, listCommand(loc), address)
	if err != nil {
		return nil, err
	}

	return ParseListing(res.Stdout), nil
}

// ReadFile fetches the remote file into a local staging file and returns
// a reader over it. The staging file is removed when the reader closes.
func (s *SMBStore) ReadFile(ctx context.Context, address, name string) (io.ReadCloser, error) {
	loc, err := ParseLocation(address)
	if err != nil {
		return nil, err
	}

	staging, err := s.fetchToStaging(ctx, loc, name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(staging)
	if err != nil {
		removeStaging(staging)
		return nil, fmt.Errorf("failed to open staging file: %w", err)
	}

	return &stagingReadCloser{File: f, path: staging}, nil
}

// DeleteFile removes the named remote file.
func (s *SMBStore) DeleteFile(ctx context.Context, address, name string) error {
	loc, err := ParseLocation(address)
	if err != nil {
		return err
	}

	_, err = s.runClient(ctx, "delete", loc, deleteCommand(loc, name), address+"/"+name)
	return err
}

// MakeDirectory creates the directory the address points at, building
// nested paths one level at a time. Like the local backend's MkdirAll,
// segments that already exist are not an error.
//
// The tool's own mkdir errors on an existing segment while still
// executing the rest of the sub-command, so a collision on any prefix
// makes the invocation exit non-zero even though the leaf was created.
// A failed invocation is therefore followed by a change-dir probe of
// the full path: if the directory is reachable the collision was
// harmless; otherwise the original failure stands.
func (s *SMBStore) MakeDirectory(ctx context.Context, address string) error {
	loc, err := ParseLocation(address)
	if err != nil {
		return err
	}

	if loc.Path == "" {
		return fmt.Errorf("%s: address names a share root, not a directory to create: %w", address, share.ErrInvalidAddress)
	}

	parent := Location{Host: loc.Host, Share: loc.Share}
	_, err = s.runClient(ctx, "mkdir", parent, mkdirCommand(loc), address)
	if err == nil {
		return nil
	}

	if _, probeErr := s.runClient(ctx, "mkdir", parent, changeDirCommand(loc), address); probeErr == nil {
		return nil
	}

	return err
}

// CanConnect reports whether the address is currently reachable by
// attempting a change-dir against it.
//
// By contract every failure - malformed address, any classification
// result, cancellation - is absorbed into false. This is the single
// place in the adapter where errors are swallowed by design.
func (s *SMBStore) CanConnect(ctx context.Context, address string) bool {
	loc, err := ParseLocation(address)
	if err != nil {
		return false
	}

	base := Location{Host: loc.Host, Share: loc.Share}
	if _, err := s.runClient(ctx, "probe", base, changeDirCommand(loc), address); err != nil {
		logger.Debug("Connectivity probe for %s failed: %v", address, err)
		return false
	}

	return true
}

// statRemote checks whether the named remote entry exists, using a
// listing probe scoped to that single name. Used by the CreateNew
// pre-flight; a nil return means the name exists. The probe does not
// distinguish entry kinds: a directory with the target name also
// reports existence, which is the right answer for CreateNew since the
// upload would collide with it either way.
func (s *SMBStore) statRemote(ctx context.Context, loc Location, name string) error {
	_, err := s.runClient(ctx, "stat", loc, statCommand(loc, name), loc.String()+"/"+name)
	return err
}

// putStaged uploads a staged local file to the named remote file.
func (s *SMBStore) putStaged(ctx context.Context, loc Location, name, staging string) error {
	_, err := s.runClient(ctx, "put", loc, putCommand(loc, staging, name), loc.String()+"/"+name)
	return err
}
