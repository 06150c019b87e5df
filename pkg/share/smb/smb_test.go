package smb

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/diegodancourt/SmbSharp/pkg/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Scripted Invoker
// ============================================================================

// fakeStep handles one expected invocation.
type fakeStep func(t *testing.T, sub string, env map[string]string) (*Result, error)

// fakeInvoker replays a fixed script of responses, one per invocation,
// and records every call for later assertions.
type fakeInvoker struct {
	t     *testing.T
	steps []fakeStep
	calls [][]string
}

func (f *fakeInvoker) Run(_ context.Context, path string, args []string, env map[string]string) (*Result, error) {
	f.calls = append(f.calls, append([]string{path}, args...))
	require.LessOrEqual(f.t, len(f.calls), len(f.steps), "unexpected invocation #%d: %v", len(f.calls), args)

	sub := ""
	if len(args) >= 2 && args[len(args)-2] == "-c" {
		sub = args[len(args)-1]
	}
	return f.steps[len(f.calls)-1](f.t, sub, env)
}

// subCommands returns the -c payload of every recorded call, with the
// version probe represented as "--version".
func (f *fakeInvoker) subCommands() []string {
	var subs []string
	for _, call := range f.calls {
		if len(call) >= 3 && call[len(call)-2] == "-c" {
			subs = append(subs, call[len(call)-1])
			continue
		}
		subs = append(subs, strings.Join(call[1:], " "))
	}
	return subs
}

// quotedTokens returns the quoted arguments of a sub-command.
func quotedTokens(sub string) []string {
	parts := strings.Split(sub, `"`)
	var tokens []string
	for i := 1; i < len(parts); i += 2 {
		tokens = append(tokens, parts[i])
	}
	return tokens
}

// stagingArg finds the local staging path inside a get/put sub-command.
func stagingArg(t *testing.T, sub string) string {
	t.Helper()
	for _, tok := range quotedTokens(sub) {
		if strings.Contains(tok, "smbsharp-") {
			return tok
		}
	}
	t.Fatalf("no staging path in sub-command %q", sub)
	return ""
}

func respondOK(stdout string) fakeStep {
	return func(*testing.T, string, map[string]string) (*Result, error) {
		return &Result{Stdout: stdout}, nil
	}
}

func respondExit(code int, stderr string) fakeStep {
	return func(*testing.T, string, map[string]string) (*Result, error) {
		return &Result{ExitCode: code, Stderr: stderr}, nil
	}
}

// respondGet services a "get" by writing content into the staging file
// the sub-command names, as the real tool would.
func respondGet(content string) fakeStep {
	return func(t *testing.T, sub string, _ map[string]string) (*Result, error) {
		require.NoError(t, os.WriteFile(stagingArg(t, sub), []byte(content), 0600))
		return &Result{}, nil
	}
}

// respondPut services a "put" by capturing the staged content being
// uploaded.
func respondPut(captured *string) fakeStep {
	return func(t *testing.T, sub string, _ map[string]string) (*Result, error) {
		data, err := os.ReadFile(stagingArg(t, sub))
		require.NoError(t, err)
		*captured = string(data)
		return &Result{}, nil
	}
}

func versionOK() fakeStep {
	return respondOK("Version 4.19.5")
}

// newFakeStore builds a store around the scripted invoker with a fresh
// availability cell and a short retry delay.
func newFakeStore(t *testing.T, f *fakeInvoker) *SMBStore {
	t.Helper()
	store, err := New(Auth{Mode: AuthKerberos}, Options{
		Invoker:    f,
		Probe:      NewAvailabilityCell(),
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return store
}

// ============================================================================
// Operation Tests
// ============================================================================

func TestListFiles(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(`
  .                 D        0  Mon Aug 24 10:00:00 2026
  report.txt        A     1024  Mon Aug 24 10:01:12 2026
  archive           D        0  Mon Aug 24 10:02:30 2026
		45231 blocks of size 4096. 12000 blocks available
`),
	}}
	store := newFakeStore(t, f)

	names, err := store.ListFiles(context.Background(), "//server/share/dir")
	require.NoError(t, err)
	assert.Equal(t, []string{"report.txt"}, names)

	require.Len(t, f.calls, 2)
	assert.Equal(t, `cd "dir"; ls`, f.subCommands()[1])
}

func TestReadFile(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("remote content"),
	}}
	store := newFakeStore(t, f)

	r, err := store.ReadFile(context.Background(), "//server/share", "file.txt")
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "remote content", string(data))

	// Closing the reader removes the staging file
	staging := stagingArg(t, f.calls[1][len(f.calls[1])-1])
	require.NoError(t, r.Close())
	_, statErr := os.Stat(staging)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReadFile_NotFound(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_OBJECT_NAME_NOT_FOUND"),
	}}
	store := newFakeStore(t, f)

	_, err := store.ReadFile(context.Background(), "//server/share", "missing.txt")
	assert.ErrorIs(t, err, share.ErrNotFound)
}

func TestWriteFile_Overwrite(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondPut(&uploaded),
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share/dir", "file.txt",
		strings.NewReader("fresh content"), share.Overwrite)
	require.NoError(t, err)
	assert.Equal(t, "fresh content", uploaded)
	assert.Contains(t, f.subCommands()[1], `put "`)
}

func TestWriteFile_CreateNewConflict(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(`  file.txt  A  10  Mon Aug 24 10:00:00 2026`), // stat: exists
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share", "file.txt",
		strings.NewReader("usurper"), share.CreateNew)
	require.Error(t, err)
	assert.ErrorIs(t, err, share.ErrAlreadyExists)

	// No upload was attempted
	require.Len(t, f.calls, 2)
}

func TestWriteFile_CreateNewSucceeds(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_OBJECT_NAME_NOT_FOUND"), // stat: absent
		respondPut(&uploaded),
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share", "file.txt",
		strings.NewReader("first"), share.CreateNew)
	require.NoError(t, err)
	assert.Equal(t, "first", uploaded)
}

func TestWriteFile_CreateNewDirectoryCollision(t *testing.T) {
	// A directory with the target name also counts as a conflict: the
	// existence probe reports any entry kind, and an upload over a
	// directory could not succeed anyway.
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(`  reports  D  0  Mon Aug 24 10:00:00 2026`),
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share", "reports",
		strings.NewReader("x"), share.CreateNew)
	assert.ErrorIs(t, err, share.ErrAlreadyExists)
	require.Len(t, f.calls, 2)
}

func TestWriteFile_CreateNewProbeError(t *testing.T) {
	// A pre-flight failure other than NotFound aborts without uploading
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_ACCESS_DENIED"),
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share", "file.txt",
		strings.NewReader("x"), share.CreateNew)
	assert.ErrorIs(t, err, share.ErrAccessDenied)
	require.Len(t, f.calls, 2)
}

func TestWriteFile_AppendExisting(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("line 1\n"),
		respondPut(&uploaded),
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share", "log.txt",
		strings.NewReader("line 2\n"), share.Append)
	require.NoError(t, err)
	assert.Equal(t, "line 1\nline 2\n", uploaded)
}

func TestWriteFile_AppendAbsent(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_OBJECT_NAME_NOT_FOUND"), // fetch: absent
		respondPut(&uploaded),
	}}
	store := newFakeStore(t, f)

	err := store.WriteFile(context.Background(), "//server/share", "log.txt",
		strings.NewReader("line 1\n"), share.Append)
	require.NoError(t, err)
	assert.Equal(t, "line 1\n", uploaded)
}

func TestDeleteFile(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(""),
	}}
	store := newFakeStore(t, f)

	require.NoError(t, store.DeleteFile(context.Background(), "//server/share/dir", "file.txt"))
	assert.Equal(t, `cd "dir"; del "file.txt"`, f.subCommands()[1])
}

func TestDeleteFile_SubCommandDeliveredVerbatim(t *testing.T) {
	// The -c element reaches the tool as-is: quoted names must arrive
	// with plain quotes and no escape characters, since nothing between
	// the store and the tool re-parses the argument vector.
	var delivered string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		func(_ *testing.T, sub string, _ map[string]string) (*Result, error) {
			delivered = sub
			return &Result{}, nil
		},
	}}
	store := newFakeStore(t, f)

	require.NoError(t, store.DeleteFile(context.Background(), "//server/share/dir", "file.txt"))
	assert.Equal(t, `cd "dir"; del "file.txt"`, delivered)
	assert.NotContains(t, delivered, `\`)
}

func TestMakeDirectory(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(""),
	}}
	store := newFakeStore(t, f)

	require.NoError(t, store.MakeDirectory(context.Background(), "//server/share/a/b"))
	assert.Equal(t, `mkdir "a"; cd "a"; mkdir "b"; cd "b"`, f.subCommands()[1])
}

func TestMakeDirectory_ExistingParentIsNotAnError(t *testing.T) {
	// Creating a child under an existing tree: the tool's mkdir errors
	// on the existing prefix but still creates the leaf; the follow-up
	// probe confirms the directory and the operation succeeds.
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_OBJECT_NAME_COLLISION making remote directory \\existing"),
		respondOK(""), // cd probe of the full path
	}}
	store := newFakeStore(t, f)

	require.NoError(t, store.MakeDirectory(context.Background(), "//server/share/existing/new"))

	subs := f.subCommands()
	require.Len(t, subs, 3)
	assert.Equal(t, `mkdir "existing"; cd "existing"; mkdir "new"; cd "new"`, subs[1])
	assert.Equal(t, `cd "existing/new"`, subs[2])
}

func TestMakeDirectory_AlreadyExists(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_OBJECT_NAME_COLLISION making remote directory \\existing"),
		respondOK(""),
	}}
	store := newFakeStore(t, f)

	// Idempotent like the local backend's MkdirAll
	require.NoError(t, store.MakeDirectory(context.Background(), "//server/share/existing"))
}

func TestMakeDirectory_RealFailureSurfaces(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_ACCESS_DENIED making remote directory \\dir"),
		respondExit(1, "NT_STATUS_OBJECT_NAME_NOT_FOUND"), // probe: not created
	}}
	store := newFakeStore(t, f)

	err := store.MakeDirectory(context.Background(), "//server/share/dir")
	require.Error(t, err)

	// The original mkdir failure is surfaced, not the probe's
	assert.ErrorIs(t, err, share.ErrAccessDenied)
}

func TestMakeDirectory_ShareRoot(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{versionOK()}}
	store := newFakeStore(t, f)

	err := store.MakeDirectory(context.Background(), "//server/share")
	assert.ErrorIs(t, err, share.ErrInvalidAddress)
	assert.Empty(t, f.calls)
}

func TestCanConnect(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(""),
	}}
	store := newFakeStore(t, f)

	assert.True(t, store.CanConnect(context.Background(), "//server/share/dir"))
	assert.Equal(t, `cd "dir"`, f.subCommands()[1])
}

func TestCanConnect_AbsorbsFailures(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_BAD_NETWORK_NAME"),
	}}
	store := newFakeStore(t, f)

	assert.False(t, store.CanConnect(context.Background(), "//server/share"))
	assert.False(t, store.CanConnect(context.Background(), "not-an-address"))
}

// ============================================================================
// Move Orchestration Tests
// ============================================================================

func TestMoveFile(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("payload"),
		respondPut(&uploaded),
		respondOK(""), // source delete
	}}
	store := newFakeStore(t, f)

	err := store.MoveFile(context.Background(), "//server/share/src", "old.txt", "//server/share/dst", "new.txt")
	require.NoError(t, err)
	assert.Equal(t, "payload", uploaded)

	subs := f.subCommands()
	require.Len(t, subs, 4)
	assert.Contains(t, subs[1], `get "old.txt"`)
	assert.Contains(t, subs[2], `"new.txt"`)
	assert.Equal(t, `cd "src"; del "old.txt"`, subs[3])
}

func TestMoveFile_FetchFailureAborts(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondExit(1, "NT_STATUS_OBJECT_NAME_NOT_FOUND"),
	}}
	store := newFakeStore(t, f)

	err := store.MoveFile(context.Background(), "//server/share", "old.txt", "//server/share", "new.txt")
	assert.ErrorIs(t, err, share.ErrNotFound)

	// No upload, no delete: the failure has no side effects
	require.Len(t, f.calls, 2)
}

func TestMoveFile_UploadFailureLeavesSource(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("payload"),
		respondExit(1, "NT_STATUS_ACCESS_DENIED"),
	}}
	store := newFakeStore(t, f)

	err := store.MoveFile(context.Background(), "//server/share", "old.txt", "//server/share", "new.txt")
	assert.ErrorIs(t, err, share.ErrAccessDenied)

	// The source delete never ran
	require.Len(t, f.calls, 3)
}

func TestMoveFile_DeleteRetrySucceeds(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("payload"),
		respondPut(&uploaded),
		respondExit(1, "sharing violation"), // first delete fails
		respondOK(""),                       // retry succeeds
	}}
	store := newFakeStore(t, f)

	err := store.MoveFile(context.Background(), "//server/share", "old.txt", "//server/share", "new.txt")
	require.NoError(t, err)

	// Exactly two delete attempts, no rollback
	require.Len(t, f.calls, 5)
}

func TestMoveFile_RollbackOnDoubleDeleteFailure(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("payload"),
		respondPut(&uploaded),
		respondExit(1, "first delete diagnostic"),  // delete fails
		respondExit(1, "second delete diagnostic"), // retry fails
		respondOK(""),                              // rollback delete of destination
	}}
	store := newFakeStore(t, f)

	err := store.MoveFile(context.Background(), "//server/share/src", "old.txt", "//server/share/dst", "new.txt")
	require.Error(t, err)

	// The original (first) delete failure is surfaced, not the retry's
	assert.ErrorIs(t, err, share.ErrRemoteFailure)
	assert.Contains(t, err.Error(), "first delete diagnostic")

	subs := f.subCommands()
	require.Len(t, subs, 6)
	assert.Equal(t, `cd "dst"; del "new.txt"`, subs[5], "last call must be the rollback delete")
}

func TestMoveFile_RollbackFailureDoesNotMask(t *testing.T) {
	var uploaded string
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondGet("payload"),
		respondPut(&uploaded),
		respondExit(1, "source delete diagnostic"),
		respondExit(1, "source delete diagnostic"),
		respondExit(1, "rollback diagnostic"),
	}}
	store := newFakeStore(t, f)

	err := store.MoveFile(context.Background(), "//server/share", "old.txt", "//server/share", "new.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source delete diagnostic")
	assert.NotContains(t, err.Error(), "rollback diagnostic")
}

// ============================================================================
// Availability Tests
// ============================================================================

func TestAvailability_ProbedOnce(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		versionOK(),
		respondOK(""),
		respondOK(""),
	}}
	store := newFakeStore(t, f)

	_, err := store.ListFiles(context.Background(), "//server/share")
	require.NoError(t, err)
	_, err = store.ListFiles(context.Background(), "//server/share")
	require.NoError(t, err)

	versionCalls := 0
	for _, call := range f.calls {
		if len(call) == 2 && call[1] == "--version" {
			versionCalls++
		}
	}
	assert.Equal(t, 1, versionCalls)
}

func TestAvailability_UnavailableToolFailsFast(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{
		respondExit(127, "command not found"),
	}}
	store := newFakeStore(t, f)

	_, err := store.ListFiles(context.Background(), "//server/share")
	assert.ErrorIs(t, err, share.ErrToolUnavailable)

	// The negative result is cached: no further invocations happen
	_, err = store.ListFiles(context.Background(), "//server/share")
	assert.ErrorIs(t, err, share.ErrToolUnavailable)
	require.Len(t, f.calls, 1)
}

func TestAvailabilityCell_Isolation(t *testing.T) {
	// Two stores with distinct cells probe independently
	f1 := &fakeInvoker{t: t, steps: []fakeStep{respondExit(127, "")}}
	f2 := &fakeInvoker{t: t, steps: []fakeStep{versionOK(), respondOK("")}}

	s1 := newFakeStore(t, f1)
	s2 := newFakeStore(t, f2)

	assert.False(t, s1.Available(context.Background()))
	assert.True(t, s2.Available(context.Background()))
}

func TestOperations_CanceledContext(t *testing.T) {
	f := &fakeInvoker{t: t, steps: []fakeStep{}}
	store := newFakeStore(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.ListFiles(ctx, "//server/share")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.calls)
}
