package smb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/diegodancourt/SmbSharp/pkg/share"
)

// ============================================================================
// Write Orchestration
// ============================================================================

// WriteFile writes the stream's contents to the named remote file.
//
// The remote tool only supports whole-file put/get, so all three modes
// converge on the same tail: materialize the outgoing bytes into a
// uniquely named local staging file, upload it with one put invocation,
// and delete the staging file on every exit path. The modes differ in
// their pre-flight:
//
//   - CreateNew: probe the target name first; an existing name fails
//     with ErrAlreadyExists before any upload is attempted. Only a
//     NotFound probe result proceeds.
//   - Append: fetch the existing content into a second staging file and
//     concatenate it ahead of the new stream; a NotFound fetch stages
//     the new content alone. The fetched staging file is always removed
//     afterward.
//   - Overwrite (default): stage the incoming stream directly.
//
// The stream is consumed from its current position; the adapter does not
// rewind it.
func (s *SMBStore) WriteFile(ctx context.Context, address, name string, r io.Reader, mode share.WriteMode) error {
	loc, err := ParseLocation(address)
	if err != nil {
		return err
	}

	// ========================================================================
	// Step 1: Mode pre-flight
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	var existing string // staging file holding current remote content (Append only)

	switch mode {
	case share.CreateNew:
		err := s.statRemote(ctx, loc, name)
		if err == nil {
			return fmt.Errorf("%s/%s: %w", address, name, share.ErrAlreadyExists)
		}
		if !errors.Is(err, share.ErrNotFound) {
			return err
		}

	case share.Append:
		existing, err = s.fetchToStaging(ctx, loc, name)
		if err != nil && !errors.Is(err, share.ErrNotFound) {
			return err
		}
		if existing != "" {
			defer removeStaging(existing)
		}
	}

	// ========================================================================
	// Step 2: Stage the outgoing content
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	staging, err := s.stageContent(name, existing, r)
	if err != nil {
		return err
	}
	defer removeStaging(staging)

	// ========================================================================
	// Step 3: Upload
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.putStaged(ctx, loc, name, staging)
}

// stageContent writes the upload payload into a fresh staging file:
// first the previously fetched remote content (when appending), then the
// caller's stream from its current position. Returns the staging path;
// on error the partial staging file is already removed.
func (s *SMBStore) stageContent(name, existing string, r io.Reader) (string, error) {
	staging := stagingPath(name)

	f, err := os.OpenFile(staging, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", fmt.Errorf("failed to create staging file: %w", err)
	}

	fail := func(err error) (string, error) {
		f.Close()
		removeStaging(staging)
		return "", err
	}

	if existing != "" {
		prev, err := os.Open(existing)
		if err != nil {
			return fail(fmt.Errorf("failed to open fetched content: %w", err))
		}
		_, err = io.Copy(f, prev)
		prev.Close()
		if err != nil {
			return fail(fmt.Errorf("failed to stage existing content: %w", err))
		}
	}

	if _, err := io.Copy(f, r); err != nil {
		return fail(fmt.Errorf("failed to stage stream content: %w", err))
	}

	if err := f.Close(); err != nil {
		removeStaging(staging)
		return "", fmt.Errorf("failed to finalize staging file: %w", err)
	}

	return staging, nil
}
