package smb

import (
	"context"
	"time"

	"github.com/diegodancourt/SmbSharp/internal/logger"
)

// ============================================================================
// Move Orchestration
// ============================================================================

// MoveFile moves a file between locations, possibly across shares.
//
// The remote tool has no atomic rename, so the move is synthesized as
// read-then-write-then-delete and is NOT atomic. The state machine:
//
//  1. Fetch the source into a local staging file. Any error aborts with
//     no further side effects.
//  2. Upload to the destination. Any error aborts with no further side
//     effects; the source is untouched.
//  3. Delete the source. Success completes the move.
//  4. On delete failure, wait a short fixed delay and retry the delete
//     exactly once. A successful retry still completes the move.
//  5. If the retry also fails, delete the just-created destination to
//     restore the pre-move state (best-effort rollback) and re-raise
//     the original delete failure. A rollback failure is observed in
//     the log but never masks the original error.
//
// Having already paid the transfer cost, a single retry absorbs typical
// transient contention on the source delete without doubling it; the
// rollback bounds the failure to "nothing moved" rather than leaving
// duplicate data in both locations whenever that can be arranged.
func (s *SMBStore) MoveFile(ctx context.Context, srcAddress, srcName, dstAddress, dstName string) error {
	srcLoc, err := ParseLocation(srcAddress)
	if err != nil {
		return err
	}
	dstLoc, err := ParseLocation(dstAddress)
	if err != nil {
		return err
	}

	// ========================================================================
	// Step 1: Fetch source
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	staging, err := s.fetchToStaging(ctx, srcLoc, srcName)
	if err != nil {
		return err
	}
	defer removeStaging(staging)

	// ========================================================================
	// Step 2: Upload to destination
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.putStaged(ctx, dstLoc, dstName, staging); err != nil {
		return err
	}

	// ========================================================================
	// Step 3: Delete source, with a single delayed retry
	// ========================================================================

	if err := ctx.Err(); err != nil {
		return err
	}

	deleteErr := s.deleteAt(ctx, srcLoc, srcName, srcAddress)
	if deleteErr == nil {
		return nil
	}

	logger.Warn("Source delete of %s/%s failed, retrying once: %v", srcAddress, srcName, deleteErr)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.retryDelay):
	}

	if err := s.deleteAt(ctx, srcLoc, srcName, srcAddress); err == nil {
		return nil
	}

	// ========================================================================
	// Step 4: Best-effort rollback, then surface the original failure
	// ========================================================================

	if rbErr := s.deleteAt(ctx, dstLoc, dstName, dstAddress); rbErr != nil {
		logger.Warn("Rollback delete of %s/%s failed: %v", dstAddress, dstName, rbErr)
	}

	return deleteErr
}

// deleteAt removes the named file at an already parsed location.
func (s *SMBStore) deleteAt(ctx context.Context, loc Location, name, address string) error {
	_, err := s.runClient(ctx, "delete", loc, deleteCommand(loc, name), address+"/"+name)
	return err
}
