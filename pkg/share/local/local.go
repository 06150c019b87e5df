// Package local implements share.FileStore over a locally addressable
// filesystem by direct delegation to the OS file APIs.
//
// There is deliberately no adapter logic here: addresses are directory
// paths, and every operation maps one-to-one onto an os call, with OS
// errors translated into the share error taxonomy.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/diegodancourt/SmbSharp/pkg/share"
)

// LocalStore implements share.FileStore for local directory trees.
type LocalStore struct{}

// New creates a local-filesystem FileStore.
func New() *LocalStore {
	return &LocalStore{}
}

// ListFiles enumerates the plain files in the directory, excluding
// subdirectories, in directory order.
func (l *LocalStore) ListFiles(ctx context.Context, address string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(address)
	if err != nil {
		return nil, translate(address, err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}

	return names, nil
}

// ReadFile opens the named file for reading.
func (l *LocalStore) ReadFile(ctx context.Context, address, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(address, name))
	if err != nil {
		return nil, translate(filepath.Join(address, name), err)
	}

	return f, nil
}

// WriteFile writes the stream to the named file, honoring the mode via
// the corresponding open flags.
func (l *LocalStore) WriteFile(ctx context.Context, address, name string, r io.Reader, mode share.WriteMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	flags := os.O_WRONLY | os.O_CREATE
	switch mode {
	case share.CreateNew:
		flags |= os.O_EXCL
	case share.Append:
		flags |= os.O_APPEND
	default:
		flags |= os.O_TRUNC
	}

	path := filepath.Join(address, name)
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return translate(path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("%s: failed to write content: %w", path, err)
	}

	return f.Close()
}

// DeleteFile removes the named file.
func (l *LocalStore) DeleteFile(ctx context.Context, address, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(address, name)
	if err := os.Remove(path); err != nil {
		return translate(path, err)
	}

	return nil
}

// MoveFile renames the file across directories. Unlike the remote
// backends this is the OS's own rename and is atomic within a volume.
func (l *LocalStore) MoveFile(ctx context.Context, srcAddress, srcName, dstAddress, dstName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	src := filepath.Join(srcAddress, srcName)
	dst := filepath.Join(dstAddress, dstName)
	if err := os.Rename(src, dst); err != nil {
		return translate(src, err)
	}

	return nil
}

// MakeDirectory creates the directory, including missing parents.
func (l *LocalStore) MakeDirectory(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(address, 0755); err != nil {
		return translate(address, err)
	}

	return nil
}

// CanConnect reports whether the address is an existing directory. All
// failures are absorbed into false by contract.
func (l *LocalStore) CanConnect(ctx context.Context, address string) bool {
	if ctx.Err() != nil {
		return false
	}

	info, err := os.Stat(address)
	return err == nil && info.IsDir()
}

// translate maps OS errors onto the share error taxonomy, carrying the
// path that was involved.
func translate(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", path, share.ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s: %w", path, share.ErrAlreadyExists)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%s: %w: %v", path, share.ErrAccessDenied, err)
	default:
		return fmt.Errorf("%s: %w: %v", path, share.ErrRemoteFailure, err)
	}
}
