// Package testing provides a reusable test suite for FileStore
// implementations.
package testing

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/diegodancourt/SmbSharp/pkg/share"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// StoreTestSuite is a test suite for FileStore implementations. It tests
// the interface contract, not implementation details, making it reusable
// across backends (local, SMB, S3).
//
// Usage:
//
//	func TestLocalStore(t *testing.T) {
//	    suite := &testing.StoreTestSuite{
//	        NewStore:   func(t *testing.T) share.FileStore { return local.New() },
//	        NewAddress: func(t *testing.T) string { return t.TempDir() },
//	    }
//	    suite.Run(t)
//	}
type StoreTestSuite struct {
	// NewStore creates a fresh FileStore for each test.
	NewStore func(t *testing.T) share.FileStore

	// NewAddress returns a fresh, empty, writable address for each test.
	NewAddress func(t *testing.T) string
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(t *testing.T) {
	t.Run("WriteAndRead", suite.testWriteAndRead)
	t.Run("WriteEmpty", suite.testWriteEmpty)
	t.Run("Overwrite", suite.testOverwrite)
	t.Run("CreateNewConflict", suite.testCreateNewConflict)
	t.Run("AppendAbsent", suite.testAppendAbsent)
	t.Run("AppendExisting", suite.testAppendExisting)
	t.Run("ListFiles", suite.testListFiles)
	t.Run("ReadMissing", suite.testReadMissing)
	t.Run("Delete", suite.testDelete)
	t.Run("DeleteMissing", suite.testDeleteMissing)
	t.Run("Move", suite.testMove)
	t.Run("CanConnect", suite.testCanConnect)
}

func testContext() context.Context {
	return context.Background()
}

// writeFile is a convenience wrapper that writes byte content.
func writeFile(t *testing.T, store share.FileStore, address, name string, data []byte, mode share.WriteMode) error {
	t.Helper()
	return store.WriteFile(testContext(), address, name, bytes.NewReader(data), mode)
}

// readFile reads the full content of a remote file.
func readFile(t *testing.T, store share.FileStore, address, name string) []byte {
	t.Helper()

	r, err := store.ReadFile(testContext(), address, name)
	require.NoError(t, err, "ReadFile(%s, %s)", address, name)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func (suite *StoreTestSuite) testWriteAndRead(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	// A few KB, so content crosses any internal buffering boundary
	payload := []byte(strings.Repeat("stream-backed file content\n", 200))

	require.NoError(t, writeFile(t, store, address, "data.txt", payload, share.Overwrite))
	assert.Equal(t, payload, readFile(t, store, address, "data.txt"))
}

func (suite *StoreTestSuite) testWriteEmpty(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	require.NoError(t, writeFile(t, store, address, "empty.txt", nil, share.Overwrite))
	assert.Empty(t, readFile(t, store, address, "empty.txt"))
}

func (suite *StoreTestSuite) testOverwrite(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	require.NoError(t, writeFile(t, store, address, "file.txt", []byte("first version, longer"), share.Overwrite))
	require.NoError(t, writeFile(t, store, address, "file.txt", []byte("second"), share.Overwrite))

	assert.Equal(t, []byte("second"), readFile(t, store, address, "file.txt"))
}

func (suite *StoreTestSuite) testCreateNewConflict(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	require.NoError(t, writeFile(t, store, address, "file.txt", []byte("original"), share.CreateNew))

	err := writeFile(t, store, address, "file.txt", []byte("usurper"), share.CreateNew)
	require.Error(t, err)
	assert.ErrorIs(t, err, share.ErrAlreadyExists)

	// The existing content must be untouched
	assert.Equal(t, []byte("original"), readFile(t, store, address, "file.txt"))
}

func (suite *StoreTestSuite) testAppendAbsent(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	// Appending to a name that does not exist behaves like a plain write
	require.NoError(t, writeFile(t, store, address, "log.txt", []byte("line 1\n"), share.Append))
	assert.Equal(t, []byte("line 1\n"), readFile(t, store, address, "log.txt"))
}

func (suite *StoreTestSuite) testAppendExisting(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	require.NoError(t, writeFile(t, store, address, "log.txt", []byte("line 1\n"), share.Overwrite))
	require.NoError(t, writeFile(t, store, address, "log.txt", []byte("line 2\n"), share.Append))

	assert.Equal(t, []byte("line 1\nline 2\n"), readFile(t, store, address, "log.txt"))
}

func (suite *StoreTestSuite) testListFiles(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	require.NoError(t, writeFile(t, store, address, "a.txt", []byte("a"), share.Overwrite))
	require.NoError(t, writeFile(t, store, address, "b.txt", []byte("b"), share.Overwrite))

	names, err := store.ListFiles(testContext(), address)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
}

func (suite *StoreTestSuite) testReadMissing(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	_, err := store.ReadFile(testContext(), address, "no-such-file.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, share.ErrNotFound)
}

func (suite *StoreTestSuite) testDelete(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	require.NoError(t, writeFile(t, store, address, "doomed.txt", []byte("x"), share.Overwrite))
	require.NoError(t, store.DeleteFile(testContext(), address, "doomed.txt"))

	_, err := store.ReadFile(testContext(), address, "doomed.txt")
	assert.True(t, errors.Is(err, share.ErrNotFound), "expected ErrNotFound after delete, got %v", err)
}

func (suite *StoreTestSuite) testDeleteMissing(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	err := store.DeleteFile(testContext(), address, "no-such-file.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, share.ErrNotFound)
}

func (suite *StoreTestSuite) testMove(t *testing.T) {
	store := suite.NewStore(t)
	src := suite.NewAddress(t)
	dst := suite.NewAddress(t)

	payload := []byte("content that must survive the move intact")
	require.NoError(t, writeFile(t, store, src, "old.txt", payload, share.Overwrite))

	require.NoError(t, store.MoveFile(testContext(), src, "old.txt", dst, "new.txt"))

	assert.Equal(t, payload, readFile(t, store, dst, "new.txt"))

	_, err := store.ReadFile(testContext(), src, "old.txt")
	assert.True(t, errors.Is(err, share.ErrNotFound), "source must be gone after move, got %v", err)
}

func (suite *StoreTestSuite) testCanConnect(t *testing.T) {
	store := suite.NewStore(t)
	address := suite.NewAddress(t)

	assert.True(t, store.CanConnect(testContext(), address))
}
