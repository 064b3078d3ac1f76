package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFS(t *testing.T) {
	tmp := t.TempDir()
	lfs := LocalFS{}

	// Test MkdirAll
	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, lfs.MkdirAll(dir, 0o755))

	// Test OpenFile (Create)
	fpath := filepath.Join(dir, "test.txt")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	// Write
	_, err = f.Write([]byte("hello"))
	assert.NoError(t, err)

	// Sync
	assert.NoError(t, f.Sync())

	// Stat via File
	info, err := f.Stat()
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	// WriteAt (in-place header rewrite path)
	_, err = f.WriteAt([]byte("H"), 0)
	assert.NoError(t, err)

	assert.NoError(t, f.Close())

	// Stat via FS
	info2, err := lfs.Stat(fpath)
	assert.NoError(t, err)
	assert.Equal(t, int64(5), info2.Size())

	// ReadDir
	entries, err := lfs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	// Remove
	assert.NoError(t, lfs.Remove(fpath))
	_, err = lfs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}

func TestFaultyFS(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	ffs.SetDefault(Fault{FailAfterBytes: 5})

	fpath := filepath.Join(tmp, "faulty.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	// Write 5 bytes - OK
	n, err := f.Write([]byte("hello"))
	assert.NoError(t, err)
	assert.Equal(t, 5, n)

	// Write 1 byte - fail
	n, err = f.Write([]byte("!"))
	assert.Error(t, err)
	assert.Equal(t, 0, n)

	f.Close()
}

func TestFaultyFSRules(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(nil)
	ffs.AddRule("seg-", Fault{FailAfterBytes: 0})

	// Non-matching file is untouched.
	ok, err := ffs.OpenFile(filepath.Join(tmp, "plain.txt"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = ok.Write([]byte("data"))
	assert.NoError(t, err)
	ok.Close()

	// Matching file fails on the first write.
	bad, err := ffs.OpenFile(filepath.Join(tmp, "seg-0001.lpc"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	_, err = bad.Write([]byte("data"))
	assert.Error(t, err)
	bad.Close()
}

func TestFaultyFSDelegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(LocalFS{})

	dir := filepath.Join(tmp, "subdir")
	assert.NoError(t, ffs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "test.txt")
	f, err := ffs.OpenFile(fpath, os.O_CREATE, 0o644)
	require.NoError(t, err)
	f.Close()

	entries, err := ffs.ReadDir(dir)
	assert.NoError(t, err)
	assert.Len(t, entries, 1)

	assert.NoError(t, ffs.Remove(fpath))
	_, err = ffs.Stat(fpath)
	assert.True(t, os.IsNotExist(err))
}
