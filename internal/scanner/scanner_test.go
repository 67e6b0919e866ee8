package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lead(kind byte) []byte {
	b := make([]byte, 96)
	copy(b, rpmMagic)
	b[4], b[5] = 3, 0
	b[7] = kind
	return b
}

func write(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestDetectKind(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.bin"), lead(0))
	write(t, filepath.Join(dir, "a-1.src.bin"), lead(1))
	write(t, filepath.Join(dir, "named.rpm"), []byte("x"))
	write(t, filepath.Join(dir, "named.src.rpm"), []byte("x"))
	write(t, filepath.Join(dir, "primary.xml.gz"), []byte("x"))
	write(t, filepath.Join(dir, "notes.txt"), []byte("x"))
	write(t, filepath.Join(dir, "repo", "repodata", "repomd.xml"), []byte("<repomd/>"))

	tests := map[string]SourceKind{
		"a.bin":          KindRpm,
		"a-1.src.bin":    KindSourceRpm,
		"named.rpm":      KindRpm,
		"named.src.rpm":  KindSourceRpm,
		"primary.xml.gz": KindPrimary,
		"notes.txt":      KindUnknown,
		"repo":           KindRepo,
		"repo/repodata":  KindDir,
	}
	for name, want := range tests {
		got, err := DetectKind(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := DetectKind(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestScanFindsBinaryRpms(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "x86_64", "a-1-1.x86_64.rpm"), lead(0))
	write(t, filepath.Join(dir, "noarch", "b-1-1.noarch.rpm"), lead(0))
	write(t, filepath.Join(dir, "SRPMS", "a-1-1.src.rpm"), lead(1))
	write(t, filepath.Join(dir, "repodata", "c.rpm"), lead(0))
	write(t, filepath.Join(dir, "README"), []byte("hi"))

	found, err := NewDirScanner().Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, found, 2)
	for _, p := range found {
		assert.Equal(t, KindRpm, p.Kind)
		assert.Equal(t, int64(96), p.Size)
	}
}

func TestScanCancelled(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "a.rpm"), lead(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirScanner().Scan(ctx, dir)
	assert.Error(t, err)
}

func TestScanOrderAndRootNamedRepodata(t *testing.T) {
	var s Scanner = NewDirScanner()
	dir := filepath.Join(t.TempDir(), "repodata")
	write(t, filepath.Join(dir, "z-1-1.noarch.rpm"), lead(0))
	write(t, filepath.Join(dir, "a", "a-1-1.noarch.rpm"), lead(0))
	write(t, filepath.Join(dir, "a", "repodata", "hidden.rpm"), lead(0))

	found, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, filepath.Join(dir, "a", "a-1-1.noarch.rpm"), found[0].Path)
	assert.Equal(t, filepath.Join(dir, "z-1-1.noarch.rpm"), found[1].Path)
}
