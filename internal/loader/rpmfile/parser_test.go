package rpmfile

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/sassoftware/go-rpmutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeader map[int]interface{}

func (h fakeHeader) Get(tag int) (interface{}, error) {
	v, ok := h[tag]
	if !ok {
		return nil, errors.New("no such entry")
	}
	return v, nil
}

func (h fakeHeader) GetFiles() ([]rpmutils.FileInfo, error) {
	return nil, nil
}

func TestFromHeader(t *testing.T) {
	h := fakeHeader{
		rpmutils.NAME:      "bash",
		rpmutils.VERSION:   "5.2.15",
		rpmutils.RELEASE:   "2.fc39",
		rpmutils.ARCH:      "x86_64",
		rpmutils.SUMMARY:   "The GNU Bourne Again shell",
		rpmutils.BUILDTIME: []int{1690000000},
		tagEpoch:           []int{1},
		tagProvideName:     []string{"bash", "/bin/sh"},
		tagProvideFlags:    []int{int(models.SenseEqual), 0},
		tagProvideVersion:  []string{"1:5.2.15-2.fc39", ""},
		tagRequireName:     []string{"libc.so.6()(64bit)", "filesystem", "rpmlib(CompressedFileNames)"},
		tagRequireFlags:    []int{0, int(models.SenseGreater | models.SenseEqual | models.FlagScriptPre), int(models.SenseLess | models.SenseEqual | models.FlagRpmlib)},
		tagRequireVersion:  []string{"", "3", "3.0.4-1"},
		tagObsoleteName:    []string{"bash-old"},
	}

	pkg, err := fromHeader(h)
	require.NoError(t, err)

	assert.Equal(t, "bash-1:5.2.15-2.fc39.x86_64", pkg.NEVRA())
	assert.Equal(t, int64(1690000000), pkg.BuildTime)
	assert.Equal(t, "The GNU Bourne Again shell", pkg.Summary)

	require.Len(t, pkg.Provides, 2)
	assert.Equal(t, models.SenseEqual, pkg.Provides[0].Flags.Sense())
	assert.Equal(t, "/bin/sh", pkg.Provides[1].Name)

	require.Len(t, pkg.Requires, 3)
	assert.Equal(t, "filesystem", pkg.Requires[1].Name)
	assert.Equal(t, models.SenseGreater|models.SenseEqual, pkg.Requires[1].Flags.Sense())
	assert.True(t, pkg.Requires[1].Flags&models.FlagScriptPre != 0)

	require.Len(t, pkg.Obsoletes, 1)
	assert.False(t, pkg.Obsoletes[0].Versioned())
	assert.Empty(t, pkg.Conflicts)
}

func TestFromHeaderMismatchedTable(t *testing.T) {
	h := fakeHeader{
		rpmutils.NAME:     "broken",
		tagRequireName:    []string{"a", "b"},
		tagRequireFlags:   []int{0},
		tagRequireVersion: []string{"", ""},
	}
	_, err := fromHeader(h)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "requires of broken"))

	_, err = fromHeader(fakeHeader{})
	assert.Error(t, err)
}

func TestZipDepsDropsSenseWithoutVersion(t *testing.T) {
	deps, err := zipDeps([]string{"a", " ", "b"}, []int64{int64(models.SenseEqual), 0, 0}, nil)
	require.NoError(t, err)
	require.Len(t, deps, 2)
	assert.Equal(t, models.DepFlags(0), deps[0].Flags)
	assert.Equal(t, "b", deps[1].Name)
}

func TestFileMode(t *testing.T) {
	tests := []struct {
		mode int
		want fs.FileMode
	}{
		{0100644, 0644},
		{0040755, fs.ModeDir | 0755},
		{0120777, fs.ModeSymlink | 0777},
		{0104755, fs.ModeSetuid | 0755},
		{0010600, fs.ModeNamedPipe | 0600},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileMode(tt.mode), "mode %o", tt.mode)
	}
}

func TestParsePackageMissingFile(t *testing.T) {
	_, err := ParsePackage(filepath.Join(t.TempDir(), "missing.rpm"))
	var txnErr *models.TxnError
	require.ErrorAs(t, err, &txnErr)
	assert.Equal(t, models.ErrFileOp, txnErr.Type)
}
