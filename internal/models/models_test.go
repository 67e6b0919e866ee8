package models

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependency(t *testing.T) {
	tests := []struct {
		in      string
		want    Dependency
		wantErr bool
	}{
		{in: "bash", want: Dependency{Name: "bash"}},
		{in: "glibc >= 2.38", want: Dependency{Name: "glibc", Flags: SenseGreater | SenseEqual, Version: "2.38"}},
		{in: "foo LT 1:2-3", want: Dependency{Name: "foo", Flags: SenseLess, Version: "1:2-3"}},
		{in: "foo ~> 1", wantErr: true},
		{in: "foo >=", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDependency(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDependencyString(t *testing.T) {
	assert.Equal(t, "glibc >= 2.38", Dependency{Name: "glibc", Flags: SenseGreater | SenseEqual, Version: "2.38"}.String())
	assert.Equal(t, "glibc", Dependency{Name: "glibc", Flags: SenseEqual}.String())
	assert.True(t, Dependency{Name: "/bin/sh"}.IsFile())
	assert.False(t, Dependency{Name: "sh", Version: "1"}.Versioned())
}

func TestScriptletOnly(t *testing.T) {
	assert.False(t, DepFlags(0).ScriptletOnly())
	assert.True(t, (FlagScriptPost | FlagScriptPostun).ScriptletOnly())
	assert.False(t, (FlagScriptPost | FlagScriptPre).ScriptletOnly())
	assert.False(t, (FlagScriptPreun | FlagPrereq).ScriptletOnly())
	assert.False(t, (FlagScriptPost | FlagInterp).ScriptletOnly())
}

func TestPackageIdentity(t *testing.T) {
	p := &Package{Name: "bash", Epoch: "0", Version: "5.2", Release: "1", Arch: "x86_64"}
	assert.Equal(t, "5.2-1", p.EVR())
	assert.Equal(t, "bash-5.2-1.x86_64", p.NEVRA())

	p.Epoch = "2"
	assert.Equal(t, "bash-2:5.2-1", p.NEVR())

	p.Arch = ""
	assert.Equal(t, "bash-2:5.2-1", p.NEVRA())
}

func TestDepKinds(t *testing.T) {
	p := &Package{Name: "x"}
	for _, kind := range DepKinds {
		require.NoError(t, p.AddDep(kind, Dependency{Name: kind.String()}))
		assert.Equal(t, []Dependency{{Name: kind.String()}}, p.Deps(kind))

		parsed, err := ParseDepKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}

	_, err := ParseDepKind("suggests")
	assert.ErrorIs(t, err, ErrUnknownDepKind)
	assert.ErrorIs(t, p.AddDep(DepKind(42), Dependency{Name: "y"}), ErrUnknownDepKind)
	assert.Nil(t, p.Deps(DepKind(42)))
}

func TestFileKinds(t *testing.T) {
	p := &Package{Files: []FileInfo{
		{Path: "/usr/bin", Mode: fs.ModeDir | 0755},
		{Path: "/usr/bin/sh", Mode: fs.ModeSymlink | 0777, LinkTo: "bash"},
	}}
	assert.True(t, p.Files[0].IsDir())
	assert.True(t, p.Files[1].IsSymlink())
}

func TestTxnError(t *testing.T) {
	inner := errors.New("boom")
	err := &TxnError{Type: ErrResolve, Package: "a-1-1.noarch", Err: inner}
	assert.Equal(t, "[Resolve] a-1-1.noarch: boom", err.Error())
	assert.ErrorIs(t, err, inner)

	assert.Equal(t, "[Order] boom", (&TxnError{Type: ErrOrder, Err: inner}).Error())
	assert.Equal(t, "install a-1-1.noarch", Operation{Kind: OpInstall, Package: &Package{Name: "a", Version: "1", Release: "1", Arch: "noarch"}}.String())
}
