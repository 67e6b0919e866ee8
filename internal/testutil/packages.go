// Package testutil builds package records for tests.
package testutil

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/ralt/rpmorder/internal/evr"
	"github.com/ralt/rpmorder/internal/models"
)

// Pkg builds a package from "name", an [epoch:]version[-release] and an arch
func Pkg(name, evrString, arch string) *models.Package {
	e, v, r := evr.Split(evrString)
	if !strings.Contains(evrString, ":") {
		e = ""
	}
	return &models.Package{Name: name, Epoch: e, Version: v, Release: r, Arch: arch}
}

// Installed marks pkg as part of the installed set
func Installed(pkg *models.Package) *models.Package {
	pkg.Installed = true
	return pkg
}

// Dep parses a dependency string, failing the test on error
func Dep(t testing.TB, s string) models.Dependency {
	t.Helper()
	dep, err := models.ParseDependency(s)
	if err != nil {
		t.Fatalf("bad dependency %q: %v", s, err)
	}
	return dep
}

// With appends dependency entries of kind to pkg
func With(t testing.TB, pkg *models.Package, kind models.DepKind, deps ...string) *models.Package {
	t.Helper()
	for _, s := range deps {
		if err := pkg.AddDep(kind, Dep(t, s)); err != nil {
			t.Fatal(err)
		}
	}
	return pkg
}

// File adds a regular file entry to pkg
func File(pkg *models.Package, path string, size int64, digest string) *models.Package {
	pkg.Files = append(pkg.Files, models.FileInfo{Path: path, Mode: 0644, Size: size, Digest: digest})
	return pkg
}

// Dir adds a directory entry to pkg
func Dir(pkg *models.Package, path string) *models.Package {
	pkg.Files = append(pkg.Files, models.FileInfo{Path: path, Mode: fs.ModeDir | 0755})
	return pkg
}

// Names returns the NEVRAs of pkgs
func Names(pkgs []*models.Package) []string {
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.NEVRA()
	}
	return names
}
