package models

import (
	"fmt"
	"io/fs"
)

// FileInfo describes one file owned by a package. Only the fields needed for
// file conflict checks are kept.
type FileInfo struct {
	Path   string
	Mode   fs.FileMode
	Size   int64
	Digest string
	LinkTo string
}

// IsDir reports whether the entry is a directory
func (f FileInfo) IsDir() bool {
	return f.Mode.IsDir()
}

// IsSymlink reports whether the entry is a symbolic link
func (f FileInfo) IsSymlink() bool {
	return f.Mode&fs.ModeSymlink != 0
}

// Package represents a fully parsed package record. Packages are treated as
// immutable once handed to a transaction.
type Package struct {
	// Identity
	Name    string
	Epoch   string
	Version string
	Release string
	Arch    string

	// Capability relationships
	Provides  []Dependency
	Requires  []Dependency
	Conflicts []Dependency
	Obsoletes []Dependency
	Triggers  []Dependency

	Files     []FileInfo
	Installed bool

	// File information
	Filename  string
	Summary   string
	License   string
	Size      int64
	SHA256Sum string
	BuildTime int64
}

// EVR returns the [epoch:]version[-release] string of the package
func (p *Package) EVR() string {
	evr := p.Version
	if p.Epoch != "" && p.Epoch != "0" {
		evr = p.Epoch + ":" + evr
	}
	if p.Release != "" {
		evr += "-" + p.Release
	}
	return evr
}

// NEVR returns name-[epoch:]version-release
func (p *Package) NEVR() string {
	return fmt.Sprintf("%s-%s", p.Name, p.EVR())
}

// NEVRA returns the full identity of the package
func (p *Package) NEVRA() string {
	if p.Arch == "" {
		return p.NEVR()
	}
	return fmt.Sprintf("%s.%s", p.NEVR(), p.Arch)
}

func (p *Package) String() string {
	return p.NEVRA()
}

// Deps returns the dependency entries of the given kind
func (p *Package) Deps(kind DepKind) []Dependency {
	switch kind {
	case DepProvides:
		return p.Provides
	case DepRequires:
		return p.Requires
	case DepConflicts:
		return p.Conflicts
	case DepObsoletes:
		return p.Obsoletes
	case DepTriggers:
		return p.Triggers
	}
	return nil
}

// AddDep appends a dependency entry of the given kind
func (p *Package) AddDep(kind DepKind, dep Dependency) error {
	switch kind {
	case DepProvides:
		p.Provides = append(p.Provides, dep)
	case DepRequires:
		p.Requires = append(p.Requires, dep)
	case DepConflicts:
		p.Conflicts = append(p.Conflicts, dep)
	case DepObsoletes:
		p.Obsoletes = append(p.Obsoletes, dep)
	case DepTriggers:
		p.Triggers = append(p.Triggers, dep)
	default:
		return fmt.Errorf("%w %d", ErrUnknownDepKind, kind)
	}
	return nil
}
