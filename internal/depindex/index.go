// Package depindex maps capability names and file paths to the packages
// that provide, conflict with, obsolete or own them.
package depindex

import (
	"slices"
	"sort"

	"github.com/ralt/rpmorder/internal/config"
	"github.com/ralt/rpmorder/internal/evr"
	"github.com/ralt/rpmorder/internal/models"
)

// Entry is one indexed dependency together with the package declaring it
type Entry struct {
	Flags   models.DepFlags
	Version string
	Pkg     *models.Package
}

// Index holds the provides, conflicts, obsoletes and filename indices of a
// package set
type Index struct {
	cfg       *config.Config
	provides  map[string][]Entry
	conflicts map[string][]Entry
	obsoletes map[string][]Entry
	files     map[string][]*models.Package
	size      int
}

// New creates an empty index
func New(cfg *config.Config) *Index {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Index{
		cfg:       cfg,
		provides:  make(map[string][]Entry),
		conflicts: make(map[string][]Entry),
		obsoletes: make(map[string][]Entry),
		files:     make(map[string][]*models.Package),
	}
}

// Len returns the number of packages in the index
func (x *Index) Len() int {
	return x.size
}

// Clone returns an independent copy of the index. Packages are shared.
func (x *Index) Clone() *Index {
	c := &Index{
		cfg:       x.cfg,
		provides:  cloneEntries(x.provides),
		conflicts: cloneEntries(x.conflicts),
		obsoletes: cloneEntries(x.obsoletes),
		files:     make(map[string][]*models.Package, len(x.files)),
		size:      x.size,
	}
	for path, owners := range x.files {
		c.files[path] = slices.Clone(owners)
	}
	return c
}

func cloneEntries(m map[string][]Entry) map[string][]Entry {
	c := make(map[string][]Entry, len(m))
	for name, entries := range m {
		c[name] = slices.Clone(entries)
	}
	return c
}

// Add indexes every dependency and file of pkg. A package always provides
// its own name at its own EVR.
func (x *Index) Add(pkg *models.Package) {
	selfEVR := pkg.EVR()
	selfProvided := false
	for _, dep := range pkg.Provides {
		add(x.provides, dep, pkg)
		if dep.Name == pkg.Name && dep.Flags.Sense() == models.SenseEqual && evr.Compare(dep.Version, selfEVR) == 0 {
			selfProvided = true
		}
	}
	if !selfProvided {
		add(x.provides, models.Dependency{Name: pkg.Name, Flags: models.SenseEqual, Version: selfEVR}, pkg)
	}
	for _, dep := range pkg.Conflicts {
		add(x.conflicts, dep, pkg)
	}
	for _, dep := range pkg.Obsoletes {
		add(x.obsoletes, dep, pkg)
	}
	for _, f := range pkg.Files {
		x.files[f.Path] = append(x.files[f.Path], pkg)
	}
	x.size++
}

// Remove drops every entry belonging to pkg
func (x *Index) Remove(pkg *models.Package) {
	if !drop(x.provides, pkg.Name, pkg) {
		return
	}
	for _, dep := range pkg.Provides {
		drop(x.provides, dep.Name, pkg)
	}
	for _, dep := range pkg.Conflicts {
		drop(x.conflicts, dep.Name, pkg)
	}
	for _, dep := range pkg.Obsoletes {
		drop(x.obsoletes, dep.Name, pkg)
	}
	for _, f := range pkg.Files {
		owners := x.files[f.Path]
		kept := owners[:0]
		for _, o := range owners {
			if o != pkg {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			delete(x.files, f.Path)
		} else {
			x.files[f.Path] = kept
		}
	}
	x.size--
}

// drop removes pkg's entries under name and reports whether any existed
func drop(m map[string][]Entry, name string, pkg *models.Package) bool {
	entries, ok := m[name]
	if !ok {
		return false
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Pkg != pkg {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(m, name)
	} else {
		m[name] = kept
	}
	return len(kept) != len(entries)
}

func add(m map[string][]Entry, dep models.Dependency, pkg *models.Package) {
	m[dep.Name] = append(m[dep.Name], Entry{Flags: dep.Flags, Version: dep.Version, Pkg: pkg})
}

// Resolve returns the packages providing name within the given version
// range, in index order. Path names are also looked up in the file index.
// A non-empty arch drops providers that cannot run on it.
func (x *Index) Resolve(name string, flags models.DepFlags, version, arch string) []*models.Package {
	var result []*models.Package
	seen := make(map[*models.Package]bool)
	accept := func(pkg *models.Package) {
		if seen[pkg] {
			return
		}
		if arch != "" && !x.cfg.Compatible(arch, pkg.Arch) {
			return
		}
		seen[pkg] = true
		result = append(result, pkg)
	}

	for _, e := range x.provides[name] {
		if version == "" || evr.Overlaps(e.Flags, e.Version, flags, version) {
			accept(e.Pkg)
		}
	}
	if len(name) > 0 && name[0] == '/' {
		for _, pkg := range x.files[name] {
			accept(pkg)
		}
	}
	return result
}

// ResolveDep resolves a dependency entry
func (x *Index) ResolveDep(dep models.Dependency, arch string) []*models.Package {
	return x.Resolve(dep.Name, dep.Flags, dep.Version, arch)
}

// Conflicts returns the conflicts entries declared against name
func (x *Index) Conflicts(name string) []Entry {
	return x.conflicts[name]
}

// Obsoletes returns the obsoletes entries declared against name
func (x *Index) Obsoletes(name string) []Entry {
	return x.obsoletes[name]
}

// FileOwners returns the packages owning path
func (x *Index) FileOwners(path string) []*models.Package {
	return x.files[path]
}

// SharedFiles returns, sorted, every path owned by more than one package
func (x *Index) SharedFiles() []string {
	var paths []string
	for path, owners := range x.files {
		if len(owners) > 1 {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths
}
