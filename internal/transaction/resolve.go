package transaction

import (
	"slices"

	"github.com/ralt/rpmorder/internal/depindex"
	"github.com/ralt/rpmorder/internal/evr"
	"github.com/ralt/rpmorder/internal/models"
)

// Resolve validates the transaction: it cascades obsoletes, then checks
// requirements, conflicts and file conflicts, stopping at the first stage
// that finds problems. Every problem of that stage is reported in a
// *ResolveError. A resolved set can no longer be modified.
func (s *Set) Resolve() error {
	switch s.state {
	case StateResolved, StateOrdered:
		return nil
	case StateResolving:
		return &models.TxnError{Type: models.ErrTransaction, Err: ErrSealed}
	}
	s.state = StateResolving
	s.resolutions = nil
	s.lastError = nil

	s.log.Infof("Resolving transaction with %d operations", len(s.order))
	snap := s.snapshot()

	stages := []struct {
		stage Stage
		run   func(*ResolveError)
	}{
		{StageObsoletes, s.cascadeObsoletes},
		{StageDependencies, s.checkDependencies},
		{StageConflicts, s.checkConflicts},
		{StageFileConflicts, s.checkFileConflicts},
	}
	for _, st := range stages {
		problems := &ResolveError{Stage: st.stage}
		st.run(problems)
		if problems.Len() > 0 {
			s.restore(snap)
			s.state = StateFailed
			s.lastError = problems
			s.resolutions = nil
			s.log.Warnf("Transaction failed %s check with %d problem(s)", st.stage, problems.Len())
			return problems
		}
		s.log.Debugf("Stage %s passed", st.stage)
	}

	s.state = StateResolved
	s.log.Infof("Transaction resolved: %d operations", len(s.order))
	return nil
}

// setSnapshot is the editable part of a Set as it was before Resolve
type setSnapshot struct {
	order      []*operation
	replacedBy map[*operation]*models.Package
	index      *depindex.Index
}

func (s *Set) snapshot() setSnapshot {
	snap := setSnapshot{
		order:      slices.Clone(s.order),
		replacedBy: make(map[*operation]*models.Package, len(s.order)),
		index:      s.index.Clone(),
	}
	for _, op := range s.order {
		snap.replacedBy[op] = op.replacedBy
	}
	return snap
}

// restore undoes what a failed Resolve did to the operations and index
func (s *Set) restore(snap setSnapshot) {
	s.order = snap.order
	s.ops = make(map[string]*operation, len(snap.order))
	for _, op := range snap.order {
		op.replacedBy = snap.replacedBy[op]
		s.ops[op.pkg.NEVRA()] = op
	}
	s.index = snap.index
}

type obsoleteScan struct {
	pkg   *models.Package
	owner *models.Package
}

// cascadeObsoletes turns every installed package obsoleted by a pending one
// into an erase tied to it, and drops pending installs obsoleted by another
// pending package. A dropped package's own obsoletes are inherited by the
// package that dropped it, so chains are followed to the end.
func (s *Set) cascadeObsoletes(problems *ResolveError) {
	var queue []obsoleteScan
	for _, pkg := range s.Pending() {
		queue = append(queue, obsoleteScan{pkg: pkg, owner: pkg})
	}
	seen := make(map[*models.Package]bool)

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		owner, ok := s.ops[item.owner.NEVRA()]
		if !ok || owner.pkg != item.owner || seen[item.pkg] {
			continue
		}
		seen[item.pkg] = true

		for _, dep := range item.pkg.Obsoletes {
			for _, match := range s.index.ResolveDep(dep, "") {
				if match == item.pkg || match == item.owner || match.Name != dep.Name || match.Name == item.owner.Name {
					continue
				}
				if s.cfg.IsProtected(match.Name) {
					problems.ObsoleteFailures = append(problems.ObsoleteFailures, ObsoleteFailure{
						Package: item.owner, Dep: dep, Other: match, Reason: "package is protected",
					})
					continue
				}

				if s.isInstalled(match) {
					s.eraseFor(match, item.owner)
					continue
				}

				op, pending := s.ops[match.NEVRA()]
				if !pending || op.pkg != match {
					continue
				}
				s.log.Infof("%s obsoletes pending %s, dropping it", item.owner, match)
				s.unlink(op)
				s.index.Remove(match)
				for _, r := range s.replacedBy(match) {
					r.replacedBy = item.owner
				}
				seen[match] = false
				queue = append(queue, obsoleteScan{pkg: match, owner: item.owner})
			}
		}
	}
}

// checkDependencies resolves every requirement of the pending packages,
// preferring providers inside the transaction, and re-checks requirements
// of installed packages that relied on something being erased.
func (s *Set) checkDependencies(problems *ResolveError) {
	pending := depindex.New(s.cfg)
	for _, pkg := range s.Pending() {
		pending.Add(pkg)
	}

	for _, pkg := range s.Pending() {
		for _, dep := range pkg.Requires {
			if s.cfg.IsPseudoRequire(dep) {
				continue
			}
			providers := pending.ResolveDep(dep, s.cfg.Arch)
			if len(providers) == 0 {
				providers = s.index.ResolveDep(dep, s.cfg.Arch)
			}
			if len(providers) == 0 {
				problems.Unresolved = append(problems.Unresolved, UnresolvedDependency{Package: pkg, Dep: dep})
				continue
			}
			s.resolutions = append(s.resolutions, Resolution{Package: pkg, Dep: dep, Providers: providers})
		}
	}

	leaving := make(map[string]bool)
	for _, op := range s.order {
		if op.kind != models.OpErase {
			continue
		}
		leaving[op.pkg.Name] = true
		for _, dep := range op.pkg.Provides {
			leaving[dep.Name] = true
		}
		for _, f := range op.pkg.Files {
			leaving[f.Path] = true
		}
	}
	if len(leaving) == 0 {
		return
	}
	for _, inst := range s.system {
		if op, ok := s.ops[inst.NEVRA()]; ok && op.kind == models.OpErase {
			continue
		}
		for _, dep := range inst.Requires {
			if !leaving[dep.Name] || s.cfg.IsPseudoRequire(dep) {
				continue
			}
			if len(s.index.ResolveDep(dep, s.cfg.Arch)) == 0 {
				problems.Unresolved = append(problems.Unresolved, UnresolvedDependency{Package: inst, Dep: dep})
			}
		}
	}
}

// checkConflicts matches the conflicts and obsoletes of pending packages
// against the working set, and the conflicts of installed packages against
// what the pending packages provide.
func (s *Set) checkConflicts(problems *ResolveError) {
	type key struct {
		pkg, other *models.Package
		dep        models.Dependency
	}
	seen := make(map[key]bool)
	record := func(pkg *models.Package, dep models.Dependency, other *models.Package) {
		k := key{pkg, other, dep}
		if seen[k] {
			return
		}
		seen[k] = true
		problems.Conflicts = append(problems.Conflicts, Conflict{Package: pkg, Dep: dep, Other: other})
	}

	for _, pkg := range s.Pending() {
		for _, dep := range pkg.Conflicts {
			for _, other := range s.index.ResolveDep(dep, "") {
				if other != pkg && other.NEVR() != pkg.NEVR() {
					record(pkg, dep, other)
				}
			}
		}
		for _, dep := range pkg.Obsoletes {
			for _, other := range s.index.ResolveDep(dep, "") {
				if other != pkg && other.Name == dep.Name && other.NEVR() != pkg.NEVR() {
					record(pkg, dep, other)
				}
			}
		}

		provides := append([]models.Dependency{{Name: pkg.Name, Flags: models.SenseEqual, Version: pkg.EVR()}}, pkg.Provides...)
		for _, prov := range provides {
			for _, e := range s.index.Conflicts(prov.Name) {
				if e.Pkg == pkg || e.Pkg.NEVR() == pkg.NEVR() {
					continue
				}
				if _, pending := s.Kind(e.Pkg); pending {
					continue
				}
				if evr.Overlaps(e.Flags, e.Version, prov.Flags, prov.Version) {
					record(e.Pkg, models.Dependency{Name: prov.Name, Flags: e.Flags, Version: e.Version}, pkg)
				}
			}
		}
	}
}

// checkFileConflicts compares every path shared by two packages of which at
// least one is pending. Directories and symlinks never conflict with their
// own kind, and multilib siblings may share differing files.
func (s *Set) checkFileConflicts(problems *ResolveError) {
	if s.cfg.SkipFileConflicts {
		return
	}
	files := make(map[*models.Package]map[string]models.FileInfo)
	lookup := func(pkg *models.Package, path string) models.FileInfo {
		m, ok := files[pkg]
		if !ok {
			m = make(map[string]models.FileInfo, len(pkg.Files))
			for _, f := range pkg.Files {
				m[f.Path] = f
			}
			files[pkg] = m
		}
		return m[path]
	}

	for _, path := range s.index.SharedFiles() {
		owners := s.index.FileOwners(path)
		for i := 0; i < len(owners); i++ {
			for j := i + 1; j < len(owners); j++ {
				a, b := owners[i], owners[j]
				_, aPending := s.Kind(a)
				_, bPending := s.Kind(b)
				if !aPending && !bPending {
					continue
				}
				if !aPending {
					a, b = b, a
				}
				fa, fb := lookup(a, path), lookup(b, path)
				if (fa.IsDir() && fb.IsDir()) || (fa.IsSymlink() && fb.IsSymlink()) {
					continue
				}
				if fa.Mode == fb.Mode && fa.Size == fb.Size && fa.Digest == fb.Digest {
					continue
				}
				if a.NEVR() == b.NEVR() && s.cfg.Multilib(a.Arch, b.Arch) {
					continue
				}
				problems.FileConflicts = append(problems.FileConflicts, FileConflict{Package: a, Path: path, Other: b})
			}
		}
	}
}
