// Package transaction accumulates install, update and erase operations and
// validates the system state they produce.
package transaction

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ralt/rpmorder/internal/config"
	"github.com/ralt/rpmorder/internal/depindex"
	"github.com/ralt/rpmorder/internal/evr"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of a transaction set
type State int

const (
	StateBuilding State = iota
	StateResolving
	StateResolved
	StateFailed
	StateOrdered
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateResolving:
		return "resolving"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	case StateOrdered:
		return "ordered"
	default:
		return "unknown"
	}
}

// Resolution records which packages satisfied a requirement
type Resolution struct {
	Package   *models.Package
	Dep       models.Dependency
	Providers []*models.Package
}

type operation struct {
	kind       models.OpKind
	pkg        *models.Package
	replacedBy *models.Package
	explicit   bool
}

// Set is a transaction set: the installed packages plus the pending
// operations against them. The working set indexed by a Set is what the
// system will contain once the transaction is applied.
type Set struct {
	id    string
	cfg   *config.Config
	log   *logrus.Entry
	state State

	index     *depindex.Index
	installed map[string]*models.Package
	byName    map[string][]*models.Package
	system    []*models.Package
	ops       map[string]*operation
	order     []*operation

	resolutions []Resolution
	lastError   *ResolveError
}

// New creates a transaction set over the given installed packages
func New(cfg *config.Config, installed []*models.Package) *Set {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	id := uuid.NewString()
	s := &Set{
		id:        id,
		cfg:       cfg,
		log:       cfg.Log().WithField("txn", id),
		index:     depindex.New(cfg),
		installed: make(map[string]*models.Package, len(installed)),
		byName:    make(map[string][]*models.Package),
		ops:       make(map[string]*operation),
	}
	for _, pkg := range installed {
		key := pkg.NEVRA()
		if _, dup := s.installed[key]; dup {
			s.log.Warnf("Duplicate installed package %s ignored", key)
			continue
		}
		s.installed[key] = pkg
		s.byName[pkg.Name] = append(s.byName[pkg.Name], pkg)
		s.system = append(s.system, pkg)
		s.index.Add(pkg)
	}
	s.log.Debugf("Transaction created with %d installed packages", len(s.installed))
	return s
}

// ID returns the transaction's identifier
func (s *Set) ID() string {
	return s.id
}

// Config returns the configuration the set was created with
func (s *Set) Config() *config.Config {
	return s.cfg
}

// State returns the lifecycle state
func (s *Set) State() State {
	return s.state
}

func (s *Set) sealed() bool {
	return s.state == StateResolved || s.state == StateResolving || s.state == StateOrdered
}

// MarkOrdered records that the resolved set was handed to an orderer. A set
// is ordered at most once.
func (s *Set) MarkOrdered() error {
	switch s.state {
	case StateResolved:
		s.state = StateOrdered
		return nil
	case StateOrdered:
		return &models.TxnError{Type: models.ErrTransaction, Err: ErrAlreadyOrdered}
	default:
		return &models.TxnError{Type: models.ErrTransaction, Err: fmt.Errorf("cannot order a %s transaction", s.state)}
	}
}

// Len returns the number of pending operations
func (s *Set) Len() int {
	return len(s.order)
}

// LastError returns the problems of the last failed Resolve
func (s *Set) LastError() *ResolveError {
	return s.lastError
}

func (s *Set) isInstalled(pkg *models.Package) bool {
	return s.installed[pkg.NEVRA()] == pkg
}

func txnError(pkg *models.Package, err error) error {
	return &models.TxnError{Type: models.ErrTransaction, Package: pkg.NEVRA(), Err: err}
}

// Append adds an operation for pkg. Erase operations must name an installed
// package; updates replace installed packages of the same name and arch.
func (s *Set) Append(kind models.OpKind, pkg *models.Package) error {
	if s.sealed() {
		return txnError(pkg, ErrSealed)
	}
	s.state = StateBuilding

	key := pkg.NEVRA()
	if existing, ok := s.ops[key]; ok {
		if existing.kind == kind {
			return txnError(pkg, ErrAlreadyAdded)
		}
		return txnError(pkg, ErrOperationConflict)
	}

	switch kind {
	case models.OpInstall:
		if _, ok := s.installed[key]; ok {
			return txnError(pkg, ErrAlreadyInstalled)
		}
		s.push(&operation{kind: kind, pkg: pkg, explicit: true})
		s.index.Add(pkg)

	case models.OpUpdate:
		if _, ok := s.installed[key]; ok {
			return txnError(pkg, ErrAlreadyInstalled)
		}
		var replaced []*models.Package
		for _, inst := range s.byName[pkg.Name] {
			if !s.replaceableArch(inst.Arch, pkg.Arch) {
				continue
			}
			if _, pending := s.ops[inst.NEVRA()]; pending {
				continue
			}
			if evr.Compare(inst.EVR(), pkg.EVR()) > 0 {
				return txnError(pkg, ErrOldPackage)
			}
			replaced = append(replaced, inst)
		}
		s.push(&operation{kind: kind, pkg: pkg, explicit: true})
		s.index.Add(pkg)
		for _, inst := range replaced {
			s.eraseFor(inst, pkg)
		}

	case models.OpErase:
		inst, ok := s.installed[key]
		if !ok {
			return txnError(pkg, ErrNotInstalled)
		}
		s.push(&operation{kind: kind, pkg: inst, explicit: true})
		s.index.Remove(inst)

	default:
		return txnError(pkg, fmt.Errorf("unknown operation kind %d", kind))
	}

	s.log.WithField("op", kind).Debugf("Appended %s", key)
	return nil
}

// Remove withdraws an explicitly appended operation, restoring any
// installed packages it was replacing.
func (s *Set) Remove(pkg *models.Package) error {
	if s.sealed() {
		return txnError(pkg, ErrSealed)
	}
	s.state = StateBuilding

	op, ok := s.ops[pkg.NEVRA()]
	if !ok || !op.explicit {
		return txnError(pkg, ErrNotInTransaction)
	}
	s.unlink(op)
	if op.kind == models.OpErase {
		s.index.Add(op.pkg)
		return nil
	}
	s.index.Remove(op.pkg)
	for _, r := range s.replacedBy(op.pkg) {
		s.unlink(r)
		s.index.Add(r.pkg)
	}
	return nil
}

func (s *Set) push(op *operation) {
	s.ops[op.pkg.NEVRA()] = op
	s.order = append(s.order, op)
}

func (s *Set) unlink(op *operation) {
	delete(s.ops, op.pkg.NEVRA())
	for i, o := range s.order {
		if o == op {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// eraseFor turns an installed package into an implicit erase tied to by
func (s *Set) eraseFor(inst, by *models.Package) {
	s.push(&operation{kind: models.OpErase, pkg: inst, replacedBy: by})
	s.index.Remove(inst)
	s.log.Debugf("%s replaces %s", by, inst)
}

func (s *Set) replacedBy(pkg *models.Package) []*operation {
	var ops []*operation
	for _, op := range s.order {
		if op.replacedBy == pkg {
			ops = append(ops, op)
		}
	}
	return ops
}

// replaceableArch reports whether a package of arch b updates one of arch a
func (s *Set) replaceableArch(a, b string) bool {
	return a == config.NoArch || b == config.NoArch || s.cfg.SameArch(a, b)
}

// Operations returns the pending operations in append order, implicit
// erases included
func (s *Set) Operations() []models.Operation {
	ops := make([]models.Operation, 0, len(s.order))
	for _, op := range s.order {
		ops = append(ops, models.Operation{Kind: op.kind, Package: op.pkg, ReplacedBy: op.replacedBy})
	}
	return ops
}

// Pending returns the packages being installed or updated, in append order
func (s *Set) Pending() []*models.Package {
	var pkgs []*models.Package
	for _, op := range s.order {
		if op.kind != models.OpErase {
			pkgs = append(pkgs, op.pkg)
		}
	}
	return pkgs
}

// Erased returns the explicitly erased packages, in append order
func (s *Set) Erased() []*models.Package {
	var pkgs []*models.Package
	for _, op := range s.order {
		if op.kind == models.OpErase && op.replacedBy == nil {
			pkgs = append(pkgs, op.pkg)
		}
	}
	return pkgs
}

// Replaces returns the installed packages pkg erases through an update or
// an obsoletes entry
func (s *Set) Replaces(pkg *models.Package) []*models.Package {
	var pkgs []*models.Package
	for _, op := range s.replacedBy(pkg) {
		pkgs = append(pkgs, op.pkg)
	}
	return pkgs
}

// Kind returns the operation pending for pkg
func (s *Set) Kind(pkg *models.Package) (models.OpKind, bool) {
	op, ok := s.ops[pkg.NEVRA()]
	if !ok || op.pkg != pkg {
		return 0, false
	}
	return op.kind, true
}

// Resolutions returns the requirement resolutions recorded by the last
// successful Resolve
func (s *Set) Resolutions() []Resolution {
	return s.resolutions
}
