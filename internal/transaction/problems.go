package transaction

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ralt/rpmorder/internal/models"
)

var (
	ErrAlreadyAdded      = errors.New("package already added")
	ErrOperationConflict = errors.New("package already added with a different operation")
	ErrAlreadyInstalled  = errors.New("package already installed")
	ErrOldPackage        = errors.New("a newer version is already installed")
	ErrNotInstalled      = errors.New("package is not installed")
	ErrNotInTransaction  = errors.New("package is not part of the transaction")
	ErrSealed            = errors.New("transaction is already resolved")
	ErrAlreadyOrdered    = errors.New("transaction was already ordered")
)

// Stage identifies a resolve step
type Stage int

const (
	StageObsoletes Stage = iota
	StageDependencies
	StageConflicts
	StageFileConflicts
)

// String returns the string representation of Stage
func (s Stage) String() string {
	switch s {
	case StageObsoletes:
		return "obsoletes"
	case StageDependencies:
		return "dependencies"
	case StageConflicts:
		return "conflicts"
	case StageFileConflicts:
		return "file conflicts"
	default:
		return "unknown"
	}
}

// UnresolvedDependency is a requirement nothing in the resulting system provides
type UnresolvedDependency struct {
	Package *models.Package
	Dep     models.Dependency
}

func (u UnresolvedDependency) String() string {
	return fmt.Sprintf("%s requires %s", u.Package, u.Dep)
}

// Conflict is a conflicts or obsoletes entry matching another package that
// stays in the resulting system
type Conflict struct {
	Package *models.Package
	Dep     models.Dependency
	Other   *models.Package
}

func (c Conflict) String() string {
	return fmt.Sprintf("%s conflicts with %s (%s)", c.Package, c.Other, c.Dep)
}

// FileConflict is a path two packages install with different contents
type FileConflict struct {
	Package *models.Package
	Path    string
	Other   *models.Package
}

func (f FileConflict) String() string {
	return fmt.Sprintf("file %s from %s conflicts with %s", f.Path, f.Package, f.Other)
}

// ObsoleteFailure is an obsoletes entry that could not be turned into an erase
type ObsoleteFailure struct {
	Package *models.Package
	Dep     models.Dependency
	Other   *models.Package
	Reason  string
}

func (o ObsoleteFailure) String() string {
	return fmt.Sprintf("%s obsoletes %s (%s): %s", o.Package, o.Other, o.Dep, o.Reason)
}

// ResolveError reports every problem found by the first failing stage
type ResolveError struct {
	Stage            Stage
	Unresolved       []UnresolvedDependency
	Conflicts        []Conflict
	FileConflicts    []FileConflict
	ObsoleteFailures []ObsoleteFailure
}

// Len returns the number of problems recorded
func (e *ResolveError) Len() int {
	return len(e.Unresolved) + len(e.Conflicts) + len(e.FileConflicts) + len(e.ObsoleteFailures)
}

// Problems returns one line per problem
func (e *ResolveError) Problems() []string {
	var lines []string
	for _, o := range e.ObsoleteFailures {
		lines = append(lines, o.String())
	}
	for _, u := range e.Unresolved {
		lines = append(lines, u.String())
	}
	for _, c := range e.Conflicts {
		lines = append(lines, c.String())
	}
	for _, f := range e.FileConflicts {
		lines = append(lines, f.String())
	}
	return lines
}

// Error implements the error interface
func (e *ResolveError) Error() string {
	return fmt.Sprintf("%s check failed with %d problem(s): %s", e.Stage, e.Len(), strings.Join(e.Problems(), "; "))
}
