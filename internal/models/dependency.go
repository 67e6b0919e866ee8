package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownDepKind rejects dependency kinds outside DepKinds
var ErrUnknownDepKind = errors.New("unknown dependency kind")

// DepKind tags the relationship a Dependency entry declares
type DepKind int

const (
	DepProvides DepKind = iota
	DepRequires
	DepConflicts
	DepObsoletes
	DepTriggers
)

// DepKinds lists every known dependency kind in declaration order
var DepKinds = []DepKind{DepProvides, DepRequires, DepConflicts, DepObsoletes, DepTriggers}

// String returns the string representation of DepKind
func (k DepKind) String() string {
	switch k {
	case DepProvides:
		return "provides"
	case DepRequires:
		return "requires"
	case DepConflicts:
		return "conflicts"
	case DepObsoletes:
		return "obsoletes"
	case DepTriggers:
		return "triggers"
	default:
		return "unknown"
	}
}

// ParseDepKind maps a tag name to its DepKind. Unknown tags are rejected.
func ParseDepKind(s string) (DepKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "provides", "provide":
		return DepProvides, nil
	case "requires", "require":
		return DepRequires, nil
	case "conflicts", "conflict":
		return DepConflicts, nil
	case "obsoletes", "obsolete":
		return DepObsoletes, nil
	case "triggers", "trigger":
		return DepTriggers, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownDepKind, s)
}

// DepFlags holds the sense bits of a dependency plus rpm phase markers.
// Bit values match the RPMSENSE_* constants.
type DepFlags uint32

const (
	SenseLess    DepFlags = 1 << 1
	SenseGreater DepFlags = 1 << 2
	SenseEqual   DepFlags = 1 << 3
	SenseMask             = SenseLess | SenseGreater | SenseEqual

	FlagPrereq       DepFlags = 1 << 6
	FlagInterp       DepFlags = 1 << 8
	FlagScriptPre    DepFlags = 1 << 9
	FlagScriptPost   DepFlags = 1 << 10
	FlagScriptPreun  DepFlags = 1 << 11
	FlagScriptPostun DepFlags = 1 << 12
	FlagRpmlib       DepFlags = 1 << 24
)

// Sense returns only the LESS/GREATER/EQUAL bits
func (f DepFlags) Sense() DepFlags {
	return f & SenseMask
}

// ScriptletOnly reports whether the flags mark a requirement needed only by
// post-install or erase scriptlets, which does not gate unpacking.
func (f DepFlags) ScriptletOnly() bool {
	if f&(FlagPrereq|FlagInterp|FlagScriptPre) != 0 {
		return false
	}
	return f&(FlagScriptPost|FlagScriptPreun|FlagScriptPostun) != 0
}

// Operator renders the sense bits as a comparison operator
func (f DepFlags) Operator() string {
	switch f.Sense() {
	case SenseLess:
		return "<"
	case SenseLess | SenseEqual:
		return "<="
	case SenseEqual:
		return "="
	case SenseGreater | SenseEqual:
		return ">="
	case SenseGreater:
		return ">"
	case SenseLess | SenseGreater:
		return "!="
	default:
		return ""
	}
}

// ParseSense parses a comparison operator, accepting both symbolic and
// rpm-md ("GE", "LT", ...) spellings. An empty string means unversioned.
func ParseSense(op string) (DepFlags, error) {
	switch strings.ToUpper(strings.TrimSpace(op)) {
	case "":
		return 0, nil
	case "<", "LT":
		return SenseLess, nil
	case "<=", "=<", "LE":
		return SenseLess | SenseEqual, nil
	case "=", "==", "EQ":
		return SenseEqual, nil
	case ">=", "=>", "GE":
		return SenseGreater | SenseEqual, nil
	case ">", "GT":
		return SenseGreater, nil
	}
	return 0, fmt.Errorf("unknown comparison operator %q", op)
}

// Dependency is one (capability, sense, version) entry of a package
type Dependency struct {
	Name    string
	Flags   DepFlags
	Version string
}

// IsFile reports whether the dependency names a path rather than a capability
func (d Dependency) IsFile() bool {
	return strings.HasPrefix(d.Name, "/")
}

// Versioned reports whether the dependency restricts the version
func (d Dependency) Versioned() bool {
	return d.Version != "" && d.Flags.Sense() != 0
}

func (d Dependency) String() string {
	if d.Version == "" || d.Flags.Sense() == 0 {
		return d.Name
	}
	return fmt.Sprintf("%s %s %s", d.Name, d.Flags.Operator(), d.Version)
}

// ParseDependency parses "name", or "name OP version" with OP one of
// <, <=, =, >=, >.
func ParseDependency(s string) (Dependency, error) {
	fields := strings.Fields(s)
	switch len(fields) {
	case 1:
		return Dependency{Name: fields[0]}, nil
	case 3:
		flags, err := ParseSense(fields[1])
		if err != nil {
			return Dependency{}, err
		}
		return Dependency{Name: fields[0], Flags: flags, Version: fields[2]}, nil
	}
	return Dependency{}, fmt.Errorf("malformed dependency %q", s)
}
