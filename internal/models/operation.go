package models

// OpKind is the kind of change applied to a package
type OpKind int

const (
	OpInstall OpKind = iota
	OpUpdate
	OpErase
)

// String returns the string representation of OpKind
func (k OpKind) String() string {
	switch k {
	case OpInstall:
		return "install"
	case OpUpdate:
		return "update"
	case OpErase:
		return "erase"
	default:
		return "unknown"
	}
}

// Operation is one step of an ordered transaction
type Operation struct {
	Kind    OpKind
	Package *Package

	// ReplacedBy is set on implicit erases caused by an update or an
	// obsoletes entry of another package in the same transaction.
	ReplacedBy *Package
}

func (o Operation) String() string {
	return o.Kind.String() + " " + o.Package.NEVRA()
}
