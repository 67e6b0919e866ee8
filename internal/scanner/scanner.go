package scanner

import "context"

// SourceKind says how a package source on disk is laid out
type SourceKind int

const (
	KindUnknown SourceKind = iota
	// KindRpm is a single binary rpm file
	KindRpm
	// KindSourceRpm is a .src.rpm, which never takes part in a transaction
	KindSourceRpm
	// KindPrimary is a standalone primary.xml, possibly compressed
	KindPrimary
	// KindRepo is a directory with repodata/repomd.xml
	KindRepo
	// KindDir is a plain directory searched for rpm files
	KindDir
)

// String returns the string representation of SourceKind
func (k SourceKind) String() string {
	switch k {
	case KindRpm:
		return "rpm"
	case KindSourceRpm:
		return "srpm"
	case KindPrimary:
		return "primary"
	case KindRepo:
		return "repo"
	case KindDir:
		return "dir"
	default:
		return "unknown"
	}
}

// ScannedPackage represents a package file found during scanning
type ScannedPackage struct {
	Path string
	Kind SourceKind
	Size int64
}

// Scanner finds package files
type Scanner interface {
	// Scan recursively scans a directory for binary rpm files
	Scan(ctx context.Context, dir string) ([]ScannedPackage, error)

	// DetectKind classifies a path
	DetectKind(path string) (SourceKind, error)
}
