package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DirScanner finds binary rpm files under a directory tree. Metadata
// directories are not descended into.
type DirScanner struct {
	log  *logrus.Entry
	skip map[string]bool
}

// NewDirScanner creates a scanner that ignores repodata directories
func NewDirScanner() *DirScanner {
	return &DirScanner{
		log:  logrus.WithField("component", "scanner"),
		skip: map[string]bool{"repodata": true},
	}
}

// Scan returns the binary rpms below dir in lexical path order. Source rpms
// and files that are not rpms are left out.
func (s *DirScanner) Scan(ctx context.Context, dir string) ([]ScannedPackage, error) {
	var found []ScannedPackage
	srpms := 0

	visit := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && s.skip[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}

		kind, err := DetectKind(path)
		if err != nil {
			s.log.WithError(err).Warnf("Cannot classify %s", path)
			return nil
		}
		if kind == KindSourceRpm {
			srpms++
			return nil
		}
		if kind != KindRpm {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		found = append(found, ScannedPackage{Path: path, Kind: kind, Size: info.Size()})
		return nil
	}

	if err := filepath.WalkDir(dir, visit); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	s.log.WithFields(logrus.Fields{"dir": dir, "srpms": srpms}).Infof("Found %d binary rpms", len(found))
	return found, nil
}

// DetectKind classifies a path
func (s *DirScanner) DetectKind(path string) (SourceKind, error) {
	return DetectKind(path)
}
