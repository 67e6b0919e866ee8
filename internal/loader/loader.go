// Package loader turns package sources on disk into package records.
package loader

import (
	"context"
	"fmt"

	"github.com/ralt/rpmorder/internal/loader/repomd"
	"github.com/ralt/rpmorder/internal/loader/rpmfile"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/scanner"
	"github.com/ralt/rpmorder/internal/signer"
	"github.com/ralt/rpmorder/internal/utils"
	"github.com/sirupsen/logrus"
)

// Options controls how sources are read
type Options struct {
	// Verifier, when set, is required to accept repomd.xml signatures
	Verifier signer.Verifier
	// Installed marks every loaded package as part of the installed set
	Installed bool
}

// Load reads every package from path, which may be an rpm file, a
// primary.xml, an rpm-md repository or a directory of rpm files
func Load(ctx context.Context, path string, opts Options) ([]*models.Package, error) {
	kind, err := scanner.DetectKind(path)
	if err != nil {
		return nil, &models.TxnError{Type: models.ErrFileOp, Package: path, Err: err}
	}
	logrus.Debugf("Loading %s source %s", kind, path)

	var pkgs []*models.Package
	switch kind {
	case scanner.KindRpm:
		pkg, err := rpmfile.ParsePackage(path)
		if err != nil {
			return nil, err
		}
		pkgs = []*models.Package{pkg}

	case scanner.KindPrimary:
		pkgs, err = repomd.OpenPrimary(path)

	case scanner.KindRepo:
		pkgs, err = repomd.LoadRepo(path, opts.Verifier)

	case scanner.KindDir:
		pkgs, err = loadDir(ctx, path)

	default:
		err = &models.TxnError{Type: models.ErrMetadataLoad, Package: path, Err: fmt.Errorf("unsupported %s source", kind)}
	}
	if err != nil {
		return nil, err
	}

	pkgs, dups := utils.Dedupe(pkgs)
	for _, dup := range dups {
		logrus.Warnf("Ignoring duplicate package %s in %s", dup.NEVRA(), path)
	}

	for _, pkg := range pkgs {
		pkg.Installed = opts.Installed
	}
	return pkgs, nil
}

// LoadAll loads several sources into one list
func LoadAll(ctx context.Context, paths []string, opts Options) ([]*models.Package, error) {
	var all []*models.Package
	for _, path := range paths {
		pkgs, err := Load(ctx, path, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, pkgs...)
	}
	all, dups := utils.Dedupe(all)
	for _, dup := range dups {
		logrus.Warnf("Ignoring duplicate package %s", dup.NEVRA())
	}
	return all, nil
}

func loadDir(ctx context.Context, dir string) ([]*models.Package, error) {
	found, err := scanner.NewDirScanner().Scan(ctx, dir)
	if err != nil {
		return nil, &models.TxnError{Type: models.ErrFileOp, Package: dir, Err: err}
	}

	pkgs := make([]*models.Package, 0, len(found))
	for _, sp := range found {
		pkg, err := rpmfile.ParsePackage(sp.Path)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}
