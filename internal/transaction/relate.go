package transaction

import (
	"github.com/ralt/rpmorder/internal/config"
	"github.com/ralt/rpmorder/internal/depindex"
	"github.com/ralt/rpmorder/internal/models"
)

// Relate resolves the requirements of pkgs against pkgs alone. Requirements
// satisfied outside the subset are skipped rather than reported. It is used
// to order a subset of a transaction on its own.
func Relate(cfg *config.Config, pkgs []*models.Package) []Resolution {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	index := depindex.New(cfg)
	for _, pkg := range pkgs {
		index.Add(pkg)
	}

	var resolutions []Resolution
	for _, pkg := range pkgs {
		for _, dep := range pkg.Requires {
			if cfg.IsPseudoRequire(dep) {
				continue
			}
			if providers := index.ResolveDep(dep, ""); len(providers) > 0 {
				resolutions = append(resolutions, Resolution{Package: pkg, Dep: dep, Providers: providers})
			}
		}
	}
	return resolutions
}
