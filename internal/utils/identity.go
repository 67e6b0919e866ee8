package utils

import "github.com/ralt/rpmorder/internal/models"

// Dedupe returns pkgs without repeated identities, keeping the first
// occurrence, plus the duplicates that were dropped
func Dedupe(pkgs []*models.Package) (unique, duplicates []*models.Package) {
	seen := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		key := pkg.NEVRA()
		if seen[key] {
			duplicates = append(duplicates, pkg)
			continue
		}
		seen[key] = true
		unique = append(unique, pkg)
	}
	return unique, duplicates
}

// Select returns the packages whose name or full identity equals query
func Select(pkgs []*models.Package, query string) []*models.Package {
	var matches []*models.Package
	for _, pkg := range pkgs {
		if pkg.Name == query || pkg.NEVRA() == query || pkg.NEVR() == query {
			matches = append(matches, pkg)
		}
	}
	return matches
}
