// Package repomd reads and writes rpm-md repositories (repodata/repomd.xml
// plus primary.xml) as package sets for planning.
package repomd

import (
	"encoding/xml"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/ralt/rpmorder/internal/evr"
	"github.com/ralt/rpmorder/internal/models"
)

var senseNames = map[models.DepFlags]string{
	models.SenseLess:                        "LT",
	models.SenseLess | models.SenseEqual:    "LE",
	models.SenseEqual:                       "EQ",
	models.SenseGreater | models.SenseEqual: "GE",
	models.SenseGreater:                     "GT",
}

// ReadPrimary decodes an uncompressed primary.xml document
func ReadPrimary(r io.Reader) ([]*models.Package, error) {
	var meta inMetadata
	if err := xml.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("failed to decode primary.xml: %w", err)
	}

	pkgs := make([]*models.Package, 0, len(meta.Packages))
	for _, p := range meta.Packages {
		if p.Type != "" && p.Type != "rpm" {
			continue
		}
		pkg, err := fromXML(p)
		if err != nil {
			return nil, err
		}
		pkgs = append(pkgs, pkg)
	}
	return pkgs, nil
}

func fromXML(p inPkg) (*models.Package, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("package entry without name at %q", p.Location.Href)
	}

	pkg := &models.Package{
		Name:      p.Name,
		Epoch:     p.Version.Epoch,
		Version:   p.Version.Ver,
		Release:   p.Version.Rel,
		Arch:      p.Arch,
		Summary:   p.Summary,
		License:   p.Format.License,
		Filename:  p.Location.Href,
		Size:      p.Size.Package,
		BuildTime: p.Time.Build,
	}
	if p.Checksum.Type == "sha256" {
		pkg.SHA256Sum = strings.TrimSpace(p.Checksum.Value)
	}

	for _, kind := range models.DepKinds {
		for _, e := range p.Format.Deps[kind] {
			dep, err := entryToDep(e)
			if err != nil {
				return nil, fmt.Errorf("%s %s of %s: %w", kind, e.Name, pkg.Name, err)
			}
			if err := pkg.AddDep(kind, dep); err != nil {
				return nil, err
			}
		}
	}

	for _, f := range p.Format.Files {
		fi := models.FileInfo{Path: strings.TrimSpace(f.Path), Mode: 0644}
		switch f.Type {
		case "dir":
			fi.Mode = fs.ModeDir | 0755
		case "ghost":
			continue
		}
		pkg.Files = append(pkg.Files, fi)
	}

	return pkg, nil
}

func entryToDep(e xmlEntry) (models.Dependency, error) {
	dep := models.Dependency{Name: e.Name}
	if e.Pre == "1" {
		dep.Flags |= models.FlagPrereq
	}
	if e.Flags == "" {
		return dep, nil
	}

	sense, err := models.ParseSense(e.Flags)
	if err != nil {
		return dep, err
	}
	dep.Flags |= sense
	dep.Version = evr.EVR{Epoch: e.Epoch, Version: e.Ver, Release: e.Rel}.String()
	return dep, nil
}

func depToEntry(dep models.Dependency) xmlEntry {
	e := xmlEntry{Name: dep.Name}
	if dep.Flags&(models.FlagPrereq|models.FlagScriptPre) != 0 {
		e.Pre = "1"
	}
	if !dep.Versioned() {
		return e
	}
	v := evr.Parse(dep.Version)
	e.Flags = senseNames[dep.Flags.Sense()]
	e.Epoch, e.Ver, e.Rel = v.Epoch, v.Version, v.Release
	return e
}

func entries(deps []models.Dependency) *xmlEntries {
	if len(deps) == 0 {
		return nil
	}
	out := &xmlEntries{}
	for _, dep := range deps {
		out.Entries = append(out.Entries, depToEntry(dep))
	}
	return out
}

func toXML(pkg *models.Package, fileTime int64) xmlPkg {
	epoch := pkg.Epoch
	if epoch == "" {
		epoch = "0"
	}

	x := xmlPkg{
		Type: "rpm",
		Name: pkg.Name,
		Arch: pkg.Arch,
		Version: xmlVersion{
			Epoch: epoch,
			Ver:   pkg.Version,
			Rel:   pkg.Release,
		},
		Checksum: xmlChecksum{
			Type:  "sha256",
			Pkgid: "YES",
			Value: pkg.SHA256Sum,
		},
		Summary: pkg.Summary,
		Time: xmlTime{
			File:  fileTime,
			Build: pkg.BuildTime,
		},
		Size: xmlSize{
			Package:   pkg.Size,
			Installed: pkg.Size,
			Archive:   pkg.Size,
		},
		Location: xmlLocation{
			Href: pkg.Filename,
		},
		Format: xmlFormat{
			License:   pkg.License,
			Provides:  entries(pkg.Deps(models.DepProvides)),
			Requires:  entries(pkg.Deps(models.DepRequires)),
			Conflicts: entries(pkg.Deps(models.DepConflicts)),
			Obsoletes: entries(pkg.Deps(models.DepObsoletes)),
		},
	}

	for _, f := range pkg.Files {
		xf := xmlFile{Path: f.Path}
		if f.IsDir() {
			xf.Type = "dir"
		}
		x.Format.Files = append(x.Format.Files, xf)
	}
	return x
}

// WritePrimary encodes pkgs as a primary.xml document
func WritePrimary(w io.Writer, pkgs []*models.Package, fileTime int64) error {
	meta := metadata{
		Xmlns:         nsCommon,
		XmlnsRpm:      nsRpm,
		PackagesCount: len(pkgs),
	}
	for _, pkg := range pkgs {
		meta.Packages = append(meta.Packages, toXML(pkg, fileTime))
	}

	xmlBytes, err := xml.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(xmlBytes)
	return err
}
