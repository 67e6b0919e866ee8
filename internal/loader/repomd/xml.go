package repomd

import (
	"encoding/xml"

	"github.com/ralt/rpmorder/internal/models"
)

const (
	nsCommon = "http://linux.duke.edu/metadata/common"
	nsRepo   = "http://linux.duke.edu/metadata/repo"
	nsRpm    = "http://linux.duke.edu/metadata/rpm"
)

// Output structures. encoding/xml writes prefixed names literally, so the
// rpm: elements are spelled out here and read back through the input
// structures below, which match on local names.

type metadata struct {
	XMLName       xml.Name `xml:"metadata"`
	Xmlns         string   `xml:"xmlns,attr"`
	XmlnsRpm      string   `xml:"xmlns:rpm,attr"`
	PackagesCount int      `xml:"packages,attr"`
	Packages      []xmlPkg `xml:"package"`
}

type xmlPkg struct {
	Type     string      `xml:"type,attr"`
	Name     string      `xml:"name"`
	Arch     string      `xml:"arch"`
	Version  xmlVersion  `xml:"version"`
	Checksum xmlChecksum `xml:"checksum"`
	Summary  string      `xml:"summary"`
	Time     xmlTime     `xml:"time"`
	Size     xmlSize     `xml:"size"`
	Location xmlLocation `xml:"location"`
	Format   xmlFormat   `xml:"format"`
}

type xmlVersion struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type xmlChecksum struct {
	Type  string `xml:"type,attr"`
	Pkgid string `xml:"pkgid,attr,omitempty"`
	Value string `xml:",chardata"`
}

type xmlTime struct {
	File  int64 `xml:"file,attr"`
	Build int64 `xml:"build,attr"`
}

type xmlSize struct {
	Package   int64 `xml:"package,attr"`
	Installed int64 `xml:"installed,attr"`
	Archive   int64 `xml:"archive,attr"`
}

type xmlLocation struct {
	Href string `xml:"href,attr"`
}

type xmlFormat struct {
	License   string      `xml:"rpm:license,omitempty"`
	Provides  *xmlEntries `xml:"rpm:provides,omitempty"`
	Requires  *xmlEntries `xml:"rpm:requires,omitempty"`
	Conflicts *xmlEntries `xml:"rpm:conflicts,omitempty"`
	Obsoletes *xmlEntries `xml:"rpm:obsoletes,omitempty"`
	Files     []xmlFile   `xml:"file"`
}

type xmlEntries struct {
	Entries []xmlEntry `xml:"rpm:entry"`
}

type xmlEntry struct {
	Name  string `xml:"name,attr"`
	Flags string `xml:"flags,attr,omitempty"`
	Epoch string `xml:"epoch,attr,omitempty"`
	Ver   string `xml:"ver,attr,omitempty"`
	Rel   string `xml:"rel,attr,omitempty"`
	Pre   string `xml:"pre,attr,omitempty"`
}

type xmlFile struct {
	Type string `xml:"type,attr,omitempty"`
	Path string `xml:",chardata"`
}

// Input structures

type inMetadata struct {
	Packages []inPkg `xml:"package"`
}

type inPkg struct {
	Type     string      `xml:"type,attr"`
	Name     string      `xml:"name"`
	Arch     string      `xml:"arch"`
	Version  xmlVersion  `xml:"version"`
	Checksum xmlChecksum `xml:"checksum"`
	Summary  string      `xml:"summary"`
	Time     xmlTime     `xml:"time"`
	Size     xmlSize     `xml:"size"`
	Location xmlLocation `xml:"location"`
	Format   inFormat    `xml:"format"`
}

// inFormat collects the dependency tables of a package by element name.
// Tables of kinds the planner does not track (suggests, recommends and the
// like) are skipped.
type inFormat struct {
	License string
	Deps    map[models.DepKind][]xmlEntry
	Files   []xmlFile
}

func (f *inFormat) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.EndElement:
			return nil
		case xml.StartElement:
			if err := f.decodeChild(d, t); err != nil {
				return err
			}
		}
	}
}

func (f *inFormat) decodeChild(d *xml.Decoder, t xml.StartElement) error {
	switch t.Name.Local {
	case "license":
		return d.DecodeElement(&f.License, &t)
	case "file":
		var file xmlFile
		if err := d.DecodeElement(&file, &t); err != nil {
			return err
		}
		f.Files = append(f.Files, file)
		return nil
	}

	kind, err := models.ParseDepKind(t.Name.Local)
	if err != nil {
		return d.Skip()
	}
	var table struct {
		Entries []xmlEntry `xml:"entry"`
	}
	if err := d.DecodeElement(&table, &t); err != nil {
		return err
	}
	if f.Deps == nil {
		f.Deps = make(map[models.DepKind][]xmlEntry)
	}
	f.Deps[kind] = append(f.Deps[kind], table.Entries...)
	return nil
}

type repomd struct {
	XMLName  xml.Name     `xml:"repomd"`
	Xmlns    string       `xml:"xmlns,attr"`
	XmlnsRpm string       `xml:"xmlns:rpm,attr"`
	Revision int64        `xml:"revision"`
	Data     []repomdData `xml:"data"`
}

type repomdData struct {
	Type         string         `xml:"type,attr"`
	Checksum     repomdChecksum `xml:"checksum"`
	OpenChecksum repomdChecksum `xml:"open-checksum"`
	Location     repomdLocation `xml:"location"`
	Timestamp    int64          `xml:"timestamp"`
	Size         int64          `xml:"size"`
	OpenSize     int64          `xml:"open-size"`
}

type repomdChecksum struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type repomdLocation struct {
	Href string `xml:"href,attr"`
}
