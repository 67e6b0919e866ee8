package rpmfile

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/utils"
	"github.com/sassoftware/go-rpmutils"
)

// ParsePackage parses an RPM file and extracts the package record with its
// dependency tables and file list
func ParsePackage(path string) (*models.Package, error) {
	digest, err := utils.FileDigest(path)
	if err != nil {
		return nil, &models.TxnError{Type: models.ErrFileOp, Package: path, Err: err}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &models.TxnError{Type: models.ErrFileOp, Package: path, Err: err}
	}
	defer f.Close()

	pkg, err := Read(f)
	if err != nil {
		return nil, &models.TxnError{Type: models.ErrPackageParse, Package: path, Err: err}
	}

	pkg.Filename = filepath.Base(path)
	pkg.Size = digest.Size
	pkg.SHA256Sum = digest.SHA256
	return pkg, nil
}

// Read parses an RPM stream
func Read(r io.Reader) (*models.Package, error) {
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read RPM: %w", err)
	}
	return fromHeader(rpm.Header)
}

// header is the subset of rpmutils.RpmHeader used here
type header interface {
	Get(tag int) (interface{}, error)
	GetFiles() ([]rpmutils.FileInfo, error)
}

func fromHeader(h header) (*models.Package, error) {
	pkg := &models.Package{
		Name:      stringTag(h, rpmutils.NAME),
		Version:   stringTag(h, rpmutils.VERSION),
		Release:   stringTag(h, rpmutils.RELEASE),
		Arch:      stringTag(h, rpmutils.ARCH),
		Summary:   stringTag(h, rpmutils.SUMMARY),
		License:   stringTag(h, rpmutils.LICENSE),
		BuildTime: firstInt(intsTag(h, rpmutils.BUILDTIME)),
	}
	if pkg.Name == "" {
		return nil, fmt.Errorf("header has no package name")
	}
	if epochs := intsTag(h, tagEpoch); len(epochs) > 0 {
		pkg.Epoch = fmt.Sprint(epochs[0])
	}

	for _, dt := range depTagsByKind {
		deps, err := zipDeps(
			stringsTag(h, dt.tags.name),
			intsTag(h, dt.tags.flags),
			stringsTag(h, dt.tags.version),
		)
		if err != nil {
			return nil, fmt.Errorf("%s of %s: %w", dt.kind, pkg.Name, err)
		}
		for _, dep := range deps {
			if err := pkg.AddDep(dt.kind, dep); err != nil {
				return nil, err
			}
		}
	}

	files, err := h.GetFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to read file list of %s: %w", pkg.Name, err)
	}
	for _, fi := range files {
		pkg.Files = append(pkg.Files, models.FileInfo{
			Path:   fi.Name(),
			Mode:   fileMode(fi.Mode()),
			Size:   fi.Size(),
			Digest: fi.Digest(),
			LinkTo: fi.Linkname(),
		})
	}

	return pkg, nil
}

// zipDeps combines the parallel name/flags/version arrays of a dependency
// table. Flags and versions may be absent, but never of a different length
// when present.
func zipDeps(names []string, flags []int64, versions []string) ([]models.Dependency, error) {
	if len(flags) != 0 && len(flags) != len(names) {
		return nil, fmt.Errorf("%d names but %d flags", len(names), len(flags))
	}
	if len(versions) != 0 && len(versions) != len(names) {
		return nil, fmt.Errorf("%d names but %d versions", len(names), len(versions))
	}

	deps := make([]models.Dependency, 0, len(names))
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dep := models.Dependency{Name: name}
		if len(flags) > 0 {
			dep.Flags = models.DepFlags(uint32(flags[i]))
		}
		if len(versions) > 0 {
			dep.Version = versions[i]
		}
		if dep.Version == "" {
			dep.Flags &^= models.SenseMask
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// fileMode converts a unix st_mode into an fs.FileMode
func fileMode(mode int) fs.FileMode {
	m := fs.FileMode(mode & 0777)
	switch mode & modeTypeMask {
	case modeDir:
		m |= fs.ModeDir
	case modeSymlink:
		m |= fs.ModeSymlink
	case modeFifo:
		m |= fs.ModeNamedPipe
	case modeChar:
		m |= fs.ModeDevice | fs.ModeCharDevice
	case modeBlock:
		m |= fs.ModeDevice
	case modeSocket:
		m |= fs.ModeSocket
	}
	if mode&04000 != 0 {
		m |= fs.ModeSetuid
	}
	if mode&02000 != 0 {
		m |= fs.ModeSetgid
	}
	return m
}

func stringTag(h header, tag int) string {
	val, err := h.Get(tag)
	if err != nil {
		return ""
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	}
	return ""
}

func stringsTag(h header, tag int) []string {
	val, err := h.Get(tag)
	if err != nil {
		return nil
	}

	switch v := val.(type) {
	case []string:
		return v
	case string:
		return []string{v}
	}
	return nil
}

// intsTag normalizes the integer slice types a header may hand back
func intsTag(h header, tag int) []int64 {
	val, err := h.Get(tag)
	if err != nil {
		return nil
	}

	var out []int64
	switch v := val.(type) {
	case []int:
		for _, i := range v {
			out = append(out, int64(i))
		}
	case []int32:
		for _, i := range v {
			out = append(out, int64(i))
		}
	case []uint32:
		for _, i := range v {
			out = append(out, int64(i))
		}
	case []int64:
		out = v
	case []uint64:
		for _, i := range v {
			out = append(out, int64(i))
		}
	case int:
		out = []int64{int64(v)}
	case int64:
		out = []int64{v}
	}
	return out
}

func firstInt(v []int64) int64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}
