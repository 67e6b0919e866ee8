package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// RPM leads start with 0xED 0xAB 0xEE 0xDB, followed by major and minor
// version bytes and a 16 bit type: 0 binary, 1 source
var rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

const (
	rpmLeadTypeOffset = 6
	rpmTypeSource     = 1
)

var primarySuffixes = []string{".xml", ".xml.gz", ".xml.xz", ".xml.zst"}

// DetectKind classifies path from its magic bytes, its name or, for
// directories, the presence of repodata/repomd.xml
func DetectKind(path string) (SourceKind, error) {
	info, err := os.Stat(path)
	if err != nil {
		return KindUnknown, err
	}

	if info.IsDir() {
		if _, err := os.Stat(filepath.Join(path, "repodata", "repomd.xml")); err == nil {
			return KindRepo, nil
		}
		return KindDir, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	header := make([]byte, 96)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		return KindUnknown, err
	}
	header = header[:n]

	base := filepath.Base(path)

	if bytes.HasPrefix(header, rpmMagic) {
		if len(header) > rpmLeadTypeOffset+1 && header[rpmLeadTypeOffset+1] == rpmTypeSource {
			return KindSourceRpm, nil
		}
		return KindRpm, nil
	}
	if strings.HasSuffix(base, ".src.rpm") {
		return KindSourceRpm, nil
	}
	if strings.HasSuffix(base, ".rpm") {
		return KindRpm, nil
	}

	if strings.Contains(base, "primary") {
		for _, suffix := range primarySuffixes {
			if strings.HasSuffix(base, suffix) {
				return KindPrimary, nil
			}
		}
	}

	return KindUnknown, nil
}
