package repomd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/signer"
	"github.com/ralt/rpmorder/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	repodataDir = "repodata"
	repomdFile  = "repomd.xml"
	sigSuffix   = ".asc"
)

// WriteRepo writes dir/repodata with a gzipped primary.xml and repomd.xml.
// When s is not nil repomd.xml is signed into repomd.xml.asc.
func WriteRepo(dir string, pkgs []*models.Package, s signer.Signer) error {
	now := time.Now().Unix()
	metaDir := filepath.Join(dir, repodataDir)
	if err := utils.EnsureDir(metaDir); err != nil {
		return err
	}

	var primary bytes.Buffer
	if err := WritePrimary(&primary, pkgs, now); err != nil {
		return fmt.Errorf("failed to generate primary.xml: %w", err)
	}

	primaryGz, err := utils.GzipCompress(primary.Bytes())
	if err != nil {
		return fmt.Errorf("failed to compress primary.xml: %w", err)
	}

	checksum, err := utils.CalculateChecksum(primaryGz, "sha256")
	if err != nil {
		return err
	}
	openChecksum, err := utils.CalculateChecksum(primary.Bytes(), "sha256")
	if err != nil {
		return err
	}

	href := fmt.Sprintf("%s/%s-primary.xml.gz", repodataDir, checksum)
	if err := utils.WriteFile(filepath.Join(dir, href), primaryGz, 0644); err != nil {
		return fmt.Errorf("failed to write primary.xml.gz: %w", err)
	}

	md := repomd{
		Xmlns:    nsRepo,
		XmlnsRpm: nsRpm,
		Revision: now,
		Data: []repomdData{
			{
				Type:         "primary",
				Checksum:     repomdChecksum{Type: "sha256", Value: checksum},
				OpenChecksum: repomdChecksum{Type: "sha256", Value: openChecksum},
				Location:     repomdLocation{Href: href},
				Timestamp:    now,
				Size:         int64(len(primaryGz)),
				OpenSize:     int64(primary.Len()),
			},
		},
	}

	mdBytes, err := xml.MarshalIndent(md, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to generate repomd.xml: %w", err)
	}
	mdBytes = append([]byte(xml.Header), mdBytes...)

	mdPath := filepath.Join(metaDir, repomdFile)
	if err := utils.WriteFile(mdPath, mdBytes, 0644); err != nil {
		return fmt.Errorf("failed to write repomd.xml: %w", err)
	}

	if s != nil {
		sig, err := s.SignDetached(mdBytes)
		if err != nil {
			return fmt.Errorf("failed to sign repomd.xml: %w", err)
		}
		if err := utils.WriteFile(mdPath+sigSuffix, sig, 0644); err != nil {
			return fmt.Errorf("failed to write repomd.xml.asc: %w", err)
		}
	}

	logrus.Infof("Wrote rpm-md metadata for %d packages to %s", len(pkgs), metaDir)
	return nil
}

// LoadRepo reads the package set of the repository rooted at dir. When v is
// not nil repomd.xml must carry a valid detached signature.
func LoadRepo(dir string, v signer.Verifier) ([]*models.Package, error) {
	mdPath := filepath.Join(dir, repodataDir, repomdFile)
	mdBytes, err := os.ReadFile(mdPath)
	if err != nil {
		return nil, loadError(dir, err)
	}

	if v != nil {
		sig, err := os.ReadFile(mdPath + sigSuffix)
		if err != nil {
			return nil, &models.TxnError{Type: models.ErrSignature, Package: dir, Err: err}
		}
		who, err := v.VerifyDetached(mdBytes, sig)
		if err != nil {
			return nil, &models.TxnError{Type: models.ErrSignature, Package: dir, Err: err}
		}
		logrus.Debugf("repomd.xml of %s signed by %s", dir, who)
	}

	var md repomd
	if err := xml.Unmarshal(mdBytes, &md); err != nil {
		return nil, loadError(dir, fmt.Errorf("failed to decode repomd.xml: %w", err))
	}

	for _, data := range md.Data {
		if data.Type != "primary" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(data.Location.Href)))
		if err != nil {
			return nil, loadError(dir, err)
		}

		if data.Checksum.Value != "" {
			sum, err := utils.CalculateChecksum(raw, data.Checksum.Type)
			if err != nil {
				return nil, loadError(dir, err)
			}
			if !strings.EqualFold(sum, strings.TrimSpace(data.Checksum.Value)) {
				return nil, loadError(dir, fmt.Errorf("checksum mismatch for %s", data.Location.Href))
			}
		}

		plain, err := utils.Decompress(raw, data.Location.Href)
		if err != nil {
			return nil, loadError(dir, err)
		}

		pkgs, err := ReadPrimary(bytes.NewReader(plain))
		if err != nil {
			return nil, loadError(dir, err)
		}
		logrus.Debugf("Loaded %d packages from %s", len(pkgs), dir)
		return pkgs, nil
	}

	return nil, loadError(dir, fmt.Errorf("repomd.xml lists no primary metadata"))
}

// OpenPrimary reads a standalone primary.xml file, possibly compressed
func OpenPrimary(path string) ([]*models.Package, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, loadError(path, err)
	}
	plain, err := utils.Decompress(raw, path)
	if err != nil {
		return nil, loadError(path, err)
	}
	pkgs, err := ReadPrimary(bytes.NewReader(plain))
	if err != nil {
		return nil, loadError(path, err)
	}
	return pkgs, nil
}

func loadError(source string, err error) error {
	return &models.TxnError{Type: models.ErrMetadataLoad, Package: source, Err: err}
}
