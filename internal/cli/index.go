package cli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ralt/rpmorder/internal/loader/repomd"
	"github.com/ralt/rpmorder/internal/loader/rpmfile"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/scanner"
	"github.com/ralt/rpmorder/internal/signer"
	"github.com/ralt/rpmorder/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type indexOptions struct {
	Dir           string
	Output        string
	Repo          bool
	GPGKeyPath    string
	GPGPassphrase string
}

// NewIndexCmd creates the index command
func NewIndexCmd() *cobra.Command {
	var opts indexOptions

	cmd := &cobra.Command{
		Use:   "index DIR",
		Short: "Write package metadata for a directory of rpm files",
		Long: `Scans DIR for binary rpm files and writes their metadata, either as a
standalone primary.xml (compressed according to the -o extension) usable
as an --installed snapshot, or with --repo as rpm-md repodata inside DIR.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Dir = args[0]
			if err := validateIndexOptions(&opts); err != nil {
				return err
			}
			return runIndex(cmd.Context(), &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "primary.xml.gz", "Output primary.xml path")
	cmd.Flags().BoolVar(&opts.Repo, "repo", false, "Write repodata/ into DIR instead of a primary.xml file")
	cmd.Flags().StringVarP(&opts.GPGKeyPath, "gpg-key", "k", "", "Path to GPG private key used to sign repomd.xml")
	cmd.Flags().StringVarP(&opts.GPGPassphrase, "gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}

func validateIndexOptions(opts *indexOptions) error {
	if opts.Dir == "" {
		return &models.TxnError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("directory is required")}
	}
	if opts.GPGKeyPath != "" && !opts.Repo {
		return &models.TxnError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("--gpg-key requires --repo")}
	}
	if !opts.Repo && opts.Output == "" {
		return &models.TxnError{Type: models.ErrInvalidConfig, Err: fmt.Errorf("output path is required")}
	}
	return nil
}

func runIndex(ctx context.Context, opts *indexOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	found, err := scanner.NewDirScanner().Scan(ctx, opts.Dir)
	if err != nil {
		return &models.TxnError{Type: models.ErrFileOp, Package: opts.Dir, Err: err}
	}

	pkgs := make([]*models.Package, 0, len(found))
	for _, sp := range found {
		pkg, err := rpmfile.ParsePackage(sp.Path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(opts.Dir, sp.Path)
		if err != nil {
			return &models.TxnError{Type: models.ErrFileOp, Package: sp.Path, Err: err}
		}
		pkg.Filename = filepath.ToSlash(rel)
		pkgs = append(pkgs, pkg)
	}

	pkgs, dups := utils.Dedupe(pkgs)
	for _, dup := range dups {
		logrus.Warnf("Skipping duplicate package %s (%s)", dup.NEVRA(), dup.Filename)
	}

	if opts.Repo {
		return writeIndexRepo(opts, pkgs)
	}

	var buf bytes.Buffer
	if err := repomd.WritePrimary(&buf, pkgs, time.Now().Unix()); err != nil {
		return err
	}
	data, err := utils.Compress(buf.Bytes(), opts.Output)
	if err != nil {
		return &models.TxnError{Type: models.ErrFileOp, Package: opts.Output, Err: err}
	}
	if err := utils.WriteFile(opts.Output, data, 0644); err != nil {
		return &models.TxnError{Type: models.ErrFileOp, Package: opts.Output, Err: err}
	}

	logrus.Infof("Indexed %d packages into %s", len(pkgs), opts.Output)
	return nil
}

func writeIndexRepo(opts *indexOptions, pkgs []*models.Package) error {
	var s signer.Signer
	if opts.GPGKeyPath != "" {
		gpg, err := signer.NewGPGSigner(opts.GPGKeyPath, opts.GPGPassphrase)
		if err != nil {
			return &models.TxnError{Type: models.ErrSignature, Package: opts.GPGKeyPath, Err: err}
		}
		s = gpg
	}

	if err := repomd.WriteRepo(opts.Dir, pkgs, s); err != nil {
		return &models.TxnError{Type: models.ErrFileOp, Package: opts.Dir, Err: err}
	}

	if s != nil {
		pub, err := s.PublicKey()
		if err != nil {
			return &models.TxnError{Type: models.ErrSignature, Err: err}
		}
		keyPath := filepath.Join(opts.Dir, "repodata", "repomd.xml.key")
		if err := utils.WriteFile(keyPath, pub, 0644); err != nil {
			return &models.TxnError{Type: models.ErrFileOp, Package: keyPath, Err: err}
		}
		logrus.Info("Repository signed successfully")
	}
	return nil
}
