package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ralt/rpmorder/internal/config"
	"github.com/ralt/rpmorder/internal/evr"
	"github.com/ralt/rpmorder/internal/loader"
	"github.com/ralt/rpmorder/internal/models"
	"github.com/ralt/rpmorder/internal/order"
	"github.com/ralt/rpmorder/internal/signer"
	"github.com/ralt/rpmorder/internal/transaction"
	"github.com/ralt/rpmorder/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type planOptions struct {
	ConfigPath        string
	SaveConfigPath    string
	Arch              string
	Protected         []string
	SkipFileConflicts bool
	GPGKeyPath        string
	Output            string

	Installed []string
	Available []string
	Install   []string
	Update    []string
	Erase     []string
}

// NewPlanCmd creates the plan command
func NewPlanCmd() *cobra.Command {
	var opts planOptions

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve a transaction and print its operation order",
		Long: `Loads the installed package set, adds the requested installs, updates
and erases, resolves the transaction and prints the ordered operations.

--install and --update take either package sources (files, directories,
repositories) whose packages are all added, or names/NEVRAs looked up in
the --available sources. --erase takes names or NEVRAs of installed
packages.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validatePlanOptions(&opts); err != nil {
				return err
			}
			return runPlan(cmd.Context(), cmd.OutOrStdout(), &opts)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Installed, "installed", nil, "Source of the installed package set (repeatable)")
	cmd.Flags().StringArrayVar(&opts.Available, "available", nil, "Source of candidate packages (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Install, "install", "i", nil, "Package or source to install (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Update, "update", "u", nil, "Package or source to update to (repeatable)")
	cmd.Flags().StringArrayVarP(&opts.Erase, "erase", "e", nil, "Installed package to erase (repeatable)")

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to YAML configuration")
	cmd.Flags().StringVar(&opts.SaveConfigPath, "save-config", "", "Write the effective configuration to this YAML file")
	cmd.Flags().StringVar(&opts.Arch, "arch", "", "Target architecture (overrides config)")
	cmd.Flags().StringSliceVar(&opts.Protected, "protected", nil, "Package names that may not be obsoleted")
	cmd.Flags().BoolVar(&opts.SkipFileConflicts, "skip-file-conflicts", false, "Do not check for file conflicts")
	cmd.Flags().StringVarP(&opts.GPGKeyPath, "gpg-key", "k", "", "Public key that must have signed repository metadata")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text, json, yaml)")

	return cmd
}

func validatePlanOptions(opts *planOptions) error {
	if len(opts.Install)+len(opts.Update)+len(opts.Erase) == 0 {
		return &models.TxnError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("nothing to do: give at least one of --install, --update or --erase"),
		}
	}
	if _, err := newRenderer(opts.Output); err != nil {
		return &models.TxnError{Type: models.ErrInvalidConfig, Err: err}
	}
	return nil
}

func buildConfig(opts *planOptions) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if opts.ConfigPath != "" {
		loaded, err := config.LoadFromFile(opts.ConfigPath)
		if err != nil {
			return nil, &models.TxnError{Type: models.ErrInvalidConfig, Package: opts.ConfigPath, Err: err}
		}
		cfg = loaded
	}

	cfg.Merge(&config.Config{
		Arch:              opts.Arch,
		Protected:         opts.Protected,
		SkipFileConflicts: opts.SkipFileConflicts,
	})

	if err := cfg.Validate(); err != nil {
		return nil, &models.TxnError{Type: models.ErrInvalidConfig, Err: err}
	}
	return cfg, nil
}

func runPlan(ctx context.Context, out io.Writer, opts *planOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := buildConfig(opts)
	if err != nil {
		return err
	}
	logrus.Debugf("Configuration: %+v", *cfg)
	if opts.SaveConfigPath != "" {
		if err := cfg.SaveToFile(opts.SaveConfigPath); err != nil {
			return &models.TxnError{Type: models.ErrInvalidConfig, Package: opts.SaveConfigPath, Err: err}
		}
		logrus.Infof("Configuration saved to %s", opts.SaveConfigPath)
	}

	var verifier signer.Verifier
	if opts.GPGKeyPath != "" {
		v, err := signer.NewKeyRingVerifier(opts.GPGKeyPath)
		if err != nil {
			return &models.TxnError{Type: models.ErrSignature, Package: opts.GPGKeyPath, Err: err}
		}
		verifier = v
	}

	installed, err := loader.LoadAll(ctx, opts.Installed, loader.Options{Verifier: verifier, Installed: true})
	if err != nil {
		return err
	}
	available, err := loader.LoadAll(ctx, opts.Available, loader.Options{Verifier: verifier})
	if err != nil {
		return err
	}
	logrus.Infof("Loaded %d installed and %d available packages", len(installed), len(available))

	ts := transaction.New(cfg, installed)

	for _, req := range []struct {
		kind    models.OpKind
		queries []string
	}{
		{models.OpInstall, opts.Install},
		{models.OpUpdate, opts.Update},
	} {
		for _, q := range req.queries {
			pkgs, err := candidates(ctx, cfg, available, q, verifier)
			if err != nil {
				return err
			}
			for _, pkg := range pkgs {
				if err := ts.Append(req.kind, pkg); err != nil {
					return err
				}
			}
		}
	}

	for _, q := range opts.Erase {
		matches := utils.Select(installed, q)
		if len(matches) == 0 {
			return &models.TxnError{Type: models.ErrTransaction, Package: q, Err: transaction.ErrNotInstalled}
		}
		for _, pkg := range matches {
			if err := ts.Append(models.OpErase, pkg); err != nil {
				return err
			}
		}
	}

	for _, op := range ts.Operations() {
		logrus.Debugf("Requested %s", op)
	}
	if err := ts.Resolve(); err != nil {
		problems := ts.LastError()
		if problems == nil {
			return err
		}
		fmt.Fprintf(out, "Transaction check failed at %s:\n", problems.Stage)
		for _, p := range problems.Problems() {
			fmt.Fprintf(out, "  %s\n", p)
		}
		return &models.TxnError{Type: models.ErrResolve, Err: fmt.Errorf("%d problems", problems.Len())}
	}

	orderer := order.New(cfg)
	ops, err := orderer.Order(ts)
	if err != nil {
		return err
	}

	r, _ := newRenderer(opts.Output)
	return r.render(out, ts.ID(), ops, orderer.Stats())
}

// candidates resolves an --install/--update argument. An existing path is
// loaded as a package source, anything else is looked up in available and
// narrowed to the best arch-compatible match per name: highest EVR first,
// then the target arch over compatible ones.
func candidates(ctx context.Context, cfg *config.Config, available []*models.Package, query string, v signer.Verifier) ([]*models.Package, error) {
	if _, err := os.Stat(query); err == nil {
		return loader.Load(ctx, query, loader.Options{Verifier: v})
	}

	best := make(map[string]*models.Package)
	var names []string
	for _, pkg := range utils.Select(available, query) {
		if !cfg.Compatible(cfg.Arch, pkg.Arch) {
			continue
		}
		cur, ok := best[pkg.Name]
		if !ok {
			names = append(names, pkg.Name)
			best[pkg.Name] = pkg
			continue
		}
		c := evr.Compare(pkg.EVR(), cur.EVR())
		if c > 0 || (c == 0 && cfg.SameArch(pkg.Arch, cfg.Arch) && !cfg.SameArch(cur.Arch, cfg.Arch)) {
			best[pkg.Name] = pkg
		}
	}
	if len(names) == 0 {
		return nil, &models.TxnError{Type: models.ErrTransaction, Package: query, Err: fmt.Errorf("no available package matches")}
	}

	pkgs := make([]*models.Package, 0, len(names))
	for _, name := range names {
		pkgs = append(pkgs, best[name])
	}
	return pkgs, nil
}
