package cli

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rpmorder",
		Short: "Resolve and order rpm package transactions",
		Long: `Rpmorder plans rpm transactions without touching the system. It checks
that a set of installs, updates and erases is consistent against an
installed package set, then prints the order the operations must run in.

Package sources can be:
  - single .rpm files or directories of them
  - primary.xml files (plain, .gz, .xz or .zst)
  - rpm-md repositories (a directory with repodata/repomd.xml)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.InfoLevel)
			}
		},
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(NewPlanCmd())
	rootCmd.AddCommand(NewIndexCmd())
	rootCmd.AddCommand(NewVercmpCmd())

	return rootCmd
}
