package cli

import (
	"fmt"

	"github.com/ralt/rpmorder/internal/evr"
	"github.com/spf13/cobra"
)

// NewVercmpCmd creates the vercmp command
func NewVercmpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vercmp EVR1 EVR2",
		Short: "Compare two [epoch:]version[-release] strings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			op := "=="
			if c := evr.Compare(args[0], args[1]); c < 0 {
				op = "<"
			} else if c > 0 {
				op = ">"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", args[0], op, args[1])
			return nil
		},
	}
}
