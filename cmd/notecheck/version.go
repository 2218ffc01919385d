package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

const modulePath = "github.com/agentworkforce/notecheck"

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the notecheck version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "notecheck %s\nmodule: %s\n", version, modulePath)
			return nil
		},
	}
}
