package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentworkforce/notecheck/internal/config"
)

func newInitCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default config.yaml to the config directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.configDir)
			if err != nil {
				return err
			}
			path, written, err := config.WriteDefault(cfg)
			if err != nil {
				return err
			}
			if !written {
				fmt.Fprintf(cmd.OutOrStdout(), "config already exists: %s\n", path)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			fmt.Fprintf(cmd.OutOrStdout(), "place the API token in %s\n", cfg.CredentialsFile)
			return nil
		},
	}
}
