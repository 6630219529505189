package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"wxdata/pkg/contracts"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(contracts.GetVersionInfo())
			}
			info := contracts.GetVersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", contracts.GetVersionString())
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", info.GitCommit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", info.BuildTime)
			fmt.Fprintf(cmd.OutOrStdout(), "  go:     %s %s/%s\n", info.GoVersion, info.OS, info.Architecture)
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Print as JSON")
	return cmd
}
