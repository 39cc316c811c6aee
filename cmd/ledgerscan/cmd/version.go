package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/ledgerscan/internal/version"
)

func newVersionCommand() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Printing the version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				v, commit, built := version.Info()
				data, err := json.MarshalIndent(map[string]string{
					"version":    v,
					"commit":     commit,
					"build_date": built,
				}, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ledgerscan %s\n", version.String())
			return err
		},
	}
	versionCmd.Flags().Bool("json", false, "print version information as JSON")
	return versionCmd
}
