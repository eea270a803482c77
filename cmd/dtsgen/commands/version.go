package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/version"
)

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show dtsgen version information",
		Long:  `Display version, build time, commit hash, core version and platform information for the dtsgen binary.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOutput, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			info := version.Get()

			if jsonOutput {
				output, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(output))
				return nil
			}

			fmt.Fprintln(out, info.String())
			fmt.Fprintf(out, "Core: %s\n", info.CoreVersion)
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)
			fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
			return nil
		},
	}

	cmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
	return cmd
}
