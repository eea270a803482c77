// Package commands implements the dtsgen CLI.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

// NewRootCmd builds the dtsgen command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "dtsgen",
		Short: "dtsgen - TypeScript declaration builder",
		Long: `dtsgen - build the declaration files a library ships next to its bundles.

Every [[targets]] entry in dtsgen.toml produces one .d.ts file in the dist
directory. Plain targets copy a declaration file with its import paths
rewritten to the built layout; plugin targets load the plugin and declare
the parsers it exports.

Examples:
  dtsgen build                          # Build every target
  dtsgen build --only src/index.d.ts    # Build one target
  dtsgen check                          # Fail when dist is stale
  dtsgen watch                          # Rebuild on change
  dtsgen plugins inspect src/plugins/babel.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbosity, _ := cmd.Flags().GetCount("verbose")
			jsonLog, _ := cmd.Flags().GetBool("json-log")
			if err := logger.Initialize(jsonLog, verbosity); err != nil {
				return errors.Wrap(err, "failed to initialize logger")
			}
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "Path to dtsgen.toml (default: search upward from the working directory)")
	root.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	root.PersistentFlags().Bool("json-log", false, "Write logs as JSON")

	root.AddCommand(newBuildCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newPluginsCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newVersionCmd())

	return root
}
