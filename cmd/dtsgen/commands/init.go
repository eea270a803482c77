package commands

import (
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/am"
	"github.com/teranos/dtsgen/errors"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter dtsgen.toml",
		Long: `Write a starter dtsgen.toml in the working directory, or at --config
when given. An existing file is kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				wd, err := os.Getwd()
				if err != nil {
					return errors.Wrap(err, "failed to get working directory")
				}
				path = filepath.Join(wd, am.ConfigFileName)
			}

			if err := am.WriteDefault(afero.NewOsFs(), path, force); err != nil {
				return err
			}
			pterm.Success.Printfln("Wrote %s", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
