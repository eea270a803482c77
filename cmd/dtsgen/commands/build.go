package commands

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/build"
	"github.com/teranos/dtsgen/errors"
)

func newBuildCmd() *cobra.Command {
	var only []string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build declaration files for every configured target",
		Long: `Build every [[targets]] entry of dtsgen.toml into project.dist.

A failing target stops the build; files already written by other targets
are complete, and nothing partial is left for the failed one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}

			targets, err := selectTargets(p.cfg.BuildTargets(), only)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				pterm.Warning.Println("No targets configured")
				return nil
			}

			runner := build.NewRunner(p.emitter, p.cfg.Build.Concurrency)
			report, err := runner.Run(cmd.Context(), targets)
			if err != nil {
				for _, failed := range report.Failed() {
					pterm.Error.Printfln("%s", failed.Target)
				}
				return err
			}

			pterm.Success.Printfln("Built %d declaration file(s) into %s in %s",
				report.Built(), p.dist, report.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&only, "only", nil, "Build only the targets with these inputs")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that dist matches a fresh build",
		Long: `Render every target in memory and compare it with the file in project.dist.
Exits non-zero and prints a diff when any file is missing or different.
Nothing is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}

			result, err := build.Check(cmd.Context(), p.emitter, p.fs, p.cfg.BuildTargets(), p.cfg.Build.Concurrency)
			if err != nil {
				return err
			}

			if result.UpToDate {
				pterm.Success.Println("Declaration files are up to date")
				return nil
			}

			for _, d := range result.Drifts {
				pterm.Warning.Printfln("%s: %s", d.Target.Output.File, d.Status)
				if d.Diff != "" {
					pterm.Println(d.Diff)
				}
			}
			return errors.WithHint(
				errors.Newf("%d declaration file(s) out of date", len(result.Drifts)),
				"run `dtsgen build` to regenerate them",
			)
		},
	}
}
