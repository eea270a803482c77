package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/dts"
)

func newPluginsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugins",
		Short: "Inspect plugin modules",
	}
	cmd.AddCommand(newPluginsInspectCmd())
	return cmd
}

// pluginSummary is the JSON shape of `plugins inspect --json`
type pluginSummary struct {
	Input    string   `json:"input"`
	Name     string   `json:"name"`
	Version  string   `json:"version,omitempty"`
	Core     string   `json:"core,omitempty"`
	Parsers  []string `json:"parsers"`
	Printers []string `json:"printers"`
}

func newPluginsInspectCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "inspect <input>...",
		Short: "Load plugins and show the capabilities they export",
		Long: `Load each plugin the way a build would and print its manifest: name,
version, core constraint, and parsers in declared order with the key each
one gets in the generated declaration.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadProject(cmd)
			if err != nil {
				return err
			}

			var summaries []pluginSummary
			for _, input := range args {
				pl, err := p.registry.Load(cmd.Context(), input)
				if err != nil {
					return err
				}
				m := pl.Manifest()
				summaries = append(summaries, pluginSummary{
					Input:    input,
					Name:     m.Name,
					Version:  m.Version,
					Core:     m.Core,
					Parsers:  nonNil(m.Capabilities.Parsers.Names()),
					Printers: nonNil(m.Capabilities.Printers.Names()),
				})
			}

			if jsonOutput {
				output, err := json.MarshalIndent(summaries, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			}

			for _, s := range summaries {
				printSummary(s)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Output manifests as JSON")
	return cmd
}

func printSummary(s pluginSummary) {
	pterm.DefaultSection.Println(s.Input)
	pterm.Printfln("Name:     %s", s.Name)
	if s.Version != "" {
		pterm.Printfln("Version:  %s", s.Version)
	}
	if s.Core != "" {
		pterm.Printfln("Core:     %s", s.Core)
	}
	if len(s.Printers) > 0 {
		pterm.Printfln("Printers: %s", strings.Join(s.Printers, ", "))
	}

	if len(s.Parsers) == 0 {
		pterm.Warning.Println("No parsers: the generated declaration is empty")
		return
	}

	data := pterm.TableData{{"#", "Parser", "Declared as"}}
	for i, name := range s.Parsers {
		data = append(data, []string{fmt.Sprint(i + 1), name, dts.FormatKey(name)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Println(err.Error())
	}
}

func nonNil(names []string) []string {
	if names == nil {
		return []string{}
	}
	return names
}
