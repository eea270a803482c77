// Package am loads dtsgen.toml, the project's build configuration.
//
//	[project]
//	dist = "dist"
//	core_version = "3.0.0"
//
//	[plugin]
//	exec = "node scripts/plugin-manifest.mjs"
//
//	[[targets]]
//	input = "src/index.d.ts"
//	output = "index.d.ts"
//
//	[[targets]]
//	input = "src/plugins/babel.js"
//	output = "plugins/babel.d.ts"
//	plugin = true
package am

import (
	"path/filepath"

	"github.com/teranos/dtsgen/dts"
)

// ConfigFileName is the file searched for when no --config is given
const ConfigFileName = "dtsgen.toml"

// Config represents the dtsgen build configuration
type Config struct {
	Project ProjectConfig  `mapstructure:"project"`
	Build   BuildConfig    `mapstructure:"build"`
	Plugin  PluginConfig   `mapstructure:"plugin"`
	Log     LogConfig      `mapstructure:"log"`
	Targets []TargetConfig `mapstructure:"targets"`

	// File is the config file the values were read from ("" if none)
	File string `mapstructure:"-"`
}

// ProjectConfig locates the project
type ProjectConfig struct {
	Root        string `mapstructure:"root"`         // empty = git worktree root, else the config file's directory
	Dist        string `mapstructure:"dist"`         // relative to root unless absolute
	CoreVersion string `mapstructure:"core_version"` // checked against plugin core constraints
}

// BuildConfig configures the build runner
type BuildConfig struct {
	Concurrency int `mapstructure:"concurrency"` // targets built in parallel (default: 4)
}

// PluginConfig configures plugin loading
type PluginConfig struct {
	Exec string `mapstructure:"exec"` // command printing a script plugin's manifest; empty disables
}

// LogConfig configures logging defaults. CLI flags take precedence.
type LogConfig struct {
	JSON  bool   `mapstructure:"json"`
	Theme string `mapstructure:"theme"` // everforest, gruvbox
}

// TargetConfig is one [[targets]] entry
type TargetConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
	Plugin bool   `mapstructure:"plugin"`
}

// BuildTargets converts the configured targets, in file order.
func (c *Config) BuildTargets() []dts.BuildTarget {
	targets := make([]dts.BuildTarget, 0, len(c.Targets))
	for _, t := range c.Targets {
		targets = append(targets, dts.BuildTarget{
			Input: filepath.ToSlash(t.Input),
			Output: dts.Output{
				File:     filepath.ToSlash(t.Output),
				IsPlugin: t.Plugin,
			},
		})
	}
	return targets
}

// Dir is the directory relative paths in the config are resolved from.
func (c *Config) Dir() string {
	if c.File == "" {
		return "."
	}
	return filepath.Dir(c.File)
}

// DistDir returns the absolute dist directory for a resolved project root.
func (c *Config) DistDir(root string) string {
	if filepath.IsAbs(c.Project.Dist) {
		return filepath.Clean(c.Project.Dist)
	}
	return filepath.Join(root, c.Project.Dist)
}
