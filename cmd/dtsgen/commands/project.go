package commands

import (
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/teranos/dtsgen/am"
	"github.com/teranos/dtsgen/dts"
	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
	"github.com/teranos/dtsgen/plugin"
	"github.com/teranos/dtsgen/version"
)

// project is everything a command needs to build
type project struct {
	cfg      *am.Config
	root     string
	dist     string
	fs       afero.Fs
	registry *plugin.Registry
	emitter  *dts.Emitter
}

// loadProject reads and validates the configuration and wires the plugin
// registry and emitter for it.
func loadProject(cmd *cobra.Command) (*project, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := am.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		if cfg.File != "" {
			return nil, errors.Wrapf(err, "invalid %s", cfg.File)
		}
		return nil, err
	}
	applyLogConfig(cmd, cfg)

	root, err := cfg.ProjectRoot()
	if err != nil {
		return nil, err
	}

	if err := dts.DefaultReplacements.Validate(); err != nil {
		return nil, errors.AssertionFailedf("compiled-in replacements are inconsistent: %v", err)
	}

	coreVersion := cfg.Project.CoreVersion
	if coreVersion == "" {
		coreVersion = version.CoreVersion
	}

	fs := afero.NewOsFs()
	registry := plugin.NewRegistry(root, coreVersion, logger.Logger)
	registry.RegisterLoader(plugin.NewDescriptorLoader(fs))
	registry.RegisterLoader(plugin.NewTOMLDescriptorLoader(fs))
	registry.RegisterLoader(plugin.NewWasmLoader(fs))
	registry.RegisterLoader(plugin.NewExecLoader(cfg.Plugin.Exec, root))

	dist := cfg.DistDir(root)
	logger.Debugw("Loaded project",
		logger.FieldFile, cfg.File,
		logger.FieldRoot, root,
		logger.FieldPath, dist,
		logger.FieldCount, len(cfg.Targets),
	)

	return &project{
		cfg:      cfg,
		root:     root,
		dist:     dist,
		fs:       fs,
		registry: registry,
		emitter:  dts.NewEmitter(fs, root, dist, registry),
	}, nil
}

// applyLogConfig honours log settings from dtsgen.toml. --json-log wins
// over log.json.
func applyLogConfig(cmd *cobra.Command, cfg *am.Config) {
	if cfg.Log.Theme != "" {
		logger.SetTheme(cfg.Log.Theme)
	}
	if cfg.Log.JSON && !cmd.Flags().Changed("json-log") && !logger.JSONOutput {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(true, verbosity); err != nil {
			logger.Warnw("Failed to switch to JSON logging", logger.FieldError, err)
		}
	}
}

// selectTargets filters targets by input, keeping configured order. Every
// requested input must match a target.
func selectTargets(targets []dts.BuildTarget, only []string) ([]dts.BuildTarget, error) {
	if len(only) == 0 {
		return targets, nil
	}

	want := make(map[string]bool, len(only))
	for _, in := range only {
		want[in] = true
	}

	found := make(map[string]bool, len(only))
	var selected []dts.BuildTarget
	for _, t := range targets {
		if want[t.Input] {
			selected = append(selected, t)
			found[t.Input] = true
		}
	}
	for _, in := range only {
		if found[in] {
			continue
		}
		return nil, errors.WithHint(
			errors.Newf("no target with input %s", in),
			"inputs are matched exactly against [[targets]] input in dtsgen.toml",
		)
	}
	return selected, nil
}
