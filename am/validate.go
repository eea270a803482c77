package am

import (
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/dtsgen/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Build.Concurrency <= 0 {
		return errors.NewInvalidConfigError("build.concurrency must be > 0, got %d", c.Build.Concurrency)
	}

	if c.Project.Dist == "" {
		return errors.NewInvalidConfigError("project.dist cannot be empty")
	}

	if c.Project.CoreVersion != "" {
		if _, err := semver.NewVersion(c.Project.CoreVersion); err != nil {
			return errors.NewInvalidConfigError("project.core_version %q is not a semantic version", c.Project.CoreVersion)
		}
	}

	outputs := make(map[string]int, len(c.Targets))
	for i, t := range c.Targets {
		if strings.TrimSpace(t.Input) == "" {
			return errors.NewInvalidConfigError("targets[%d].input cannot be empty", i)
		}
		if strings.TrimSpace(t.Output) == "" {
			return errors.NewInvalidConfigError("targets[%d].output cannot be empty (input %s)", i, t.Input)
		}

		out := filepath.ToSlash(filepath.Clean(t.Output))
		if filepath.IsAbs(t.Output) || strings.HasPrefix(t.Output, "/") {
			return errors.NewInvalidConfigError("targets[%d].output must be relative to project.dist, got %s", i, t.Output)
		}
		if out == ".." || strings.HasPrefix(out, "../") {
			return errors.NewInvalidConfigError("targets[%d].output escapes project.dist: %s", i, t.Output)
		}

		if prev, dup := outputs[out]; dup {
			return errors.NewInvalidConfigError("targets[%d] and targets[%d] both write %s", prev, i, out)
		}
		outputs[out] = i
	}

	return nil
}
