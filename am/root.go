package am

import (
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"

	"github.com/teranos/dtsgen/errors"
)

// ResolveProjectRoot returns the absolute project root.
//
// A configured root wins (relative to start). Otherwise the root of the git
// worktree containing start is used, and without a repository start itself.
func ResolveProjectRoot(configured, start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(err, "failed to get working directory")
		}
		start = wd
	}

	if configured != "" {
		if !filepath.IsAbs(configured) {
			configured = filepath.Join(start, configured)
		}
		return filepath.Abs(configured)
	}

	repo, err := git.PlainOpenWithOptions(start, &git.PlainOpenOptions{DetectDotGit: true})
	if err == nil {
		wt, err := repo.Worktree()
		if err == nil {
			return filepath.Abs(wt.Filesystem.Root())
		}
	} else if !errors.Is(err, git.ErrRepositoryNotExists) {
		return "", errors.Wrapf(err, "failed to open git repository at %s", start)
	}

	return filepath.Abs(start)
}

// ProjectRoot resolves the root for a loaded config.
func (c *Config) ProjectRoot() (string, error) {
	start := ""
	if c.File != "" {
		start = c.Dir()
	}
	return ResolveProjectRoot(c.Project.Root, start)
}
