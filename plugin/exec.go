package plugin

import (
	"bytes"
	"context"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/logger"
)

// ExecLoader loads script plugins (.js, .mjs, .cjs) by running an external
// command that prints the plugin's manifest as JSON on stdout. The plugin's
// file URL is appended as the last argument:
//
//	node scripts/plugin-manifest.mjs file:///repo/src/plugins/babel.js
type ExecLoader struct {
	// Command is split like a shell would (quotes respected)
	Command string

	// Dir is the working directory for the command (project root)
	Dir string
}

// NewExecLoader creates a script loader. An empty command never loads
// anything; the registry then reports ErrNoLoader for script plugins.
func NewExecLoader(command, dir string) *ExecLoader {
	return &ExecLoader{Command: command, Dir: dir}
}

func (l *ExecLoader) Name() string { return "exec" }

func (l *ExecLoader) Supports(path string) bool {
	if strings.TrimSpace(l.Command) == "" {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".mjs", ".cjs":
		return true
	}
	return false
}

func (l *ExecLoader) Load(ctx context.Context, path string) (Plugin, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Mark(errors.Newf("plugin not found: %s", path), errors.ErrNotFound)
		}
		return nil, errors.Wrapf(err, "failed to stat %s", path)
	}

	args, err := shellquote.Split(l.Command)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid plugin.exec command %q", l.Command)
	}
	if len(args) == 0 {
		return nil, errors.New("plugin.exec command is empty")
	}
	args = append(args, FileURL(path))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = l.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, errors.Wrapf(err, "plugin command failed for %s", path)
		}
		return nil, errors.Wrapf(err, "plugin command failed for %s: %s", path, msg)
	}

	if logger.TraceEnabled() {
		logger.LoggerFromContext(ctx).Debugw("Plugin command finished",
			logger.FieldLoader, l.Name(),
			logger.FieldPlugin, path,
			logger.FieldSize, stdout.Len(),
			"stderr", strings.TrimSpace(stderr.String()),
		)
	}

	m, err := DecodeManifest(stdout.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "invalid manifest printed for %s", path)
	}
	return New(withDefaultName(m, path)), nil
}

// FileURL returns the file:// URL for an absolute path.
func FileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive paths
		u.Path = "/" + u.Path
	}
	return u.String()
}
