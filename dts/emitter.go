package dts

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/teranos/dtsgen/errors"
	"github.com/teranos/dtsgen/internal/fsutil"
	"github.com/teranos/dtsgen/logger"
	"github.com/teranos/dtsgen/plugin"
)

// PluginSource loads the plugin for a project-relative input.
// *plugin.Registry satisfies it.
type PluginSource interface {
	Load(ctx context.Context, input string) (plugin.Plugin, error)
}

// Emitter produces declaration artifacts for build targets.
type Emitter struct {
	// Fs is used for every read and write
	Fs afero.Fs

	// Root is the project root inputs are relative to
	Root string

	// Dist is the directory output files are relative to
	Dist string

	Replacements ReplacementMap
	Plugins      PluginSource

	logger *zap.SugaredLogger
}

// NewEmitter creates an emitter using DefaultReplacements.
func NewEmitter(fs afero.Fs, root, dist string, plugins PluginSource) *Emitter {
	return &Emitter{
		Fs:           fs,
		Root:         root,
		Dist:         dist,
		Replacements: DefaultReplacements,
		Plugins:      plugins,
		logger:       logger.ComponentLogger("dts"),
	}
}

// Emit produces the artifact for one target: plugin targets are
// synthesized, all others rewritten. The content is computed in full
// before anything is written.
func (e *Emitter) Emit(ctx context.Context, target BuildTarget) error {
	var content string
	var err error

	if target.Output.IsPlugin {
		content, err = e.synthesizeTarget(ctx, target)
	} else {
		content, err = e.rewriteTarget(target)
	}
	if err != nil {
		return errors.Wrapf(err, "target %s", target)
	}

	out := e.OutputPath(target)
	if err := fsutil.WriteFileAtomic(e.Fs, out, []byte(content)); err != nil {
		return errors.Wrapf(errors.Mark(err, ErrWriteOutput), "target %s", target)
	}

	e.log().Debugw("Wrote declaration",
		logger.FieldInput, target.Input,
		logger.FieldOutput, target.Output.File,
		logger.FieldMode, target.Mode(),
		logger.FieldSize, len(content),
	)
	return nil
}

// Render computes a target's artifact without writing it.
func (e *Emitter) Render(ctx context.Context, target BuildTarget) (string, error) {
	if target.Output.IsPlugin {
		return e.synthesizeTarget(ctx, target)
	}
	return e.rewriteTarget(target)
}

// InputPath is where the target's input is read from.
func (e *Emitter) InputPath(target BuildTarget) string {
	if filepath.IsAbs(target.Input) {
		return target.Input
	}
	return filepath.Join(e.Root, target.Input)
}

// OutputPath is where the target's artifact is written.
func (e *Emitter) OutputPath(target BuildTarget) string {
	return filepath.Join(e.Dist, filepath.FromSlash(target.Output.File))
}

func (e *Emitter) rewriteTarget(target BuildTarget) (string, error) {
	data, err := fsutil.ReadFile(e.Fs, e.InputPath(target))
	if err != nil {
		return "", errors.Mark(err, ErrReadInput)
	}

	replacements := e.Replacements.For(target.Input)
	if len(replacements) > 0 {
		e.log().Debugw("Rewriting imports",
			logger.FieldInput, target.Input,
			logger.FieldCount, len(replacements),
		)
	}
	return Rewrite(string(data), replacements), nil
}

func (e *Emitter) synthesizeTarget(ctx context.Context, target BuildTarget) (string, error) {
	if e.Plugins == nil {
		return "", errors.Mark(errors.New("no plugin source configured"), ErrPluginLoad)
	}

	p, err := e.Plugins.Load(ctx, target.Input)
	if err != nil {
		return "", errors.Mark(err, ErrPluginLoad)
	}

	m := p.Manifest()
	if len(m.Capabilities.Parsers) == 0 {
		e.log().Infow("Plugin exports no parsers, emitting empty declaration",
			logger.FieldInput, target.Input,
			logger.FieldPlugin, m.Name,
		)
	}
	return Synthesize(m.Capabilities), nil
}

func (e *Emitter) log() *zap.SugaredLogger {
	if e.logger == nil {
		return logger.ComponentLogger("dts")
	}
	return e.logger
}
